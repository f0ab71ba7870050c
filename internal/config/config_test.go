package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Session.CookieName != "qid" {
		t.Errorf("cookie name = %q, want qid", cfg.Session.CookieName)
	}
	if got := cfg.ResetTokenTTL(); got != 72*time.Hour {
		t.Errorf("reset token ttl = %v, want 72h", got)
	}
	if got := cfg.SessionMaxAge(); got < 3650*24*time.Hour {
		t.Errorf("session max age = %v, want about ten years", got)
	}
	if cfg.Database.Driver != DriverMySQL {
		t.Errorf("driver = %q, want %q", cfg.Database.Driver, DriverMySQL)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[app]
port = 5000

[database]
driver = "postgres"

[session]
secret = "from-file"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SESSION_SECRET", "from-env")
	t.Setenv("APP_PORT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.App.Port != 5000 {
		t.Errorf("port = %d, want 5000 (bad env value ignored)", cfg.App.Port)
	}
	if cfg.Database.Driver != DriverPostgres {
		t.Errorf("driver = %q, want postgres", cfg.Database.Driver)
	}
	if cfg.Session.Secret != "from-env" {
		t.Errorf("secret = %q, want from-env", cfg.Session.Secret)
	}
	if cfg.HTTPAddr() != "0.0.0.0:5000" {
		t.Errorf("HTTPAddr() = %q", cfg.HTTPAddr())
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("DB_DRIVER", "oracle")

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for unknown driver")
	}
}

func TestLoadRejectsDefaultSecretInProduction(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		secret  string
		wantErr bool
	}{
		{"prod with default secret", "prod", "", true},
		{"production with default secret", "production", "", true},
		{"prod with own secret", "prod", "s3cret", false},
		{"dev with default secret", "dev", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))
			t.Setenv("APP_ENV", tt.env)
			secret := tt.secret
			if secret == "" {
				secret = defaultSessionSecret
			}
			t.Setenv("SESSION_SECRET", secret)

			_, err := Load()
			if (err != nil) != tt.wantErr {
				t.Errorf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
