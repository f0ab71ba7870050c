package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"lireddit/internal/cache"
	"lireddit/internal/model"
	"lireddit/internal/repository"
	"lireddit/internal/testutil"
)

type fakePublisher struct {
	mu   sync.Mutex
	sent []model.Email
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, email model.Email) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, email)
	return nil
}

type authFixture struct {
	svc    *AuthService
	tokens *cache.ResetTokenStore
	mailer *fakePublisher
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	client, _ := testutil.NewTestRedis(t)
	tokens := cache.NewResetTokenStore(client, time.Hour)
	mailer := &fakePublisher{}
	svc := NewAuthService(repository.NewUserRepository(db), tokens, mailer, "http://localhost:3000/")
	svc.hashCost = bcrypt.MinCost
	return authFixture{svc: svc, tokens: tokens, mailer: mailer}
}
