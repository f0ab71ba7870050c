package repository

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"lireddit/internal/model"
	"lireddit/internal/testutil"
)

func TestUserCreateDuplicate(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	first := &model.User{Username: "alice", Email: "alice@example.com", PasswordHash: "h"}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	dup := &model.User{Username: "alice", Email: "other@example.com", PasswordHash: "h"}
	err := repo.Create(ctx, dup)
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("Create() duplicate error = %v, want ErrDuplicatedKey", err)
	}
}

func TestUserLookups(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")

	if u, err := repo.GetByUsername(ctx, "alice"); err != nil || u == nil || u.ID != alice.ID {
		t.Errorf("GetByUsername() = %v, %v", u, err)
	}
	if u, err := repo.GetByEmail(ctx, "bob@example.com"); err != nil || u == nil || u.ID != bob.ID {
		t.Errorf("GetByEmail() = %v, %v", u, err)
	}
	if u, err := repo.GetByID(ctx, 404); err != nil || u != nil {
		t.Errorf("GetByID(missing) = %v, %v; want nil, nil", u, err)
	}

	users, err := repo.ListByIDs(ctx, []uint{bob.ID, 404, alice.ID})
	if err != nil {
		t.Fatalf("ListByIDs() error = %v", err)
	}
	if len(users) != 2 {
		t.Errorf("ListByIDs() returned %d users, want 2", len(users))
	}

	if err := repo.UpdatePasswordHash(ctx, alice.ID, "new-hash"); err != nil {
		t.Fatalf("UpdatePasswordHash() error = %v", err)
	}
	reloaded, _ := repo.GetByID(ctx, alice.ID)
	if reloaded.PasswordHash != "new-hash" {
		t.Errorf("password hash = %q, want new-hash", reloaded.PasswordHash)
	}
}
