package user_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Additional-Code/furni4/internal/repository/user"
	"github.com/Additional-Code/furni4/internal/testutil"
)

func TestUpsertCreatesThenReplaces(t *testing.T) {
	repo := user.NewRepository(testutil.Migrated(t, testutil.Config(t)))
	ctx := context.Background()

	if _, err := repo.FindByUsername(ctx, "admin"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := repo.Upsert(ctx, "admin", "hash-1", "admin"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Upsert(ctx, "admin", "hash-2", "vendor"); err != nil {
		t.Fatalf("replace: %v", err)
	}

	cred, err := repo.FindByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if cred.PasswordHash != "hash-2" || cred.Role != "vendor" {
		t.Fatalf("unexpected credential %+v", cred)
	}
	if cred.CreatedAt.IsZero() {
		t.Fatalf("created_at not populated")
	}
}

func TestUpsertRejectsBlankUsername(t *testing.T) {
	repo := user.NewRepository(testutil.Migrated(t, testutil.Config(t)))
	if err := repo.Upsert(context.Background(), "  ", "hash", "admin"); err == nil {
		t.Fatalf("expected error")
	}
}
