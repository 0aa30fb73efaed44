package repository

import (
	"context"
	"errors"
	"testing"

	"vendor-service/internal/model"
	"vendor-service/internal/testutil"
)

func TestUserRepoEmailIsUnique(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepo(testutil.DB(t))

	if err := repo.Create(ctx, &model.User{Name: "A", Email: "a@example.com", PasswordHash: "x"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := repo.Create(ctx, &model.User{Name: "B", Email: " A@Example.com ", PasswordHash: "y"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}

	u, err := repo.GetByEmail(ctx, "A@EXAMPLE.COM")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if u.Name != "A" || u.ExternalID == "" {
		t.Errorf("unexpected user %+v", u)
	}

	if _, err := repo.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
