package db

import (
	"context"
	"errors"
	"time"

	"github.com/attendhub/attendhub/internal/config"
	"github.com/attendhub/attendhub/internal/domain/user"
	"github.com/attendhub/attendhub/internal/security"
	"github.com/google/uuid"
)

// AdminSeedStore is the slice of the users store the bootstrap step needs.
// Both the postgres and memory repos satisfy it.
type AdminSeedStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Insert(ctx context.Context, u user.User) error
}

// EnsureAdminUser creates the bootstrap admin account when no user with the
// configured admin email exists yet.
func EnsureAdminUser(ctx context.Context, store AdminSeedStore, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	_, err := store.GetByEmail(ctx, cfg.AdminEmail)

	if err == nil {
		return nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	u := user.User{
		ID:           uuid.NewString(),
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		Name:         cfg.AdminName,
		Role:         user.RoleAdmin,
		EmployeeID:   cfg.AdminEmployeeID,
		Department:   cfg.AdminDepartment,
		CreatedAt:    time.Now().UTC(),
	}

	return store.Insert(ctx, u)
}
