// Package seed provisions initial database state at install time.
package seed

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/verdant-labs/verdant/errors"
	"github.com/verdant-labs/verdant/models"
	"github.com/verdant-labs/verdant/password"
	"github.com/verdant-labs/verdant/store"
)

// DefaultAdmin describes the account created on an empty installation.
type DefaultAdmin struct {
	Username string
	Email    string
	Password string
}

// Install creates the default admin user when the users table is empty.
// This is the install-time provisioning path: an unreachable identity store
// here is the one failure the caller may treat as fatal, since the service
// cannot serve without it.
func Install(ctx context.Context, users *store.UserStore, hasher password.Hasher, admin DefaultAdmin) error {
	n, err := users.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	hash, err := hasher.Hash(admin.Password)
	if err != nil {
		return err
	}
	u := &models.User{
		ID:           uuid.NewString(),
		Username:     admin.Username,
		Email:        admin.Email,
		Subject:      uuid.NewString(),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := users.Insert(ctx, u); err != nil {
		// Another instance won the race; the admin exists either way.
		if errors.Is(err, errors.ErrDuplicateUser) {
			return nil
		}
		return err
	}
	return nil
}
