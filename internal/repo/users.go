package repo

import (
	"context"

	"smsrelay/internal/model"
)

type UserRepository interface {
	// GetByPhone returns the account for phone, or nil when unknown.
	GetByPhone(ctx context.Context, phone string) (*model.User, error)

	// Create stores a new account with an already-hashed password.
	Create(ctx context.Context, phone, hashedPassword, name string) (int64, error)

	// UpdatePassword replaces the stored hash for phone.
	UpdatePassword(ctx context.Context, phone, hashedPassword string) error
}
