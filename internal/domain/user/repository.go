package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("user not found")

type ProfileUpdate struct {
	FirstName           *string
	LastName            *string
	Phone               *string
	EmailAutomated      *bool
	EmailReviewRequired *bool
}

type Repository interface {
	Create(ctx context.Context, u User) error
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// ListUsers returns every known user; the sync batch iterates it.
	ListUsers(ctx context.Context) ([]User, error)

	UpdateProfile(ctx context.Context, id uuid.UUID, up ProfileUpdate) error
	UpdatePreferences(ctx context.Context, id uuid.UUID, p Preferences) error
}
