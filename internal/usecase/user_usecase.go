package usecase

import (
	"context"
	"errors"
	"strings"

	"rental-scout/internal/domain/user"

	"github.com/google/uuid"
)

var ErrInvalidPreferences = errors.New("invalid preferences")

type UserUsecase interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (user.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, up user.ProfileUpdate) (user.User, error)
	UpdatePreferences(ctx context.Context, userID uuid.UUID, p user.Preferences) (user.User, error)
}

type Users struct {
	users user.Repository
}

func NewUserUsecase(users user.Repository) *Users {
	return &Users{users: users}
}

func (u *Users) GetProfile(ctx context.Context, userID uuid.UUID) (user.User, error) {
	usr, err := u.users.GetByID(ctx, userID)
	if err != nil {
		return user.User{}, err
	}
	return sanitize(usr), nil
}

func (u *Users) UpdateProfile(ctx context.Context, userID uuid.UUID, up user.ProfileUpdate) (user.User, error) {
	if err := u.users.UpdateProfile(ctx, userID, up); err != nil {
		return user.User{}, err
	}

	usr, err := u.users.GetByID(ctx, userID)
	if err != nil {
		return user.User{}, err
	}
	return sanitize(usr), nil
}

func (u *Users) UpdatePreferences(ctx context.Context, userID uuid.UUID, p user.Preferences) (user.User, error) {
	normalized, err := normalizePreferences(p)
	if err != nil {
		return user.User{}, err
	}

	if err := u.users.UpdatePreferences(ctx, userID, normalized); err != nil {
		return user.User{}, err
	}

	usr, err := u.users.GetByID(ctx, userID)
	if err != nil {
		return user.User{}, err
	}
	return sanitize(usr), nil
}

func normalizePreferences(p user.Preferences) (user.Preferences, error) {
	p.Location = strings.TrimSpace(p.Location)
	if p.Location == "" {
		return user.Preferences{}, ErrInvalidPreferences
	}

	if p.MinPrice != nil && *p.MinPrice < 0 {
		return user.Preferences{}, ErrInvalidPreferences
	}
	if p.MaxPrice != nil && *p.MaxPrice < 0 {
		return user.Preferences{}, ErrInvalidPreferences
	}
	if p.MinPrice != nil && p.MaxPrice != nil && *p.MinPrice > *p.MaxPrice {
		return user.Preferences{}, ErrInvalidPreferences
	}
	if p.MinBedrooms != nil && *p.MinBedrooms < 0 {
		return user.Preferences{}, ErrInvalidPreferences
	}
	if p.MinBathrooms != nil && *p.MinBathrooms < 0 {
		return user.Preferences{}, ErrInvalidPreferences
	}

	types := make([]string, 0, len(p.PropertyTypes))
	for _, t := range p.PropertyTypes {
		t = strings.TrimSpace(t)
		if t != "" {
			types = append(types, t)
		}
	}
	p.PropertyTypes = types

	return p, nil
}

func sanitize(u user.User) user.User {
	u.PasswordHash = ""
	return u
}
