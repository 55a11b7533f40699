package repository

import (
	"context"

	"emprende/internal/domain/entity"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// Update merges the profile fields that may change after registration (user name, photo).
	Update(ctx context.Context, user *entity.User) error
	Delete(ctx context.Context, id string) error
}
