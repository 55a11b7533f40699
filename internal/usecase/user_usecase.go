package usecase

import (
	"context"
	"strings"
	"time"

	"emprende/internal/domain/entity"
	"emprende/internal/domain/repository"
	"emprende/pkg/errors"
)

type UserUseCase struct {
	userRepo repository.UserRepository
	files    *FileUseCase
}

func NewUserUseCase(userRepo repository.UserRepository, files *FileUseCase) *UserUseCase {
	return &UserUseCase{
		userRepo: userRepo,
		files:    files,
	}
}

type UpdateProfileInput struct {
	UserName string
}

func (uc *UserUseCase) GetUserProfile(ctx context.Context, userID string) (*entity.User, error) {
	return uc.userRepo.GetByID(ctx, userID)
}

func (uc *UserUseCase) GetPublicProfile(ctx context.Context, userID string) (*entity.PublicProfile, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Public(), nil
}

func (uc *UserUseCase) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*entity.User, error) {
	userName := strings.TrimSpace(input.UserName)
	if userName == "" {
		return nil, errors.Validation("user name is required")
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.UserName = userName
	user.UpdatedAt = time.Now().UTC()

	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// UpdatePhoto uploads a profile photo and stores its URL as-is on the profile. The previous photo
// is deleted once the profile points at the new one.
func (uc *UserUseCase) UpdatePhoto(ctx context.Context, userID string, img *ImageUpload) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	metadata, err := uc.files.UploadImage(ctx, userID, img, "users", entity.FileEntityUser, userID)
	if err != nil {
		return nil, err
	}

	previous := user.PhotoURL
	user.PhotoURL = metadata.URL
	user.UpdatedAt = time.Now().UTC()

	if err := uc.userRepo.Update(ctx, user); err != nil {
		uc.files.Discard(ctx, metadata)
		return nil, err
	}

	if previous != metadata.URL {
		uc.files.DiscardURL(ctx, previous)
	}

	return user, nil
}
