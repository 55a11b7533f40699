package usecase

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"emprende/internal/domain/entity"
	"emprende/internal/domain/repository"
	"emprende/internal/infrastructure/firebase"
	"emprende/pkg/errors"
	"emprende/pkg/logger"
)

type AuthUseCase struct {
	userRepo     repository.UserRepository
	authProvider AuthProvider
}

func NewAuthUseCase(userRepo repository.UserRepository, authProvider AuthProvider) *AuthUseCase {
	return &AuthUseCase{
		userRepo:     userRepo,
		authProvider: authProvider,
	}
}

type AuthResult struct {
	User         *entity.User `json:"user,omitempty"`
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
}

// Register creates the auth account, then the profile document, then signs the user in.
// A failed profile write deletes the auth account again so the email can be reused.
func (uc *AuthUseCase) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if err := ValidateRegistration(&input); err != nil {
		return nil, err
	}

	uid, err := uc.authProvider.CreateUser(ctx, input.Email, input.Password, input.UserName)
	if err != nil {
		if stderrors.Is(err, firebase.ErrEmailExists) {
			return nil, errors.Conflict("Email already in use", err)
		}
		return nil, errors.Internal("Failed to create user in authentication provider", err)
	}

	now := time.Now().UTC()
	user := &entity.User{
		ID:        uid,
		UserName:  input.UserName,
		Email:     input.Email,
		UserType:  input.UserType,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		logger.Error("Register Error: failed to store profile for %s: %v", uid, err)
		if delErr := uc.authProvider.DeleteUser(ctx, uid); delErr != nil {
			logger.Error("Register Error: failed to roll back auth account %s: %v", uid, delErr)
		}
		return nil, errors.Internal("Failed to create user record", err)
	}

	token, refreshToken, err := uc.authProvider.SignInWithEmailPassword(ctx, input.Email, input.Password)
	if err != nil {
		return nil, errors.Internal("Account created but sign-in failed, please log in", err)
	}

	return &AuthResult{
		User:         user,
		Token:        token,
		RefreshToken: refreshToken,
	}, nil
}

func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, errors.Validation(MsgLoginIncomplete)
	}

	token, refreshToken, err := uc.authProvider.SignInWithEmailPassword(ctx, email, password)
	if err != nil {
		if stderrors.Is(err, firebase.ErrInvalidCredentials) {
			return nil, errors.Unauthorized("Invalid credentials", err)
		}
		logger.Error("Login failed: %v", err)
		return nil, errors.Unavailable("Authentication provider unavailable", err)
	}

	uid, err := uc.authProvider.VerifyToken(ctx, token)
	if err != nil {
		return nil, errors.Internal("Failed to verify token", err)
	}

	user, err := uc.userRepo.GetByID(ctx, uid)
	if err != nil {
		logger.Warn("Login: no profile for %s: %v", uid, err)
		return nil, err
	}

	return &AuthResult{
		User:         user,
		Token:        token,
		RefreshToken: refreshToken,
	}, nil
}

func (uc *AuthUseCase) RefreshToken(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, errors.Validation("refresh token is required")
	}

	token, newRefreshToken, err := uc.authProvider.RefreshIDToken(ctx, refreshToken)
	if err != nil {
		if stderrors.Is(err, firebase.ErrInvalidRefreshToken) {
			return nil, errors.Unauthorized("Invalid refresh token", err)
		}
		return nil, errors.Unavailable("Authentication provider unavailable", err)
	}

	return &AuthResult{
		Token:        token,
		RefreshToken: newRefreshToken,
	}, nil
}

// Logout revokes every refresh token of the user; ID tokens already issued stop passing the
// auth middleware's revocation check.
func (uc *AuthUseCase) Logout(ctx context.Context, uid string) error {
	if err := uc.authProvider.RevokeRefreshTokens(ctx, uid); err != nil {
		return errors.Internal("Failed to revoke session", err)
	}
	return nil
}

func (uc *AuthUseCase) VerifyToken(ctx context.Context, token string) (string, error) {
	uid, err := uc.authProvider.VerifyToken(ctx, token)
	if err != nil {
		return "", errors.Unauthorized("Invalid or expired token", err)
	}
	return uid, nil
}
