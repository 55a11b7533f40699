package usecase

import (
	"context"
	"time"
)

// AuthProvider is the identity backend (Firebase Auth).
type AuthProvider interface {
	CreateUser(ctx context.Context, email, password, displayName string) (string, error)
	DeleteUser(ctx context.Context, uid string) error
	VerifyToken(ctx context.Context, token string) (string, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
	SignInWithEmailPassword(ctx context.Context, email, password string) (string, string, error)
	RefreshIDToken(ctx context.Context, refreshToken string) (string, string, error)
}

// EventPublisher pushes notifications to a topic; eventbus.Bus satisfies it.
type EventPublisher interface {
	Publish(topic string, payload []byte) error
}

type RateLimiter interface {
	Allow(key, action string) (bool, time.Duration)
}
