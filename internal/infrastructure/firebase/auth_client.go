package firebase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/identitytoolkit/v1"
	"google.golang.org/api/option"
)

var (
	ErrEmailExists         = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
)

const defaultSecureTokenURL = "https://securetoken.googleapis.com/v1"

// FirebaseAuthClient combines the Admin SDK (account management, token verification) with the
// Identity Toolkit API, which is the only way to sign a user in with a password server side.
type FirebaseAuthClient struct {
	client         *auth.Client
	accounts       *identitytoolkit.AccountsService
	apiKey         string
	secureTokenURL string
	httpClient     *http.Client
}

// NewFirebaseAuthClient authenticates Identity Toolkit calls with the web API key. Extra options go
// to the Identity Toolkit service, e.g. option.WithEndpoint for the Auth emulator.
func NewFirebaseAuthClient(ctx context.Context, client *auth.Client, apiKey string, opts ...option.ClientOption) (*FirebaseAuthClient, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	identity, err := identitytoolkit.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create identity toolkit service: %w", err)
	}

	return &FirebaseAuthClient{
		client:         client,
		accounts:       identity.Accounts,
		apiKey:         apiKey,
		secureTokenURL: defaultSecureTokenURL,
		httpClient:     &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// WithSecureTokenURL points token refreshes somewhere else, e.g. the Auth emulator.
func (f *FirebaseAuthClient) WithSecureTokenURL(secureTokenURL string) *FirebaseAuthClient {
	f.secureTokenURL = secureTokenURL
	return f
}

func (f *FirebaseAuthClient) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(displayName)

	user, err := f.client.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return "", ErrEmailExists
		}
		return "", fmt.Errorf("create user: %w", err)
	}

	return user.UID, nil
}

func (f *FirebaseAuthClient) DeleteUser(ctx context.Context, uid string) error {
	if err := f.client.DeleteUser(ctx, uid); err != nil {
		return fmt.Errorf("delete user %s: %w", uid, err)
	}
	return nil
}

// VerifyToken returns the uid of a valid ID token. Tokens issued before the last revocation are rejected.
func (f *FirebaseAuthClient) VerifyToken(ctx context.Context, token string) (string, error) {
	result, err := f.client.VerifyIDTokenAndCheckRevoked(ctx, token)
	if err != nil {
		return "", err
	}

	return result.UID, nil
}

func (f *FirebaseAuthClient) RevokeRefreshTokens(ctx context.Context, uid string) error {
	if err := f.client.RevokeRefreshTokens(ctx, uid); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}
