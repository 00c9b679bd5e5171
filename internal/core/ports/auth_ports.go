package ports

import (
	"context"

	"github.com/vncsmyrnk/onlinepoll/internal/core/domain"
)

type AuthRepository interface {
	StoreRefreshToken(ctx context.Context, token *domain.RefreshToken) error
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, id string) error
}

type TokenPayload struct {
	Email string
	Name  string
}

type TokenVerifier interface {
	Verify(ctx context.Context, token string, clientID string) (*TokenPayload, error)
}

type RegisterInput struct {
	Email    string
	Name     string
	Password string
	Role     domain.Role
}

type AuthService interface {
	Register(ctx context.Context, caller *domain.Identity, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, string, error)           // returns access_token, refresh_token, error
	LoginWithGoogle(ctx context.Context, googleToken string) (string, string, error)     // returns access_token, refresh_token, error
	RefreshAccessToken(ctx context.Context, refreshToken string) (string, string, error) // returns new access_token, refresh_token
	Logout(ctx context.Context, refreshToken string) error
	Authenticate(ctx context.Context, accessToken string) (*domain.Identity, error)
}
