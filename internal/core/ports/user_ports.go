package ports

import (
	"context"

	"github.com/vncsmyrnk/onlinepoll/internal/core/domain"
)

// UserRepository lookups return (nil, nil) when no user matches.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// Create fails with domain.ErrEmailTaken if the email is registered.
	Create(ctx context.Context, user *domain.User) error
}
