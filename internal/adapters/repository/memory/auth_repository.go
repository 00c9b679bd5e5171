package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/onlinepoll/internal/core/domain"
	"github.com/vncsmyrnk/onlinepoll/internal/core/ports"
)

type authRepository struct {
	store *Store
}

func NewAuthRepository(store *Store) ports.AuthRepository {
	return &authRepository{store: store}
}

func (r *authRepository) StoreRefreshToken(_ context.Context, token *domain.RefreshToken) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	token.ID = uuid.New()
	token.CreatedAt = time.Now().UTC()
	cp := *token
	r.store.tokens[token.ID] = &cp
	return nil
}

func (r *authRepository) GetRefreshTokenByHash(_ context.Context, tokenHash string) (*domain.RefreshToken, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, t := range r.store.tokens {
		if t.TokenHash == tokenHash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *authRepository) RevokeRefreshToken(_ context.Context, id string) error {
	tokenID, err := uuid.Parse(id)
	if err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if t, ok := r.store.tokens[tokenID]; ok {
		t.Revoked = true
	}
	return nil
}
