package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/onlinepoll/internal/core/domain"
)

type PollFilter struct {
	Limit  int
	Offset int
	Query  string
	// ActiveAt restricts the listing to polls still open at that instant.
	ActiveAt *time.Time
}

type PollRepository interface {
	Save(ctx context.Context, poll *domain.Poll) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Poll, error)
	GetAll(ctx context.Context) ([]*domain.Poll, error)
	List(ctx context.Context, filter PollFilter) ([]*domain.Poll, error)
	// Update persists title, description and expiry. It fails with
	// domain.ErrPollLocked once the poll has any vote.
	Update(ctx context.Context, poll *domain.Poll) error
	// Delete removes the poll and its options. It fails with
	// domain.ErrPollLocked once the poll has any vote.
	Delete(ctx context.Context, id uuid.UUID) error
}

type CreatePollInput struct {
	Title       string
	Description string
	Options     []string
	ExpiresAt   *time.Time
}

type UpdatePollInput struct {
	Title       *string
	Description *string
	ExpiresAt   *time.Time
}

type ListPollsInput struct {
	Page           int
	Query          string
	IncludeExpired bool
}

type PollService interface {
	Create(ctx context.Context, identity *domain.Identity, input CreatePollInput) (*domain.Poll, error)
	GetPoll(ctx context.Context, id string) (*domain.Poll, error)
	ListPolls(ctx context.Context, input ListPollsInput) ([]*domain.Poll, error)
	Update(ctx context.Context, identity *domain.Identity, id string, input UpdatePollInput) (*domain.Poll, error)
	Delete(ctx context.Context, identity *domain.Identity, id string) error
}
