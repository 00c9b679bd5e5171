package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/onlinepoll/internal/core/domain"
)

type VoteRepository interface {
	// Append stores vote and advances the poll's ledger version as one
	// transaction. A second vote for the same (user, poll) fails with
	// domain.ErrAlreadyVoted; a poll removed meanwhile yields
	// domain.ErrPollNotFound.
	Append(ctx context.Context, vote *domain.Vote) error
	GetUserVote(ctx context.Context, pollID, userID uuid.UUID) (*domain.Vote, error)
}

type VoteInput struct {
	PollID   uuid.UUID
	OptionID uuid.UUID
	UserID   uuid.UUID
	VoterIP  string
}

type VoteService interface {
	Vote(ctx context.Context, input VoteInput) (*domain.Vote, error)
	GetUserVote(ctx context.Context, pollID, userID uuid.UUID) (*domain.Vote, error)
}
