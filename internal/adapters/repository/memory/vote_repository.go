package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/onlinepoll/internal/core/domain"
	"github.com/vncsmyrnk/onlinepoll/internal/core/ports"
)

type voteRepository struct {
	store *Store
}

func NewVoteRepository(store *Store) ports.VoteRepository {
	return &voteRepository{store: store}
}

func (r *voteRepository) Append(_ context.Context, vote *domain.Vote) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	poll, ok := r.store.polls[vote.PollID]
	if !ok {
		return domain.ErrPollNotFound
	}
	if _, ok := poll.Option(vote.OptionID); !ok {
		return domain.ErrInvalidOption
	}
	if !poll.IsActive(vote.CreatedAt) {
		return domain.ErrPollExpired
	}

	key := voteKey{pollID: vote.PollID, userID: vote.UserID}
	if _, exists := r.store.votes[key]; exists {
		return domain.ErrAlreadyVoted
	}

	r.store.votes[key] = *vote
	r.store.versions[vote.PollID]++
	return nil
}

func (r *voteRepository) GetUserVote(_ context.Context, pollID, userID uuid.UUID) (*domain.Vote, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	vote, ok := r.store.votes[voteKey{pollID: pollID, userID: userID}]
	if !ok {
		return nil, domain.ErrVoteNotFound
	}
	return &vote, nil
}
