package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/onlinepoll/internal/core/domain"
	"github.com/vncsmyrnk/onlinepoll/internal/core/ports"
)

type voteService struct {
	pollRepo ports.PollRepository
	voteRepo ports.VoteRepository
	tally    ports.TallyService
	clock    ports.Clock
	logger   *slog.Logger
}

// NewVoteService returns the vote admission controller. Every admitted vote
// invalidates the poll's cached tally before Vote returns.
func NewVoteService(pollRepo ports.PollRepository, voteRepo ports.VoteRepository, tally ports.TallyService, opts ...Option) ports.VoteService {
	o := newOptions(opts)
	return &voteService{
		pollRepo: pollRepo,
		voteRepo: voteRepo,
		tally:    tally,
		clock:    o.clock,
		logger:   o.logger,
	}
}

// Vote admits a single vote. Checks run in a fixed order and stop at the
// first failure: poll existence, option membership, expiry, then uniqueness.
// Uniqueness is decided by the ledger on insert, not by a prior read.
func (s *voteService) Vote(ctx context.Context, input ports.VoteInput) (*domain.Vote, error) {
	if input.UserID == uuid.Nil {
		return nil, domain.ErrUnauthorized
	}

	poll, err := s.pollRepo.GetByID(ctx, input.PollID)
	if err != nil {
		return nil, err
	}

	if _, ok := poll.Option(input.OptionID); !ok {
		return nil, domain.ErrInvalidOption
	}

	now := s.clock.Now().UTC()
	if !poll.IsActive(now) {
		return nil, domain.ErrPollExpired
	}

	vote := &domain.Vote{
		ID:        uuid.New(),
		PollID:    poll.ID,
		OptionID:  input.OptionID,
		UserID:    input.UserID,
		VoterIP:   input.VoterIP,
		CreatedAt: now,
	}

	if err := s.voteRepo.Append(ctx, vote); err != nil {
		if errors.Is(err, domain.ErrAlreadyVoted) {
			s.logger.Info("duplicate vote rejected",
				"event", "vote_duplicate",
				"poll_id", poll.ID,
				"user_id", input.UserID,
			)
		} else if !errors.Is(err, domain.ErrPollExpired) && !errors.Is(err, domain.ErrPollNotFound) {
			s.logger.Error("vote append failed",
				"event", "vote_append_failed",
				"poll_id", poll.ID,
				"user_id", input.UserID,
				"error", err,
			)
		}
		return nil, err
	}

	s.tally.Invalidate(poll.ID)

	s.logger.Info("vote admitted",
		"event", "vote_admitted",
		"vote_id", vote.ID,
		"poll_id", vote.PollID,
		"option_id", vote.OptionID,
		"user_id", vote.UserID,
	)
	return vote, nil
}

func (s *voteService) GetUserVote(ctx context.Context, pollID, userID uuid.UUID) (*domain.Vote, error) {
	if _, err := s.pollRepo.GetByID(ctx, pollID); err != nil {
		return nil, err
	}
	return s.voteRepo.GetUserVote(ctx, pollID, userID)
}
