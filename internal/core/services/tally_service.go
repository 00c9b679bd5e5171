package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/onlinepoll/internal/core/domain"
	"github.com/vncsmyrnk/onlinepoll/internal/core/ports"
	"golang.org/x/sync/singleflight"
)

const DefaultResultsCacheTTL = time.Minute

type tallyService struct {
	pollRepo   ports.PollRepository
	resultRepo ports.PollResultRepository
	cache      ports.TallyCache
	ttl        time.Duration
	group      singleflight.Group
	clock      ports.Clock
	logger     *slog.Logger
}

// NewTallyService returns the results engine. A cached tally is served only
// while its version matches the poll's ledger version and it is younger
// than ttl; a ttl <= 0 disables the age limit.
func NewTallyService(pollRepo ports.PollRepository, resultRepo ports.PollResultRepository, cache ports.TallyCache, ttl time.Duration, opts ...Option) ports.TallyService {
	o := newOptions(opts)
	return &tallyService{
		pollRepo:   pollRepo,
		resultRepo: resultRepo,
		cache:      cache,
		ttl:        ttl,
		clock:      o.clock,
		logger:     o.logger,
	}
}

func (s *tallyService) GetResults(ctx context.Context, pollID uuid.UUID) (*domain.PollResults, error) {
	poll, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		return nil, err
	}

	tally, err := s.currentTally(ctx, pollID)
	if err != nil {
		return nil, err
	}

	return domain.NewPollResults(poll, tally), nil
}

func (s *tallyService) Invalidate(pollID uuid.UUID) {
	s.cache.Invalidate(pollID)
}

func (s *tallyService) currentTally(ctx context.Context, pollID uuid.UUID) (*domain.Tally, error) {
	version, err := s.resultRepo.LedgerVersion(ctx, pollID)
	if err != nil {
		return nil, err
	}

	if cached, ok := s.cache.Get(pollID); ok && s.fresh(cached, version) {
		return cached, nil
	}

	// The shared recompute outlives any single caller; each caller only
	// stops waiting when its own context ends.
	shareCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(pollID.String(), func() (interface{}, error) {
		return s.recompute(shareCtx, pollID)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		return nil, res.Err
	}
	tally := res.Val.(*domain.Tally)

	// A shared recompute may have started before the version we observed.
	if res.Shared && tally.Version < version {
		return s.recompute(ctx, pollID)
	}
	return tally, nil
}

func (s *tallyService) recompute(ctx context.Context, pollID uuid.UUID) (*domain.Tally, error) {
	tally, err := s.resultRepo.ComputeTally(ctx, pollID)
	if err != nil {
		s.logger.Error("tally recompute failed",
			"event", "tally_recompute_failed",
			"poll_id", pollID,
			"error", err,
		)
		return nil, err
	}
	tally.ComputedAt = s.clock.Now().UTC()
	s.cache.Set(tally)

	s.logger.Debug("tally recomputed",
		"event", "tally_recomputed",
		"poll_id", pollID,
		"version", tally.Version,
		"total_votes", tally.TotalVotes,
	)
	return tally, nil
}

func (s *tallyService) fresh(tally *domain.Tally, version int64) bool {
	if tally.Version != version {
		return false
	}
	if s.ttl <= 0 {
		return true
	}
	return s.clock.Now().Sub(tally.ComputedAt) < s.ttl
}
