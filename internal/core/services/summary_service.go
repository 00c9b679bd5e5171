package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vncsmyrnk/onlinepoll/internal/core/ports"
	"golang.org/x/sync/errgroup"
)

const summaryConcurrency = 8

type summaryService struct {
	pollRepo       ports.PollRepository
	pollResultRepo ports.PollResultRepository
	clock          ports.Clock
	logger         *slog.Logger
}

func NewSummaryService(pollRepo ports.PollRepository, pollResultRepo ports.PollResultRepository, opts ...Option) ports.SummaryService {
	o := newOptions(opts)
	return &summaryService{
		pollRepo:       pollRepo,
		pollResultRepo: pollResultRepo,
		clock:          o.clock,
		logger:         o.logger,
	}
}

// SummarizeAllVotes recomputes every poll's tally from the ledger and
// persists it as the poll's latest snapshot.
func (s *summaryService) SummarizeAllVotes(ctx context.Context) error {
	polls, err := s.pollRepo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch all polls: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(summaryConcurrency)

	for _, poll := range polls {
		pollID := poll.ID
		g.Go(func() error {
			tally, err := s.pollResultRepo.ComputeTally(ctx, pollID)
			if err != nil {
				return fmt.Errorf("failed to summarize poll %s: %w", pollID, err)
			}
			tally.ComputedAt = s.clock.Now().UTC()
			if err := s.pollResultRepo.SaveSnapshot(ctx, tally); err != nil {
				return fmt.Errorf("failed to summarize poll %s: %w", pollID, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	s.logger.Info("votes summarized", "event", "votes_summarized", "polls", len(polls))
	return nil
}
