package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/onlinepoll/internal/core/domain"
)

type PollResultRepository interface {
	// LedgerVersion returns the number of ledger writes seen by the poll.
	LedgerVersion(ctx context.Context, pollID uuid.UUID) (int64, error)
	// ComputeTally counts the poll's votes by option. Counts and Version
	// come from the same snapshot.
	ComputeTally(ctx context.Context, pollID uuid.UUID) (*domain.Tally, error)
	// SaveSnapshot persists a computed tally for listing and reporting.
	SaveSnapshot(ctx context.Context, tally *domain.Tally) error
}

// TallyCache holds at most one entry per poll. Entries are never patched,
// only replaced or dropped.
type TallyCache interface {
	Get(pollID uuid.UUID) (*domain.Tally, bool)
	Set(tally *domain.Tally)
	Invalidate(pollID uuid.UUID)
}

type TallyService interface {
	GetResults(ctx context.Context, pollID uuid.UUID) (*domain.PollResults, error)
	Invalidate(pollID uuid.UUID)
}

type SummaryService interface {
	SummarizeAllVotes(ctx context.Context) error
}
