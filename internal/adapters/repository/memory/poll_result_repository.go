package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/onlinepoll/internal/core/domain"
	"github.com/vncsmyrnk/onlinepoll/internal/core/ports"
)

type pollResultRepository struct {
	store *Store
}

func NewPollResultRepository(store *Store) ports.PollResultRepository {
	return &pollResultRepository{store: store}
}

func (r *pollResultRepository) LedgerVersion(_ context.Context, pollID uuid.UUID) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.store.versions[pollID], nil
}

func (r *pollResultRepository) ComputeTally(_ context.Context, pollID uuid.UUID) (*domain.Tally, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	tally := &domain.Tally{
		PollID:  pollID,
		Counts:  make(map[uuid.UUID]int64),
		Version: r.store.versions[pollID],
	}
	for key, vote := range r.store.votes {
		if key.pollID != pollID {
			continue
		}
		tally.Counts[vote.OptionID]++
		tally.TotalVotes++
	}
	return tally, nil
}

func (r *pollResultRepository) SaveSnapshot(_ context.Context, tally *domain.Tally) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.polls[tally.PollID]; !ok {
		return domain.ErrPollNotFound
	}
	if current, ok := r.store.snapshots[tally.PollID]; ok && current.Version > tally.Version {
		return nil
	}
	snapshot := *tally
	snapshot.Counts = make(map[uuid.UUID]int64, len(tally.Counts))
	for k, v := range tally.Counts {
		snapshot.Counts[k] = v
	}
	r.store.snapshots[tally.PollID] = snapshot
	return nil
}
