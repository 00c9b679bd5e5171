package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/onlinepoll/internal/core/domain"
	"github.com/vncsmyrnk/onlinepoll/internal/core/ports"
)

type pollRepository struct {
	store *Store
}

func NewPollRepository(store *Store) ports.PollRepository {
	return &pollRepository{store: store}
}

func (r *pollRepository) Save(_ context.Context, poll *domain.Poll) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.polls[poll.ID]; exists {
		return fmt.Errorf("poll with ID %s already exists", poll.ID)
	}
	r.store.polls[poll.ID] = clonePoll(poll)
	return nil
}

func (r *pollRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Poll, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	poll, ok := r.store.polls[id]
	if !ok {
		return nil, domain.ErrPollNotFound
	}
	return clonePoll(poll), nil
}

func (r *pollRepository) GetAll(_ context.Context) ([]*domain.Poll, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	polls := make([]*domain.Poll, 0, len(r.store.polls))
	for _, p := range r.store.polls {
		polls = append(polls, clonePoll(p))
	}
	return polls, nil
}

func (r *pollRepository) List(_ context.Context, filter ports.PollFilter) ([]*domain.Poll, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	query := strings.ToLower(filter.Query)
	var polls []*domain.Poll
	for _, p := range r.store.polls {
		if filter.ActiveAt != nil && !p.IsActive(*filter.ActiveAt) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(p.Title), query) {
			continue
		}
		polls = append(polls, clonePoll(p))
	}

	sort.Slice(polls, func(i, j int) bool {
		ti := r.store.snapshots[polls[i].ID].TotalVotes
		tj := r.store.snapshots[polls[j].ID].TotalVotes
		if ti != tj {
			return ti > tj
		}
		return polls[i].CreatedAt.After(polls[j].CreatedAt)
	})

	if filter.Offset < 0 || filter.Offset >= len(polls) {
		return []*domain.Poll{}, nil
	}
	polls = polls[filter.Offset:]
	if filter.Limit > 0 && len(polls) > filter.Limit {
		polls = polls[:filter.Limit]
	}
	return polls, nil
}

func (r *pollRepository) Update(_ context.Context, poll *domain.Poll) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, ok := r.store.polls[poll.ID]
	if !ok {
		return domain.ErrPollNotFound
	}
	if r.store.hasVotes(poll.ID) {
		return domain.ErrPollLocked
	}

	current.Title = poll.Title
	current.Description = poll.Description
	current.ExpiresAt = poll.ExpiresAt
	return nil
}

func (r *pollRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.polls[id]; !ok {
		return domain.ErrPollNotFound
	}
	if r.store.hasVotes(id) {
		return domain.ErrPollLocked
	}

	delete(r.store.polls, id)
	delete(r.store.versions, id)
	delete(r.store.snapshots, id)
	return nil
}
