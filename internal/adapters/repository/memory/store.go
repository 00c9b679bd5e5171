// Package memory keeps every repository in process memory. It enforces the
// same constraints as the postgres adapter: one vote per (user, poll), poll
// lockout once voted, unique user emails.
package memory

import (
	"sync"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/onlinepoll/internal/core/domain"
)

type voteKey struct {
	pollID uuid.UUID
	userID uuid.UUID
}

// Store is the shared state behind the memory repositories. A single mutex
// orders every write, which stands in for row locks and unique indexes.
type Store struct {
	mu sync.RWMutex

	polls     map[uuid.UUID]*domain.Poll
	votes     map[voteKey]domain.Vote
	versions  map[uuid.UUID]int64
	snapshots map[uuid.UUID]domain.Tally

	users  map[uuid.UUID]*domain.User
	tokens map[uuid.UUID]*domain.RefreshToken
}

func NewStore() *Store {
	return &Store{
		polls:     make(map[uuid.UUID]*domain.Poll),
		votes:     make(map[voteKey]domain.Vote),
		versions:  make(map[uuid.UUID]int64),
		snapshots: make(map[uuid.UUID]domain.Tally),
		users:     make(map[uuid.UUID]*domain.User),
		tokens:    make(map[uuid.UUID]*domain.RefreshToken),
	}
}

// VoteCount returns the number of ledger entries for a poll.
func (s *Store) VoteCount(pollID uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for key := range s.votes {
		if key.pollID == pollID {
			n++
		}
	}
	return n
}

func (s *Store) hasVotes(pollID uuid.UUID) bool {
	for key := range s.votes {
		if key.pollID == pollID {
			return true
		}
	}
	return false
}

func clonePoll(p *domain.Poll) *domain.Poll {
	cp := *p
	cp.Options = append([]domain.PollOption(nil), p.Options...)
	return &cp
}
