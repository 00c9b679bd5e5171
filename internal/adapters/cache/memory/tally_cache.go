// Package memory provides the in-process tally cache.
package memory

import (
	"sync"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/onlinepoll/internal/core/domain"
)

// TallyCache keeps one tally per poll. Stored tallies are shared with
// readers and must not be modified after Set.
type TallyCache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*domain.Tally
}

func NewTallyCache() *TallyCache {
	return &TallyCache{entries: make(map[uuid.UUID]*domain.Tally)}
}

func (c *TallyCache) Get(pollID uuid.UUID) (*domain.Tally, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.entries[pollID]
	return t, ok
}

// Set stores tally unless the slot already holds a newer ledger version.
func (c *TallyCache) Set(tally *domain.Tally) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if current, ok := c.entries[tally.PollID]; ok && current.Version > tally.Version {
		return
	}
	c.entries[tally.PollID] = tally
}

func (c *TallyCache) Invalidate(pollID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, pollID)
}

func (c *TallyCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
