package memory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/onlinepoll/internal/core/domain"
)

func TestTallyCache_SetGetInvalidate(t *testing.T) {
	c := NewTallyCache()
	pollA, pollB := uuid.New(), uuid.New()

	c.Set(&domain.Tally{PollID: pollA, Version: 1, TotalVotes: 1})
	c.Set(&domain.Tally{PollID: pollB, Version: 3, TotalVotes: 3})
	require.Equal(t, 2, c.Len())

	c.Invalidate(pollA)

	_, ok := c.Get(pollA)
	assert.False(t, ok)

	got, ok := c.Get(pollB)
	require.True(t, ok, "invalidating one poll must not touch another")
	assert.Equal(t, int64(3), got.TotalVotes)
}

func TestTallyCache_SetKeepsNewerVersion(t *testing.T) {
	c := NewTallyCache()
	pollID := uuid.New()

	c.Set(&domain.Tally{PollID: pollID, Version: 5, TotalVotes: 5})
	c.Set(&domain.Tally{PollID: pollID, Version: 4, TotalVotes: 4})

	got, ok := c.Get(pollID)
	require.True(t, ok)
	assert.Equal(t, int64(5), got.Version)

	c.Set(&domain.Tally{PollID: pollID, Version: 6, TotalVotes: 6})
	got, _ = c.Get(pollID)
	assert.Equal(t, int64(6), got.Version)
}
