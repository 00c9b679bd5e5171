package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	cache "github.com/vncsmyrnk/onlinepoll/internal/adapters/cache/memory"
	"github.com/vncsmyrnk/onlinepoll/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/onlinepoll/internal/core/domain"
	"github.com/vncsmyrnk/onlinepoll/internal/core/ports"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// countingResultRepo counts ledger scans made through it.
type countingResultRepo struct {
	ports.PollResultRepository
	computes  atomic.Int64
	snapshots atomic.Int64
}

func (r *countingResultRepo) ComputeTally(ctx context.Context, pollID uuid.UUID) (*domain.Tally, error) {
	r.computes.Add(1)
	return r.PollResultRepository.ComputeTally(ctx, pollID)
}

func (r *countingResultRepo) SaveSnapshot(ctx context.Context, tally *domain.Tally) error {
	r.snapshots.Add(1)
	return r.PollResultRepository.SaveSnapshot(ctx, tally)
}

type testEnv struct {
	store   *memory.Store
	clock   *fakeClock
	polls   ports.PollRepository
	votes   ports.VoteRepository
	results *countingResultRepo
	cache   *cache.TallyCache

	pollSvc  ports.PollService
	voteSvc  ports.VoteService
	tallySvc ports.TallyService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	clock := newFakeClock(t0)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts := []Option{WithClock(clock), WithLogger(logger)}

	env := &testEnv{
		store:   store,
		clock:   clock,
		polls:   memory.NewPollRepository(store),
		votes:   memory.NewVoteRepository(store),
		results: &countingResultRepo{PollResultRepository: memory.NewPollResultRepository(store)},
		cache:   cache.NewTallyCache(),
	}
	env.pollSvc = NewPollService(env.polls, DefaultPollTTL, opts...)
	env.tallySvc = NewTallyService(env.polls, env.results, env.cache, DefaultResultsCacheTTL, opts...)
	env.voteSvc = NewVoteService(env.polls, env.votes, env.tallySvc, opts...)
	return env
}

func adminIdentity() *domain.Identity {
	return &domain.Identity{UserID: uuid.New(), Email: "admin@example.com", Role: domain.RoleAdmin}
}

func voterIdentity() *domain.Identity {
	return &domain.Identity{UserID: uuid.New(), Email: "voter@example.com", Role: domain.RoleVoter}
}

// createPoll creates a poll open until expiresAt with the given options.
func (e *testEnv) createPoll(t *testing.T, expiresAt time.Time, options ...string) *domain.Poll {
	t.Helper()
	if len(options) == 0 {
		options = []string{"yes", "no"}
	}
	poll, err := e.pollSvc.Create(context.Background(), adminIdentity(), ports.CreatePollInput{
		Title:     "Poll",
		Options:   options,
		ExpiresAt: &expiresAt,
	})
	require.NoError(t, err)
	return poll
}

func (e *testEnv) vote(poll *domain.Poll, opt int, userID uuid.UUID) (*domain.Vote, error) {
	return e.voteSvc.Vote(context.Background(), ports.VoteInput{
		PollID:   poll.ID,
		OptionID: poll.Options[opt].ID,
		UserID:   userID,
	})
}
