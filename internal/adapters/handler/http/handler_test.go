package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cache "github.com/vncsmyrnk/onlinepoll/internal/adapters/cache/memory"
	"github.com/vncsmyrnk/onlinepoll/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/onlinepoll/internal/core/domain"
	"github.com/vncsmyrnk/onlinepoll/internal/core/ports"
	"github.com/vncsmyrnk/onlinepoll/internal/core/services"
)

var t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

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

type mockVerifier struct{}

func (mockVerifier) Verify(_ context.Context, token string, _ string) (*ports.TokenPayload, error) {
	if token == "valid_token" {
		return &ports.TokenPayload{Email: "google@example.com", Name: "Google"}, nil
	}
	return nil, errors.New("invalid token")
}

type testApp struct {
	server *httptest.Server
	auth   *services.AuthService
	clock  *fakeClock
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	store := memory.NewStore()
	clock := &fakeClock{now: t0}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts := []services.Option{services.WithClock(clock), services.WithLogger(logger)}

	pollRepo := memory.NewPollRepository(store)
	resultRepo := memory.NewPollResultRepository(store)
	userRepo := memory.NewUserRepository(store)

	authSvc := services.NewAuthService(userRepo, memory.NewAuthRepository(store), mockVerifier{},
		services.AuthConfig{JWTSecret: []byte("test-secret")}, opts...)
	pollSvc := services.NewPollService(pollRepo, services.DefaultPollTTL, opts...)
	tallySvc := services.NewTallyService(pollRepo, resultRepo, cache.NewTallyCache(), services.DefaultResultsCacheTTL, opts...)
	voteSvc := services.NewVoteService(pollRepo, memory.NewVoteRepository(store), tallySvc, opts...)

	router := NewHandler(
		NewPollHandler(pollSvc),
		NewVoteHandler(voteSvc, tallySvc),
		NewAuthHandler(authSvc, "https://example.com/redirect", CookieConfig{}),
		NewUserHandler(services.NewUserService(userRepo)),
		authSvc,
		[]string{"*"},
	)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testApp{server: server, auth: authSvc, clock: clock}
}

// newUser registers an account and returns its access token.
func (a *testApp) newUser(t *testing.T, role domain.Role) string {
	t.Helper()
	ctx := context.Background()
	email := "user-" + uuid.NewString() + "@example.com"

	caller := &domain.Identity{UserID: uuid.New(), Role: domain.RoleAdmin}
	_, err := a.auth.Register(ctx, caller, ports.RegisterInput{Email: email, Name: "User", Password: "password123", Role: role})
	require.NoError(t, err)

	access, _, err := a.auth.Login(ctx, email, "password123")
	require.NoError(t, err)
	return access
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func (a *testApp) createPoll(t *testing.T, adminToken string, expiresAt time.Time, options ...string) domain.Poll {
	t.Helper()
	if len(options) == 0 {
		options = []string{"A", "B"}
	}
	status, body := a.do(t, http.MethodPost, "/api/polls", adminToken, map[string]any{
		"title":      "Poll " + uuid.NewString()[:6],
		"options":    options,
		"expires_at": expiresAt,
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	var poll domain.Poll
	require.NoError(t, json.Unmarshal(body, &poll))
	return poll
}

func (a *testApp) vote(t *testing.T, token string, pollID, optionID uuid.UUID) (int, []byte) {
	t.Helper()
	return a.do(t, http.MethodPost, "/api/polls/"+pollID.String()+"/votes", token, map[string]any{"option_id": optionID})
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var e errorBody
	require.NoError(t, json.Unmarshal(body, &e), string(body))
	return e.Error.Code
}

func results(t *testing.T, app *testApp, pollID uuid.UUID) domain.PollResults {
	t.Helper()
	status, body := app.do(t, http.MethodGet, "/api/polls/"+pollID.String()+"/results", "", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var res domain.PollResults
	require.NoError(t, json.Unmarshal(body, &res))
	return res
}

func TestVoteFlow(t *testing.T) {
	app := newTestApp(t)
	admin := app.newUser(t, domain.RoleAdmin)
	voter := app.newUser(t, domain.RoleVoter)

	poll := app.createPoll(t, admin, t0.Add(time.Hour), "A", "B", "C")

	status, body := app.vote(t, voter, poll.ID, poll.Options[0].ID)
	require.Equal(t, http.StatusCreated, status, string(body))

	var vote domain.Vote
	require.NoError(t, json.Unmarshal(body, &vote))
	assert.Equal(t, poll.Options[0].ID, vote.OptionID)
	assert.NotContains(t, string(body), "voter_ip")

	status, body = app.vote(t, voter, poll.ID, poll.Options[1].ID)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "duplicate_vote", errorCode(t, body))

	res := results(t, app, poll.ID)
	assert.Equal(t, int64(1), res.TotalVotes)
	require.Len(t, res.Options, 3)
	assert.Equal(t, int64(1), res.Options[0].VoteCount)
	assert.Equal(t, float64(100), res.Options[0].Percentage)
	assert.Zero(t, res.Options[1].VoteCount)
	assert.Zero(t, res.Options[2].VoteCount)

	status, body = app.do(t, http.MethodGet, "/api/polls/"+poll.ID.String()+"/my-vote", voter, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &vote))
	assert.Equal(t, poll.Options[0].ID, vote.OptionID)

	status, body = app.do(t, http.MethodGet, "/api/polls/"+poll.ID.String()+"/my-vote", admin, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", errorCode(t, body))
}

func TestVoteAcceptsCamelCaseBody(t *testing.T) {
	app := newTestApp(t)
	admin := app.newUser(t, domain.RoleAdmin)
	poll := app.createPoll(t, admin, t0.Add(time.Hour))

	status, body := app.do(t, http.MethodPost, "/api/polls/"+poll.ID.String()+"/votes", app.newUser(t, domain.RoleVoter),
		map[string]any{"optionId": poll.Options[1].ID})
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = app.do(t, http.MethodPost, "/api/polls/"+poll.ID.String()+"/votes", app.newUser(t, domain.RoleVoter),
		map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_request", errorCode(t, body))
}

func TestVoteExpiryBoundary(t *testing.T) {
	app := newTestApp(t)
	admin := app.newUser(t, domain.RoleAdmin)
	expiresAt := t0.Add(time.Hour)
	poll := app.createPoll(t, admin, expiresAt)

	app.clock.Set(expiresAt.Add(-time.Second))
	voter := app.newUser(t, domain.RoleVoter)
	status, _ := app.vote(t, voter, poll.ID, poll.Options[0].ID)
	assert.Equal(t, http.StatusCreated, status)

	app.clock.Set(expiresAt)
	status, body := app.vote(t, app.newUser(t, domain.RoleVoter), poll.ID, poll.Options[0].ID)
	assert.Equal(t, http.StatusGone, status)
	assert.Equal(t, "poll_expired", errorCode(t, body))

	app.clock.Set(expiresAt.Add(time.Second))
	status, body = app.vote(t, app.newUser(t, domain.RoleVoter), poll.ID, poll.Options[0].ID)
	assert.Equal(t, http.StatusGone, status)
	assert.Equal(t, "poll_expired", errorCode(t, body))

	assert.Equal(t, int64(1), results(t, app, poll.ID).TotalVotes)
}

func TestVoteRejections(t *testing.T) {
	app := newTestApp(t)
	admin := app.newUser(t, domain.RoleAdmin)
	voter := app.newUser(t, domain.RoleVoter)

	pollA := app.createPoll(t, admin, t0.Add(time.Hour))
	pollB := app.createPoll(t, admin, t0.Add(time.Hour))

	tests := []struct {
		name     string
		token    string
		path     string
		optionID uuid.UUID
		status   int
		code     string
	}{
		{"option of another poll", voter, "/api/polls/" + pollA.ID.String() + "/votes", pollB.Options[0].ID, http.StatusBadRequest, "invalid_option"},
		{"unknown poll", voter, "/api/polls/" + uuid.NewString() + "/votes", pollA.Options[0].ID, http.StatusNotFound, "not_found"},
		{"malformed poll id", voter, "/api/polls/abc/votes", pollA.Options[0].ID, http.StatusBadRequest, "invalid_request"},
		{"anonymous", "", "/api/polls/" + pollA.ID.String() + "/votes", pollA.Options[0].ID, http.StatusUnauthorized, "unauthorized"},
		{"garbage token", "garbage", "/api/polls/" + pollA.ID.String() + "/votes", pollA.Options[0].ID, http.StatusUnauthorized, "unauthorized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := app.do(t, http.MethodPost, tt.path, tt.token, map[string]any{"option_id": tt.optionID})
			assert.Equal(t, tt.status, status, string(body))
			assert.Equal(t, tt.code, errorCode(t, body))
		})
	}

	assert.Zero(t, results(t, app, pollA.ID).TotalVotes)
	assert.Zero(t, results(t, app, pollB.ID).TotalVotes)
}

func TestConcurrentDuplicateVotes(t *testing.T) {
	app := newTestApp(t)
	admin := app.newUser(t, domain.RoleAdmin)
	voter := app.newUser(t, domain.RoleVoter)
	poll := app.createPoll(t, admin, t0.Add(time.Hour))

	const attempts = 20
	statuses := make(chan int, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status, _ := app.vote(t, voter, poll.ID, poll.Options[i%2].ID)
			statuses <- status
		}(i)
	}
	wg.Wait()
	close(statuses)

	counts := map[int]int{}
	for s := range statuses {
		counts[s]++
	}
	assert.Equal(t, 1, counts[http.StatusCreated])
	assert.Equal(t, attempts-1, counts[http.StatusConflict])
	assert.Equal(t, int64(1), results(t, app, poll.ID).TotalVotes)
}

func TestResultsSumMatchesTotal(t *testing.T) {
	app := newTestApp(t)
	admin := app.newUser(t, domain.RoleAdmin)
	poll := app.createPoll(t, admin, t0.Add(time.Hour), "A", "B", "C")

	tokens := make([]string, 12)
	for i := range tokens {
		tokens[i] = app.newUser(t, domain.RoleVoter)
	}

	var wg sync.WaitGroup
	for i, token := range tokens {
		wg.Add(1)
		go func(i int, token string) {
			defer wg.Done()
			status, _ := app.vote(t, token, poll.ID, poll.Options[i%3].ID)
			assert.Equal(t, http.StatusCreated, status)
		}(i, token)
	}
	wg.Wait()

	res := results(t, app, poll.ID)
	var sum int64
	for _, opt := range res.Options {
		sum += opt.VoteCount
		assert.Equal(t, int64(4), opt.VoteCount)
	}
	assert.Equal(t, res.TotalVotes, sum)
	assert.Equal(t, int64(len(tokens)), res.TotalVotes)
}

func TestResultsUnknownPoll(t *testing.T) {
	app := newTestApp(t)
	status, body := app.do(t, http.MethodGet, "/api/polls/"+uuid.NewString()+"/results", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", errorCode(t, body))
}

func TestPollEndpoints(t *testing.T) {
	app := newTestApp(t)
	admin := app.newUser(t, domain.RoleAdmin)
	voter := app.newUser(t, domain.RoleVoter)

	status, body := app.do(t, http.MethodPost, "/api/polls", voter, map[string]any{"title": "t", "options": []string{"a", "b"}})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "forbidden", errorCode(t, body))

	status, body = app.do(t, http.MethodPost, "/api/polls", "", map[string]any{"title": "t", "options": []string{"a", "b"}})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", errorCode(t, body))

	status, body = app.do(t, http.MethodPost, "/api/polls", admin, map[string]any{"title": "t", "options": []string{"a"}})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_request", errorCode(t, body))

	poll := app.createPoll(t, admin, t0.Add(time.Hour))

	status, body = app.do(t, http.MethodGet, "/api/polls/"+poll.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, status)
	var got domain.Poll
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, poll.ID, got.ID)
	assert.Len(t, got.Options, 2)

	status, _ = app.do(t, http.MethodGet, "/api/polls/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = app.do(t, http.MethodGet, "/api/polls?page=1&q="+url.QueryEscape(poll.Title[:6]), "", nil)
	require.Equal(t, http.StatusOK, status)
	var list []domain.Poll
	require.NoError(t, json.Unmarshal(body, &list))
	assert.NotEmpty(t, list)

	status, _ = app.do(t, http.MethodGet, "/api/polls?page=zero", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = app.do(t, http.MethodGet, "/api/polls?page=922337203685477582", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_request", errorCode(t, body))
}

func TestPollMutationLockout(t *testing.T) {
	app := newTestApp(t)
	admin := app.newUser(t, domain.RoleAdmin)
	voter := app.newUser(t, domain.RoleVoter)
	poll := app.createPoll(t, admin, t0.Add(time.Hour))
	path := "/api/polls/" + poll.ID.String()

	status, body := app.do(t, http.MethodPatch, path, voter, map[string]any{"title": "mine now"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "forbidden", errorCode(t, body))

	status, body = app.do(t, http.MethodPatch, path, admin, map[string]any{"title": "Renamed"})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.True(t, strings.Contains(string(body), "Renamed"))

	status, _ = app.vote(t, voter, poll.ID, poll.Options[0].ID)
	require.Equal(t, http.StatusCreated, status)

	status, body = app.do(t, http.MethodPatch, path, admin, map[string]any{"expires_at": t0.Add(48 * time.Hour)})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "poll_locked", errorCode(t, body))

	status, body = app.do(t, http.MethodDelete, path, admin, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "poll_locked", errorCode(t, body))

	other := app.createPoll(t, admin, t0.Add(time.Hour))
	status, _ = app.do(t, http.MethodDelete, "/api/polls/"+other.ID.String(), admin, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = app.do(t, http.MethodGet, "/api/polls/"+other.ID.String(), "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAuthEndpoints(t *testing.T) {
	app := newTestApp(t)
	signup := map[string]any{"email": "ana@example.com", "name": "Ana", "password": "password123", "role": "admin"}

	status, body := app.do(t, http.MethodPost, "/auth/signup", "", signup)
	require.Equal(t, http.StatusCreated, status, string(body))
	var user domain.User
	require.NoError(t, json.Unmarshal(body, &user))
	assert.Equal(t, domain.RoleVoter, user.Role)
	assert.NotContains(t, string(body), "password")

	status, body = app.do(t, http.MethodPost, "/auth/signup", "", signup)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "conflict", errorCode(t, body))

	status, body = app.do(t, http.MethodPost, "/auth/login", "", map[string]any{"email": "ana@example.com", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", errorCode(t, body))

	status, body = app.do(t, http.MethodPost, "/auth/login", "", map[string]any{"email": "ana@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, status)
	var tokens tokenResponse
	require.NoError(t, json.Unmarshal(body, &tokens))
	require.NotEmpty(t, tokens.AccessToken)

	status, body = app.do(t, http.MethodGet, "/api/me", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &user))
	assert.Equal(t, "ana@example.com", user.Email)

	status, _ = app.do(t, http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	refresh := func() *http.Response {
		req, err := http.NewRequest(http.MethodPost, app.server.URL+"/auth/refresh", nil)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: refreshTokenCookie, Value: tokens.RefreshToken})
		resp, err := app.server.Client().Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp
	}

	resp := refresh()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, app.server.URL+"/auth/logout", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: refreshTokenCookie, Value: tokens.RefreshToken})
	logout, err := app.server.Client().Do(req)
	require.NoError(t, err)
	logout.Body.Close()
	assert.Equal(t, http.StatusOK, logout.StatusCode)

	resp = refresh()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGoogleCallback(t *testing.T) {
	app := newTestApp(t)
	client := app.server.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

	resp, err := client.PostForm(app.server.URL+"/oauth/callback", url.Values{"credential": {"valid_token"}})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "https://example.com/redirect", resp.Header.Get("Location"))

	var names []string
	for _, c := range resp.Cookies() {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{accessTokenCookie, refreshTokenCookie}, names)

	resp, err = client.PostForm(app.server.URL+"/oauth/callback", url.Values{"credential": {"forged"}})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
