package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokerledger/platform/internal/domain"
)

type fakeServer struct {
	*httptest.Server
	listCalls   atomic.Int32
	publicCalls atomic.Int32

	mu       sync.Mutex
	lastAuth string
	lastKey  string
	lastBody map[string]any
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{}
	mux := http.NewServeMux()
	table := domain.Table{ID: uuid.New(), Name: "Friday", SmallBlind: 1, BigBlind: 2, IsActive: true}

	mux.HandleFunc("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Invalid credentials","code":"UNAUTHORIZED"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token": "tok-" + body["username"],
			"user":  map[string]string{"id": uuid.NewString(), "username": body["username"], "role": "editor"},
		})
	})
	mux.HandleFunc("POST /api/logout", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"Logged out successfully"}`))
	})
	mux.HandleFunc("GET /api/tables", func(w http.ResponseWriter, r *http.Request) {
		fs.listCalls.Add(1)
		fs.record(r, nil)
		_ = json.NewEncoder(w).Encode([]domain.Table{table})
	})
	mux.HandleFunc("GET /api/public/tables", func(w http.ResponseWriter, r *http.Request) {
		fs.publicCalls.Add(1)
		_ = json.NewEncoder(w).Encode([]domain.Table{table})
	})
	mux.HandleFunc("POST /api/tables", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		fs.record(r, body)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(table)
	})
	mux.HandleFunc("POST /api/tables/{tableId}/players/{playerId}/buyins", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		fs.record(r, body)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": uuid.NewString(), "amount": body["amount"], "timestamp": time.Now()})
	})
	mux.HandleFunc("PUT /api/tables/{tableId}/status", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"table cannot be closed: 1 player(s) still active","code":"TABLE_NOT_SETTLED"}`))
	})
	mux.HandleFunc("GET /api/statistics", func(w http.ResponseWriter, r *http.Request) {
		fs.record(r, map[string]any{"minGames": r.URL.Query().Get("minGames")})
		_ = json.NewEncoder(w).Encode(domain.Statistics{Players: []domain.PlayerStats{{Name: "Alice", NetResult: 40}}})
	})
	mux.HandleFunc("GET /api/public/statistics", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(domain.Statistics{Players: []domain.PlayerStats{}})
	})
	mux.HandleFunc("GET /api/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	})

	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeServer) last() (auth, key string, body map[string]any) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.lastAuth, fs.lastKey, fs.lastBody
}

func (fs *fakeServer) record(r *http.Request, body map[string]any) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.lastAuth = r.Header.Get("Authorization")
	fs.lastKey = r.Header.Get("Idempotency-Key")
	fs.lastBody = body
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func loggedIn(t *testing.T, fs *fakeServer, clock *fakeClock) *Client {
	t.Helper()
	c := New(fs.URL, withClock(clock.Now))
	_, err := c.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	return c
}

func TestLoginStoresToken(t *testing.T) {
	fs := newFakeServer(t)
	c := New(fs.URL + "/")

	res, err := c.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-alice", res.Token)
	assert.Equal(t, "alice", res.User.Username)
	assert.Equal(t, "tok-alice", c.Token())

	_, err = c.Tables(context.Background())
	require.NoError(t, err)
	auth, _, _ := fs.last()
	assert.Equal(t, "Bearer tok-alice", auth)

	require.NoError(t, c.Logout(context.Background()))
	assert.Empty(t, c.Token())
}

func TestLoginFailureReturnsAPIError(t *testing.T) {
	fs := newFakeServer(t)
	c := New(fs.URL)

	_, err := c.Login(context.Background(), "alice", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "UNAUTHORIZED", apiErr.Code)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
	assert.Empty(t, c.Token())
}

func TestTablesReusedWithinFreshnessWindow(t *testing.T) {
	fs := newFakeServer(t)
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := loggedIn(t, fs, clock)
	ctx := context.Background()

	first, err := c.Tables(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	clock.Advance(time.Second)
	_, err = c.Tables(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, fs.listCalls.Load())

	clock.Advance(DefaultFreshness)
	_, err = c.Tables(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, fs.listCalls.Load())
}

func TestMutationBypassesFreshnessWindow(t *testing.T) {
	fs := newFakeServer(t)
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := loggedIn(t, fs, clock)
	ctx := context.Background()

	_, err := c.Tables(ctx)
	require.NoError(t, err)

	_, err = c.CreateTable(ctx, TableRequest{Name: "Saturday", SmallBlind: 1, BigBlind: 2})
	require.NoError(t, err)
	_, _, body := fs.last()
	assert.Equal(t, "Saturday", body["name"])

	_, err = c.Tables(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, fs.listCalls.Load())
}

func TestFailedMutationStillInvalidates(t *testing.T) {
	fs := newFakeServer(t)
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := loggedIn(t, fs, clock)
	ctx := context.Background()

	_, err := c.Tables(ctx)
	require.NoError(t, err)

	err = c.SetTableActive(ctx, uuid.New(), false)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "TABLE_NOT_SETTLED", apiErr.Code)

	_, err = c.Tables(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, fs.listCalls.Load())
}

func TestBuyInSendsIdempotencyKey(t *testing.T) {
	fs := newFakeServer(t)
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := loggedIn(t, fs, clock)
	ctx := context.Background()

	_, err := c.Tables(ctx)
	require.NoError(t, err)

	entry, err := c.BuyIn(ctx, uuid.New(), uuid.New(), 50)
	require.NoError(t, err)
	assert.EqualValues(t, 50, entry.Amount)
	_, firstKey, _ := fs.last()
	_, err = uuid.Parse(firstKey)
	assert.NoError(t, err)

	_, err = c.BuyIn(ctx, uuid.New(), uuid.New(), 25)
	require.NoError(t, err)
	_, secondKey, _ := fs.last()
	assert.NotEqual(t, firstKey, secondKey)

	_, err = c.Tables(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, fs.listCalls.Load())
}

func TestAnonymousClientUsesPublicRoutes(t *testing.T) {
	fs := newFakeServer(t)
	c := New(fs.URL)
	ctx := context.Background()

	tables, err := c.Tables(ctx)
	require.NoError(t, err)
	assert.Len(t, tables, 1)
	assert.EqualValues(t, 1, fs.publicCalls.Load())
	assert.Zero(t, fs.listCalls.Load())

	stats, err := c.Statistics(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, stats.Players)
}

func TestLoginDropsAnonymousSnapshot(t *testing.T) {
	fs := newFakeServer(t)
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := New(fs.URL, withClock(clock.Now))
	ctx := context.Background()

	_, err := c.Tables(ctx)
	require.NoError(t, err)

	_, err = c.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	_, err = c.Tables(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, fs.listCalls.Load())
}

func TestStatisticsPassesMinGames(t *testing.T) {
	fs := newFakeServer(t)
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := loggedIn(t, fs, clock)

	stats, err := c.Statistics(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, stats.Players, 1)
	assert.Equal(t, "Alice", stats.Players[0].Name)
	_, _, body := fs.last()
	assert.Equal(t, "3", body["minGames"])
}

func TestNonJSONErrorBody(t *testing.T) {
	fs := newFakeServer(t)
	c := New(fs.URL)

	err := c.do(context.Background(), http.MethodGet, "/api/broken", nil, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "upstream down", apiErr.Message)
	assert.Equal(t, "502: upstream down", apiErr.Error())
}
