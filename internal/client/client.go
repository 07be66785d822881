// Package client is a Go client for the ledger REST API.
//
// The client keeps a short-lived mirror of the table list. Reads inside the
// freshness window are served from the mirror; any mutation sent through the
// client drops it so the next read goes to the server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pokerledger/platform/internal/domain"
)

// DefaultFreshness is how long a fetched table list is reused.
const DefaultFreshness = 2 * time.Second

// APIError is a non-2xx response decoded from the server's {"error","code"} body.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("%d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

// Client talks to one server. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	freshness  time.Duration
	now        func() time.Time

	mu        sync.Mutex
	token     string
	tables    []domain.Table
	fetchedAt time.Time
	public    bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithFreshness overrides DefaultFreshness.
func WithFreshness(d time.Duration) Option {
	return func(c *Client) { c.freshness = d }
}

// WithToken starts the client with an existing bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func withClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		freshness:  DefaultFreshness,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the current bearer token, empty when logged out.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Invalidate drops the cached table list.
func (c *Client) Invalidate() {
	c.mu.Lock()
	c.tables = nil
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}

// LoginResult mirrors the login response.
type LoginResult struct {
	Token string          `json:"token"`
	User  domain.Identity `json:"user"`
}

// Login exchanges credentials for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	body := map[string]string{"username": username, "password": password}
	var res LoginResult
	if err := c.do(ctx, http.MethodPost, "/api/login", body, &res); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.token = res.Token
	c.mu.Unlock()
	c.Invalidate()
	return &res, nil
}

// Logout notifies the server and forgets the token.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/logout", nil, nil)
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
	c.Invalidate()
	return err
}

// Me returns the caller's identity.
func (c *Client) Me(ctx context.Context) (*domain.Identity, error) {
	var id domain.Identity
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

// Tables returns every table with players and history. Without a token the public
// route is used. A list fetched less than the freshness window ago is reused.
func (c *Client) Tables(ctx context.Context) ([]domain.Table, error) {
	c.mu.Lock()
	public := c.token == ""
	if c.tables != nil && c.public == public && c.now().Sub(c.fetchedAt) < c.freshness {
		tables := c.tables
		c.mu.Unlock()
		return tables, nil
	}
	c.mu.Unlock()

	path := "/api/tables"
	if public {
		path = "/api/public/tables"
	}
	var tables []domain.Table
	if err := c.do(ctx, http.MethodGet, path, nil, &tables); err != nil {
		return nil, err
	}
	if tables == nil {
		tables = []domain.Table{}
	}

	c.mu.Lock()
	c.tables = tables
	c.fetchedAt = c.now()
	c.public = public
	c.mu.Unlock()
	return tables, nil
}

// Table fetches one table.
func (c *Client) Table(ctx context.Context, id uuid.UUID) (*domain.Table, error) {
	var t domain.Table
	if err := c.do(ctx, http.MethodGet, tablePath(id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Balance fetches a table's balance report.
func (c *Client) Balance(ctx context.Context, id uuid.UUID) (*domain.TableBalance, error) {
	var b domain.TableBalance
	if err := c.do(ctx, http.MethodGet, tablePath(id)+"/balance", nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// TableRequest is the body of create and update calls. CreatedAt is required on update.
type TableRequest struct {
	Name       string     `json:"name"`
	SmallBlind int64      `json:"smallBlind"`
	BigBlind   int64      `json:"bigBlind"`
	Location   *string    `json:"location,omitempty"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
}

// CreateTable opens a new table.
func (c *Client) CreateTable(ctx context.Context, req TableRequest) (*domain.Table, error) {
	var t domain.Table
	if err := c.mutate(ctx, http.MethodPost, "/api/tables", req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTable replaces a table's editable fields.
func (c *Client) UpdateTable(ctx context.Context, id uuid.UUID, req TableRequest) (*domain.Table, error) {
	var t domain.Table
	if err := c.mutate(ctx, http.MethodPut, tablePath(id), req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTable removes a table with its players and history.
func (c *Client) DeleteTable(ctx context.Context, id uuid.UUID) error {
	return c.mutate(ctx, http.MethodDelete, tablePath(id), nil, nil)
}

// SetTableActive opens or closes a table.
func (c *Client) SetTableActive(ctx context.Context, id uuid.UUID, active bool) error {
	return c.mutate(ctx, http.MethodPut, tablePath(id)+"/status", map[string]bool{"isActive": active}, nil)
}

// PlayerRequest seats a player with an initial buy-in of Chips.
type PlayerRequest struct {
	Name     string  `json:"name"`
	Nickname *string `json:"nickname,omitempty"`
	Chips    int64   `json:"chips"`
}

// AddPlayer seats a player.
func (c *Client) AddPlayer(ctx context.Context, tableID uuid.UUID, req PlayerRequest) (*domain.Player, error) {
	var p domain.Player
	if err := c.mutate(ctx, http.MethodPost, tablePath(tableID)+"/players", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// RemovePlayer deletes a seat and its history.
func (c *Client) RemovePlayer(ctx context.Context, tableID, playerID uuid.UUID) error {
	return c.mutate(ctx, http.MethodDelete, playerPath(tableID, playerID), nil, nil)
}

// LedgerEntry is the response to a buy-in or cash-out.
type LedgerEntry struct {
	ID        uuid.UUID `json:"id"`
	Amount    int64     `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// BuyIn records a buy-in. Each call carries a fresh Idempotency-Key.
func (c *Client) BuyIn(ctx context.Context, tableID, playerID uuid.UUID, amount int64) (*LedgerEntry, error) {
	return c.ledgerEntry(ctx, playerPath(tableID, playerID)+"/buyins", amount)
}

// CashOut settles a player out of the game.
func (c *Client) CashOut(ctx context.Context, tableID, playerID uuid.UUID, amount int64) (*LedgerEntry, error) {
	return c.ledgerEntry(ctx, playerPath(tableID, playerID)+"/cashouts", amount)
}

func (c *Client) ledgerEntry(ctx context.Context, path string, amount int64) (*LedgerEntry, error) {
	var e LedgerEntry
	header := http.Header{}
	header.Set("Idempotency-Key", uuid.NewString())
	err := c.send(ctx, http.MethodPost, path, map[string]int64{"amount": amount}, &e, header)
	c.Invalidate()
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// UpdateChips corrects an active player's chip count.
func (c *Client) UpdateChips(ctx context.Context, tableID, playerID uuid.UUID, chips int64) error {
	return c.mutate(ctx, http.MethodPut, playerPath(tableID, playerID)+"/chips", map[string]int64{"chips": chips}, nil)
}

// Reactivate returns a cashed-out player to the table.
func (c *Client) Reactivate(ctx context.Context, tableID, playerID uuid.UUID) error {
	return c.mutate(ctx, http.MethodPut, playerPath(tableID, playerID)+"/reactivate", nil, nil)
}

// SetShowMe toggles the player's display flag.
func (c *Client) SetShowMe(ctx context.Context, tableID, playerID uuid.UUID, show bool) error {
	return c.mutate(ctx, http.MethodPut, playerPath(tableID, playerID)+"/showme", map[string]bool{"showMe": show}, nil)
}

// Statistics fetches the leaderboard. Without a token the public route is used.
func (c *Client) Statistics(ctx context.Context, minGames int) (*domain.Statistics, error) {
	path := "/api/statistics"
	if c.Token() == "" {
		path = "/api/public/statistics"
	}
	if minGames > 0 {
		path += "?" + url.Values{"minGames": {strconv.Itoa(minGames)}}.Encode()
	}
	var st domain.Statistics
	if err := c.do(ctx, http.MethodGet, path, nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// UniqueNames lists every distinct player name. The route is public.
func (c *Client) UniqueNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.do(ctx, http.MethodGet, "/api/players/unique-names", nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// ListUsers returns every account. Admin only.
func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Register creates an account. Admin only.
func (c *Client) Register(ctx context.Context, username, password string, role domain.Role) error {
	body := map[string]string{"username": username, "password": password, "role": string(role)}
	return c.do(ctx, http.MethodPost, "/api/register", body, nil)
}

// ChangeRole sets a user's role. Admin only.
func (c *Client) ChangeRole(ctx context.Context, userID uuid.UUID, role domain.Role) error {
	return c.do(ctx, http.MethodPut, "/api/users/"+userID.String()+"/role", map[string]string{"role": string(role)}, nil)
}

// DeleteUser removes an account. Admin only.
func (c *Client) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/users/"+userID.String(), nil, nil)
}

// ChangePassword updates a password. currentPassword may be empty for admins acting on others.
func (c *Client) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	body := map[string]string{"currentPassword": currentPassword, "newPassword": newPassword}
	return c.do(ctx, http.MethodPut, "/api/users/"+userID.String()+"/password", body, nil)
}

func (c *Client) mutate(ctx context.Context, method, path string, body, result any) error {
	err := c.do(ctx, method, path, body, result)
	c.Invalidate()
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	return c.send(ctx, method, path, body, result, nil)
}

func (c *Client) send(ctx context.Context, method, path string, body, result any, header http.Header) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
			apiErr.Message, apiErr.Code = payload.Error, payload.Code
		} else {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if result != nil && len(data) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func tablePath(id uuid.UUID) string {
	return "/api/tables/" + id.String()
}

func playerPath(tableID, playerID uuid.UUID) string {
	return tablePath(tableID) + "/players/" + playerID.String()
}
