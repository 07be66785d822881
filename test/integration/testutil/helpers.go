//go:build integration

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/pokerledger/platform/internal/domain"
)

// Do sends a JSON request. An empty token sends no Authorization header.
func (env *TestEnv) Do(method, path string, body any, token string, headers ...string) *http.Response {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("%s %s: encode: %v", method, path, err)
		}
	}
	req, err := http.NewRequest(method, env.Server.URL+path, &buf)
	if err != nil {
		env.t.Fatalf("%s %s: new request: %v", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

// GET performs an unauthenticated GET request.
func (env *TestEnv) GET(path string) *http.Response {
	env.t.Helper()
	return env.Do(http.MethodGet, path, nil, "")
}

// AuthGET performs an authenticated GET request.
func (env *TestEnv) AuthGET(path, token string) *http.Response {
	env.t.Helper()
	return env.Do(http.MethodGet, path, nil, token)
}

// POST performs a POST request with optional auth token.
func (env *TestEnv) POST(path string, body any, token string) *http.Response {
	env.t.Helper()
	return env.Do(http.MethodPost, path, body, token)
}

// PUT performs an authenticated PUT request.
func (env *TestEnv) PUT(path string, body any, token string) *http.Response {
	env.t.Helper()
	return env.Do(http.MethodPut, path, body, token)
}

// DELETE performs an authenticated DELETE request.
func (env *TestEnv) DELETE(path, token string) *http.Response {
	env.t.Helper()
	return env.Do(http.MethodDelete, path, nil, token)
}

// SeedUser inserts a user directly and returns it with a signed token.
func (env *TestEnv) SeedUser(username string, role domain.Role) (*domain.User, string) {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		env.t.Fatalf("SeedUser: hash: %v", err)
	}
	user := &domain.User{ID: uuid.New(), Username: username, PasswordHash: string(hash), Role: role}
	err = env.Pool.QueryRow(ctx,
		`INSERT INTO users (id, username, password_hash, role) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		user.ID, user.Username, user.PasswordHash, string(user.Role)).Scan(&user.CreatedAt)
	if err != nil {
		env.t.Fatalf("SeedUser: insert: %v", err)
	}
	token, err := env.JWTMgr.GenerateToken(user)
	if err != nil {
		env.t.Fatalf("SeedUser: token: %v", err)
	}
	return user, token
}

// RoleTokens seeds one user per role and returns their tokens.
func (env *TestEnv) RoleTokens() map[domain.Role]string {
	env.t.Helper()
	tokens := make(map[domain.Role]string)
	for _, role := range domain.AllRoles() {
		_, tokens[role] = env.SeedUser(string(role)+"-user", role)
	}
	return tokens
}

// CreateTable opens a table through the API and fails the test on any non-201 response.
func (env *TestEnv) CreateTable(token, name string, small, big int64) domain.Table {
	env.t.Helper()
	resp := env.POST("/api/tables", map[string]any{"name": name, "smallBlind": small, "bigBlind": big}, token)
	AssertStatus(env.t, resp, http.StatusCreated)
	var t domain.Table
	DecodeJSON(env.t, resp, &t)
	return t
}

// AddPlayer seats a player through the API.
func (env *TestEnv) AddPlayer(token string, tableID uuid.UUID, name string, chips int64) domain.Player {
	env.t.Helper()
	resp := env.POST(TablePath(tableID)+"/players", map[string]any{"name": name, "chips": chips}, token)
	AssertStatus(env.t, resp, http.StatusCreated)
	var p domain.Player
	DecodeJSON(env.t, resp, &p)
	return p
}

// FetchTable reads a table through the API.
func (env *TestEnv) FetchTable(token string, tableID uuid.UUID) domain.Table {
	env.t.Helper()
	resp := env.AuthGET(TablePath(tableID), token)
	AssertStatus(env.t, resp, http.StatusOK)
	var t domain.Table
	DecodeJSON(env.t, resp, &t)
	return t
}

// CountRows counts rows of a ledger table for the given player.
func (env *TestEnv) CountRows(table string, playerID uuid.UUID) int {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var n int
	if err := env.Pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE player_id = $1", table), playerID).Scan(&n); err != nil {
		env.t.Fatalf("CountRows %s: %v", table, err)
	}
	return n
}

// TablePath returns /api/tables/{id}.
func TablePath(id uuid.UUID) string {
	return "/api/tables/" + id.String()
}

// PlayerPath returns /api/tables/{tableId}/players/{playerId}.
func PlayerPath(tableID, playerID uuid.UUID) string {
	return TablePath(tableID) + "/players/" + playerID.String()
}
