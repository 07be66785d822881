//go:build integration

package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
)

// DecodeJSON reads and decodes a JSON response body into dst.
func DecodeJSON(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
}

// AssertStatus checks that the response has the expected HTTP status code.
func AssertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// AssertError checks the status and the {"error","code"} body. An empty message is not compared.
func AssertError(t *testing.T, resp *http.Response, status int, code, message string) {
	t.Helper()
	AssertStatus(t, resp, status)
	var errResp struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	DecodeJSON(t, resp, &errResp)
	if errResp.Code != code {
		t.Errorf("expected error code %q, got %q (error: %s)", code, errResp.Code, errResp.Error)
	}
	if message != "" && errResp.Error != message {
		t.Errorf("expected error %q, got %q", message, errResp.Error)
	}
}

// AssertPlayerRow checks the stored aggregates of a player.
func AssertPlayerRow(t *testing.T, env *TestEnv, playerID uuid.UUID, chips, totalBuyIn int64, active bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var c, tb int64
	var a bool
	err := env.Pool.QueryRow(ctx,
		"SELECT chips, total_buy_in, active FROM players WHERE id = $1", playerID).Scan(&c, &tb, &a)
	if err != nil {
		t.Fatalf("AssertPlayerRow: query: %v", err)
	}
	if c != chips {
		t.Errorf("chips: expected %d, got %d", chips, c)
	}
	if tb != totalBuyIn {
		t.Errorf("total_buy_in: expected %d, got %d", totalBuyIn, tb)
	}
	if a != active {
		t.Errorf("active: expected %v, got %v", active, a)
	}
}
