//go:build integration

package integration

import (
	"net/http"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokerledger/platform/internal/domain"
	"github.com/pokerledger/platform/test/integration/testutil"
)

func TestSettleAndCloseTable(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, token := env.SeedUser("editor", domain.RoleEditor)

	table := env.CreateTable(token, "T", 1, 2)
	alice := env.AddPlayer(token, table.ID, "Alice", 100)
	assert.EqualValues(t, 100, alice.Chips)
	assert.EqualValues(t, 100, alice.TotalBuyIn)
	assert.Equal(t, 1, env.CountRows("buyins", alice.ID))

	resp := env.POST(testutil.PlayerPath(table.ID, alice.ID)+"/buyins", map[string]any{"amount": 50}, token)
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()
	testutil.AssertPlayerRow(t, env, alice.ID, 150, 150, true)
	assert.Equal(t, 2, env.CountRows("buyins", alice.ID))

	resp = env.POST(testutil.PlayerPath(table.ID, alice.ID)+"/cashouts", map[string]any{"amount": 150}, token)
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()
	testutil.AssertPlayerRow(t, env, alice.ID, 0, 150, false)
	assert.Equal(t, 1, env.CountRows("cashouts", alice.ID))

	resp = env.PUT(testutil.TablePath(table.ID)+"/status", map[string]any{"isActive": false}, token)
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	assert.False(t, env.FetchTable(token, table.ID).IsActive)
}

func TestActivePlayerBlocksClose(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, token := env.SeedUser("editor", domain.RoleEditor)

	table := env.CreateTable(token, "T", 1, 2)
	env.AddPlayer(token, table.ID, "Bob", 50)

	resp := env.PUT(testutil.TablePath(table.ID)+"/status", map[string]any{"isActive": false}, token)
	testutil.AssertError(t, resp, http.StatusConflict, "TABLE_NOT_SETTLED", "")

	resp = env.AuthGET(testutil.TablePath(table.ID)+"/balance", token)
	testutil.AssertStatus(t, resp, http.StatusOK)
	var balance domain.TableBalance
	testutil.DecodeJSON(t, resp, &balance)
	assert.False(t, balance.AllPlayersInactive)
	assert.Equal(t, 1, balance.ActivePlayers)

	assert.True(t, env.FetchTable(token, table.ID).IsActive)
}

func TestUnbalancedTableRejectedOnClose(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, token := env.SeedUser("editor", domain.RoleEditor)

	table := env.CreateTable(token, "T", 1, 2)
	alice := env.AddPlayer(token, table.ID, "Alice", 100)

	// Bypass the API to build a table whose books do not add up.
	_, err := env.Pool.Exec(t.Context(), "UPDATE players SET active = false, chips = 0 WHERE id = $1", alice.ID)
	require.NoError(t, err)

	resp := env.PUT(testutil.TablePath(table.ID)+"/status", map[string]any{"isActive": false}, token)
	testutil.AssertError(t, resp, http.StatusConflict, "TABLE_NOT_SETTLED", "")
}

func TestRepeatedCashOutKeepsOneRow(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, token := env.SeedUser("editor", domain.RoleEditor)

	table := env.CreateTable(token, "T", 1, 2)
	alice := env.AddPlayer(token, table.ID, "Alice", 100)

	for _, amount := range []int64{40, 90, 120} {
		resp := env.POST(testutil.PlayerPath(table.ID, alice.ID)+"/cashouts", map[string]any{"amount": amount}, token)
		testutil.AssertStatus(t, resp, http.StatusOK)
		resp.Body.Close()
	}

	assert.Equal(t, 1, env.CountRows("cashouts", alice.ID))
	var amount int64
	require.NoError(t, env.Pool.QueryRow(t.Context(), "SELECT amount FROM cashouts WHERE player_id = $1", alice.ID).Scan(&amount))
	assert.EqualValues(t, 120, amount)

	// the schema refuses a second row even when the ledger engine is bypassed
	_, err := env.Pool.Exec(t.Context(),
		"INSERT INTO cashouts (id, player_id, amount) VALUES ($1, $2, 10)", uuid.New(), alice.ID)
	require.Error(t, err)
	assert.Equal(t, 1, env.CountRows("cashouts", alice.ID))
}

func TestConcurrentBuyInsKeepAggregates(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, token := env.SeedUser("editor", domain.RoleEditor)

	table := env.CreateTable(token, "T", 1, 2)
	alice := env.AddPlayer(token, table.ID, "Alice", 100)

	const workers = 20
	var wg sync.WaitGroup
	statuses := make([]int, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp := env.POST(testutil.PlayerPath(table.ID, alice.ID)+"/buyins", map[string]any{"amount": 5}, token)
			statuses[i] = resp.StatusCode
			resp.Body.Close()
		}(i)
	}
	wg.Wait()

	for _, s := range statuses {
		assert.Equal(t, http.StatusOK, s)
	}
	testutil.AssertPlayerRow(t, env, alice.ID, 200, 200, true)
	assert.Equal(t, workers+1, env.CountRows("buyins", alice.ID))
}

func TestDeleteTableCascades(t *testing.T) {
	env := testutil.NewTestEnv(t)
	tokens := env.RoleTokens()
	editor, admin := tokens[domain.RoleEditor], tokens[domain.RoleAdmin]

	table := env.CreateTable(editor, "T", 1, 2)
	alice := env.AddPlayer(editor, table.ID, "Alice", 100)
	bob := env.AddPlayer(editor, table.ID, "Bob", 50)
	resp := env.POST(testutil.PlayerPath(table.ID, bob.ID)+"/cashouts", map[string]any{"amount": 50}, editor)
	resp.Body.Close()

	resp = env.DELETE(testutil.PlayerPath(table.ID, alice.ID), editor)
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()
	assert.Zero(t, env.CountRows("buyins", alice.ID))

	resp = env.DELETE(testutil.TablePath(table.ID), admin)
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	assert.Zero(t, env.CountRows("buyins", bob.ID))
	assert.Zero(t, env.CountRows("cashouts", bob.ID))
	var players int
	require.NoError(t, env.Pool.QueryRow(t.Context(), "SELECT COUNT(*) FROM players WHERE table_id = $1", table.ID).Scan(&players))
	assert.Zero(t, players)

	resp = env.AuthGET(testutil.TablePath(table.ID), editor)
	testutil.AssertError(t, resp, http.StatusNotFound, "NOT_FOUND", "")
}

func TestReactivateActivePlayerIsNoop(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, token := env.SeedUser("editor", domain.RoleEditor)

	table := env.CreateTable(token, "T", 1, 2)
	alice := env.AddPlayer(token, table.ID, "Alice", 100)

	for i := 0; i < 2; i++ {
		resp := env.PUT(testutil.PlayerPath(table.ID, alice.ID)+"/reactivate", nil, token)
		testutil.AssertStatus(t, resp, http.StatusOK)
		resp.Body.Close()
	}
	testutil.AssertPlayerRow(t, env, alice.ID, 100, 100, true)
	assert.Zero(t, env.CountRows("cashouts", alice.ID))
}

func TestStatisticsAcrossTables(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, token := env.SeedUser("editor", domain.RoleEditor)

	for _, out := range []int64{130, 110} {
		table := env.CreateTable(token, "Night", 1, 2)
		alice := env.AddPlayer(token, table.ID, "Alice", 100)
		resp := env.POST(testutil.PlayerPath(table.ID, alice.ID)+"/cashouts", map[string]any{"amount": out}, token)
		resp.Body.Close()
	}

	resp := env.GET("/api/public/statistics?minGames=2")
	testutil.AssertStatus(t, resp, http.StatusOK)
	var st domain.Statistics
	testutil.DecodeJSON(t, resp, &st)
	require.Len(t, st.Players, 1)
	assert.Equal(t, "Alice", st.Players[0].Name)
	assert.EqualValues(t, 40, st.Players[0].NetResult)
	assert.Equal(t, 2, st.Players[0].GamesWon)
	assert.EqualValues(t, 30, st.SingleGame.MaxWin)
}
