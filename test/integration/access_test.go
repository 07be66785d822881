//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokerledger/platform/internal/domain"
	"github.com/pokerledger/platform/test/integration/testutil"
)

func TestMutatingRoutesRespectRoles(t *testing.T) {
	env := testutil.NewTestEnv(t)
	tokens := env.RoleTokens()
	editor := tokens[domain.RoleEditor]

	writers := map[domain.Role]bool{domain.RoleEditor: true, domain.RoleAdmin: true}
	admins := map[domain.Role]bool{domain.RoleAdmin: true}

	type call struct {
		name    string
		allowed map[domain.Role]bool
		build   func() (method, path string, body any)
	}
	seat := func() (uuid.UUID, uuid.UUID) {
		table := env.CreateTable(editor, "Gated", 1, 2)
		return table.ID, env.AddPlayer(editor, table.ID, "Alice", 100).ID
	}
	calls := []call{
		{"create table", writers, func() (string, string, any) {
			return http.MethodPost, "/api/tables", map[string]any{"name": "New", "smallBlind": 1, "bigBlind": 2}
		}},
		{"close table", writers, func() (string, string, any) {
			table := env.CreateTable(editor, "Empty", 1, 2)
			return http.MethodPut, testutil.TablePath(table.ID) + "/status", map[string]any{"isActive": false}
		}},
		{"delete table", admins, func() (string, string, any) {
			return http.MethodDelete, testutil.TablePath(env.CreateTable(editor, "Doomed", 1, 2).ID), nil
		}},
		{"add player", writers, func() (string, string, any) {
			table := env.CreateTable(editor, "Seats", 1, 2)
			return http.MethodPost, testutil.TablePath(table.ID) + "/players", map[string]any{"name": "Bob", "chips": 10}
		}},
		{"buy-in", writers, func() (string, string, any) {
			tableID, playerID := seat()
			return http.MethodPost, testutil.PlayerPath(tableID, playerID) + "/buyins", map[string]any{"amount": 10}
		}},
		{"cash-out", writers, func() (string, string, any) {
			tableID, playerID := seat()
			return http.MethodPost, testutil.PlayerPath(tableID, playerID) + "/cashouts", map[string]any{"amount": 100}
		}},
		{"update chips", writers, func() (string, string, any) {
			tableID, playerID := seat()
			return http.MethodPut, testutil.PlayerPath(tableID, playerID) + "/chips", map[string]any{"chips": 90}
		}},
		{"remove player", writers, func() (string, string, any) {
			tableID, playerID := seat()
			return http.MethodDelete, testutil.PlayerPath(tableID, playerID), nil
		}},
		{"register", admins, func() (string, string, any) {
			return http.MethodPost, "/api/register", map[string]any{
				"username": "user-" + uuid.NewString()[:8], "password": "password123", "role": "viewer",
			}
		}},
	}

	for _, c := range calls {
		for _, role := range domain.AllRoles() {
			t.Run(c.name+"/"+string(role), func(t *testing.T) {
				method, path, body := c.build()
				resp := env.Do(method, path, body, tokens[role])
				if c.allowed[role] {
					assert.Less(t, resp.StatusCode, 300)
					resp.Body.Close()
					return
				}
				testutil.AssertError(t, resp, http.StatusForbidden, "FORBIDDEN", domain.MsgInsufficientRole)
			})
		}
	}
}

func TestLoginFailuresShareMessage(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.SeedUser("alice", domain.RoleViewer)

	resp := env.POST("/api/login", map[string]string{"username": "alice", "password": "wrong-password"}, "")
	testutil.AssertError(t, resp, http.StatusUnauthorized, "UNAUTHORIZED", domain.MsgInvalidCredentials)

	resp = env.POST("/api/login", map[string]string{"username": "nobody", "password": "wrong-password"}, "")
	testutil.AssertError(t, resp, http.StatusUnauthorized, "UNAUTHORIZED", domain.MsgInvalidCredentials)

	resp = env.POST("/api/login", map[string]string{"username": "alice", "password": testutil.TestPassword}, "")
	testutil.AssertStatus(t, resp, http.StatusOK)
	var login struct {
		Token string          `json:"token"`
		User  domain.Identity `json:"user"`
	}
	testutil.DecodeJSON(t, resp, &login)
	require.NotEmpty(t, login.Token)
	assert.Equal(t, domain.RoleViewer, login.User.Role)

	resp = env.AuthGET("/api/users/me", login.Token)
	testutil.AssertStatus(t, resp, http.StatusOK)
	var me domain.Identity
	testutil.DecodeJSON(t, resp, &me)
	assert.Equal(t, "alice", me.Username)
}

func TestMissingAndInvalidTokens(t *testing.T) {
	env := testutil.NewTestEnv(t)

	resp := env.GET("/api/tables")
	testutil.AssertError(t, resp, http.StatusUnauthorized, "UNAUTHORIZED", domain.MsgMissingToken)

	resp = env.AuthGET("/api/tables", "not-a-jwt")
	testutil.AssertError(t, resp, http.StatusUnauthorized, "UNAUTHORIZED", domain.MsgInvalidToken)

	resp = env.GET("/api/public/tables")
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestLastAdminCannotBeDemoted(t *testing.T) {
	env := testutil.NewTestEnv(t)
	admin, token := env.SeedUser("root", domain.RoleAdmin)

	resp := env.PUT("/api/users/"+admin.ID.String()+"/role", map[string]string{"role": "viewer"}, token)
	testutil.AssertError(t, resp, http.StatusConflict, "CONFLICT", "")

	other, _ := env.SeedUser("second", domain.RoleAdmin)
	resp = env.PUT("/api/users/"+other.ID.String()+"/role", map[string]string{"role": "editor"}, token)
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	var role string
	require.NoError(t, env.Pool.QueryRow(t.Context(), "SELECT role FROM users WHERE id = $1", other.ID).Scan(&role))
	assert.Equal(t, "editor", role)
}

func TestDeletingCreatorKeepsTables(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, adminToken := env.SeedUser("root", domain.RoleAdmin)
	creator, editorToken := env.SeedUser("creator", domain.RoleEditor)

	table := env.CreateTable(editorToken, "Kept", 1, 2)

	resp := env.DELETE("/api/users/"+creator.ID.String(), adminToken)
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	kept := env.FetchTable(adminToken, table.ID)
	assert.Nil(t, kept.CreatorID)
}
