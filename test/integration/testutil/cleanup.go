//go:build integration

package testutil

import (
	"context"
	"strings"
	"time"
)

// truncated lists every application table. Players and ledger rows also go by cascade.
var truncated = []string{"cashouts", "buyins", "players", "poker_tables", "login_attempts", "users"}

// CleanAll empties the database between tests.
func (env *TestEnv) CleanAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmt := "TRUNCATE TABLE " + strings.Join(truncated, ", ") + " RESTART IDENTITY CASCADE"
	if _, err := env.Pool.Exec(ctx, stmt); err != nil {
		env.t.Fatalf("truncate %v: %v", truncated, err)
	}
}
