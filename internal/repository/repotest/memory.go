// Package repotest provides in-memory repositories and a transactional fake of the
// storage handle for unit tests.
package repotest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pokerledger/platform/internal/domain"
	"github.com/pokerledger/platform/internal/repository"
)

// ErrNoSQL is returned when code under test issues raw SQL against the fake.
var ErrNoSQL = errors.New("repotest: raw SQL is not supported")

// Memory is an in-memory database. It implements repository.DB; transactions are
// serialized and a rollback restores the state captured at Begin.
type Memory struct {
	txMu sync.Mutex

	mu       sync.Mutex
	state    state
	faults   map[string]error
	calls    map[string]int
	last     time.Time
	pingErr  error
	txCount  int
	rollback int
}

type state struct {
	users    map[uuid.UUID]domain.User
	tables   map[uuid.UUID]domain.Table
	players  map[uuid.UUID]domain.Player
	buyIns   []domain.BuyIn
	cashOuts []domain.CashOut
	attempts []attempt
}

type attempt struct {
	username string
	ip       string
	success  bool
	at       time.Time
}

// New returns an empty in-memory database.
func New() *Memory {
	return &Memory{
		state: state{
			users:   make(map[uuid.UUID]domain.User),
			tables:  make(map[uuid.UUID]domain.Table),
			players: make(map[uuid.UUID]domain.Player),
		},
		faults: make(map[string]error),
		calls:  make(map[string]int),
	}
}

// Store returns repositories backed by m.
func (m *Memory) Store() *repository.Store {
	return &repository.Store{
		Users:         &userRepo{m},
		Tables:        &tableRepo{m},
		Players:       &playerRepo{m},
		BuyIns:        &buyInRepo{m},
		CashOuts:      &cashOutRepo{m},
		LoginAttempts: &attemptRepo{m},
	}
}

// FailNext makes the next call of op return err. Ops are named "<table>.<method>",
// for example "cashouts.Insert" or "players.AddBuyIn".
func (m *Memory) FailNext(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faults[op] = err
}

// Calls reports how many times op has been invoked, including failed calls.
func (m *Memory) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// SetPingError controls the result of Ping.
func (m *Memory) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingErr = err
}

// Stats reports how many transactions were started and rolled back.
func (m *Memory) Stats() (begun, rolledBack int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.txCount, m.rollback
}

// CountBuyIns returns the number of buy-in rows for a player.
func (m *Memory) CountBuyIns(playerID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.state.buyIns {
		if b.PlayerID == playerID {
			n++
		}
	}
	return n
}

// CountCashOuts returns the number of cash-out rows for a player.
func (m *Memory) CountCashOuts(playerID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.state.cashOuts {
		if c.PlayerID == playerID {
			n++
		}
	}
	return n
}

// Ping reports the configured ping error.
func (m *Memory) Ping(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pingErr
}

func (m *Memory) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, ErrNoSQL
}

func (m *Memory) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, ErrNoSQL
}

func (m *Memory) QueryRow(context.Context, string, ...interface{}) pgx.Row {
	return errRow{}
}

// Begin starts a transaction, blocking until any other transaction finishes.
func (m *Memory) Begin(ctx context.Context) (pgx.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.txMu.Lock()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFault("db.Begin"); err != nil {
		m.txMu.Unlock()
		return nil, err
	}
	m.txCount++
	return &fakeTx{m: m, saved: m.state.clone()}, nil
}

// takeFault must be called with mu held. Every repository method calls it once.
func (m *Memory) takeFault(op string) error {
	m.calls[op]++
	err, ok := m.faults[op]
	if !ok {
		return nil
	}
	delete(m.faults, op)
	return err
}

// now returns a strictly increasing timestamp so ordering by time is stable.
func (m *Memory) now() time.Time {
	t := time.Now().UTC()
	if !t.After(m.last) {
		t = m.last.Add(time.Microsecond)
	}
	m.last = t
	return t
}

func (s state) clone() state {
	c := state{
		users:    make(map[uuid.UUID]domain.User, len(s.users)),
		tables:   make(map[uuid.UUID]domain.Table, len(s.tables)),
		players:  make(map[uuid.UUID]domain.Player, len(s.players)),
		buyIns:   append([]domain.BuyIn(nil), s.buyIns...),
		cashOuts: append([]domain.CashOut(nil), s.cashOuts...),
		attempts: append([]attempt(nil), s.attempts...),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.tables {
		c.tables[k] = v
	}
	for k, v := range s.players {
		c.players[k] = v
	}
	return c
}

type fakeTx struct {
	pgx.Tx
	m     *Memory
	saved state
	done  bool
}

func (tx *fakeTx) Commit(ctx context.Context) error {
	if tx.done {
		return pgx.ErrTxClosed
	}
	tx.m.mu.Lock()
	err := tx.m.takeFault("tx.Commit")
	if err != nil {
		tx.m.state = tx.saved
		tx.m.rollback++
	}
	tx.m.mu.Unlock()
	tx.finish()
	return err
}

func (tx *fakeTx) Rollback(context.Context) error {
	if tx.done {
		return pgx.ErrTxClosed
	}
	tx.m.mu.Lock()
	tx.m.state = tx.saved
	tx.m.rollback++
	tx.m.mu.Unlock()
	tx.finish()
	return nil
}

func (tx *fakeTx) finish() {
	tx.done = true
	tx.m.txMu.Unlock()
}

func (tx *fakeTx) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, ErrNoSQL
}

func (tx *fakeTx) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, ErrNoSQL
}

func (tx *fakeTx) QueryRow(context.Context, string, ...interface{}) pgx.Row {
	return errRow{}
}

type errRow struct{}

func (errRow) Scan(...any) error { return ErrNoSQL }

func checkNonNegative(column string, v int64) error {
	if v < 0 {
		return fmt.Errorf("repotest: check constraint violated: %s >= 0", column)
	}
	return nil
}
