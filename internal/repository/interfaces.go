package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pokerledger/platform/internal/domain"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// DB is the storage handle opened once at startup. *pgxpool.Pool satisfies it.
type DB interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// UserRepository provides access to users.
type UserRepository interface {
	// FindByID returns a user by ID, or nil if absent.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.User, error)

	// FindByUsername performs a case-sensitive lookup.
	FindByUsername(ctx context.Context, db DBTX, username string) (*domain.User, error)

	// List returns every user ordered by username.
	List(ctx context.Context, db DBTX) ([]domain.User, error)

	// Create inserts a user. Returns ErrUsernameTaken on a duplicate name.
	Create(ctx context.Context, db DBTX, user *domain.User) error

	UpdateRole(ctx context.Context, db DBTX, id uuid.UUID, role domain.Role) (bool, error)
	UpdatePasswordHash(ctx context.Context, db DBTX, id uuid.UUID, hash string) (bool, error)
	UpdateUsername(ctx context.Context, db DBTX, id uuid.UUID, username string) (bool, error)

	// Delete removes a user and reports whether a row existed.
	Delete(ctx context.Context, db DBTX, id uuid.UUID) (bool, error)

	// LockRole locks every user holding role and returns their ids.
	// Must be called within a transaction.
	LockRole(ctx context.Context, tx pgx.Tx, role domain.Role) ([]uuid.UUID, error)
}

// TableRepository provides access to poker_tables. Returned tables carry no players.
type TableRepository interface {
	// List returns tables newest first.
	List(ctx context.Context, db DBTX) ([]domain.Table, error)
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Table, error)

	// LockForUpdate acquires a row-level lock (SELECT FOR UPDATE) and returns the table.
	LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Table, error)

	Create(ctx context.Context, db DBTX, table *domain.Table) error

	// Update overwrites name, blinds, location and created_at.
	Update(ctx context.Context, db DBTX, table *domain.Table) (bool, error)
	SetActive(ctx context.Context, db DBTX, id uuid.UUID, active bool) (bool, error)

	// Delete removes the table; players and their history cascade.
	Delete(ctx context.Context, db DBTX, id uuid.UUID) (bool, error)
}

// PlayerRepository provides access to players. Returned players carry no history.
type PlayerRepository interface {
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Player, error)

	// ListByTables returns the players of the given tables in seating order.
	ListByTables(ctx context.Context, db DBTX, tableIDs []uuid.UUID) ([]domain.Player, error)

	// LockForUpdate acquires a row-level lock (SELECT FOR UPDATE) and returns the player.
	LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Player, error)

	// LockByTable locks every player seated at the table.
	LockByTable(ctx context.Context, tx pgx.Tx, tableID uuid.UUID) ([]domain.Player, error)

	Create(ctx context.Context, db DBTX, player *domain.Player) error
	Delete(ctx context.Context, db DBTX, id uuid.UUID) (bool, error)

	// AddBuyIn increments chips and total_buy_in using server-side arithmetic.
	AddBuyIn(ctx context.Context, db DBTX, id uuid.UUID, amount int64) (*domain.Player, error)

	// CashOut sets active=false and chips=0.
	CashOut(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Player, error)

	SetChips(ctx context.Context, db DBTX, id uuid.UUID, chips int64) (*domain.Player, error)
	SetActive(ctx context.Context, db DBTX, id uuid.UUID, active bool) (*domain.Player, error)
	SetShowMe(ctx context.Context, db DBTX, id uuid.UUID, showMe bool) (*domain.Player, error)

	// DistinctNames returns distinct player names, case-insensitively ordered.
	DistinctNames(ctx context.Context, db DBTX) ([]string, error)
}

// BuyInRepository provides access to the append-only buyins table.
type BuyInRepository interface {
	Insert(ctx context.Context, db DBTX, buyIn *domain.BuyIn) error
	ListByPlayers(ctx context.Context, db DBTX, playerIDs []uuid.UUID) ([]domain.BuyIn, error)
}

// CashOutRepository provides access to cashouts.
type CashOutRepository interface {
	Insert(ctx context.Context, db DBTX, cashOut *domain.CashOut) error

	// DeleteByPlayer removes prior cash-outs and returns how many were removed.
	DeleteByPlayer(ctx context.Context, db DBTX, playerID uuid.UUID) (int64, error)
	ListByPlayers(ctx context.Context, db DBTX, playerIDs []uuid.UUID) ([]domain.CashOut, error)
}

// LoginAttemptRepository provides access to login_attempts.
type LoginAttemptRepository interface {
	Record(ctx context.Context, db DBTX, username, ip string, success bool) error

	// CountFailuresSince counts failed attempts for username after since.
	CountFailuresSince(ctx context.Context, db DBTX, username string, since time.Time) (int, error)
}

// Store bundles every repository so services take one dependency.
type Store struct {
	Users         UserRepository
	Tables        TableRepository
	Players       PlayerRepository
	BuyIns        BuyInRepository
	CashOuts      CashOutRepository
	LoginAttempts LoginAttemptRepository
}

// NewStore returns the pgx-backed repositories.
func NewStore() *Store {
	return &Store{
		Users:         NewUserRepository(),
		Tables:        NewTableRepository(),
		Players:       NewPlayerRepository(),
		BuyIns:        NewBuyInRepository(),
		CashOuts:      NewCashOutRepository(),
		LoginAttempts: NewLoginAttemptRepository(),
	}
}
