package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pokerledger/platform/internal/domain"
	"github.com/pokerledger/platform/internal/repository"
)

// Engine runs the multi-step ledger mutations. Every command runs within the caller's
// transaction and starts by locking the player row, so two commands on the same player
// serialize while different players proceed in parallel. Aggregates are updated with
// server-side arithmetic.
type Engine struct {
	tables   repository.TableRepository
	players  repository.PlayerRepository
	buyIns   repository.BuyInRepository
	cashOuts repository.CashOutRepository
}

// NewEngine creates a ledger engine over the given store.
func NewEngine(store *repository.Store) *Engine {
	return &Engine{
		tables:   store.Tables,
		players:  store.Players,
		buyIns:   store.BuyIns,
		cashOuts: store.CashOuts,
	}
}

// LockPlayerForUpdate acquires a row-level lock and returns the player.
// A player seated at a different table is reported as not found.
// Must be called within a transaction.
func (e *Engine) LockPlayerForUpdate(ctx context.Context, tx pgx.Tx, ref domain.PlayerRef) (*domain.Player, error) {
	player, err := e.players.LockForUpdate(ctx, tx, ref.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("lock player: %w", err)
	}
	if player == nil || player.TableID != ref.TableID {
		return nil, domain.ErrNotFound("player", ref.PlayerID.String())
	}
	return player, nil
}

// lockTable locks the table row so it cannot be deleted or closed mid-command.
func (e *Engine) lockTable(ctx context.Context, tx pgx.Tx, tableID uuid.UUID) (*domain.Table, error) {
	table, err := e.tables.LockForUpdate(ctx, tx, tableID)
	if err != nil {
		return nil, fmt.Errorf("lock table: %w", err)
	}
	if table == nil {
		return nil, domain.ErrNotFound("table", tableID.String())
	}
	return table, nil
}

// LockTableWithPlayers locks the table and every player at it, then attaches the
// players' cash-outs so the balance can be evaluated without a concurrent writer.
func (e *Engine) LockTableWithPlayers(ctx context.Context, tx pgx.Tx, tableID uuid.UUID) (*domain.Table, error) {
	table, err := e.lockTable(ctx, tx, tableID)
	if err != nil {
		return nil, err
	}
	players, err := e.players.LockByTable(ctx, tx, tableID)
	if err != nil {
		return nil, fmt.Errorf("lock table players: %w", err)
	}

	ids := make([]uuid.UUID, len(players))
	for i := range players {
		ids[i] = players[i].ID
	}
	cashOuts, err := e.cashOuts.ListByPlayers(ctx, tx, ids)
	if err != nil {
		return nil, fmt.Errorf("list cashouts: %w", err)
	}
	byPlayer := make(map[uuid.UUID][]domain.CashOut, len(players))
	for _, c := range cashOuts {
		byPlayer[c.PlayerID] = append(byPlayer[c.PlayerID], c)
	}
	for i := range players {
		players[i].CashOuts = byPlayer[players[i].ID]
	}

	table.Players = players
	table.EnsureSlices()
	return table, nil
}

func newBuyIn(playerID uuid.UUID, amount int64) *domain.BuyIn {
	return &domain.BuyIn{ID: uuid.New(), PlayerID: playerID, Amount: amount}
}
