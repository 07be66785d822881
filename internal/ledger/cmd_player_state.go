package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pokerledger/platform/internal/domain"
)

// ExecuteChipCorrection overrides the chip count without touching the buy-in ledger.
func (e *Engine) ExecuteChipCorrection(ctx context.Context, tx pgx.Tx, params domain.AmountParams) (*domain.CommandResult, error) {
	if err := domain.ValidateNonNegativeAmount(params.Amount); err != nil {
		return nil, err
	}

	if _, err := e.LockPlayerForUpdate(ctx, tx, params.PlayerRef); err != nil {
		return nil, fmt.Errorf("chip correction: %w", err)
	}

	updated, err := e.players.SetChips(ctx, tx, params.PlayerID, params.Amount)
	if err != nil {
		return nil, fmt.Errorf("chip correction update: %w", err)
	}
	return &domain.CommandResult{Player: updated}, nil
}

// ExecuteReactivate puts a player back in the game. Chips and the cash-out record are
// left as they are; an already active player is a no-op.
func (e *Engine) ExecuteReactivate(ctx context.Context, tx pgx.Tx, ref domain.PlayerRef) (*domain.CommandResult, error) {
	player, err := e.LockPlayerForUpdate(ctx, tx, ref)
	if err != nil {
		return nil, fmt.Errorf("reactivate: %w", err)
	}
	if player.Active {
		return &domain.CommandResult{Player: player, Noop: true}, nil
	}

	updated, err := e.players.SetActive(ctx, tx, ref.PlayerID, true)
	if err != nil {
		return nil, fmt.Errorf("reactivate update: %w", err)
	}
	return &domain.CommandResult{Player: updated}, nil
}

// ExecuteSetShowMe toggles whether the player appears on shared views.
func (e *Engine) ExecuteSetShowMe(ctx context.Context, tx pgx.Tx, ref domain.PlayerRef, showMe bool) (*domain.CommandResult, error) {
	player, err := e.LockPlayerForUpdate(ctx, tx, ref)
	if err != nil {
		return nil, fmt.Errorf("set show me: %w", err)
	}
	if player.ShowMe == showMe {
		return &domain.CommandResult{Player: player, Noop: true}, nil
	}

	updated, err := e.players.SetShowMe(ctx, tx, ref.PlayerID, showMe)
	if err != nil {
		return nil, fmt.Errorf("set show me update: %w", err)
	}
	return &domain.CommandResult{Player: updated}, nil
}

// ExecuteRemovePlayer deletes the player; buy-ins and cash-outs cascade.
func (e *Engine) ExecuteRemovePlayer(ctx context.Context, tx pgx.Tx, ref domain.PlayerRef) error {
	if _, err := e.LockPlayerForUpdate(ctx, tx, ref); err != nil {
		return fmt.Errorf("remove player: %w", err)
	}

	deleted, err := e.players.Delete(ctx, tx, ref.PlayerID)
	if err != nil {
		return fmt.Errorf("remove player delete: %w", err)
	}
	if !deleted {
		return domain.ErrNotFound("player", ref.PlayerID.String())
	}
	return nil
}
