package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pokerledger/platform/internal/domain"
)

// ExecuteCashOut replaces any earlier cash-out with a new one and takes the player out
// of the game with zero chips. All three writes share the caller's transaction, so a
// failure at any step leaves the player untouched.
// Pattern: Lock → Delete prior cash-outs → Insert cash-out → Deactivate
func (e *Engine) ExecuteCashOut(ctx context.Context, tx pgx.Tx, params domain.AmountParams) (*domain.CommandResult, error) {
	if err := domain.ValidateNonNegativeAmount(params.Amount); err != nil {
		return nil, err
	}

	if _, err := e.LockPlayerForUpdate(ctx, tx, params.PlayerRef); err != nil {
		return nil, fmt.Errorf("cashout: %w", err)
	}

	if _, err := e.cashOuts.DeleteByPlayer(ctx, tx, params.PlayerID); err != nil {
		return nil, fmt.Errorf("cashout delete prior: %w", err)
	}

	cashOut := &domain.CashOut{ID: uuid.New(), PlayerID: params.PlayerID, Amount: params.Amount}
	if err := e.cashOuts.Insert(ctx, tx, cashOut); err != nil {
		return nil, fmt.Errorf("cashout insert: %w", err)
	}

	updated, err := e.players.CashOut(ctx, tx, params.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("cashout update player: %w", err)
	}
	if updated == nil {
		return nil, domain.ErrNotFound("player", params.PlayerID.String())
	}

	return &domain.CommandResult{Player: updated, CashOut: cashOut}, nil
}
