package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pokerledger/platform/internal/domain"
)

// ExecuteBuyIn appends a buy-in and raises chips and total buy-in by the same amount.
// Pattern: Lock → Insert buy-in → Increment aggregates
func (e *Engine) ExecuteBuyIn(ctx context.Context, tx pgx.Tx, params domain.AmountParams) (*domain.CommandResult, error) {
	if err := domain.ValidatePositiveAmount(params.Amount); err != nil {
		return nil, err
	}

	if _, err := e.LockPlayerForUpdate(ctx, tx, params.PlayerRef); err != nil {
		return nil, fmt.Errorf("buyin: %w", err)
	}

	buyIn := newBuyIn(params.PlayerID, params.Amount)
	if err := e.buyIns.Insert(ctx, tx, buyIn); err != nil {
		return nil, fmt.Errorf("buyin insert: %w", err)
	}

	updated, err := e.players.AddBuyIn(ctx, tx, params.PlayerID, params.Amount)
	if err != nil {
		return nil, fmt.Errorf("buyin update player: %w", err)
	}
	if updated == nil {
		return nil, domain.ErrNotFound("player", params.PlayerID.String())
	}

	return &domain.CommandResult{Player: updated, BuyIn: buyIn}, nil
}
