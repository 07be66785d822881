package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pokerledger/platform/internal/domain"
)

// ExecuteSeatPlayer creates a player and its initial buy-in, even when the initial
// chips are zero.
// Pattern: Lock table → Insert player → Insert buy-in
func (e *Engine) ExecuteSeatPlayer(ctx context.Context, tx pgx.Tx, params domain.SeatPlayerParams) (*domain.CommandResult, error) {
	name := strings.TrimSpace(params.Name)
	if err := domain.ValidateName("player", name); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if err := domain.ValidateNonNegativeAmount(params.InitialChips); err != nil {
		return nil, err
	}

	if _, err := e.lockTable(ctx, tx, params.TableID); err != nil {
		return nil, fmt.Errorf("seat player: %w", err)
	}

	player := &domain.Player{
		ID:         uuid.New(),
		TableID:    params.TableID,
		Name:       name,
		Nickname:   normalizeNickname(params.Nickname),
		Chips:      params.InitialChips,
		TotalBuyIn: params.InitialChips,
		Active:     true,
		ShowMe:     true,
	}
	if err := e.players.Create(ctx, tx, player); err != nil {
		return nil, fmt.Errorf("seat player: %w", err)
	}

	buyIn := newBuyIn(player.ID, params.InitialChips)
	if err := e.buyIns.Insert(ctx, tx, buyIn); err != nil {
		return nil, fmt.Errorf("seat player initial buyin: %w", err)
	}

	player.BuyIns = []domain.BuyIn{*buyIn}
	player.CashOuts = []domain.CashOut{}
	return &domain.CommandResult{Player: player, BuyIn: buyIn}, nil
}

func normalizeNickname(nickname *string) *string {
	if nickname == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*nickname)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
