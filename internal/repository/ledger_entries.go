package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pokerledger/platform/internal/domain"
)

type buyInRepo struct{}

// NewBuyInRepository returns a pgx-backed BuyInRepository.
func NewBuyInRepository() BuyInRepository {
	return &buyInRepo{}
}

func (r *buyInRepo) Insert(ctx context.Context, db DBTX, b *domain.BuyIn) error {
	err := db.QueryRow(ctx, `
		INSERT INTO buyins (id, player_id, amount)
		VALUES ($1, $2, $3)
		RETURNING timestamp`,
		b.ID, b.PlayerID, b.Amount,
	).Scan(&b.Timestamp)
	if err != nil {
		return fmt.Errorf("insert buyin: %w", err)
	}
	return nil
}

func (r *buyInRepo) ListByPlayers(ctx context.Context, db DBTX, playerIDs []uuid.UUID) ([]domain.BuyIn, error) {
	buyIns := []domain.BuyIn{}
	if len(playerIDs) == 0 {
		return buyIns, nil
	}
	rows, err := db.Query(ctx, `
		SELECT id, player_id, amount, timestamp FROM buyins
		WHERE player_id = ANY($1::uuid[])
		ORDER BY timestamp, id`, uuidStrings(playerIDs))
	if err != nil {
		return nil, fmt.Errorf("list buyins: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var b domain.BuyIn
		if err := rows.Scan(&b.ID, &b.PlayerID, &b.Amount, &b.Timestamp); err != nil {
			return nil, fmt.Errorf("scan buyin: %w", err)
		}
		buyIns = append(buyIns, b)
	}
	return buyIns, rows.Err()
}

type cashOutRepo struct{}

// NewCashOutRepository returns a pgx-backed CashOutRepository.
func NewCashOutRepository() CashOutRepository {
	return &cashOutRepo{}
}

func (r *cashOutRepo) Insert(ctx context.Context, db DBTX, c *domain.CashOut) error {
	err := db.QueryRow(ctx, `
		INSERT INTO cashouts (id, player_id, amount)
		VALUES ($1, $2, $3)
		RETURNING timestamp`,
		c.ID, c.PlayerID, c.Amount,
	).Scan(&c.Timestamp)
	if err != nil {
		return fmt.Errorf("insert cashout: %w", err)
	}
	return nil
}

func (r *cashOutRepo) DeleteByPlayer(ctx context.Context, db DBTX, playerID uuid.UUID) (int64, error) {
	tag, err := db.Exec(ctx, `DELETE FROM cashouts WHERE player_id = $1`, playerID)
	if err != nil {
		return 0, fmt.Errorf("delete cashouts: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *cashOutRepo) ListByPlayers(ctx context.Context, db DBTX, playerIDs []uuid.UUID) ([]domain.CashOut, error) {
	cashOuts := []domain.CashOut{}
	if len(playerIDs) == 0 {
		return cashOuts, nil
	}
	rows, err := db.Query(ctx, `
		SELECT id, player_id, amount, timestamp FROM cashouts
		WHERE player_id = ANY($1::uuid[])
		ORDER BY timestamp, id`, uuidStrings(playerIDs))
	if err != nil {
		return nil, fmt.Errorf("list cashouts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.CashOut
		if err := rows.Scan(&c.ID, &c.PlayerID, &c.Amount, &c.Timestamp); err != nil {
			return nil, fmt.Errorf("scan cashout: %w", err)
		}
		cashOuts = append(cashOuts, c)
	}
	return cashOuts, rows.Err()
}
