package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pokerledger/platform/internal/domain"
)

type tableRepo struct{}

// NewTableRepository returns a pgx-backed TableRepository.
func NewTableRepository() TableRepository {
	return &tableRepo{}
}

const tableColumns = `id, name, small_blind, big_blind, location, is_active, created_at, creator_id`

func (r *tableRepo) List(ctx context.Context, db DBTX) ([]domain.Table, error) {
	rows, err := db.Query(ctx, `SELECT `+tableColumns+` FROM poker_tables ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	tables := []domain.Table{}
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, *t)
	}
	return tables, rows.Err()
}

func (r *tableRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Table, error) {
	row := db.QueryRow(ctx, `SELECT `+tableColumns+` FROM poker_tables WHERE id = $1`, id)
	return scanTable(row)
}

func (r *tableRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Table, error) {
	row := tx.QueryRow(ctx, `SELECT `+tableColumns+` FROM poker_tables WHERE id = $1 FOR UPDATE`, id)
	return scanTable(row)
}

func (r *tableRepo) Create(ctx context.Context, db DBTX, t *domain.Table) error {
	err := db.QueryRow(ctx, `
		INSERT INTO poker_tables (id, name, small_blind, big_blind, location, is_active, creator_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		t.ID, t.Name, t.SmallBlind, t.BigBlind, t.Location, t.IsActive, t.CreatorID,
	).Scan(&t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert table: %w", err)
	}
	return nil
}

func (r *tableRepo) Update(ctx context.Context, db DBTX, t *domain.Table) (bool, error) {
	tag, err := db.Exec(ctx, `
		UPDATE poker_tables
		SET name = $1, small_blind = $2, big_blind = $3, location = $4, created_at = $5
		WHERE id = $6`,
		t.Name, t.SmallBlind, t.BigBlind, t.Location, t.CreatedAt, t.ID)
	if err != nil {
		return false, fmt.Errorf("update table: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *tableRepo) SetActive(ctx context.Context, db DBTX, id uuid.UUID, active bool) (bool, error) {
	tag, err := db.Exec(ctx, `UPDATE poker_tables SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return false, fmt.Errorf("set table active: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *tableRepo) Delete(ctx context.Context, db DBTX, id uuid.UUID) (bool, error) {
	tag, err := db.Exec(ctx, `DELETE FROM poker_tables WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete table: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanTable(row pgx.Row) (*domain.Table, error) {
	var t domain.Table
	err := row.Scan(&t.ID, &t.Name, &t.SmallBlind, &t.BigBlind, &t.Location, &t.IsActive, &t.CreatedAt, &t.CreatorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan table: %w", err)
	}
	return &t, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
