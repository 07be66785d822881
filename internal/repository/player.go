package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pokerledger/platform/internal/domain"
)

type playerRepo struct{}

// NewPlayerRepository returns a pgx-backed PlayerRepository.
func NewPlayerRepository() PlayerRepository {
	return &playerRepo{}
}

const playerColumns = `id, table_id, name, nickname, chips, total_buy_in, active, show_me, seated_at`

func (r *playerRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Player, error) {
	row := db.QueryRow(ctx, `SELECT `+playerColumns+` FROM players WHERE id = $1`, id)
	return scanPlayer(row)
}

func (r *playerRepo) ListByTables(ctx context.Context, db DBTX, tableIDs []uuid.UUID) ([]domain.Player, error) {
	players := []domain.Player{}
	if len(tableIDs) == 0 {
		return players, nil
	}
	rows, err := db.Query(ctx, `
		SELECT `+playerColumns+` FROM players
		WHERE table_id = ANY($1::uuid[])
		ORDER BY seated_at, id`, uuidStrings(tableIDs))
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, *p)
	}
	return players, rows.Err()
}

func (r *playerRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Player, error) {
	row := tx.QueryRow(ctx, `SELECT `+playerColumns+` FROM players WHERE id = $1 FOR UPDATE`, id)
	return scanPlayer(row)
}

func (r *playerRepo) LockByTable(ctx context.Context, tx pgx.Tx, tableID uuid.UUID) ([]domain.Player, error) {
	rows, err := tx.Query(ctx, `
		SELECT `+playerColumns+` FROM players
		WHERE table_id = $1
		ORDER BY id FOR UPDATE`, tableID)
	if err != nil {
		return nil, fmt.Errorf("lock players: %w", err)
	}
	defer rows.Close()

	players := []domain.Player{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, *p)
	}
	return players, rows.Err()
}

func (r *playerRepo) Create(ctx context.Context, db DBTX, p *domain.Player) error {
	err := db.QueryRow(ctx, `
		INSERT INTO players (id, table_id, name, nickname, chips, total_buy_in, active, show_me)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING seated_at`,
		p.ID, p.TableID, p.Name, p.Nickname, p.Chips, p.TotalBuyIn, p.Active, p.ShowMe,
	).Scan(&p.SeatedAt)
	if err != nil {
		return fmt.Errorf("insert player: %w", err)
	}
	return nil
}

func (r *playerRepo) Delete(ctx context.Context, db DBTX, id uuid.UUID) (bool, error) {
	tag, err := db.Exec(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete player: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *playerRepo) AddBuyIn(ctx context.Context, db DBTX, id uuid.UUID, amount int64) (*domain.Player, error) {
	row := db.QueryRow(ctx, `
		UPDATE players
		SET chips = chips + $1, total_buy_in = total_buy_in + $1
		WHERE id = $2
		RETURNING `+playerColumns, amount, id)
	return scanPlayer(row)
}

func (r *playerRepo) CashOut(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Player, error) {
	row := db.QueryRow(ctx, `
		UPDATE players SET active = false, chips = 0
		WHERE id = $1
		RETURNING `+playerColumns, id)
	return scanPlayer(row)
}

func (r *playerRepo) SetChips(ctx context.Context, db DBTX, id uuid.UUID, chips int64) (*domain.Player, error) {
	row := db.QueryRow(ctx, `UPDATE players SET chips = $1 WHERE id = $2 RETURNING `+playerColumns, chips, id)
	return scanPlayer(row)
}

func (r *playerRepo) SetActive(ctx context.Context, db DBTX, id uuid.UUID, active bool) (*domain.Player, error) {
	row := db.QueryRow(ctx, `UPDATE players SET active = $1 WHERE id = $2 RETURNING `+playerColumns, active, id)
	return scanPlayer(row)
}

func (r *playerRepo) SetShowMe(ctx context.Context, db DBTX, id uuid.UUID, showMe bool) (*domain.Player, error) {
	row := db.QueryRow(ctx, `UPDATE players SET show_me = $1 WHERE id = $2 RETURNING `+playerColumns, showMe, id)
	return scanPlayer(row)
}

func (r *playerRepo) DistinctNames(ctx context.Context, db DBTX) ([]string, error) {
	rows, err := db.Query(ctx, `
		SELECT name FROM (SELECT DISTINCT name FROM players) n
		ORDER BY lower(name), name`)
	if err != nil {
		return nil, fmt.Errorf("list player names: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan player name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func scanPlayer(row pgx.Row) (*domain.Player, error) {
	var p domain.Player
	err := row.Scan(&p.ID, &p.TableID, &p.Name, &p.Nickname, &p.Chips, &p.TotalBuyIn, &p.Active, &p.ShowMe, &p.SeatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan player: %w", err)
	}
	return &p, nil
}
