package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pokerledger/platform/internal/domain"
	"github.com/pokerledger/platform/internal/ledger"
	"github.com/pokerledger/platform/internal/projection"
	"github.com/pokerledger/platform/internal/repository"
)

// TableService manages tables, their players and the buy-in/cash-out ledger.
type TableService struct {
	db     repository.DB
	store  *repository.Store
	engine *ledger.Engine
	cache  *projection.TableCache
	logger *slog.Logger
}

// NewTableService creates a TableService.
func NewTableService(
	db repository.DB,
	store *repository.Store,
	engine *ledger.Engine,
	cache *projection.TableCache,
	logger *slog.Logger,
) *TableService {
	return &TableService{
		db:     db,
		store:  store,
		engine: engine,
		cache:  cache,
		logger: logger,
	}
}

// CreateTableInput holds the create-table request fields.
type CreateTableInput struct {
	Name       string        `json:"name" validate:"required,max=100"`
	SmallBlind domain.Amount `json:"smallBlind"`
	BigBlind   domain.Amount `json:"bigBlind"`
	Location   *string       `json:"location" validate:"omitempty,max=200"`
}

// UpdateTableInput is the full set of mutable table fields.
type UpdateTableInput struct {
	Name       string        `json:"name" validate:"required,max=100"`
	SmallBlind domain.Amount `json:"smallBlind"`
	BigBlind   domain.Amount `json:"bigBlind"`
	Location   *string       `json:"location" validate:"omitempty,max=200"`
	CreatedAt  *time.Time    `json:"createdAt" validate:"required"`
}

// AddPlayerInput holds the add-player request fields.
type AddPlayerInput struct {
	Name     string        `json:"name" validate:"required,max=100"`
	Nickname *string       `json:"nickname" validate:"omitempty,max=100"`
	Chips    domain.Amount `json:"chips"`
}

// --- Reads ---

// ListTables returns every table with players and their history, newest first.
// Authenticated and public routes share this path.
func (s *TableService) ListTables(ctx context.Context) ([]domain.Table, error) {
	if tables, ok := s.cache.Get(ctx); ok {
		return tables, nil
	}

	gen, cacheable := s.cache.Generation(ctx)
	tables, err := s.store.Tables.List(ctx, s.db)
	if err != nil {
		return nil, domain.ErrInternal("list tables", err)
	}
	if err := s.enrich(ctx, s.db, tables); err != nil {
		return nil, err
	}
	if cacheable {
		s.cache.Put(ctx, gen, tables)
	}
	return tables, nil
}

// GetTable returns one enriched table.
func (s *TableService) GetTable(ctx context.Context, id uuid.UUID) (*domain.Table, error) {
	return s.loadTable(ctx, s.db, id)
}

// GetTableBalance reports whether the table's books balance.
func (s *TableService) GetTableBalance(ctx context.Context, id uuid.UUID) (*domain.TableBalance, error) {
	table, err := s.loadTable(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	balance := domain.ComputeBalance(table)
	return &balance, nil
}

// UniquePlayerNames returns every distinct player name, case-insensitively sorted.
func (s *TableService) UniquePlayerNames(ctx context.Context) ([]string, error) {
	names, err := s.store.Players.DistinctNames(ctx, s.db)
	if err != nil {
		return nil, domain.ErrInternal("list player names", err)
	}
	return names, nil
}

// PlayerStatistics aggregates results across all tables.
func (s *TableService) PlayerStatistics(ctx context.Context, minGames int) (*domain.Statistics, error) {
	tables, err := s.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	stats := domain.ComputeStatistics(tables, minGames)
	return &stats, nil
}

func (s *TableService) loadTable(ctx context.Context, db repository.DBTX, id uuid.UUID) (*domain.Table, error) {
	table, err := s.store.Tables.FindByID(ctx, db, id)
	if err != nil {
		return nil, domain.ErrInternal("find table", err)
	}
	if table == nil {
		return nil, domain.ErrNotFound("table", id.String())
	}
	tables := []domain.Table{*table}
	if err := s.enrich(ctx, db, tables); err != nil {
		return nil, err
	}
	return &tables[0], nil
}

// enrich attaches players, buy-ins and cash-outs to tables in three queries.
func (s *TableService) enrich(ctx context.Context, db repository.DBTX, tables []domain.Table) error {
	tableIDs := make([]uuid.UUID, len(tables))
	for i := range tables {
		tableIDs[i] = tables[i].ID
	}
	players, err := s.store.Players.ListByTables(ctx, db, tableIDs)
	if err != nil {
		return domain.ErrInternal("list players", err)
	}

	playerIDs := make([]uuid.UUID, len(players))
	for i := range players {
		playerIDs[i] = players[i].ID
	}
	buyIns, err := s.store.BuyIns.ListByPlayers(ctx, db, playerIDs)
	if err != nil {
		return domain.ErrInternal("list buyins", err)
	}
	cashOuts, err := s.store.CashOuts.ListByPlayers(ctx, db, playerIDs)
	if err != nil {
		return domain.ErrInternal("list cashouts", err)
	}

	buyInsBy := make(map[uuid.UUID][]domain.BuyIn)
	for _, b := range buyIns {
		buyInsBy[b.PlayerID] = append(buyInsBy[b.PlayerID], b)
	}
	cashOutsBy := make(map[uuid.UUID][]domain.CashOut)
	for _, c := range cashOuts {
		cashOutsBy[c.PlayerID] = append(cashOutsBy[c.PlayerID], c)
	}
	playersBy := make(map[uuid.UUID][]domain.Player)
	for _, p := range players {
		p.BuyIns = buyInsBy[p.ID]
		p.CashOuts = cashOutsBy[p.ID]
		playersBy[p.TableID] = append(playersBy[p.TableID], p)
	}

	for i := range tables {
		tables[i].Players = playersBy[tables[i].ID]
		tables[i].EnsureSlices()
	}
	return nil
}

// --- Table writes ---

// CreateTable persists an active table owned by the caller.
func (s *TableService) CreateTable(ctx context.Context, caller domain.Identity, input CreateTableInput) (*domain.Table, error) {
	name := strings.TrimSpace(input.Name)
	if err := validateTable(name, input.SmallBlind, input.BigBlind); err != nil {
		return nil, err
	}

	creator := caller.UserID
	table := &domain.Table{
		ID:         uuid.New(),
		Name:       name,
		SmallBlind: input.SmallBlind.Int64(),
		BigBlind:   input.BigBlind.Int64(),
		Location:   trimOptional(input.Location),
		IsActive:   true,
		CreatorID:  &creator,
	}
	if err := s.store.Tables.Create(ctx, s.db, table); err != nil {
		return nil, domain.ErrInternal("create table", err)
	}
	table.EnsureSlices()

	s.cache.Invalidate(ctx)
	s.logger.Info("table created", "table_id", table.ID, "name", table.Name, "user_id", caller.UserID)
	return table, nil
}

// UpdateTable overwrites every mutable field and returns the enriched table.
func (s *TableService) UpdateTable(ctx context.Context, id uuid.UUID, input UpdateTableInput) (*domain.Table, error) {
	name := strings.TrimSpace(input.Name)
	if err := validateTable(name, input.SmallBlind, input.BigBlind); err != nil {
		return nil, err
	}
	if input.CreatedAt == nil {
		return nil, domain.ErrValidation("createdAt is required")
	}

	table := &domain.Table{
		ID:         id,
		Name:       name,
		SmallBlind: input.SmallBlind.Int64(),
		BigBlind:   input.BigBlind.Int64(),
		Location:   trimOptional(input.Location),
		CreatedAt:  input.CreatedAt.UTC(),
	}
	found, err := s.store.Tables.Update(ctx, s.db, table)
	if err != nil {
		return nil, domain.ErrInternal("update table", err)
	}
	if !found {
		return nil, domain.ErrNotFound("table", id.String())
	}

	s.cache.Invalidate(ctx)
	return s.loadTable(ctx, s.db, id)
}

// DeleteTable removes a table; its players and their history cascade.
func (s *TableService) DeleteTable(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.store.Tables.Delete(ctx, s.db, id)
	if err != nil {
		return domain.ErrInternal("delete table", err)
	}
	if !deleted {
		return domain.ErrNotFound("table", id.String())
	}

	s.cache.Invalidate(ctx)
	s.logger.Info("table deleted", "table_id", id)
	return nil
}

// SetTableActive opens or closes a table. Closing requires every player to be cashed
// out and the books to balance; reopening is always allowed.
func (s *TableService) SetTableActive(ctx context.Context, id uuid.UUID, active bool) error {
	err := inTx(ctx, s.db, func(tx pgx.Tx) error {
		table, err := s.engine.LockTableWithPlayers(ctx, tx, id)
		if err != nil {
			return asAppError("lock table", err)
		}
		if !active {
			if err := domain.ComputeBalance(table).CanDeactivate(); err != nil {
				return err
			}
		}
		if _, err := s.store.Tables.SetActive(ctx, tx, id, active); err != nil {
			return domain.ErrInternal("set table active", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(ctx)
	s.logger.Info("table status changed", "table_id", id, "is_active", active)
	return nil
}

// --- Player and ledger writes ---

// AddPlayer seats a player with an initial buy-in of input.Chips.
func (s *TableService) AddPlayer(ctx context.Context, tableID uuid.UUID, input AddPlayerInput) (*domain.Player, error) {
	var result *domain.CommandResult
	err := s.mutate(ctx, "add player", func(tx pgx.Tx) error {
		var err error
		result, err = s.engine.ExecuteSeatPlayer(ctx, tx, domain.SeatPlayerParams{
			TableID:      tableID,
			Name:         input.Name,
			Nickname:     input.Nickname,
			InitialChips: input.Chips.Int64(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return result.Player, nil
}

// RemovePlayer deletes a player and its history.
func (s *TableService) RemovePlayer(ctx context.Context, ref domain.PlayerRef) error {
	return s.mutate(ctx, "remove player", func(tx pgx.Tx) error {
		return s.engine.ExecuteRemovePlayer(ctx, tx, ref)
	})
}

// RecordBuyIn appends a buy-in and raises chips and total buy-in.
func (s *TableService) RecordBuyIn(ctx context.Context, ref domain.PlayerRef, amount domain.Amount) (*domain.BuyIn, error) {
	var result *domain.CommandResult
	err := s.mutate(ctx, "record buyin", func(tx pgx.Tx) error {
		var err error
		result, err = s.engine.ExecuteBuyIn(ctx, tx, domain.AmountParams{PlayerRef: ref, Amount: amount.Int64()})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("buyin recorded", "player_id", ref.PlayerID, "amount", amount, "chips", result.Player.Chips)
	return result.BuyIn, nil
}

// RecordCashOut replaces the player's cash-out and takes them out of the game.
func (s *TableService) RecordCashOut(ctx context.Context, ref domain.PlayerRef, amount domain.Amount) (*domain.CashOut, error) {
	var result *domain.CommandResult
	err := s.mutate(ctx, "record cashout", func(tx pgx.Tx) error {
		var err error
		result, err = s.engine.ExecuteCashOut(ctx, tx, domain.AmountParams{PlayerRef: ref, Amount: amount.Int64()})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("cashout recorded", "player_id", ref.PlayerID, "amount", amount)
	return result.CashOut, nil
}

// ReactivatePlayer puts a cashed-out player back in the game with zero chips.
func (s *TableService) ReactivatePlayer(ctx context.Context, ref domain.PlayerRef) (*domain.Player, error) {
	var result *domain.CommandResult
	err := s.mutate(ctx, "reactivate player", func(tx pgx.Tx) error {
		var err error
		result, err = s.engine.ExecuteReactivate(ctx, tx, ref)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result.Player, nil
}

// SetShowMe toggles the player's visibility flag.
func (s *TableService) SetShowMe(ctx context.Context, ref domain.PlayerRef, showMe bool) (*domain.Player, error) {
	var result *domain.CommandResult
	err := s.mutate(ctx, "set show me", func(tx pgx.Tx) error {
		var err error
		result, err = s.engine.ExecuteSetShowMe(ctx, tx, ref, showMe)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result.Player, nil
}

// UpdatePlayerChips corrects the chip count without touching the buy-in ledger.
func (s *TableService) UpdatePlayerChips(ctx context.Context, ref domain.PlayerRef, chips domain.Amount) (*domain.Player, error) {
	var result *domain.CommandResult
	err := s.mutate(ctx, "update chips", func(tx pgx.Tx) error {
		var err error
		result, err = s.engine.ExecuteChipCorrection(ctx, tx, domain.AmountParams{PlayerRef: ref, Amount: chips.Int64()})
		return err
	})
	if err != nil {
		return nil, err
	}
	return result.Player, nil
}

// mutate runs a ledger command in its own transaction and drops the table cache on commit.
func (s *TableService) mutate(ctx context.Context, op string, fn func(tx pgx.Tx) error) error {
	err := inTx(ctx, s.db, func(tx pgx.Tx) error {
		return asAppError(op, fn(tx))
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}

func validateTable(name string, smallBlind, bigBlind domain.Amount) error {
	if err := domain.ValidateName("table", name); err != nil {
		return domain.ErrValidation(err.Error())
	}
	if err := domain.ValidateBlinds(smallBlind.Int64(), bigBlind.Int64()); err != nil {
		return domain.ErrValidation(err.Error())
	}
	return nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
