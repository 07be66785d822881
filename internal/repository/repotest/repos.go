package repotest

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pokerledger/platform/internal/domain"
	"github.com/pokerledger/platform/internal/repository"
)

type userRepo struct{ m *Memory }

func (r *userRepo) FindByID(_ context.Context, _ repository.DBTX, id uuid.UUID) (*domain.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.takeFault("users.FindByID"); err != nil {
		return nil, err
	}
	u, ok := r.m.state.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *userRepo) FindByUsername(_ context.Context, _ repository.DBTX, username string) (*domain.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.takeFault("users.FindByUsername"); err != nil {
		return nil, err
	}
	for _, u := range r.m.state.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *userRepo) List(_ context.Context, _ repository.DBTX) ([]domain.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	users := make([]domain.User, 0, len(r.m.state.users))
	for _, u := range r.m.state.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (r *userRepo) Create(_ context.Context, _ repository.DBTX, user *domain.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.takeFault("users.Create"); err != nil {
		return err
	}
	for _, u := range r.m.state.users {
		if u.Username == user.Username {
			return domain.ErrUsernameTaken(user.Username)
		}
	}
	user.CreatedAt = r.m.now()
	r.m.state.users[user.ID] = *user
	return nil
}

func (r *userRepo) update(id uuid.UUID, fn func(*domain.User) error) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.state.users[id]
	if !ok {
		return false, nil
	}
	if err := fn(&u); err != nil {
		return false, err
	}
	r.m.state.users[id] = u
	return true, nil
}

func (r *userRepo) UpdateRole(_ context.Context, _ repository.DBTX, id uuid.UUID, role domain.Role) (bool, error) {
	return r.update(id, func(u *domain.User) error {
		u.Role = role
		return nil
	})
}

func (r *userRepo) UpdatePasswordHash(_ context.Context, _ repository.DBTX, id uuid.UUID, hash string) (bool, error) {
	return r.update(id, func(u *domain.User) error {
		u.PasswordHash = hash
		return nil
	})
}

func (r *userRepo) UpdateUsername(_ context.Context, _ repository.DBTX, id uuid.UUID, username string) (bool, error) {
	return r.update(id, func(u *domain.User) error {
		for _, other := range r.m.state.users {
			if other.ID != id && other.Username == username {
				return domain.ErrUsernameTaken(username)
			}
		}
		u.Username = username
		return nil
	})
}

func (r *userRepo) Delete(_ context.Context, _ repository.DBTX, id uuid.UUID) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.state.users[id]; !ok {
		return false, nil
	}
	delete(r.m.state.users, id)
	for tid, t := range r.m.state.tables {
		if t.CreatorID != nil && *t.CreatorID == id {
			t.CreatorID = nil
			r.m.state.tables[tid] = t
		}
	}
	return true, nil
}

func (r *userRepo) LockRole(_ context.Context, _ pgx.Tx, role domain.Role) ([]uuid.UUID, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var ids []uuid.UUID
	for _, u := range r.m.state.users {
		if u.Role == role {
			ids = append(ids, u.ID)
		}
	}
	return ids, nil
}

type tableRepo struct{ m *Memory }

func (r *tableRepo) List(_ context.Context, _ repository.DBTX) ([]domain.Table, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.takeFault("tables.List"); err != nil {
		return nil, err
	}
	tables := make([]domain.Table, 0, len(r.m.state.tables))
	for _, t := range r.m.state.tables {
		tables = append(tables, t)
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].CreatedAt.After(tables[j].CreatedAt) })
	return tables, nil
}

func (r *tableRepo) FindByID(_ context.Context, _ repository.DBTX, id uuid.UUID) (*domain.Table, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.takeFault("tables.FindByID"); err != nil {
		return nil, err
	}
	t, ok := r.m.state.tables[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *tableRepo) LockForUpdate(ctx context.Context, _ pgx.Tx, id uuid.UUID) (*domain.Table, error) {
	return r.FindByID(ctx, nil, id)
}

func (r *tableRepo) Create(_ context.Context, _ repository.DBTX, t *domain.Table) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.takeFault("tables.Create"); err != nil {
		return err
	}
	t.CreatedAt = r.m.now()
	stored := *t
	stored.Players = nil
	r.m.state.tables[t.ID] = stored
	return nil
}

func (r *tableRepo) Update(_ context.Context, _ repository.DBTX, t *domain.Table) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.takeFault("tables.Update"); err != nil {
		return false, err
	}
	stored, ok := r.m.state.tables[t.ID]
	if !ok {
		return false, nil
	}
	stored.Name = t.Name
	stored.SmallBlind = t.SmallBlind
	stored.BigBlind = t.BigBlind
	stored.Location = t.Location
	stored.CreatedAt = t.CreatedAt
	r.m.state.tables[t.ID] = stored
	return true, nil
}

func (r *tableRepo) SetActive(_ context.Context, _ repository.DBTX, id uuid.UUID, active bool) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.takeFault("tables.SetActive"); err != nil {
		return false, err
	}
	t, ok := r.m.state.tables[id]
	if !ok {
		return false, nil
	}
	t.IsActive = active
	r.m.state.tables[id] = t
	return true, nil
}

func (r *tableRepo) Delete(_ context.Context, _ repository.DBTX, id uuid.UUID) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.takeFault("tables.Delete"); err != nil {
		return false, err
	}
	if _, ok := r.m.state.tables[id]; !ok {
		return false, nil
	}
	delete(r.m.state.tables, id)
	for pid, p := range r.m.state.players {
		if p.TableID == id {
			r.m.deletePlayer(pid)
		}
	}
	return true, nil
}

// deletePlayer cascades to history. Must be called with mu held.
func (m *Memory) deletePlayer(id uuid.UUID) {
	delete(m.state.players, id)
	buyIns := m.state.buyIns[:0]
	for _, b := range m.state.buyIns {
		if b.PlayerID != id {
			buyIns = append(buyIns, b)
		}
	}
	m.state.buyIns = buyIns
	cashOuts := m.state.cashOuts[:0]
	for _, c := range m.state.cashOuts {
		if c.PlayerID != id {
			cashOuts = append(cashOuts, c)
		}
	}
	m.state.cashOuts = cashOuts
}

type playerRepo struct{ m *Memory }

func (r *playerRepo) FindByID(_ context.Context, _ repository.DBTX, id uuid.UUID) (*domain.Player, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.takeFault("players.FindByID"); err != nil {
		return nil, err
	}
	p, ok := r.m.state.players[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *playerRepo) ListByTables(_ context.Context, _ repository.DBTX, tableIDs []uuid.UUID) ([]domain.Player, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.takeFault("players.ListByTables"); err != nil {
		return nil, err
	}
	want := make(map[uuid.UUID]bool, len(tableIDs))
	for _, id := range tableIDs {
		want[id] = true
	}
	players := []domain.Player{}
	for _, p := range r.m.state.players {
		if want[p.TableID] {
			players = append(players, p)
		}
	}
	sort.Slice(players, func(i, j int) bool { return players[i].SeatedAt.Before(players[j].SeatedAt) })
	return players, nil
}

func (r *playerRepo) LockForUpdate(ctx context.Context, _ pgx.Tx, id uuid.UUID) (*domain.Player, error) {
	return r.FindByID(ctx, nil, id)
}

func (r *playerRepo) LockByTable(ctx context.Context, _ pgx.Tx, tableID uuid.UUID) ([]domain.Player, error) {
	return r.ListByTables(ctx, nil, []uuid.UUID{tableID})
}

func (r *playerRepo) Create(_ context.Context, _ repository.DBTX, p *domain.Player) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.takeFault("players.Create"); err != nil {
		return err
	}
	if _, ok := r.m.state.tables[p.TableID]; !ok {
		return domain.ErrInternal("foreign key violation", nil)
	}
	p.SeatedAt = r.m.now()
	stored := *p
	stored.BuyIns, stored.CashOuts = nil, nil
	r.m.state.players[p.ID] = stored
	return nil
}

func (r *playerRepo) Delete(_ context.Context, _ repository.DBTX, id uuid.UUID) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.takeFault("players.Delete"); err != nil {
		return false, err
	}
	if _, ok := r.m.state.players[id]; !ok {
		return false, nil
	}
	r.m.deletePlayer(id)
	return true, nil
}

func (r *playerRepo) update(op string, id uuid.UUID, fn func(*domain.Player) error) (*domain.Player, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.takeFault(op); err != nil {
		return nil, err
	}
	p, ok := r.m.state.players[id]
	if !ok {
		return nil, nil
	}
	if err := fn(&p); err != nil {
		return nil, err
	}
	r.m.state.players[id] = p
	return &p, nil
}

func (r *playerRepo) AddBuyIn(_ context.Context, _ repository.DBTX, id uuid.UUID, amount int64) (*domain.Player, error) {
	return r.update("players.AddBuyIn", id, func(p *domain.Player) error {
		if err := checkNonNegative("chips", p.Chips+amount); err != nil {
			return err
		}
		p.Chips += amount
		p.TotalBuyIn += amount
		return nil
	})
}

func (r *playerRepo) CashOut(_ context.Context, _ repository.DBTX, id uuid.UUID) (*domain.Player, error) {
	return r.update("players.CashOut", id, func(p *domain.Player) error {
		p.Active = false
		p.Chips = 0
		return nil
	})
}

func (r *playerRepo) SetChips(_ context.Context, _ repository.DBTX, id uuid.UUID, chips int64) (*domain.Player, error) {
	return r.update("players.SetChips", id, func(p *domain.Player) error {
		if err := checkNonNegative("chips", chips); err != nil {
			return err
		}
		p.Chips = chips
		return nil
	})
}

func (r *playerRepo) SetActive(_ context.Context, _ repository.DBTX, id uuid.UUID, active bool) (*domain.Player, error) {
	return r.update("players.SetActive", id, func(p *domain.Player) error {
		p.Active = active
		return nil
	})
}

func (r *playerRepo) SetShowMe(_ context.Context, _ repository.DBTX, id uuid.UUID, showMe bool) (*domain.Player, error) {
	return r.update("players.SetShowMe", id, func(p *domain.Player) error {
		p.ShowMe = showMe
		return nil
	})
}

func (r *playerRepo) DistinctNames(_ context.Context, _ repository.DBTX) ([]string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	seen := make(map[string]bool)
	names := []string{}
	for _, p := range r.m.state.players {
		if !seen[p.Name] {
			seen[p.Name] = true
			names = append(names, p.Name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		li, lj := strings.ToLower(names[i]), strings.ToLower(names[j])
		if li != lj {
			return li < lj
		}
		return names[i] < names[j]
	})
	return names, nil
}

type buyInRepo struct{ m *Memory }

func (r *buyInRepo) Insert(_ context.Context, _ repository.DBTX, b *domain.BuyIn) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.takeFault("buyins.Insert"); err != nil {
		return err
	}
	if _, ok := r.m.state.players[b.PlayerID]; !ok {
		return domain.ErrInternal("foreign key violation", nil)
	}
	if err := checkNonNegative("amount", b.Amount); err != nil {
		return err
	}
	b.Timestamp = r.m.now()
	r.m.state.buyIns = append(r.m.state.buyIns, *b)
	return nil
}

func (r *buyInRepo) ListByPlayers(_ context.Context, _ repository.DBTX, playerIDs []uuid.UUID) ([]domain.BuyIn, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.takeFault("buyins.ListByPlayers"); err != nil {
		return nil, err
	}
	want := idSet(playerIDs)
	out := []domain.BuyIn{}
	for _, b := range r.m.state.buyIns {
		if want[b.PlayerID] {
			out = append(out, b)
		}
	}
	return out, nil
}

type cashOutRepo struct{ m *Memory }

func (r *cashOutRepo) Insert(_ context.Context, _ repository.DBTX, c *domain.CashOut) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.takeFault("cashouts.Insert"); err != nil {
		return err
	}
	if _, ok := r.m.state.players[c.PlayerID]; !ok {
		return domain.ErrInternal("foreign key violation", nil)
	}
	if err := checkNonNegative("amount", c.Amount); err != nil {
		return err
	}
	for _, existing := range r.m.state.cashOuts {
		if existing.PlayerID == c.PlayerID {
			return domain.ErrInternal("unique violation on cashouts.player_id", nil)
		}
	}
	c.Timestamp = r.m.now()
	r.m.state.cashOuts = append(r.m.state.cashOuts, *c)
	return nil
}

func (r *cashOutRepo) DeleteByPlayer(_ context.Context, _ repository.DBTX, playerID uuid.UUID) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.takeFault("cashouts.DeleteByPlayer"); err != nil {
		return 0, err
	}
	var n int64
	kept := r.m.state.cashOuts[:0]
	for _, c := range r.m.state.cashOuts {
		if c.PlayerID == playerID {
			n++
			continue
		}
		kept = append(kept, c)
	}
	r.m.state.cashOuts = kept
	return n, nil
}

func (r *cashOutRepo) ListByPlayers(_ context.Context, _ repository.DBTX, playerIDs []uuid.UUID) ([]domain.CashOut, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.takeFault("cashouts.ListByPlayers"); err != nil {
		return nil, err
	}
	want := idSet(playerIDs)
	out := []domain.CashOut{}
	for _, c := range r.m.state.cashOuts {
		if want[c.PlayerID] {
			out = append(out, c)
		}
	}
	return out, nil
}

type attemptRepo struct{ m *Memory }

func (r *attemptRepo) Record(_ context.Context, _ repository.DBTX, username, ip string, success bool) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.takeFault("login_attempts.Record"); err != nil {
		return err
	}
	r.m.state.attempts = append(r.m.state.attempts, attempt{username: username, ip: ip, success: success, at: r.m.now()})
	return nil
}

func (r *attemptRepo) CountFailuresSince(_ context.Context, _ repository.DBTX, username string, since time.Time) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.takeFault("login_attempts.CountFailuresSince"); err != nil {
		return 0, err
	}
	n := 0
	for _, a := range r.m.state.attempts {
		if a.username == username && !a.success && a.at.After(since) {
			n++
		}
	}
	return n, nil
}

func idSet(ids []uuid.UUID) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
