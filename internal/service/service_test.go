package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokerledger/platform/internal/auth"
	"github.com/pokerledger/platform/internal/domain"
	"github.com/pokerledger/platform/internal/guard"
	"github.com/pokerledger/platform/internal/ledger"
	"github.com/pokerledger/platform/internal/projection"
	"github.com/pokerledger/platform/internal/repository/repotest"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *domain.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

type tableFixture struct {
	mem    *repotest.Memory
	svc    *TableService
	cache  *projection.TableCache
	editor domain.Identity
}

func newTableFixture(t *testing.T) *tableFixture {
	t.Helper()
	mem := repotest.New()
	store := mem.Store()
	cache := projection.NewTableCache(projection.NewInMemoryStore(), time.Minute, discardLogger())
	editor := &domain.User{ID: uuid.New(), Username: "ed", Role: domain.RoleEditor}
	require.NoError(t, store.Users.Create(context.Background(), mem, editor))
	return &tableFixture{
		mem:    mem,
		svc:    NewTableService(mem, store, ledger.NewEngine(store), cache, discardLogger()),
		cache:  cache,
		editor: identityOf(editor),
	}
}

func (f *tableFixture) createTable(t *testing.T) *domain.Table {
	t.Helper()
	table, err := f.svc.CreateTable(context.Background(), f.editor, CreateTableInput{
		Name: "T", SmallBlind: 1, BigBlind: 2,
	})
	require.NoError(t, err)
	return table
}

func (f *tableFixture) addPlayer(t *testing.T, tableID uuid.UUID, name string, chips int64) *domain.Player {
	t.Helper()
	p, err := f.svc.AddPlayer(context.Background(), tableID, AddPlayerInput{Name: name, Chips: domain.Amount(chips)})
	require.NoError(t, err)
	return p
}

func TestCreateTable(t *testing.T) {
	f := newTableFixture(t)
	loc := "  Back room "
	table, err := f.svc.CreateTable(context.Background(), f.editor, CreateTableInput{
		Name: " Friday ", SmallBlind: 1, BigBlind: 2, Location: &loc,
	})
	require.NoError(t, err)

	assert.Equal(t, "Friday", table.Name)
	assert.True(t, table.IsActive)
	require.NotNil(t, table.Location)
	assert.Equal(t, "Back room", *table.Location)
	require.NotNil(t, table.CreatorID)
	assert.Equal(t, f.editor.UserID, *table.CreatorID)
	assert.NotNil(t, table.Players)
	assert.Empty(t, table.Players)
}

func TestCreateTableValidation(t *testing.T) {
	f := newTableFixture(t)
	tests := []struct {
		name  string
		input CreateTableInput
	}{
		{"blank name", CreateTableInput{Name: "  ", SmallBlind: 1, BigBlind: 2}},
		{"zero small blind", CreateTableInput{Name: "T", SmallBlind: 0, BigBlind: 2}},
		{"big below small", CreateTableInput{Name: "T", SmallBlind: 5, BigBlind: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateTable(context.Background(), f.editor, tt.input)
			requireCode(t, err, "VALIDATION_ERROR")
		})
	}
}

func TestScenarioSettledTableCloses(t *testing.T) {
	f := newTableFixture(t)
	ctx := context.Background()
	table := f.createTable(t)

	alice := f.addPlayer(t, table.ID, "Alice", 100)
	require.Len(t, alice.BuyIns, 1)
	assert.Equal(t, int64(100), alice.BuyIns[0].Amount)
	assert.Equal(t, int64(100), alice.Chips)
	assert.Equal(t, int64(100), alice.TotalBuyIn)

	ref := domain.PlayerRef{TableID: table.ID, PlayerID: alice.ID}
	_, err := f.svc.RecordBuyIn(ctx, ref, 50)
	require.NoError(t, err)

	got, err := f.svc.GetTable(ctx, table.ID)
	require.NoError(t, err)
	require.Len(t, got.Players, 1)
	assert.Equal(t, int64(150), got.Players[0].Chips)
	assert.Equal(t, int64(150), got.Players[0].TotalBuyIn)
	assert.Len(t, got.Players[0].BuyIns, 2)

	cashOut, err := f.svc.RecordCashOut(ctx, ref, 150)
	require.NoError(t, err)
	assert.Equal(t, int64(150), cashOut.Amount)

	got, err = f.svc.GetTable(ctx, table.ID)
	require.NoError(t, err)
	p := got.Players[0]
	assert.False(t, p.Active)
	assert.Equal(t, int64(0), p.Chips)
	require.Len(t, p.CashOuts, 1)
	assert.Equal(t, int64(150), p.CashOuts[0].Amount)

	require.NoError(t, f.svc.SetTableActive(ctx, table.ID, false))
	got, err = f.svc.GetTable(ctx, table.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestScenarioActivePlayerBlocksClose(t *testing.T) {
	f := newTableFixture(t)
	ctx := context.Background()
	table := f.createTable(t)
	alice := f.addPlayer(t, table.ID, "Alice", 100)
	f.addPlayer(t, table.ID, "Bob", 50)

	_, err := f.svc.RecordCashOut(ctx, domain.PlayerRef{TableID: table.ID, PlayerID: alice.ID}, 100)
	require.NoError(t, err)

	balance, err := f.svc.GetTableBalance(ctx, table.ID)
	require.NoError(t, err)
	assert.False(t, balance.AllPlayersInactive)

	err = f.svc.SetTableActive(ctx, table.ID, false)
	requireCode(t, err, "TABLE_NOT_SETTLED")

	got, err := f.svc.GetTable(ctx, table.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
}

func TestUnbalancedTableCannotClose(t *testing.T) {
	f := newTableFixture(t)
	ctx := context.Background()
	table := f.createTable(t)
	alice := f.addPlayer(t, table.ID, "Alice", 100)

	_, err := f.svc.RecordCashOut(ctx, domain.PlayerRef{TableID: table.ID, PlayerID: alice.ID}, 80)
	require.NoError(t, err)

	balance, err := f.svc.GetTableBalance(ctx, table.ID)
	require.NoError(t, err)
	assert.True(t, balance.AllPlayersInactive)
	assert.False(t, balance.IsBalanced)
	assert.Equal(t, int64(20), balance.Difference)

	requireCode(t, f.svc.SetTableActive(ctx, table.ID, false), "TABLE_NOT_SETTLED")
}

func TestReopenTableAlwaysAllowed(t *testing.T) {
	f := newTableFixture(t)
	ctx := context.Background()
	table := f.createTable(t)
	require.NoError(t, f.svc.SetTableActive(ctx, table.ID, false))

	f.addPlayer(t, table.ID, "Alice", 100)
	require.NoError(t, f.svc.SetTableActive(ctx, table.ID, true))

	requireCode(t, f.svc.SetTableActive(ctx, uuid.New(), true), "NOT_FOUND")
}

func TestUpdateTable(t *testing.T) {
	f := newTableFixture(t)
	ctx := context.Background()
	table := f.createTable(t)
	f.addPlayer(t, table.ID, "Alice", 10)

	createdAt := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	got, err := f.svc.UpdateTable(ctx, table.ID, UpdateTableInput{
		Name: "Renamed", SmallBlind: 5, BigBlind: 10, CreatedAt: &createdAt,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, int64(5), got.SmallBlind)
	assert.Nil(t, got.Location)
	assert.True(t, createdAt.Equal(got.CreatedAt))
	assert.Len(t, got.Players, 1)

	_, err = f.svc.UpdateTable(ctx, table.ID, UpdateTableInput{Name: "X", SmallBlind: 1, BigBlind: 2})
	requireCode(t, err, "VALIDATION_ERROR")

	_, err = f.svc.UpdateTable(ctx, uuid.New(), UpdateTableInput{
		Name: "X", SmallBlind: 1, BigBlind: 2, CreatedAt: &createdAt,
	})
	requireCode(t, err, "NOT_FOUND")
}

func TestDeleteTableCascades(t *testing.T) {
	f := newTableFixture(t)
	ctx := context.Background()
	table := f.createTable(t)
	alice := f.addPlayer(t, table.ID, "Alice", 100)
	_, err := f.svc.RecordCashOut(ctx, domain.PlayerRef{TableID: table.ID, PlayerID: alice.ID}, 100)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteTable(ctx, table.ID))

	_, err = f.svc.GetTable(ctx, table.ID)
	requireCode(t, err, "NOT_FOUND")
	assert.Zero(t, f.mem.CountBuyIns(alice.ID))
	assert.Zero(t, f.mem.CountCashOuts(alice.ID))

	requireCode(t, f.svc.DeleteTable(ctx, table.ID), "NOT_FOUND")
}

func TestRemovePlayer(t *testing.T) {
	f := newTableFixture(t)
	ctx := context.Background()
	table := f.createTable(t)
	alice := f.addPlayer(t, table.ID, "Alice", 100)
	ref := domain.PlayerRef{TableID: table.ID, PlayerID: alice.ID}

	require.NoError(t, f.svc.RemovePlayer(ctx, ref))
	got, err := f.svc.GetTable(ctx, table.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Players)
	assert.Zero(t, f.mem.CountBuyIns(alice.ID))

	requireCode(t, f.svc.RemovePlayer(ctx, ref), "NOT_FOUND")
}

func TestPlayerOperationsCheckTable(t *testing.T) {
	f := newTableFixture(t)
	ctx := context.Background()
	table := f.createTable(t)
	other := f.createTable(t)
	alice := f.addPlayer(t, table.ID, "Alice", 100)
	wrong := domain.PlayerRef{TableID: other.ID, PlayerID: alice.ID}

	_, err := f.svc.RecordBuyIn(ctx, wrong, 10)
	requireCode(t, err, "NOT_FOUND")
	_, err = f.svc.RecordCashOut(ctx, wrong, 10)
	requireCode(t, err, "NOT_FOUND")
	_, err = f.svc.UpdatePlayerChips(ctx, wrong, 10)
	requireCode(t, err, "NOT_FOUND")
	_, err = f.svc.ReactivatePlayer(ctx, wrong)
	requireCode(t, err, "NOT_FOUND")
	_, err = f.svc.SetShowMe(ctx, wrong, false)
	requireCode(t, err, "NOT_FOUND")
	requireCode(t, f.svc.RemovePlayer(ctx, wrong), "NOT_FOUND")
}

func TestReactivateIsIdempotent(t *testing.T) {
	f := newTableFixture(t)
	ctx := context.Background()
	table := f.createTable(t)
	alice := f.addPlayer(t, table.ID, "Alice", 100)
	ref := domain.PlayerRef{TableID: table.ID, PlayerID: alice.ID}

	p, err := f.svc.ReactivatePlayer(ctx, ref)
	require.NoError(t, err)
	assert.True(t, p.Active)
	assert.Equal(t, int64(100), p.Chips)

	_, err = f.svc.RecordCashOut(ctx, ref, 100)
	require.NoError(t, err)
	p, err = f.svc.ReactivatePlayer(ctx, ref)
	require.NoError(t, err)
	assert.True(t, p.Active)
	assert.Equal(t, int64(0), p.Chips)
	assert.Equal(t, 1, f.mem.CountCashOuts(alice.ID))
}

func TestChipCorrectionAndShowMe(t *testing.T) {
	f := newTableFixture(t)
	ctx := context.Background()
	table := f.createTable(t)
	alice := f.addPlayer(t, table.ID, "Alice", 100)
	ref := domain.PlayerRef{TableID: table.ID, PlayerID: alice.ID}

	p, err := f.svc.UpdatePlayerChips(ctx, ref, 240)
	require.NoError(t, err)
	assert.Equal(t, int64(240), p.Chips)
	assert.Equal(t, int64(100), p.TotalBuyIn)

	_, err = f.svc.UpdatePlayerChips(ctx, ref, -1)
	requireCode(t, err, "INVALID_AMOUNT")

	p, err = f.svc.SetShowMe(ctx, ref, false)
	require.NoError(t, err)
	assert.False(t, p.ShowMe)
}

func TestFailedCashOutRollsBack(t *testing.T) {
	f := newTableFixture(t)
	ctx := context.Background()
	table := f.createTable(t)
	alice := f.addPlayer(t, table.ID, "Alice", 100)
	ref := domain.PlayerRef{TableID: table.ID, PlayerID: alice.ID}

	f.mem.FailNext("players.CashOut", errors.New("disk full"))
	_, err := f.svc.RecordCashOut(ctx, ref, 100)
	requireCode(t, err, "INTERNAL_ERROR")

	got, err := f.svc.GetTable(ctx, table.ID)
	require.NoError(t, err)
	assert.True(t, got.Players[0].Active)
	assert.Equal(t, int64(100), got.Players[0].Chips)
	assert.Empty(t, got.Players[0].CashOuts)
}

func TestListTablesUsesCacheAndInvalidates(t *testing.T) {
	f := newTableFixture(t)
	ctx := context.Background()
	table := f.createTable(t)

	tables, err := f.svc.ListTables(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 1)

	assert.Equal(t, 1, f.mem.Calls("tables.List"))

	tables, err = f.svc.ListTables(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, 1, f.mem.Calls("tables.List"), "second read is served from the cache")

	f.addPlayer(t, table.ID, "Alice", 100)
	tables, err = f.svc.ListTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, f.mem.Calls("tables.List"))
	require.Len(t, tables[0].Players, 1)
	assert.Equal(t, "Alice", tables[0].Players[0].Name)
}

func TestListTablesNewestFirst(t *testing.T) {
	f := newTableFixture(t)
	first := f.createTable(t)
	second := f.createTable(t)

	tables, err := f.svc.ListTables(context.Background())
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, second.ID, tables[0].ID)
	assert.Equal(t, first.ID, tables[1].ID)
}

func TestUniqueNamesAndStatistics(t *testing.T) {
	f := newTableFixture(t)
	ctx := context.Background()
	t1 := f.createTable(t)
	t2 := f.createTable(t)
	a1 := f.addPlayer(t, t1.ID, "Alice", 100)
	f.addPlayer(t, t1.ID, "bob", 50)
	a2 := f.addPlayer(t, t2.ID, "alice", 100)

	_, err := f.svc.RecordCashOut(ctx, domain.PlayerRef{TableID: t1.ID, PlayerID: a1.ID}, 180)
	require.NoError(t, err)
	_, err = f.svc.RecordCashOut(ctx, domain.PlayerRef{TableID: t2.ID, PlayerID: a2.ID}, 60)
	require.NoError(t, err)

	names, err := f.svc.UniquePlayerNames(ctx)
	require.NoError(t, err)
	assert.Contains(t, names, "bob")

	stats, err := f.svc.PlayerStatistics(ctx, 0)
	require.NoError(t, err)
	require.Len(t, stats.Players, 2)
	top := stats.Players[0]
	assert.Equal(t, 2, top.TablesPlayed)
	assert.Equal(t, int64(40), top.NetResult)

	stats, err = f.svc.PlayerStatistics(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, stats.Players, 1)
}

type authFixture struct {
	mem   *repotest.Memory
	svc   *AuthService
	jwt   *auth.JWTManager
	admin domain.Identity
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	mem := repotest.New()
	store := mem.Store()
	jwtMgr := auth.NewJWTManager("test-secret-at-least-32-characters!!", time.Hour)
	lockout := guard.NewLockout(mem, store.LoginAttempts, discardLogger())
	svc := NewAuthService(mem, store, jwtMgr, guard.NewRateLimiter(100, time.Minute), lockout, discardLogger())

	created, err := svc.BootstrapAdmin(context.Background(), "admin", "admin-password")
	require.NoError(t, err)
	require.True(t, created)
	admin, err := store.Users.FindByUsername(context.Background(), mem, "admin")
	require.NoError(t, err)

	return &authFixture{mem: mem, svc: svc, jwt: jwtMgr, admin: identityOf(admin)}
}

func (f *authFixture) register(t *testing.T, username string, role domain.Role) domain.Identity {
	t.Helper()
	u, err := f.svc.Register(context.Background(), RegisterInput{Username: username, Password: "password123", Role: role})
	require.NoError(t, err)
	return identityOf(u)
}

func TestLoginSuccessIssuesToken(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "viewer1", domain.RoleViewer)

	res, err := f.svc.Login(context.Background(), LoginInput{Username: "viewer1", Password: "password123"}, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "viewer1", res.User.Username)
	assert.Equal(t, domain.RoleViewer, res.User.Role)

	claims, err := f.jwt.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.UserID.String(), claims.Subject)
}

func TestLoginFailuresShareMessage(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, wrongPass := f.svc.Login(ctx, LoginInput{Username: "admin", Password: "nope-nope"}, "10.0.0.1")
	_, unknown := f.svc.Login(ctx, LoginInput{Username: "ghost", Password: "nope-nope"}, "10.0.0.1")

	for _, err := range []error{wrongPass, unknown} {
		var appErr *domain.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, 401, appErr.Status)
		assert.Equal(t, domain.MsgInvalidCredentials, appErr.Message)
	}
}

func TestLoginLockout(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	for i := 0; i < guard.MaxAttempts; i++ {
		_, err := f.svc.Login(ctx, LoginInput{Username: "admin", Password: "wrong-password"}, "10.0.0.1")
		requireCode(t, err, "UNAUTHORIZED")
	}
	_, err := f.svc.Login(ctx, LoginInput{Username: "admin", Password: "admin-password"}, "10.0.0.1")
	requireCode(t, err, "ACCOUNT_LOCKED")
}

func TestLoginRateLimitedByIP(t *testing.T) {
	mem := repotest.New()
	store := mem.Store()
	jwtMgr := auth.NewJWTManager("test-secret-at-least-32-characters!!", time.Hour)
	svc := NewAuthService(mem, store, jwtMgr, guard.NewRateLimiter(2, time.Minute), nil, discardLogger())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := svc.Login(ctx, LoginInput{Username: "x", Password: "y"}, "10.0.0.9")
		requireCode(t, err, "UNAUTHORIZED")
	}
	_, err := svc.Login(ctx, LoginInput{Username: "x", Password: "y"}, "10.0.0.9")
	requireCode(t, err, "RATE_LIMITED")

	_, err = svc.Login(ctx, LoginInput{Username: "x", Password: "y"}, "10.0.0.10")
	requireCode(t, err, "UNAUTHORIZED")
}

func TestRegister(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input RegisterInput
		code  string
	}{
		{"ok", RegisterInput{Username: "carol", Password: "password123", Role: domain.RoleEditor}, ""},
		{"duplicate", RegisterInput{Username: "admin", Password: "password123", Role: domain.RoleViewer}, "USERNAME_TAKEN"},
		{"missing role", RegisterInput{Username: "dave", Password: "password123"}, "VALIDATION_ERROR"},
		{"bad role", RegisterInput{Username: "dave", Password: "password123", Role: "owner"}, "INVALID_ROLE"},
		{"short password", RegisterInput{Username: "dave", Password: "short", Role: domain.RoleViewer}, "VALIDATION_ERROR"},
		{"short username", RegisterInput{Username: "d", Password: "password123", Role: domain.RoleViewer}, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := f.svc.Register(ctx, tt.input)
			if tt.code == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.input.Role, u.Role)
				assert.NotEqual(t, tt.input.Password, u.PasswordHash)
				return
			}
			requireCode(t, err, tt.code)
		})
	}
}

func TestUsernamesAreCaseSensitive(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Register(context.Background(), RegisterInput{Username: "Admin", Password: "password123", Role: domain.RoleViewer})
	require.NoError(t, err)
}

func TestChangeRole(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	v := f.register(t, "viewer1", domain.RoleViewer)

	require.NoError(t, f.svc.ChangeRole(ctx, v.UserID, domain.RoleEditor))
	self, err := f.svc.GetSelf(ctx, v)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEditor, self.Role)

	requireCode(t, f.svc.ChangeRole(ctx, v.UserID, "superuser"), "INVALID_ROLE")
	requireCode(t, f.svc.ChangeRole(ctx, uuid.New(), domain.RoleViewer), "NOT_FOUND")
}

func TestLastAdminProtected(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	requireCode(t, f.svc.ChangeRole(ctx, f.admin.UserID, domain.RoleViewer), "CONFLICT")
	requireCode(t, f.svc.DeleteUser(ctx, f.admin.UserID), "CONFLICT")

	second := f.register(t, "admin2", domain.RoleAdmin)
	require.NoError(t, f.svc.DeleteUser(ctx, f.admin.UserID))
	requireCode(t, f.svc.DeleteUser(ctx, second.UserID), "CONFLICT")
}

func TestDeleteUser(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	v := f.register(t, "viewer1", domain.RoleViewer)

	require.NoError(t, f.svc.DeleteUser(ctx, v.UserID))
	requireCode(t, f.svc.DeleteUser(ctx, v.UserID), "NOT_FOUND")

	_, err := f.svc.GetSelf(ctx, v)
	requireCode(t, err, "NOT_FOUND")
}

func TestChangePassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	v := f.register(t, "viewer1", domain.RoleViewer)
	other := f.register(t, "viewer2", domain.RoleViewer)

	err := f.svc.ChangePassword(ctx, v, v.UserID, ChangePasswordInput{CurrentPassword: "wrong-one", NewPassword: "brand-new-pass"})
	requireCode(t, err, "UNAUTHORIZED")

	err = f.svc.ChangePassword(ctx, v, other.UserID, ChangePasswordInput{CurrentPassword: "password123", NewPassword: "brand-new-pass"})
	requireCode(t, err, "FORBIDDEN")

	err = f.svc.ChangePassword(ctx, v, v.UserID, ChangePasswordInput{CurrentPassword: "password123", NewPassword: "short"})
	requireCode(t, err, "VALIDATION_ERROR")

	require.NoError(t, f.svc.ChangePassword(ctx, v, v.UserID, ChangePasswordInput{CurrentPassword: "password123", NewPassword: "brand-new-pass"}))
	_, err = f.svc.Login(ctx, LoginInput{Username: "viewer1", Password: "brand-new-pass"}, "10.0.0.1")
	require.NoError(t, err)

	// admin bypasses the current-password check
	require.NoError(t, f.svc.ChangePassword(ctx, f.admin, other.UserID, ChangePasswordInput{NewPassword: "reset-by-admin"}))
	_, err = f.svc.Login(ctx, LoginInput{Username: "viewer2", Password: "reset-by-admin"}, "10.0.0.1")
	require.NoError(t, err)
}

func TestUpdateProfile(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	v := f.register(t, "viewer1", domain.RoleViewer)
	f.register(t, "viewer2", domain.RoleViewer)

	require.NoError(t, f.svc.UpdateProfile(ctx, v, v.UserID, "renamed"))
	requireCode(t, f.svc.UpdateProfile(ctx, v, v.UserID, "viewer2"), "USERNAME_TAKEN")
	requireCode(t, f.svc.UpdateProfile(ctx, v, f.admin.UserID, "hijack"), "FORBIDDEN")
	require.NoError(t, f.svc.UpdateProfile(ctx, f.admin, v.UserID, "by-admin"))
}

func TestBootstrapAdminSkipsWhenAdminExists(t *testing.T) {
	f := newAuthFixture(t)
	created, err := f.svc.BootstrapAdmin(context.Background(), "root", "another-password")
	require.NoError(t, err)
	assert.False(t, created)

	users, err := f.svc.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestBootstrapAdminNeedsPassword(t *testing.T) {
	mem := repotest.New()
	svc := NewAuthService(mem, mem.Store(), auth.NewJWTManager("s", time.Hour), nil, nil, discardLogger())
	created, err := svc.BootstrapAdmin(context.Background(), "admin", "")
	require.NoError(t, err)
	assert.False(t, created)
}
