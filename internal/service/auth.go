package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/pokerledger/platform/internal/auth"
	"github.com/pokerledger/platform/internal/domain"
	"github.com/pokerledger/platform/internal/guard"
	"github.com/pokerledger/platform/internal/repository"
)

// AuthService handles login and user administration.
type AuthService struct {
	db      repository.DB
	users   repository.UserRepository
	jwtMgr  *auth.JWTManager
	limiter *guard.RateLimiter
	lockout *guard.Lockout
	logger  *slog.Logger

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthService creates a new AuthService. limiter and lockout may be nil.
func NewAuthService(
	db repository.DB,
	store *repository.Store,
	jwtMgr *auth.JWTManager,
	limiter *guard.RateLimiter,
	lockout *guard.Lockout,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		db:      db,
		users:   store.Users,
		jwtMgr:  jwtMgr,
		limiter: limiter,
		lockout: lockout,
		logger:  logger,
	}
}

// LoginInput holds the login request fields.
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Token string          `json:"token"`
	User  domain.Identity `json:"user"`
}

// RegisterInput holds the registration request fields. Role is mandatory.
type RegisterInput struct {
	Username string      `json:"username" validate:"required"`
	Password string      `json:"password" validate:"required"`
	Role     domain.Role `json:"role"`
}

// ChangePasswordInput holds the change-password request fields.
type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

// Login verifies credentials and issues a JWT. Unknown users and wrong passwords
// fail with the same message.
func (s *AuthService) Login(ctx context.Context, input LoginInput, clientIP string) (*LoginResult, error) {
	if s.limiter != nil {
		if err := s.limiter.Check(ctx, "login:"+clientIP).Err(); err != nil {
			return nil, err
		}
	}
	if s.lockout != nil {
		if err := s.lockout.CheckLocked(ctx, input.Username); err != nil {
			return nil, err
		}
	}

	user, err := s.users.FindByUsername(ctx, s.db, input.Username)
	if err != nil {
		return nil, domain.ErrInternal("find user", err)
	}
	if user == nil {
		// keep response timing close to the wrong-password path
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(input.Password))
		s.recordAttempt(ctx, input.Username, clientIP, false)
		return nil, domain.ErrUnauthorized(domain.MsgInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		s.recordAttempt(ctx, input.Username, clientIP, false)
		return nil, domain.ErrUnauthorized(domain.MsgInvalidCredentials)
	}

	token, err := s.jwtMgr.GenerateToken(user)
	if err != nil {
		return nil, domain.ErrInternal("generate token", err)
	}
	s.recordAttempt(ctx, input.Username, clientIP, true)
	s.logger.Info("user logged in", "user_id", user.ID, "role", user.Role)

	return &LoginResult{
		Token: token,
		User:  identityOf(user),
	}, nil
}

// Register creates a user with an explicit role.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if err := domain.ValidateUsername(input.Username); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if err := domain.ValidatePassword(input.Password); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if input.Role == "" {
		return nil, domain.ErrValidation("role is required")
	}
	if !input.Role.Valid() {
		return nil, domain.ErrInvalidRole(string(input.Role))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.ErrInternal("hash password", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     input.Username,
		PasswordHash: string(hash),
		Role:         input.Role,
	}
	if err := s.users.Create(ctx, s.db, user); err != nil {
		return nil, asAppError("create user", err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username, "role", user.Role)
	return user, nil
}

// GetSelf re-reads the caller from the store so deleted users get a 404.
func (s *AuthService) GetSelf(ctx context.Context, caller domain.Identity) (*domain.Identity, error) {
	user, err := s.findUser(ctx, s.db, caller.UserID)
	if err != nil {
		return nil, err
	}
	id := identityOf(user)
	return &id, nil
}

// ListUsers returns every user ordered by username.
func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx, s.db)
	if err != nil {
		return nil, domain.ErrInternal("list users", err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// ChangeRole sets a user's role. The last admin cannot be demoted.
func (s *AuthService) ChangeRole(ctx context.Context, userID uuid.UUID, role domain.Role) error {
	if !role.Valid() {
		return domain.ErrInvalidRole(string(role))
	}
	err := inTx(ctx, s.db, func(tx pgx.Tx) error {
		user, err := s.findUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		if user.Role == domain.RoleAdmin && role != domain.RoleAdmin {
			if err := s.ensureOtherAdmin(ctx, tx, "demote"); err != nil {
				return err
			}
		}
		if _, err := s.users.UpdateRole(ctx, tx, userID, role); err != nil {
			return domain.ErrInternal("update role", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("user role changed", "user_id", userID, "role", role)
	return nil
}

// ChangePassword updates a password. Admins skip the current-password check;
// other callers may only change their own.
func (s *AuthService) ChangePassword(ctx context.Context, caller domain.Identity, userID uuid.UUID, input ChangePasswordInput) error {
	if !caller.IsAdmin() && caller.UserID != userID {
		return domain.ErrForbidden(domain.MsgInsufficientRole)
	}
	if err := domain.ValidatePassword(input.NewPassword); err != nil {
		return domain.ErrValidation(err.Error())
	}

	user, err := s.findUser(ctx, s.db, userID)
	if err != nil {
		return err
	}
	if !caller.IsAdmin() {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.CurrentPassword)); err != nil {
			return domain.ErrUnauthorized(domain.MsgIncorrectPassword)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return domain.ErrInternal("hash password", err)
	}
	found, err := s.users.UpdatePasswordHash(ctx, s.db, userID, string(hash))
	if err != nil {
		return domain.ErrInternal("update password", err)
	}
	if !found {
		return domain.ErrNotFound("user", userID.String())
	}
	s.logger.Info("password changed", "user_id", userID, "by", caller.UserID)
	return nil
}

// UpdateProfile renames a user. Callers other than admins may only rename themselves.
func (s *AuthService) UpdateProfile(ctx context.Context, caller domain.Identity, userID uuid.UUID, username string) error {
	if !caller.IsAdmin() && caller.UserID != userID {
		return domain.ErrForbidden(domain.MsgInsufficientRole)
	}
	if err := domain.ValidateUsername(username); err != nil {
		return domain.ErrValidation(err.Error())
	}
	found, err := s.users.UpdateUsername(ctx, s.db, userID, username)
	if err != nil {
		return asAppError("update username", err)
	}
	if !found {
		return domain.ErrNotFound("user", userID.String())
	}
	return nil
}

// DeleteUser removes a user. Tables they created are kept with no creator.
func (s *AuthService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	err := inTx(ctx, s.db, func(tx pgx.Tx) error {
		user, err := s.findUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		if user.Role == domain.RoleAdmin {
			if err := s.ensureOtherAdmin(ctx, tx, "delete"); err != nil {
				return err
			}
		}
		if _, err := s.users.Delete(ctx, tx, userID); err != nil {
			return domain.ErrInternal("delete user", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("user deleted", "user_id", userID)
	return nil
}

// BootstrapAdmin creates the first admin when none exists. It returns false when
// an admin already exists or no password is configured.
func (s *AuthService) BootstrapAdmin(ctx context.Context, username, password string) (bool, error) {
	if strings.TrimSpace(password) == "" {
		return false, nil
	}
	users, err := s.users.List(ctx, s.db)
	if err != nil {
		return false, domain.ErrInternal("list users", err)
	}
	for _, u := range users {
		if u.Role == domain.RoleAdmin {
			return false, nil
		}
	}

	if _, err := s.Register(ctx, RegisterInput{
		Username: username,
		Password: password,
		Role:     domain.RoleAdmin,
	}); err != nil {
		return false, err
	}
	return true, nil
}

func (s *AuthService) findUser(ctx context.Context, db repository.DBTX, id uuid.UUID) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, db, id)
	if err != nil {
		return nil, domain.ErrInternal("find user", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound("user", id.String())
	}
	return user, nil
}

// ensureOtherAdmin locks the admin set and fails unless more than one admin remains.
func (s *AuthService) ensureOtherAdmin(ctx context.Context, tx pgx.Tx, action string) error {
	admins, err := s.users.LockRole(ctx, tx, domain.RoleAdmin)
	if err != nil {
		return domain.ErrInternal("lock admins", err)
	}
	if len(admins) <= 1 {
		return domain.ErrConflict("cannot " + action + " the last admin")
	}
	return nil
}

func (s *AuthService) recordAttempt(ctx context.Context, username, ip string, success bool) {
	if s.lockout != nil {
		s.lockout.RecordAttempt(ctx, username, ip, success)
	}
}

func (s *AuthService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	})
	return s.dummyHash
}

func identityOf(u *domain.User) domain.Identity {
	return domain.Identity{UserID: u.ID, Username: u.Username, Role: u.Role}
}
