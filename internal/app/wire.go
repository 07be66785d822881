package app

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pokerledger/platform/internal/auth"
	"github.com/pokerledger/platform/internal/guard"
	"github.com/pokerledger/platform/internal/handler"
	"github.com/pokerledger/platform/internal/infra"
	"github.com/pokerledger/platform/internal/ledger"
	"github.com/pokerledger/platform/internal/projection"
	"github.com/pokerledger/platform/internal/repository"
	"github.com/pokerledger/platform/internal/service"
)

const idempotencyTTL = 10 * time.Minute

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	DB     repository.DB
	Pinger infra.Pinger
	Store  *repository.Store
	JWTMgr *auth.JWTManager
	Logger *slog.Logger

	// Cache backs the table snapshot. Nil selects an in-memory store.
	Cache          projection.Store
	CachePinger    infra.Pinger
	TablesCacheTTL time.Duration

	CORSOrigins     []string
	TrustedProxies  *handler.TrustedProxies
	LoginRateLimit  int
	LoginRateWindow time.Duration
}

// Router is the assembled HTTP handler plus the services main needs at startup.
type Router struct {
	chi.Router
	Auth        *service.AuthService
	Tables      *service.TableService
	LoginLimits *guard.RateLimiter
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) *Router {
	db := deps.DB
	logger := deps.Logger
	store := deps.Store
	if store == nil {
		store = repository.NewStore()
	}
	cacheStore := deps.Cache
	if cacheStore == nil {
		cacheStore = projection.NewInMemoryStore()
	}
	pinger := deps.Pinger
	if pinger == nil {
		if p, ok := db.(infra.Pinger); ok {
			pinger = p
		}
	}

	loginLimit, loginWindow := deps.LoginRateLimit, deps.LoginRateWindow
	if loginLimit <= 0 || loginWindow <= 0 {
		loginLimit, loginWindow = 20, time.Minute
	}

	// Ledger engine and guards
	ledgerEngine := ledger.NewEngine(store)
	tableCache := projection.NewTableCache(cacheStore, deps.TablesCacheTTL, logger)
	limiter := guard.NewRateLimiter(loginLimit, loginWindow)
	lockout := guard.NewLockout(db, store.LoginAttempts, logger)
	idempotency := guard.NewIdempotencyGuard(idempotencyTTL)

	// Services
	authSvc := service.NewAuthService(db, store, deps.JWTMgr, limiter, lockout, logger)
	tableSvc := service.NewTableService(db, store, ledgerEngine, tableCache, logger)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, deps.TrustedProxies)
	tableHandler := handler.NewTableHandler(tableSvc)

	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORS(deps.CORSOrigins))
	r.Use(handler.JSONContentType)

	// Health (no auth)
	r.Get("/health", handler.HealthHandler(pinger, deps.CachePinger))

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/login", authHandler.Login)
		r.Get("/public/tables", tableHandler.ListTables)
		r.Get("/public/statistics", tableHandler.Statistics)
		r.Get("/players/unique-names", tableHandler.UniqueNames)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate(deps.JWTMgr))

			r.With(auth.Require(auth.CapUsersSelf)).Post("/logout", authHandler.Logout)
			r.With(auth.Require(auth.CapUsersAdmin)).Post("/register", authHandler.Register)

			r.Route("/users", func(r chi.Router) {
				r.With(auth.Require(auth.CapUsersSelf)).Get("/me", authHandler.Me)
				r.With(auth.Require(auth.CapUsersAdmin)).Get("/", authHandler.ListUsers)
				r.With(auth.Require(auth.CapUsersAdmin)).Put("/{userId}/role", authHandler.ChangeRole)
				r.With(auth.Require(auth.CapUsersAdmin)).Delete("/{userId}", authHandler.DeleteUser)
				r.With(auth.Require(auth.CapUsersSelf)).Put("/{userId}/password", authHandler.ChangePassword)
				r.With(auth.Require(auth.CapUsersSelf)).Put("/{userId}/profile", authHandler.UpdateProfile)
			})

			r.With(auth.Require(auth.CapTablesRead)).Get("/statistics", tableHandler.Statistics)

			r.Route("/tables", func(r chi.Router) {
				r.With(auth.Require(auth.CapTablesRead)).Get("/", tableHandler.ListTables)
				r.With(auth.Require(auth.CapTablesWrite)).Post("/", tableHandler.CreateTable)

				r.Route("/{tableId}", func(r chi.Router) {
					r.With(auth.Require(auth.CapTablesRead)).Get("/", tableHandler.GetTable)
					r.With(auth.Require(auth.CapTablesRead)).Get("/balance", tableHandler.GetBalance)
					r.With(auth.Require(auth.CapTablesWrite)).Put("/", tableHandler.UpdateTable)
					r.With(auth.Require(auth.CapTablesDelete)).Delete("/", tableHandler.DeleteTable)
					r.With(auth.Require(auth.CapTablesWrite)).Put("/status", tableHandler.SetStatus)

					r.Route("/players", func(r chi.Router) {
						r.With(auth.Require(auth.CapPlayersWrite)).Post("/", tableHandler.AddPlayer)

						r.Route("/{playerId}", func(r chi.Router) {
							r.With(auth.Require(auth.CapPlayersWrite)).Delete("/", tableHandler.RemovePlayer)
							r.With(auth.Require(auth.CapLedgerWrite)).Put("/chips", tableHandler.UpdateChips)
							r.With(auth.Require(auth.CapPlayersWrite)).Put("/reactivate", tableHandler.Reactivate)
							r.With(auth.Require(auth.CapPlayersWrite)).Put("/showme", tableHandler.SetShowMe)

							r.Group(func(r chi.Router) {
								r.Use(auth.Require(auth.CapLedgerWrite))
								r.Use(handler.Idempotent(idempotency))
								r.Post("/buyins", tableHandler.RecordBuyIn)
								r.Post("/cashouts", tableHandler.RecordCashOut)
							})
						})
					})
				})
			})
		})
	})

	return &Router{
		Router:      r,
		Auth:        authSvc,
		Tables:      tableSvc,
		LoginLimits: limiter,
	}
}
