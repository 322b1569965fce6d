package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/kodbank/kodbank/internal/adapter/http/handler"
	"github.com/kodbank/kodbank/internal/adapter/http/middleware"
	"github.com/kodbank/kodbank/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AuthHandler      *handler.AuthHandler
	AccountHandler   *handler.AccountHandler
	TransferHandler  *handler.TransferHandler
	EntryHandler     *handler.EntryHandler
	AssistantHandler *handler.AssistantHandler
	LedgerHandler    *handler.LedgerHandler
	HealthHandler    *handler.HealthHandler

	SessionResolver  middleware.SessionResolver
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter

	Logger zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)

	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Operational endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// Public
		r.Post("/register", cfg.AuthHandler.Register)
		r.Post("/login", cfg.AuthHandler.Login)

		// Session required
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.SessionResolver))

			if cfg.IdempotencyStore != nil {
				idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL)
				r.Use(idempotencyMiddleware.Wrap)
			}

			r.Post("/logout", cfg.AuthHandler.Logout)
			r.Get("/me", cfg.AccountHandler.Me)
			r.Get("/balance", cfg.AccountHandler.Balance)
			r.Post("/deposit", cfg.TransferHandler.Deposit)
			r.Post("/withdraw", cfg.TransferHandler.Withdraw)
			r.Post("/transfer", cfg.TransferHandler.Transfer)
			r.Get("/transactions", cfg.EntryHandler.ListTransactions)
			r.Post("/assistant/chat", cfg.AssistantHandler.Chat)
			r.Get("/ledger/consistency", cfg.LedgerHandler.Consistency)
		})
	})

	return r
}
