package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	httpAdapter "github.com/kodbank/kodbank/internal/adapter/http"
	"github.com/kodbank/kodbank/internal/adapter/http/handler"
	"github.com/kodbank/kodbank/internal/adapter/http/middleware"
	postgresRepo "github.com/kodbank/kodbank/internal/adapter/repository/postgres"
	redisRepo "github.com/kodbank/kodbank/internal/adapter/repository/redis"
	"github.com/kodbank/kodbank/internal/infrastructure/assistant"
	"github.com/kodbank/kodbank/internal/infrastructure/auth"
	"github.com/kodbank/kodbank/internal/infrastructure/config"
	"github.com/kodbank/kodbank/internal/infrastructure/logger"
	"github.com/kodbank/kodbank/internal/infrastructure/metrics"
	"github.com/kodbank/kodbank/internal/infrastructure/postgres"
	"github.com/kodbank/kodbank/internal/infrastructure/redis"
	"github.com/kodbank/kodbank/internal/usecase"
)

const sessionPurgeInterval = 15 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Logger = logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET must be set")
	}

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	sessionRepo := postgresRepo.NewSessionRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier(log.Logger)

	// Use cases
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.SessionTTL)
	accountUC := usecase.NewAccountUseCase(txManager, accountRepo, entryRepo, idGen)
	ledgerUC := usecase.NewLedgerUseCase(txManager, accountRepo, entryRepo, idGen, retrier)
	authUC := usecase.NewAuthUseCase(accountRepo, sessionRepo, jwtManager, idGen)
	reconciliationUC := usecase.NewReconciliationUseCase(ledgerRepo)
	assistantUC := usecase.NewAssistantUseCase(assistant.NewClient(assistant.Config{
		URL:       cfg.AssistantURL,
		APIKey:    cfg.AssistantAPIKey,
		Model:     cfg.AssistantModel,
		MaxTokens: cfg.AssistantMaxTokens,
		Timeout:   cfg.AssistantTimeout,
	}))

	m := metrics.New()

	// Handlers
	authHandler := handler.NewAuthHandler(accountUC, authUC, m)
	accountHandler := handler.NewAccountHandler(accountUC, ledgerUC)
	transferHandler := handler.NewTransferHandler(ledgerUC, m)
	entryHandler := handler.NewEntryHandler(ledgerUC)
	assistantHandler := handler.NewAssistantHandler(assistantUC, m)
	ledgerHandler := handler.NewLedgerHandler(reconciliationUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AuthHandler:      authHandler,
		AccountHandler:   accountHandler,
		TransferHandler:  transferHandler,
		EntryHandler:     entryHandler,
		AssistantHandler: assistantHandler,
		LedgerHandler:    ledgerHandler,
		HealthHandler:    healthHandler,
		SessionResolver:  authUC,
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      rateLimiter,
		Logger:           log.Logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	// Background session purge
	purgeCtx, purgeCancel := context.WithCancel(ctx)
	defer purgeCancel()
	go purgeSessions(purgeCtx, authUC, rateLimiter)

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// purgeSessions periodically deletes expired session rows and resets the
// per-IP limiter map.
func purgeSessions(ctx context.Context, authUC *usecase.AuthUseCase, rateLimiter *middleware.RateLimiter) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := authUC.PurgeExpired(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("failed to purge expired sessions")
				continue
			}
			if deleted > 0 {
				log.Info().Int64("deleted", deleted).Msg("purged expired sessions")
			}

			rateLimiter.CleanupLimiters()
		}
	}
}
