package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/oakline/storefront/internal/access"
	"github.com/oakline/storefront/internal/authapi"
	"github.com/oakline/storefront/internal/config"
	"github.com/oakline/storefront/internal/database"
	"github.com/oakline/storefront/internal/middleware"
	"github.com/oakline/storefront/internal/queue"
	"github.com/oakline/storefront/internal/redirect"
	"github.com/oakline/storefront/internal/repository"
	"github.com/oakline/storefront/internal/router"
	"github.com/oakline/storefront/internal/service"
	"github.com/oakline/storefront/internal/session"
)

func main() {
	cfg := config.Load() // Load environment config

	logger, err := config.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis is optional; without it tokens live in cookies and the
	// credential forms are not rate limited.
	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn("redis unavailable; using cookie token storage and no rate limiting")
	} else {
		defer func() { _ = rdb.Close() }()
	}

	opts := []session.Option{
		session.WithRegisterPolicy(session.ParseRegisterPolicy(cfg.RegisterPolicy)),
	}
	if cfg.EventsEnabled {
		pub := service.NewPublisher(cfg.RabbitURL, 1024, logger.Named("publisher"))
		if !cfg.EventsVerify {
			// Every page load verifies its token; only failures are worth auditing by default.
			pub.Ignore(session.EventVerified)
		}
		go func() {
			if err := pub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("session event publisher stopped", zap.Error(err))
			}
		}()
		opts = append(opts, session.WithEvents(pub))
	}
	audit := openAuditStore(ctx, cfg, logger)
	if cfg.EventsConsumer {
		startConsumer(ctx, cfg, audit, logger.Named("consumer"))
	}

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), scripter(rdb), logger)

	deps := router.Deps{
		Log: logger,
		Session: middleware.SessionConfig{
			API:     authapi.NewClient(cfg.AuthAPIURL, cfg.AuthAPITimeout),
			Storage: tokenStorage(cfg, rdb, logger),
			Options: opts,
		},
		Table:     access.DefaultTable,
		Landing:   redirect.MustNew(redirect.DefaultPolicy),
		RateLimit: limiter,
	}
	if audit != nil { // keep a nil repo out of the interface
		deps.Audit = audit
	}
	e := router.New(deps)
	e.HidePort = true

	addr := ":" + cfg.Port
	logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

// tokenStorage picks the durable token storage named by TOKEN_STORAGE.
func tokenStorage(cfg config.Config, rdb *redis.Client, logger *zap.Logger) middleware.StorageFactory {
	if cfg.TokenStorage == "redis" {
		if rdb != nil {
			return middleware.RedisStorage(rdb, cfg.TokenRedisPrefix, cfg.DeviceCookieName, cfg.CookieSecure, cfg.TokenFallbackTTL)
		}
		logger.Warn("TOKEN_STORAGE=redis but redis is unavailable; falling back to cookies")
	}
	return middleware.CookieStorage(cfg.TokenCookieName, cfg.CookieSecure, cfg.TokenFallbackTTL)
}

// scripter avoids handing a typed nil client to the rate limiter.
func scripter(rdb *redis.Client) redis.Scripter {
	if rdb == nil {
		return nil
	}
	return rdb
}

// openAuditStore opens the MySQL session event store when DB_NAME is set.
// It returns nil when the database is not configured or unreachable.
func openAuditStore(ctx context.Context, cfg config.Config, logger *zap.Logger) *repository.SessionEventRepo {
	if !cfg.DB.Enabled() {
		return nil
	}
	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		logger.Error("session event database unavailable", zap.Error(err))
		return nil
	}
	repo := repository.NewSessionEventRepo(db)
	if err := repo.Migrate(ctx); err != nil {
		logger.Error("session_events migrate", zap.Error(err))
	}
	go func() {
		<-ctx.Done()
		_ = db.Close()
	}()
	return repo
}

// startConsumer runs the session event consumer writing to the log file
// and, when available, to MySQL.
func startConsumer(ctx context.Context, cfg config.Config, audit *repository.SessionEventRepo, logger *zap.Logger) {
	sinks := queue.MultiSink{queue.NewFileSink(cfg.EventsLogDir)}
	if audit != nil {
		sinks = append(sinks, audit)
	}
	c := queue.NewConsumer(cfg.RabbitURL, sinks, logger)
	go func() {
		if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("session event consumer stopped", zap.Error(err))
		}
	}()
}
