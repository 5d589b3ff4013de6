package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/nkiryanov/aquanexus/internal/db"
	"github.com/nkiryanov/aquanexus/internal/handlers"
	"github.com/nkiryanov/aquanexus/internal/logger"
	"github.com/nkiryanov/aquanexus/internal/metrics"
	"github.com/nkiryanov/aquanexus/internal/ratelimit"
	"github.com/nkiryanov/aquanexus/internal/repository/postgres"
	"github.com/nkiryanov/aquanexus/internal/retry"
	"github.com/nkiryanov/aquanexus/internal/service/auth"
	"github.com/nkiryanov/aquanexus/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/aquanexus/internal/service/provider"
	"github.com/nkiryanov/aquanexus/internal/service/user"
)

const shutdownTimeout = 5 * time.Second

type expiredPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger        logger.Logger
	purger        expiredPurger
	purgeInterval time.Duration

	// Release connections when server stopped
	closers []func()
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	// Database not reachable after all attempts is fatal: no reason to serve without schema
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN, retry.Config{
		Attempts: c.DBConnectAttempts,
		Delay:    c.DBConnectDelay,
		OnRetry: func(attempt int, err error, wait time.Duration) {
			logger.Warn("database not ready, retrying", "attempt", attempt, "wait", wait, "error", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}
	closers := []func(){pool.Close}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{
		SecretKey:        c.SecretKey,
		RefreshSecretKey: c.RefreshSecretKey,
		AccessTTL:        c.AccessTokenTTL,
		RefreshTTL:       c.RefreshTokenTTL,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}
	authService, err := auth.NewService(auth.Config{}, tokenManager, storage)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}
	userService := user.NewService(storage.User())
	providerService := provider.NewService(storage.Provider())

	// Login throttling is optional
	limiter := ratelimit.NewNoOpLimiter()
	if c.RedisAddr != "" {
		client := goredis.NewClient(&goredis.Options{Addr: c.RedisAddr})
		store := ratelimit.NewRedisStore(client)
		if err := store.Ping(ctx); err != nil {
			logger.Warn("redis not reachable on start, attempts are not limited until it is", "addr", c.RedisAddr, "error", err)
		}
		limiter = ratelimit.NewLimiter(store, c.LoginAttemptsPerMinute)
		closers = append(closers, func() { _ = client.Close() })
	}

	router := handlers.NewRouter(handlers.Services{
		Auth:     authService,
		User:     userService,
		Provider: providerService,
		Limiter:  limiter,
		Health:   storage,
	}, metrics.New(), logger)

	return &ServerApp{
		ListenAddr:    c.ListenAddr,
		Handler:       router,
		logger:        logger,
		purger:        authService,
		purgeInterval: c.PurgeInterval,
		closers:       closers,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	s.startRefreshJanitor(srvCtx)

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "addr", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	for _, closeFn := range s.closers {
		closeFn()
	}

	return err
}

// Delete expired refresh tokens periodically until ctx is done
func (s *ServerApp) startRefreshJanitor(ctx context.Context) {
	if s.purger == nil || s.purgeInterval <= 0 {
		return
	}

	go func() {
		t := time.NewTicker(s.purgeInterval)
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				deleted, err := s.purger.PurgeExpired(ctx)
				if err != nil {
					s.logger.Error("expired refresh tokens purge failed", "error", err)
					continue
				}
				s.logger.Debug("expired refresh tokens purged", "deleted", deleted)
			}
		}
	}()
}
