// goseal-server runs the goseal HTTP API.
//
// Configuration comes from the environment, an optional .env file and an
// optional YAML file named by GOSEAL_CONFIG. Without REDIS_ADDR the server
// starts an embedded in-memory Redis for rate limiting and the redis store.
//
//	AUTH_KEY=... CONTENT_KEY=... go run ./cmd/goseal-server
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	goSeal "github.com/MrEthical07/goSeal"
	"github.com/MrEthical07/goSeal/api"
	"github.com/MrEthical07/goSeal/internal/appconfig"
	"github.com/MrEthical07/goSeal/store"
)

func main() {
	cfg, err := appconfig.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := cfg.Logger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, nil); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

// run serves until ctx is done. When ready is non-nil the bound listen
// address is sent on it once the listener is open.
func run(ctx context.Context, cfg *appconfig.Config, logger *zap.Logger, ready chan<- string) error {
	if cfg.GeneratedKeys {
		logger.Warn("AUTH_KEY and CONTENT_KEY not set; using random development keys")
	}

	rdb, cleanup, err := openRedis(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	var principals goSeal.PrincipalStore
	switch cfg.Store.Backend {
	case appconfig.StoreRedis:
		principals = store.NewRedisPrincipals(rdb, cfg.Redis.Prefix)
	default:
		principals = store.NewMemoryPrincipals()
	}

	b := goSeal.New().
		WithConfig(cfg.EngineConfig()).
		WithPrincipalStore(principals).
		WithLogger(logger)
	if rdb != nil {
		b = b.WithRedis(rdb)
	}
	if cfg.Observability.AuditEnabled {
		b = b.WithAuditSink(goSeal.NewZapAuditSink(logger))
	}
	engine, err := b.Build()
	if err != nil {
		return fmt.Errorf("engine build: %w", err)
	}
	defer engine.Close()

	srv := &http.Server{
		Handler: api.NewRouter(api.Deps{
			Engine:         engine,
			Posts:          store.NewPosts(nil),
			Logger:         logger,
			CORSOrigins:    cfg.Server.CORSOrigins,
			MaxBodyBytes:   cfg.Server.MaxBodyBytes,
			RequestTimeout: cfg.Server.WriteTimeout,
		}),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	ln, err := net.Listen("tcp", cfg.Server.Address())
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	logger.Info("goseal-server listening",
		zap.String("addr", ln.Addr().String()),
		zap.String("environment", cfg.Environment),
		zap.String("store", cfg.Store.Backend),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled))
	if ready != nil {
		ready <- ln.Addr().String()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openRedis connects to REDIS_ADDR, or starts miniredis when no address is
// configured but Redis is needed. It returns a nil client when nothing needs
// Redis.
func openRedis(cfg *appconfig.Config, logger *zap.Logger) (redis.UniversalClient, func(), error) {
	needed := cfg.RateLimit.Enabled || cfg.Store.Backend == appconfig.StoreRedis
	if !needed {
		return nil, func() {}, nil
	}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ReadTimeout)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
		}
		return rdb, func() { _ = rdb.Close() }, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("embedded redis: %w", err)
	}
	logger.Warn("REDIS_ADDR not set; using embedded in-memory redis", zap.String("addr", mr.Addr()))
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return rdb, func() {
		_ = rdb.Close()
		mr.Close()
	}, nil
}
