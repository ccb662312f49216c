/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the front-desk folio server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (FOLIO_* environment, optional .env)
  2. Build the zap logger
  3. Open the store (sqlite file or in-memory)
  4. Connect the Redis snapshot publisher when FOLIO_REDIS_ADDR is set
  5. Create the folio service, API handler and router
  6. Serve until SIGINT/SIGTERM

CONFIGURATION (see config/config.go):
  FOLIO_ADDR        Listen address (default :8080)
  FOLIO_STORE       sqlite | memory (default sqlite)
  FOLIO_DB_PATH     SQLite database path (default folio.db)
  FOLIO_REDIS_ADDR  Redis address for snapshot broadcast (optional)
  FOLIO_LOG_LEVEL   debug | info | warn | error

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (FOLIO_SHUTDOWN_TIMEOUT)
  3. Close Redis and database connections
  4. Exit

EXAMPLES:
  # Run with file database
  FOLIO_DB_PATH=./data/folio.db ./server

  # Run in memory with text logs
  FOLIO_STORE=memory FOLIO_LOG_FORMAT=console ./server

SEE ALSO:
  - api/server.go: Router configuration
  - folio/service.go: Operations
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/warp/folio-engine/api"
	"github.com/warp/folio-engine/broadcast"
	"github.com/warp/folio-engine/config"
	"github.com/warp/folio-engine/folio"
	"github.com/warp/folio-engine/hotel"
	"github.com/warp/folio-engine/hotel/store"
	"github.com/warp/folio-engine/metrics"
	"github.com/warp/folio-engine/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "folio-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat, "folio-engine")
	if err != nil {
		return err
	}
	defer logger.Sync()

	tax, err := cfg.TaxSettings()
	if err != nil {
		return err
	}
	program, err := cfg.LoyaltyProgram()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize store
	var st hotel.Store
	switch cfg.Store {
	case "memory":
		st = store.NewMemoryWithTax(tax)
	default:
		db, err := sqlite.NewWithTax(cfg.DBPath, tax)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		st = db
	}

	reg := metrics.New()
	opts := []folio.Option{
		folio.WithLogger(logger),
		folio.WithMetrics(reg),
		folio.WithProgram(program),
	}

	if cfg.RedisAddr != "" {
		client, err := broadcast.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer client.Close()
		opts = append(opts, folio.WithPublisher(broadcast.NewRedisPublisher(client, cfg.RedisPrefix)))
		logger.Info("snapshot broadcast enabled", zap.String("redis_addr", cfg.RedisAddr))
	}

	svc := folio.NewService(st, opts...)
	if err := svc.Verify(ctx); err != nil {
		logger.Warn("stored state failed verification", zap.Error(err))
	}

	handler := api.NewHandler(svc, logger)
	router := api.NewRouter(handler, api.RouterConfig{
		Logger:         logger,
		Metrics:        reg,
		CORSOrigins:    cfg.CORSOrigins,
		RateLimit:      cfg.RateLimit,
		RequestTimeout: cfg.RequestTimeout,
		Production:     cfg.IsProduction(),
	})

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting",
			zap.String("addr", cfg.Addr),
			zap.String("store", cfg.Store),
			zap.String("env", cfg.Env),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
