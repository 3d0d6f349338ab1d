package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/runway-config-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/runway-config-etl/internal/adapter/kafka"
	"github.com/couchcryptid/runway-config-etl/internal/adapter/postgres"
	"github.com/couchcryptid/runway-config-etl/internal/config"
	"github.com/couchcryptid/runway-config-etl/internal/observability"
	"github.com/couchcryptid/runway-config-etl/internal/pipeline"
	"github.com/couchcryptid/runway-config-etl/internal/reconcile"
	"github.com/couchcryptid/runway-config-etl/internal/runway"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Pair store selection (PAIR_STORE=memory|postgres).
	var (
		store      reconcile.PairStore
		storeReady sharedobs.ReadinessChecker
	)
	switch cfg.PairStore {
	case config.PairStorePostgres:
		pg, err := postgres.Open(ctx, cfg.DatabaseURL, cfg.PairHistory)
		if err != nil {
			logger.Error("failed to open pair store", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		if err := pg.CreateSchema(ctx); err != nil {
			logger.Error("failed to create pair store schema", "error", err)
			os.Exit(1)
		}
		store, storeReady = pg, pg
		logger.Info("postgres pair store enabled", "history", cfg.PairHistory)
	default:
		store = reconcile.NewMemoryStore(cfg.PairStoreCapacity, cfg.PairHistory)
		logger.Info("in-memory pair store enabled", "capacity", cfg.PairStoreCapacity, "history", cfg.PairHistory)
	}

	reconciler := reconcile.New(store, cfg.PairWindow, logger, metrics)
	transformer := pipeline.NewTransformer(runway.NewParser(), reconciler, logger, metrics)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.AllReady(p, storeReady), logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
