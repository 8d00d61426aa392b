package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/pomelo/internal/setup"
	"github.com/OFFIS-RIT/pomelo/internal/util"
	"github.com/OFFIS-RIT/pomelo/pkg/leaselock"
	"github.com/OFFIS-RIT/pomelo/pkg/logger"
	"github.com/OFFIS-RIT/pomelo/pkg/logger/console"
	storepgx "github.com/OFFIS-RIT/pomelo/pkg/store/pgx"
)

// reindex re-runs triple extraction over the persisted chunks and saves
// the refreshed snapshot. Useful after changing the extraction model or
// prompt without re-ingesting any documents.
func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connString := util.GetEnvString("DATABASE_URL", "")
	if connString == "" {
		logger.Fatal("DATABASE_URL must be set for reindexing")
	}

	aiClient, err := setup.NewAIClient()
	if err != nil {
		logger.Fatal("Failed to create AI client", "err", err)
	}

	pool, err := storepgx.NewPool(ctx, connString)
	if err != nil {
		logger.Fatal("Failed to open database pool", "err", err)
	}
	defer pool.Close()

	snapStore, err := storepgx.NewSnapshotStorage(ctx, pool)
	if err != nil {
		logger.Fatal("Failed to open snapshot store", "err", err)
	}

	locks, err := leaselock.New(ctx, pool)
	if err != nil {
		logger.Fatal("Failed to create lease client", "err", err)
	}

	err = locks.WithLease(ctx, "reindex", leaselock.Options{TTL: 30 * time.Minute}, func(ctx context.Context) error {
		chunks, _, err := snapStore.LoadSnapshot(ctx)
		if err != nil {
			return err
		}
		if len(chunks) == 0 {
			logger.Info("Store holds no chunks, nothing to reindex")
			return nil
		}

		builder := setup.NewBuilder()
		g, triples, err := builder.Build(ctx, chunks, aiClient)
		if err != nil {
			return err
		}
		if err := snapStore.SaveSnapshot(ctx, chunks, triples); err != nil {
			return err
		}

		logger.Info("Reindex completed",
			"chunks", len(chunks),
			"triples", len(triples),
			"nodes", g.NumNodes(),
		)
		return nil
	})
	if err != nil {
		if errors.Is(err, leaselock.ErrBusy) {
			logger.Fatal("Another reindex run is already in progress")
		}
		logger.Fatal("Reindex failed", "err", err)
	}
}
