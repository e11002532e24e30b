package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"produce-marketplace/internal/config"
	"produce-marketplace/internal/db"
	"produce-marketplace/internal/logging"
	"produce-marketplace/internal/migrate"

	"go.uber.org/zap"
)

func main() {
	down := flag.Int("down", 0, "roll back this many migrations instead of migrating up")
	flag.Parse()

	cfg := config.Load()
	logger, err := logging.New("migrate", cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	if *down > 0 {
		if err := migrate.Rollback(ctx, pool, *down); err != nil {
			logger.Fatal("roll back migrations", zap.Error(err))
		}
	} else if err := migrate.Apply(ctx, pool); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}

	version, dirty, err := migrate.Version(ctx, pool)
	if err != nil {
		logger.Fatal("read schema version", zap.Error(err))
	}
	logger.Info("migrations done", zap.Uint("version", version), zap.Bool("dirty", dirty))
}
