package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"produce-marketplace/internal/auth"
	"produce-marketplace/internal/config"
	"produce-marketplace/internal/db"
	"produce-marketplace/internal/domain"
	"produce-marketplace/internal/logging"
	"produce-marketplace/internal/seed"

	"go.uber.org/zap"
)

func main() {
	ttl := flag.Duration("token-ttl", 24*time.Hour, "lifetime of the printed demo tokens")
	flag.Parse()

	cfg := config.Load()
	logger, err := logging.New("seed", cfg.LogLevel)
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

	res, err := seed.Apply(ctx, pool, logger)
	if err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}
	logger.Info("seed applied", zap.Int("products", res.Products), zap.String("customer_id", res.CustomerID))

	tokens := auth.NewTokenManager(cfg.JWTSecret)
	customerToken, err := tokens.Issue(res.CustomerID, domain.RoleCustomer, *ttl)
	if err != nil {
		logger.Fatal("issue customer token", zap.Error(err))
	}
	farmerToken, err := tokens.Issue(res.FarmerID, domain.RoleFarmer, *ttl)
	if err != nil {
		logger.Fatal("issue farmer token", zap.Error(err))
	}
	fmt.Printf("customer token: %s\n", customerToken)
	fmt.Printf("farmer token:   %s\n", farmerToken)
	fmt.Printf("address id:     %s\n", res.AddressID)
}
