package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"produce-marketplace/internal/auth"
	"produce-marketplace/internal/config"
	"produce-marketplace/internal/db"
	"produce-marketplace/internal/httpserver"
	"produce-marketplace/internal/logging"
	cartrepo "produce-marketplace/internal/repository/cart"
	customerrepo "produce-marketplace/internal/repository/customer"
	orderrepo "produce-marketplace/internal/repository/order"
	productrepo "produce-marketplace/internal/repository/product"
	cartsvc "produce-marketplace/internal/service/cart"
	customersvc "produce-marketplace/internal/service/customer"
	ordersvc "produce-marketplace/internal/service/order"
	productsvc "produce-marketplace/internal/service/product"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	logger, err := logging.New("api", cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	productRepo := productrepo.NewPostgres(dbpool, logger)
	cartRepo := cartrepo.NewPostgres(dbpool, logger)
	customerRepo := customerrepo.NewPostgres(dbpool, logger)
	orderRepo := orderrepo.NewPostgres(dbpool, logger)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		ProductSvc:    productsvc.New(productRepo),
		CartSvc:       cartsvc.New(cartRepo, productRepo),
		OrderSvc:      ordersvc.New(orderRepo, productRepo, customerRepo, logger),
		CustomerSvc:   customersvc.New(customerRepo),
		Tokens:        auth.NewTokenManager(cfg.JWTSecret),
		WebhookSecret: cfg.PaymentWebhookSecret,
		CORSOrigins:   cfg.CORSOrigins,
	})
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}
