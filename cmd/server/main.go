// Package main is the entry point for the stockpit API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"stockpit/internal/config"
	"stockpit/internal/domain/adjustment"
	"stockpit/internal/domain/codes"
	"stockpit/internal/domain/issue"
	"stockpit/internal/domain/lot"
	"stockpit/internal/domain/material"
	"stockpit/internal/domain/purchaseorder"
	"stockpit/internal/domain/receipt"
	"stockpit/internal/domain/warehouse"
	"stockpit/internal/domain/withdrawal"
	"stockpit/internal/infrastructure/storage/postgres"
	"stockpit/internal/infrastructure/storage/postgres/catalog_repo"
	"stockpit/internal/infrastructure/storage/postgres/code_repo"
	"stockpit/internal/infrastructure/storage/postgres/document_repo"
	"stockpit/internal/infrastructure/storage/postgres/lot_repo"
	transport "stockpit/internal/transport/http"
	"stockpit/internal/transport/http/handlers"
	"stockpit/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting stockpit server")

	if cfg.Database.Migrate {
		if err := postgres.Migrate(ctx, cfg.Database.DSN); err != nil {
			log.Fatalw("failed to run migrations", "error", err)
		}
		log.Info("migrations applied")
	}

	poolCfg := postgres.DefaultPoolConfig(cfg.Database.DSN)
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalw("failed to ping database", "error", err)
	}
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	materialRepo := catalog_repo.NewMaterialRepo(txManager)
	warehouseRepo := catalog_repo.NewWarehouseRepo(txManager)
	poRepo := document_repo.NewPurchaseOrderRepo(txManager)
	receiptRepo := document_repo.NewReceiptRepo(txManager)
	withdrawalRepo := document_repo.NewWithdrawalRepo(txManager)
	issueRepo := document_repo.NewIssueRepo(txManager)
	adjustmentRepo := document_repo.NewAdjustmentRepo(txManager)
	lotRepo := lot_repo.NewLotRepo(txManager)
	codeRepo := code_repo.NewCodeRepo(txManager)

	// --- Services ---
	generator := codes.NewGenerator(codeRepo)
	materialSvc := material.NewService(materialRepo)
	warehouseSvc := warehouse.NewService(warehouseRepo)
	lotSvc := lot.NewService(lotRepo)
	poSvc := purchaseorder.NewService(poRepo, generator, txManager)
	receiptSvc := receipt.NewService(receiptRepo, poSvc, lotSvc, generator, txManager)
	withdrawalSvc := withdrawal.NewService(withdrawalRepo, generator, txManager)
	issueSvc := issue.NewService(issueRepo, withdrawalSvc, lotSvc, generator, txManager)
	adjustmentSvc := adjustment.NewService(adjustmentRepo, materialSvc, lotSvc, generator, txManager)

	// --- Router ---
	router := transport.NewRouter(transport.RouterConfig{
		JWTSecret: cfg.Auth.JWTSecret,
		Debug:     cfg.HTTP.Debug,
	}, transport.Handlers{
		PurchaseOrders: handlers.NewPurchaseOrderHandler(poSvc),
		Receipts:       handlers.NewReceiptHandler(receiptSvc, poSvc),
		Withdrawals:    handlers.NewWithdrawalHandler(withdrawalSvc),
		Issues:         handlers.NewIssueHandler(issueSvc),
		Adjustments:    handlers.NewAdjustmentHandler(adjustmentSvc),
		Stock:          handlers.NewStockHandler(lotSvc),
		Catalog:        handlers.NewCatalogHandler(materialSvc, warehouseSvc),
		Health:         handlers.NewHealthHandler(pool),
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		log.Infow("server starting", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
