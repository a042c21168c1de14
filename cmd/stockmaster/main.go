package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sa-stockmaster/sa-stockmaster/internal/app"
	"github.com/sa-stockmaster/sa-stockmaster/internal/ledger"
	"github.com/sa-stockmaster/sa-stockmaster/internal/masterdata/categories"
	"github.com/sa-stockmaster/sa-stockmaster/internal/masterdata/products"
	"github.com/sa-stockmaster/sa-stockmaster/internal/masterdata/suppliers"
	"github.com/sa-stockmaster/sa-stockmaster/internal/masterdata/warehouses"
	"github.com/sa-stockmaster/sa-stockmaster/internal/platform/cache"
	"github.com/sa-stockmaster/sa-stockmaster/internal/platform/db"
	"github.com/sa-stockmaster/sa-stockmaster/internal/procurement"
	"github.com/sa-stockmaster/sa-stockmaster/internal/reports"
	"github.com/sa-stockmaster/sa-stockmaster/internal/sales/customers"
	"github.com/sa-stockmaster/sa-stockmaster/internal/sales/orders"
	"github.com/sa-stockmaster/sa-stockmaster/internal/settings"
	"github.com/sa-stockmaster/sa-stockmaster/jobs"
)

var _ ledger.IntegrationHandler = (*reports.Service)(nil)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, report caching disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	settingsService := settings.NewService(settings.NewRepository(pool), logger)
	settingsHandler := settings.NewHandler(logger, settingsService)

	reportCache := reports.NewCache(redisClient, cfg.DashboardCacheTTL)
	reportService := reports.NewService(reports.NewRepository(pool), settingsService, reportCache, logger)
	reportHandler := reports.NewHandler(logger, reportService)

	ledgerService := ledger.NewService(ledger.NewRepository(pool), logger)
	ledgerService.SetIntegrationHandler(reportService)
	ledgerHandler := ledger.NewHandler(logger, ledgerService)

	productHandler := products.NewHandler(logger, products.NewService(products.NewRepository(pool), settingsService))
	categoryHandler := categories.NewHandler(logger, categories.NewService(categories.NewRepository(pool)))
	supplierHandler := suppliers.NewHandler(logger, suppliers.NewService(suppliers.NewRepository(pool)))
	warehouseHandler := warehouses.NewHandler(logger, warehouses.NewService(warehouses.NewRepository(pool)))
	customerHandler := customers.NewHandler(logger, customers.NewService(customers.NewRepository(pool)))

	salesService := orders.NewService(orders.NewRepository(pool), ledgerService, settingsService, logger)
	salesHandler := orders.NewHandler(logger, salesService)

	purchaseService := procurement.NewService(procurement.NewRepository(pool), ledgerService, settingsService, logger)
	purchaseHandler := procurement.NewHandler(logger, purchaseService)

	var jobHandler *jobs.Handler
	if redisClient != nil {
		inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, logger)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		ProductHandler:    productHandler,
		CategoryHandler:   categoryHandler,
		SupplierHandler:   supplierHandler,
		WarehouseHandler:  warehouseHandler,
		CustomerHandler:   customerHandler,
		SalesOrderHandler: salesHandler,
		PurchaseHandler:   purchaseHandler,
		LedgerHandler:     ledgerHandler,
		ReportHandler:     reportHandler,
		SettingsHandler:   settingsHandler,
		JobHandler:        jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
