package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/clearcart/api/internal/handlers"
	"github.com/clearcart/api/internal/payments"
	"github.com/clearcart/api/internal/platform/auth"
	"github.com/clearcart/api/internal/platform/config"
	"github.com/clearcart/api/internal/platform/database"
	"github.com/clearcart/api/internal/platform/idempotency"
	"github.com/clearcart/api/internal/platform/observability"
	"github.com/clearcart/api/internal/repositories/gormrepo"
	"github.com/clearcart/api/internal/services"
)

const idempotencyCleanupBatch = 500

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		var validation *config.ValidationError
		if errors.As(err, &validation) {
			logger.Fatal("invalid configuration", zap.Strings("fields", validation.Fields()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	openCtx, cancelOpen := context.WithTimeout(ctx, 30*time.Second)
	db, err := database.Open(openCtx, cfg.Database.DSN(), database.DefaultOptions())
	cancelOpen()
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("failed to access sql handle", zap.Error(err))
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			logger.Warn("database close error", zap.Error(err))
		}
	}()

	registry, err := gormrepo.NewRegistry(db)
	if err != nil {
		logger.Fatal("failed to initialise repositories", zap.Error(err))
	}

	idemStore, err := idempotency.NewGormStore(db)
	if err != nil {
		logger.Fatal("failed to initialise idempotency store", zap.Error(err))
	}

	tokenManager, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	if err != nil {
		logger.Fatal("failed to initialise token manager", zap.Error(err))
	}
	authn := auth.NewAuthenticator(tokenManager)

	provider, err := payments.NewPayPalProvider(payments.PayPalConfig{
		ClientID:  cfg.PayPal.ClientID,
		Secret:    cfg.PayPal.Secret,
		APIBase:   cfg.PayPal.APIBase,
		ReturnURL: cfg.PayPal.ReturnURL,
		CancelURL: cfg.PayPal.CancelURL,
		Timeout:   cfg.PayPal.Timeout,
		Logger:    logger.Named("paypal"),
	})
	if err != nil {
		logger.Fatal("failed to initialise payment provider", zap.Error(err))
	}

	orderService, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:     registry.Orders(),
		Products:   registry.Products(),
		Inventory:  registry.Inventory(),
		UnitOfWork: registry,
		Logger:     logger.Named("orders"),
	})
	if err != nil {
		logger.Fatal("failed to initialise order service", zap.Error(err))
	}

	paymentService, err := services.NewPaymentService(services.PaymentServiceDeps{
		Orders:         registry.Orders(),
		Payments:       registry.Payments(),
		Provider:       provider,
		UnitOfWork:     registry,
		Logger:         logger.Named("payments"),
		PendingTTL:     cfg.Reconciliation.PendingTTL,
		ReconcileBatch: cfg.Reconciliation.BatchSize,
	})
	if err != nil {
		logger.Fatal("failed to initialise payment service", zap.Error(err))
	}

	catalogService, err := services.NewCatalogService(services.CatalogServiceDeps{
		Categories: registry.Categories(),
		Products:   registry.Products(),
		Inventory:  registry.Inventory(),
		UnitOfWork: registry,
		Logger:     logger.Named("catalog"),
	})
	if err != nil {
		logger.Fatal("failed to initialise catalog service", zap.Error(err))
	}

	inventoryService, err := services.NewInventoryService(services.InventoryServiceDeps{
		Inventory: registry.Inventory(),
		Products:  registry.Products(),
		Logger:    logger.Named("inventory"),
	})
	if err != nil {
		logger.Fatal("failed to initialise inventory service", zap.Error(err))
	}

	accountService, err := services.NewAccountService(services.AccountServiceDeps{
		Accounts: registry.Accounts(),
		Tokens:   tokenManager,
		TokenTTL: cfg.Auth.TokenTTL,
		Logger:   logger.Named("accounts"),
	})
	if err != nil {
		logger.Fatal("failed to initialise account service", zap.Error(err))
	}

	returnsService, err := services.NewReturnsService(services.ReturnsServiceDeps{
		Returns:    registry.Returns(),
		Orders:     registry.Orders(),
		Inventory:  registry.Inventory(),
		UnitOfWork: registry,
		Logger:     logger.Named("returns"),
	})
	if err != nil {
		logger.Fatal("failed to initialise returns service", zap.Error(err))
	}

	feedbackService, err := services.NewFeedbackService(services.FeedbackServiceDeps{
		Feedback: registry.Feedback(),
		Orders:   registry.Orders(),
		Products: registry.Products(),
		Logger:   logger.Named("feedback"),
	})
	if err != nil {
		logger.Fatal("failed to initialise feedback service", zap.Error(err))
	}

	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	var sweepWG sync.WaitGroup

	reconcileTicker := time.NewTicker(cfg.Reconciliation.Interval)
	sweepWG.Add(1)
	go func() {
		defer sweepWG.Done()
		sweepLogger := logger.Named("reconcile")
		for {
			select {
			case <-reconcileTicker.C:
				runCtx, cancel := context.WithTimeout(sweepCtx, time.Minute)
				settled, err := paymentService.ReconcileStalePayments(runCtx)
				cancel()
				if err != nil {
					sweepLogger.Error("stale payment sweep error", zap.Error(err))
					continue
				}
				if settled > 0 {
					sweepLogger.Info("stale payments settled", zap.Int("count", settled))
				}
			case <-sweepCtx.Done():
				return
			}
		}
	}()

	cleanupTicker := time.NewTicker(cfg.Idempotency.TTL)
	sweepWG.Add(1)
	go func() {
		defer sweepWG.Done()
		cleanupLogger := logger.Named("idempotency")
		for {
			select {
			case <-cleanupTicker.C:
				runCtx, cancel := context.WithTimeout(sweepCtx, time.Minute)
				removed, err := idemStore.CleanupExpired(runCtx, time.Now().UTC(), idempotencyCleanupBatch)
				cancel()
				if err != nil {
					cleanupLogger.Error("idempotency cleanup error", zap.Error(err))
					continue
				}
				if removed > 0 {
					cleanupLogger.Info("idempotency cleanup removed records", zap.Int("count", removed))
				}
			case <-sweepCtx.Done():
				return
			}
		}
	}()

	healthHandlers := handlers.NewHealthHandlers(handlers.WithHealthDatabase(sqlDB))
	catalogHandlers := handlers.NewCatalogHandlers(authn, catalogService)

	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.InjectLoggerMiddleware(logger),
			observability.RequestLoggerMiddleware(),
			observability.RecoveryMiddleware(logger),
		),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithAuthRoutes(handlers.NewAccountHandlers(authn, accountService).Routes),
		handlers.WithOrderRoutes(handlers.NewOrderHandlers(authn, orderService,
			handlers.WithCreateOrderMiddleware(idempotency.Middleware(idemStore,
				idempotency.WithHeader(cfg.Idempotency.Header),
				idempotency.WithTTL(cfg.Idempotency.TTL),
				idempotency.WithLogger(observability.NewPrintfAdapter(logger.Named("idempotency"))),
			)),
		).Routes),
		handlers.WithPaymentRoutes(handlers.NewPaymentHandlers(authn, paymentService).Routes),
		handlers.WithCategoryRoutes(catalogHandlers.CategoryRoutes),
		handlers.WithProductRoutes(catalogHandlers.ProductRoutes),
		handlers.WithInventoryRoutes(handlers.NewInventoryHandlers(authn, inventoryService).Routes),
		handlers.WithReturnRoutes(handlers.NewReturnHandlers(authn, returnsService).Routes),
		handlers.WithFeedbackRoutes(handlers.NewFeedbackHandlers(authn, feedbackService).Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("clearcart api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	reconcileTicker.Stop()
	cleanupTicker.Stop()
	sweepCancel()
	sweepWG.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
