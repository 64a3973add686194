package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	billingapp "github.com/filehost/backend/internal/application/billing"
	infrabilling "github.com/filehost/backend/internal/infrastructure/billing"
	"github.com/filehost/backend/internal/infrastructure/cache"
	"github.com/filehost/backend/internal/infrastructure/config"
	"github.com/filehost/backend/internal/infrastructure/logger"
	"github.com/filehost/backend/internal/infrastructure/persistence"
	"github.com/filehost/backend/internal/interfaces/http/handler"
	"github.com/filehost/backend/internal/interfaces/http/middleware"
	"github.com/filehost/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting filehost backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	if err := db.AutoMigrate(); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database connected")

	accountRepo := persistence.NewAccountRepository(db.DB)

	stripeCfg := &infrabilling.StripeConfig{
		SecretKey:       cfg.Stripe.SecretKey,
		WebhookSecret:   cfg.Stripe.WebhookSecret,
		PlusPriceID:     cfg.Stripe.PlusPriceID,
		DefaultCurrency: cfg.Stripe.DefaultCurrency,
		IsTestMode:      cfg.Stripe.IsTestMode,
		PlanNames:       cfg.Stripe.PlanNames,
	}
	stripeClient, err := infrabilling.NewStripeClient(stripeCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize Stripe client", zap.Error(err))
	}

	ttlCache := cache.NewTTLCache()
	idempotencyStore := cache.NewIdempotencyStore(cfg.Redis, log)
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	metricsService := billingapp.NewMetricsService(stripeClient, accountRepo, ttlCache, stripeCfg, cfg.Billing, log)
	subscriptionService := billingapp.NewSubscriptionService(stripeClient, accountRepo, cfg.Billing, log)
	webhookService := billingapp.NewWebhookService(stripeCfg, ttlCache, idempotencyStore, cfg.Billing, log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.CORS(cfg.HTTP.CORSAllowOrigins),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	router.NewRouter(engine).
		Register(handler.NewAccountHandler(subscriptionService)).
		Register(handler.NewBillingHandler(metricsService)).
		Register(handler.NewWebhookHandler(webhookService)).
		Register(handler.NewHealthHandler(db)).
		Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
