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

	crmapp "github.com/crmhub/backend/internal/application/crm"
	identityapp "github.com/crmhub/backend/internal/application/identity"
	insightsapp "github.com/crmhub/backend/internal/application/insights"
	inventoryapp "github.com/crmhub/backend/internal/application/inventory"
	ledgerapp "github.com/crmhub/backend/internal/application/ledger"
	purchasingapp "github.com/crmhub/backend/internal/application/purchasing"
	"github.com/crmhub/backend/internal/infrastructure/auth"
	"github.com/crmhub/backend/internal/infrastructure/cache"
	"github.com/crmhub/backend/internal/infrastructure/config"
	"github.com/crmhub/backend/internal/infrastructure/gateway"
	"github.com/crmhub/backend/internal/infrastructure/logger"
	"github.com/crmhub/backend/internal/infrastructure/persistence"
	"github.com/crmhub/backend/internal/infrastructure/store"
	"github.com/crmhub/backend/internal/interfaces/http/handler"
	"github.com/crmhub/backend/internal/interfaces/http/middleware"
	"github.com/crmhub/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
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

	log.Info("Starting CRM Hub Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database connection with zap-backed gorm logging
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := store.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Keyed item store and repositories
	itemStore := store.NewGormStore(db.DB)
	productRepo := persistence.NewStoreProductRepository(itemStore)
	transactionRepo := persistence.NewStoreTransactionRepository(itemStore)
	paymentRepo := persistence.NewStorePaymentRepository(itemStore)
	ledgerWriter := persistence.NewStoreLedgerWriter(itemStore)
	tenantRepo := persistence.NewStoreTenantRepository(itemStore)
	userRepo := persistence.NewStoreUserRepository(itemStore)
	connectionRepo := persistence.NewStoreGatewayConnectionRepository(itemStore)
	purchaseOrderRepo := persistence.NewStorePurchaseOrderRepository(itemStore)
	contactRepo := persistence.NewStoreContactRepository(itemStore)
	messageRepo := persistence.NewStoreMessageRepository(itemStore)
	insightRepo := persistence.NewStoreInsightRepository(itemStore)

	// External collaborators
	jwtService := auth.NewJWTService(cfg.JWT)
	squareAdapter := gateway.NewSquareAdapter(&cfg.Gateway)
	insightGenerator := gateway.NewRuleBasedGenerator()

	// Optional redis cache in front of stored insights
	var insightCache insightsapp.Cache
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisInsightCache(&cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable, insight cache disabled", zap.Error(err))
		} else {
			defer func() {
				if err := redisCache.Close(); err != nil {
					log.Error("Error closing redis", zap.Error(err))
				}
			}()
			insightCache = redisCache
			log.Info("Redis insight cache connected", zap.String("addr", cfg.Redis.Addr()))
		}
	}

	// Application services
	inventoryService := inventoryapp.NewService(productRepo)
	ledgerService := ledgerapp.NewService(transactionRepo, ledgerWriter)
	paymentService := ledgerapp.NewPaymentService(paymentRepo, ledgerWriter, connectionRepo, tenantRepo, squareAdapter)
	purchasingService := purchasingapp.NewService(purchaseOrderRepo, productRepo)
	onboardingService := identityapp.NewOnboardingService(tenantRepo, productRepo)
	userService := identityapp.NewUserService(userRepo)
	crmService := crmapp.NewService(contactRepo, messageRepo)
	insightService := insightsapp.NewService(productRepo, ledgerService, insightRepo, insightGenerator, insightCache)

	// HTTP handlers
	inventoryHandler := handler.NewInventoryHandler(inventoryService)
	transactionHandler := handler.NewTransactionHandler(ledgerService)
	paymentHandler := handler.NewPaymentHandler(paymentService, squareAdapter)
	purchaseOrderHandler := handler.NewPurchaseOrderHandler(purchasingService)
	contactHandler := handler.NewContactHandler(crmService)
	messageHandler := handler.NewMessageHandler(crmService, cfg.Webhook)
	userHandler := handler.NewUserHandler(userService)
	onboardingHandler := handler.NewOnboardingHandler(onboardingService)
	insightHandler := handler.NewInsightHandler(insightService)
	systemHandler := handler.NewSystemHandler(db.DB)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID(log))
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	r := router.NewRouter(engine, middleware.Auth(jwtService), router.WithAPIVersion("v1"))
	r.Register(systemHandler).
		Register(onboardingHandler).
		Register(inventoryHandler).
		Register(transactionHandler).
		Register(paymentHandler).
		Register(purchaseOrderHandler).
		Register(contactHandler).
		Register(messageHandler).
		Register(userHandler).
		Register(insightHandler)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
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
