package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"wallet-service/internal/config"
	"wallet-service/internal/events"
	"wallet-service/internal/handlers"
	"wallet-service/internal/middleware"
	"wallet-service/internal/models"
	"wallet-service/internal/provider"
	"wallet-service/internal/repository"
	"wallet-service/internal/services"
)

func main() {
	// Load .env file if present (development convenience)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()

	// Structured logger shared by all services
	appLogger := logrus.New()
	appLogger.SetFormatter(&logrus.JSONFormatter{})
	appLogger.SetLevel(logrus.InfoLevel)

	// Connect to database
	db, err := connectDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate models
	if err := db.AutoMigrate(
		&models.Wallet{},
		&models.LedgerEntry{},
		&models.TenantPaymentConfig{},
		&models.ProviderCredential{},
		&models.Order{},
		&models.Payment{},
		&models.PayoutRequest{},
		&models.WebhookEvent{},
		&models.AuditRecord{},
	); err != nil {
		log.Printf("Warning: Auto-migration failed: %v", err)
	}

	// Initialize store
	store := repository.NewStore(db)

	// Initialize Redis (optional, FX rate caching)
	redisClient := connectRedis(cfg.RedisURL)

	// Initialize NATS events publisher (optional)
	var publisher *events.Publisher
	if cfg.NATSURL != "" {
		publisher, err = events.NewPublisher(cfg.NATSURL, appLogger)
		if err != nil {
			log.Printf("WARNING: Failed to initialize events publisher: %v (events won't be published)", err)
		} else {
			defer publisher.Close()
			log.Println("✓ NATS events publisher initialized")
		}
	}

	// FX rate source: external endpoint when configured, static table otherwise
	var rateProvider services.RateProvider
	if cfg.FXRateURL != "" {
		rateProvider = services.NewHTTPRateProvider(cfg.FXRateURL)
	} else {
		rateProvider = services.NewStaticRateProvider(cfg.FXStaticRates)
	}

	// Initialize services
	auditService := services.NewAuditService(store, appLogger)
	walletService := services.NewWalletService(store, appLogger)
	fxService := services.NewFXService(rateProvider, cfg.PivotCurrency, redisClient, appLogger)
	tenantService := services.NewTenantModeService(store, auditService, appLogger)
	credentialService := services.NewCredentialService(store, tenantService, auditService, appLogger)
	orderService := services.NewOrderService(store, fxService, auditService, appLogger)
	paymentService := services.NewPaymentService(store, walletService, credentialService, auditService, publisher, cfg.PivotCurrency, appLogger)
	payoutService := services.NewPayoutService(store, walletService, tenantService, auditService, publisher, cfg.PivotCurrency, appLogger)
	reconService := services.NewReconciliationService(store, auditService, publisher, appLogger)

	// Provider adapter registry
	providerFactory := provider.NewFactory()
	webhookService := services.NewWebhookService(store, providerFactory, credentialService, paymentService, auditService, appLogger)

	// Seed the platform tenant and its wallet
	if err := seedPlatform(cfg, store, walletService); err != nil {
		log.Printf("Warning: Failed to seed platform tenant: %v", err)
	}

	// Initialize handlers
	orderHandler := handlers.NewOrderHandler(orderService, paymentService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	payoutHandler := handlers.NewPayoutHandler(payoutService)
	walletHandler := handlers.NewWalletHandler(walletService, reconService, cfg.PivotCurrency)
	webhookHandler := handlers.NewWebhookHandler(webhookService)
	credentialHandler := handlers.NewCredentialHandler(credentialService)
	tenantHandler := handlers.NewTenantHandler(tenantService)
	auditHandler := handlers.NewAuditHandler(auditService)

	// Periodic reconciliation sweep
	if cfg.ReconcileIntervalMinutes > 0 {
		go reconcileLoop(reconService, time.Duration(cfg.ReconcileIntervalMinutes)*time.Minute, appLogger)
	}

	// Setup router
	router := setupRouter(appLogger, orderHandler, paymentHandler, payoutHandler, walletHandler, webhookHandler, credentialHandler, tenantHandler, auditHandler)

	// Start server
	log.Printf("Wallet Service starting on port %s (env: %s, pivot: %s)", cfg.Port, cfg.Environment, cfg.PivotCurrency)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// connectDatabase establishes a connection to the database
func connectDatabase(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✓ Connected to database")
	return db, nil
}

// connectRedis connects to Redis; failure degrades to no caching.
func connectRedis(redisURL string) *redis.Client {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("Warning: invalid REDIS_URL: %v (caching disabled)", err)
		return nil
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis unreachable: %v (caching disabled)", err)
		return nil
	}
	log.Println("✓ Connected to Redis")
	return client
}

// seedPlatform creates the platform tenant config and owner wallet if absent.
func seedPlatform(cfg *config.Config, store repository.Store, wallets *services.WalletService) error {
	ctx := context.Background()

	_, err := store.GetTenantConfig(ctx, cfg.PlatformTenantID)
	if errors.Is(err, models.ErrNotFound) {
		err = store.CreateTenantConfig(ctx, &models.TenantPaymentConfig{
			TenantID:   cfg.PlatformTenantID,
			Mode:       models.ModeOwner,
			IsPlatform: true,
			Enabled:    true,
		})
	}
	if err != nil {
		return err
	}

	_, err = wallets.GetOrCreate(ctx, models.ScopeOwner, models.OwnerScopeID, cfg.PivotCurrency)
	return err
}

// reconcileLoop runs the reconciliation sweep on a fixed interval.
func reconcileLoop(recon *services.ReconciliationService, interval time.Duration, logger *logrus.Logger) {
	ticker := time.NewTicker(interval)
	for range ticker.C {
		if _, err := recon.Run(context.Background()); err != nil {
			logger.WithError(err).Error("Reconciliation run failed")
		}
	}
}

// setupRouter configures the HTTP router
func setupRouter(
	appLogger *logrus.Logger,
	orderHandler *handlers.OrderHandler,
	paymentHandler *handlers.PaymentHandler,
	payoutHandler *handlers.PayoutHandler,
	walletHandler *handlers.WalletHandler,
	webhookHandler *handlers.WebhookHandler,
	credentialHandler *handlers.CredentialHandler,
	tenantHandler *handlers.TenantHandler,
	auditHandler *handlers.AuditHandler,
) *gin.Engine {
	router := gin.Default()

	// Initialize rate limiters
	rateLimits := middleware.NewWalletRateLimits()

	// Security headers middleware
	router.Use(middleware.SecurityHeaders())

	// CORS middleware with secure configuration
	corsConfig := middleware.DefaultCORSConfig()
	allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if allowedOrigins != "" {
		corsConfig.AllowedOrigins = strings.Split(allowedOrigins, ",")
	} else {
		// Default for development - in production, set CORS_ALLOWED_ORIGINS
		corsConfig.AllowedOrigins = []string{
			"http://localhost:3000",
			"http://localhost:3001",
		}
	}
	router.Use(middleware.CORS(corsConfig))

	// Request validation middleware
	router.Use(middleware.ValidateRequest())

	// Tenant context middleware
	router.Use(middleware.TenantMiddleware())

	// Audit logging middleware
	router.Use(middleware.AuditMiddleware(&middleware.LogrusAuditLogger{Logger: appLogger}))

	// Idempotency middleware for money-moving operations
	router.Use(middleware.IdempotencyMiddleware())

	// Webhook security middleware
	router.Use(middleware.WebhookSecurityMiddleware())

	// Health check (no rate limiting)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "wallet-service",
		})
	})

	// Provider webhooks: signature-authenticated, tenant comes from the URL
	webhooks := router.Group("/webhooks")
	webhooks.Use(middleware.RateLimitMiddleware(rateLimits.Webhook, "ip"))
	{
		webhooks.POST("/:provider", webhookHandler.Receive)
	}

	// API routes - require tenant ID for all API endpoints
	v1 := router.Group("/api/v1")
	v1.Use(middleware.RequireTenantID())
	v1.Use(middleware.RateLimitMiddleware(rateLimits.APIGeneral, "tenant"))
	{
		orders := v1.Group("/orders")
		{
			orders.POST("",
				middleware.RateLimitMiddleware(rateLimits.CreateOrder, "tenant"),
				orderHandler.Create)
			orders.GET("", orderHandler.List)
			orders.GET("/:id", orderHandler.Get)
			orders.POST("/:id/cancel", orderHandler.Cancel)
			orders.GET("/:id/payments", orderHandler.Payments)
		}

		payments := v1.Group("/payments")
		{
			payments.POST("", paymentHandler.Create)
			payments.GET("/:id", paymentHandler.Get)
			payments.POST("/:id/complete", paymentHandler.Complete)
			payments.POST("/:id/fail", paymentHandler.Fail)
		}

		payouts := v1.Group("/payouts")
		{
			payouts.POST("",
				middleware.RateLimitMiddleware(rateLimits.PayoutRequest, "tenant"),
				payoutHandler.Request)
			payouts.GET("", payoutHandler.List)
			payouts.GET("/:id", payoutHandler.Get)
		}

		wallet := v1.Group("/wallet")
		{
			wallet.GET("", walletHandler.Get)
			wallet.GET("/ledger", walletHandler.Ledger)
		}

		v1.GET("/tenant/config", tenantHandler.GetConfig)
	}

	// Internal routes - operator and platform tooling only
	internal := router.Group("/internal/v1")
	internal.Use(middleware.RequireInternal())
	{
		internal.POST("/payouts/:id/review", payoutHandler.Review)
		internal.POST("/payouts/:id/paid", payoutHandler.MarkPaid)

		internal.POST("/reconcile", walletHandler.Run)
		internal.POST("/wallets/reconcile", walletHandler.Check)
		internal.POST("/wallets/unfreeze", walletHandler.Unfreeze)

		internal.POST("/credentials", credentialHandler.Add)
		internal.PUT("/credentials/:id", credentialHandler.SetActive)
		internal.GET("/credentials", credentialHandler.List)

		internal.PUT("/tenants/:tenantId/mode", tenantHandler.SetMode)
		internal.PUT("/tenants/:tenantId/payout-limit", tenantHandler.SetPayoutLimit)

		internal.GET("/audit", auditHandler.Query)
	}

	return router
}
