// Package main provides the entry point for the hotspot credit ledger service
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/amirphl/Hotspot-Ledger/app/handlers"
	"github.com/amirphl/Hotspot-Ledger/app/middleware"
	"github.com/amirphl/Hotspot-Ledger/app/router"
	"github.com/amirphl/Hotspot-Ledger/app/scheduler"
	"github.com/amirphl/Hotspot-Ledger/app/services"
	businessflow "github.com/amirphl/Hotspot-Ledger/business_flow"
	"github.com/amirphl/Hotspot-Ledger/config"
	"github.com/amirphl/Hotspot-Ledger/repository"
)

// Application represents the main application structure
type Application struct {
	router    router.Router
	config    *config.ProductionConfig
	stopFuncs []func()
	closers   []io.Closer
}

func main() {
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	rotator := initializeLogging(cfg.Logging)
	if rotator != nil {
		defer rotator.Close()
	}
	log.Printf("Starting hotspot ledger (env=%s version=%s)", cfg.Deployment.Environment, cfg.Deployment.Version)

	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	app.router.SetupRoutes()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := app.router.Start(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-sigChan
	log.Println("Shutting down gracefully...")

	for _, fn := range app.stopFuncs {
		fn()
	}

	if err := app.router.Shutdown(); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	for _, c := range app.closers {
		if err := c.Close(); err != nil {
			log.Printf("Error closing resource: %v", err)
		}
	}

	log.Println("Server stopped")
}

// initializeLogging points the standard logger at stdout, a rotating file, or both
func initializeLogging(cfg config.LoggingConfig) *lumberjack.Logger {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.LUTC)

	if cfg.Output != "file" && cfg.Output != "both" {
		log.SetOutput(os.Stdout)
		return nil
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	if cfg.Output == "both" {
		log.SetOutput(io.MultiWriter(os.Stdout, rotator))
	} else {
		log.SetOutput(rotator)
	}
	return rotator
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	gormCfg := &gorm.Config{TranslateError: true}
	if cfg.SlowQueryLog {
		gormCfg.Logger = logger.New(log.Default(), logger.Config{
			SlowThreshold:             cfg.SlowQueryTime,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		})
	}

	db, err := gorm.Open(postgres.Open(dsn), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache returns nil when redis is not configured
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled || cfg.Provider != "redis" {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rc, nil
}

func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(monitorCtx, 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeNotificationSink sends balance notifications over SMS; "mock" logs them instead
func initializeNotificationSink(cfg config.SMSConfig) services.NotificationSink {
	if cfg.ProviderDomain == "mock" {
		return services.NewSMSNotificationSink(services.NewMockSMSService())
	}
	return services.NewSMSNotificationSink(services.NewSMSService(&cfg))
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	app := &Application{config: cfg}

	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		app.closers = append(app.closers, sqlDB)
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}

	var idempotency businessflow.IdempotencyStore
	if rc != nil {
		app.closers = append(app.closers, rc)
		app.stopFuncs = append(app.stopFuncs, startCacheHealthMonitor(context.Background(), rc, 30*time.Second))
		idempotency = businessflow.NewRedisIdempotencyStore(rc, cfg.Cache.RedisPrefix)
	} else {
		log.Println("Redis not configured, idempotency keys are ignored")
	}

	// Repositories
	traderRepo := repository.NewTraderRepository(db)
	clientRepo := repository.NewClientRepository(db)
	txRepo := repository.NewTransactionRepository(db)
	tierRepo := repository.NewPricingTierRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Services
	credentialBox, err := services.NewCredentialBox(cfg.Security.CredentialSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential box: %w", err)
	}

	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.UseRSAKeys,
		cfg.JWT.PrivateKey,
		cfg.JWT.PublicKey,
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	log.Printf("Token service initialized with issuer: %s, audience: %s", cfg.JWT.Issuer, cfg.JWT.Audience)

	deviceFactory := services.NewDeviceClientFactory(cfg.Device)
	sink := initializeNotificationSink(cfg.SMS)

	policy, err := businessflow.NewQualificationPolicy(cfg.Pricing.QualificationPolicy, txRepo)
	if err != nil {
		return nil, err
	}
	log.Printf("Pricing qualification policy: %s", policy.Name())

	// Flows
	ledgerFlow := businessflow.NewLedgerFlow(traderRepo, txRepo, auditRepo, sink, idempotency, cfg.Ledger)
	registryFlow := businessflow.NewDeviceRegistryFlow(deviceRepo, auditRepo, deviceFactory, credentialBox, cfg.Device)
	reconciliationFlow := businessflow.NewReconciliationFlow(traderRepo, clientRepo, registryFlow)
	pricingFlow := businessflow.NewPricingFlow(traderRepo, tierRepo, auditRepo, policy, cfg.Ledger.Currency)
	traderFlow := businessflow.NewTraderFlow(traderRepo, auditRepo)
	clientFlow := businessflow.NewClientFlow(traderRepo, clientRepo, auditRepo)
	adminAuthFlow := businessflow.NewAdminAuthFlow(cfg.Admin, tokenService)
	auditFlow := businessflow.NewAuditFlow(auditRepo, traderRepo)

	app.router = router.NewFiberRouter(cfg, router.Handlers{
		Ledger:      handlers.NewLedgerHandler(ledgerFlow),
		Client:      handlers.NewClientHandler(clientFlow, reconciliationFlow),
		Pricing:     handlers.NewPricingHandler(pricingFlow),
		DeviceAdmin: handlers.NewDeviceAdminHandler(registryFlow),
		TraderAdmin: handlers.NewTraderAdminHandler(traderFlow),
		AdminAuth:   handlers.NewAdminHandler(adminAuthFlow),
		Audit:       handlers.NewAuditHandler(auditFlow),
	}, middleware.NewAuthMiddleware(tokenService))

	healthScheduler := scheduler.NewDeviceHealthScheduler(
		registryFlow,
		log.New(log.Writer(), "scheduler ", log.LstdFlags|log.Lmicroseconds|log.LUTC),
		cfg.Device.HealthInterval,
		cfg.Device.Timeout,
	)
	app.stopFuncs = append(app.stopFuncs, healthScheduler.Start(context.Background()))

	return app, nil
}
