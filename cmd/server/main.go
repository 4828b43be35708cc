package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	catalogapp "github.com/shopledger/backend/internal/application/catalog"
	inventoryapp "github.com/shopledger/backend/internal/application/inventory"
	reportapp "github.com/shopledger/backend/internal/application/report"
	tradeapp "github.com/shopledger/backend/internal/application/trade"
	"github.com/shopledger/backend/internal/infrastructure/auth"
	"github.com/shopledger/backend/internal/infrastructure/cache"
	"github.com/shopledger/backend/internal/infrastructure/config"
	"github.com/shopledger/backend/internal/infrastructure/event"
	"github.com/shopledger/backend/internal/infrastructure/logger"
	"github.com/shopledger/backend/internal/infrastructure/metrics"
	"github.com/shopledger/backend/internal/infrastructure/persistence"
	"github.com/shopledger/backend/internal/infrastructure/scheduler"
	"github.com/shopledger/backend/internal/infrastructure/telemetry"
	"github.com/shopledger/backend/internal/interfaces/http/handler"
	"github.com/shopledger/backend/internal/interfaces/http/middleware"
	"github.com/shopledger/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting shop ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()
	tel, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:               cfg.Telemetry.Enabled,
		CollectorEndpoint:     cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:         cfg.Telemetry.SamplingRatio,
		ServiceName:           cfg.Telemetry.ServiceName,
		Insecure:              cfg.Telemetry.Insecure,
		MetricsEnabled:        cfg.Telemetry.MetricsEnabled,
		MetricsExportInterval: cfg.Telemetry.MetricsExportInterval,
		LogsEnabled:           cfg.Telemetry.LogsEnabled,
		ProfilingEnabled:      cfg.Telemetry.ProfilingEnabled,
		ProfilingServerAddr:   cfg.Telemetry.ProfilingServerAddr,
		SpanProfilesEnabled:   cfg.Telemetry.SpanProfilesEnabled,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()

	// Mirror every log entry to the OTLP log exporter
	if tel.Logs.IsEnabled() {
		otelCore := telemetry.NewZapOTELCore(tel.Logs, cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level))
		log = log.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, otelCore)
		}))
	}

	var meter metric.Meter
	if tel.Meter.IsEnabled() {
		meter = tel.Meter.Meter(cfg.Telemetry.ServiceName)
	}

	dbPlugin, err := telemetry.NewDBPlugin(telemetry.DBConfig{
		TracingEnabled:     cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		MetricsEnabled:     meter != nil,
		LogFullSQL:         cfg.Telemetry.DBLogFullSQL,
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:           cfg.Database.Driver,
	}, meter, log)
	if err != nil {
		log.Fatal("Failed to initialize database telemetry", zap.Error(err))
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(gormLog),
		persistence.WithPlugins(dbPlugin),
	)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", db.Driver()))

	// PostgreSQL schemas are owned by cmd/migrate; sqlite files are created in place
	if cfg.Database.AutoMigrate || db.Driver() == "sqlite" {
		if err := db.AutoMigrate(ctx); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	collector := metrics.NewCollector()

	eventBus := event.NewInMemoryEventBus(log).WithObserver(collector)
	eventBus.Subscribe(inventoryapp.NewStockBelowLimitHandler(log).WithCounter(collector))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	handlers, sweep := buildHandlers(cfg, db, log, collector, eventBus)

	jobs := scheduler.New(scheduler.Config{
		JobTimeout:    cfg.Scheduler.JobTimeout,
		RetryAttempts: cfg.Scheduler.RetryAttempts,
		RetryDelay:    cfg.Scheduler.RetryDelay,
	}, log)
	if cfg.Scheduler.Enabled {
		if err := jobs.Every(cfg.Scheduler.LowStockSweepInterval, sweep); err != nil {
			log.Fatal("Failed to schedule low stock sweep", zap.Error(err))
		}
		if err := jobs.Start(ctx); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
	}

	store, err := cache.NewResponseStoreFactory(cfg.Idempotency, cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Warn("Invalid trusted proxies, trusting none", zap.Error(err))
		_ = engine.SetTrustedProxies(nil)
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		Collector: collector,
		Meter:     meter,
		Logger:    log,
	}))
	engine.Use(middleware.ProfilingWithConfig(middleware.ProfilingConfig{
		Enabled:   tel.Profiler.IsEnabled(),
		SkipPaths: middleware.DefaultProfilingConfig().SkipPaths,
	}))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(corsConfig(cfg.HTTP)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	engine.GET("/health", handlers.System.Health)
	if cfg.Metrics.Enabled {
		engine.GET(cfg.Metrics.Path, gin.WrapH(collector.Handler()))
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.SpanErrorMarker())
	if cfg.JWT.Enabled {
		jwtCfg := middleware.DefaultJWTConfig(auth.NewVerifier(cfg.JWT))
		jwtCfg.Logger = log
		r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtCfg))
		log.Info("Bearer token authentication enabled")
	}
	r.Use(middleware.TracingAttributeInjector())
	if cfg.Idempotency.Enabled {
		r.Use(middleware.Idempotency(middleware.IdempotencyConfig{Store: store, Logger: log}))
	}
	for _, group := range router.APIGroups(handlers) {
		r.Register(group)
	}
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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := jobs.Stop(shutdownCtx); err != nil {
		log.Error("Scheduler did not stop", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Event bus did not drain", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// buildHandlers wires repositories, services and handlers on one database,
// plus the low stock sweep sharing the inventory service
func buildHandlers(cfg *config.Config, db *persistence.Database, log *zap.Logger, collector *metrics.Collector, bus *event.InMemoryEventBus) (router.Handlers, *inventoryapp.LowStockSweep) {
	gdb := db.DB

	productRepo := persistence.NewGormProductRepository(gdb)
	unitRepo := persistence.NewGormUnitRepository(gdb)
	inventoryRepo := persistence.NewGormInventoryRecordRepository(gdb)
	movementRepo := persistence.NewGormMovementRepository(gdb)
	purchaseRepo := persistence.NewGormPurchaseRepository(gdb)
	saleRepo := persistence.NewGormSaleRepository(gdb)
	refs := persistence.NewGormReferenceChecker(gdb)
	scope := persistence.NewGormTransactionScope(gdb)

	ledger := inventoryapp.NewLedgerService(cfg.Ledger.MaxRetries, log)
	ledger.SetMetrics(collector)
	ledger.SetEventPublisher(bus)

	profitService := reportapp.NewProfitService(productRepo, unitRepo, inventoryRepo, purchaseRepo, saleRepo, log).
		WithCalendar(cfg.Ledger.Weekday(), cfg.Ledger.Location())

	inventoryService := inventoryapp.NewInventoryService(scope, ledger, inventoryRepo, movementRepo, unitRepo, productRepo, log)

	return router.Handlers{
		Products:    handler.NewProductHandler(catalogapp.NewProductService(productRepo, refs, log)),
		Units:       handler.NewUnitHandler(catalogapp.NewUnitService(unitRepo, productRepo, refs, log)),
		Conversions: handler.NewConversionHandler(catalogapp.NewConversionService(unitRepo)),
		Inventories: handler.NewInventoryHandler(inventoryService),
		Purchases:   handler.NewPurchaseHandler(tradeapp.NewPurchaseService(scope, ledger, purchaseRepo, unitRepo, log)),
		Sales:       handler.NewSaleHandler(tradeapp.NewSaleService(scope, ledger, saleRepo, unitRepo, log)),
		Overview:    handler.NewOverviewHandler(profitService),
		System:      handler.NewSystemHandler(cfg.App.Name, telemetry.ServiceVersion, db),
	}, inventoryapp.NewLowStockSweep(inventoryService, collector, log)
}

func corsConfig(h config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = h.CORSAllowOrigins
	if len(h.CORSAllowMethods) > 0 {
		cors.AllowMethods = h.CORSAllowMethods
	}
	if len(h.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = h.CORSAllowHeaders
	}
	return cors
}
