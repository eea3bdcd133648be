package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/erp/stockcount/docs"
	appcount "github.com/erp/stockcount/internal/application/counting"
	appinv "github.com/erp/stockcount/internal/application/inventory"
	"github.com/erp/stockcount/internal/infrastructure/auth"
	"github.com/erp/stockcount/internal/infrastructure/cache"
	"github.com/erp/stockcount/internal/infrastructure/config"
	"github.com/erp/stockcount/internal/infrastructure/event"
	"github.com/erp/stockcount/internal/infrastructure/logger"
	"github.com/erp/stockcount/internal/infrastructure/migration"
	"github.com/erp/stockcount/internal/infrastructure/persistence"
	"github.com/erp/stockcount/internal/infrastructure/storage"
	"github.com/erp/stockcount/internal/infrastructure/telemetry"
	"github.com/erp/stockcount/internal/interfaces/http/handler"
	"github.com/erp/stockcount/internal/interfaces/http/middleware"
	"github.com/erp/stockcount/internal/interfaces/http/router"
	"github.com/erp/stockcount/migrations"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

//	@title			Stock Count API
//	@version		1.0
//	@description	Inventory ledger and physical count reconciliation

//	@contact.name	API Support

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	baseLog, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = baseLog.Sync() }()

	if err := run(cfg, baseLog); err != nil {
		baseLog.Fatal("Server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, baseLog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serviceName := cfg.Telemetry.ServiceName
	if serviceName == "" {
		serviceName = cfg.App.Name
	}

	// Telemetry
	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, baseLog)
	if err != nil {
		return err
	}
	log := logProvider.Bridge(baseLog, logger.ParseLevel(cfg.Log.Level))

	log.Info("Starting stock count service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.Server.Port),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Profiling.Enabled,
		ServerAddress:   cfg.Profiling.ServerAddress,
		ApplicationName: serviceName,
		ProfileMemory:   cfg.Profiling.ProfileMemory,
		ProfileMutex:    cfg.Profiling.ProfileMutex,
	}, log)
	if err != nil {
		return err
	}
	if profiler.IsEnabled() && cfg.Profiling.SpanProfiles {
		tracerProvider.EnableSpanProfiles()
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = meterProvider.Shutdown(shutdownCtx)
		_ = tracerProvider.Shutdown(shutdownCtx)
		_ = logProvider.Shutdown(shutdownCtx)
		_ = profiler.Stop()
	}()

	// Database
	gormLog := logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level), cfg.Database.SlowThreshold)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := migrateSchema(db, log); err != nil {
		return err
	}
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:            cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBName:             cfg.Database.DBName,
		WithQueryVariables: cfg.Telemetry.DBLogFullSQL && !cfg.App.IsProduction(),
	}, log); err != nil {
		return err
	}
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	idempotencyStore, err := cache.NewIdempotencyStore(ctx, cfg.Idempotency, cfg.Redis, log)
	if err != nil {
		return err
	}
	defer func() { _ = idempotencyStore.Close() }()

	// Events
	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(event.NewAuditLogHandler(log))

	countMetrics, err := telemetry.NewCountMetrics(meterProvider.Meter(serviceName))
	if err != nil {
		return err
	}
	bus.Subscribe(countMetrics)

	// Services
	ledgerScope := persistence.NewLedgerTransactionScope(db.DB)
	countScope := persistence.NewCountTransactionScope(db.DB)
	stockRepo := persistence.NewGormStockLevelRepository(db.DB)

	articleService := appinv.NewArticleService(ledgerScope, persistence.NewGormArticleRepository(db.DB), stockRepo)
	ledgerService := appinv.NewStockLedgerService(ledgerScope, stockRepo, persistence.NewGormStockMovementRepository(db.DB))
	ledgerService.SetEventPublisher(bus)
	ledgerService.SetIdempotencyStore(idempotencyStore, cfg.Idempotency.TTL)

	sessionService := appcount.NewSessionService(countScope, persistence.NewGormCountSessionRepository(db.DB))
	sessionService.SetEventPublisher(bus)
	lineService := appcount.NewLineService(countScope)
	lineService.SetEventPublisher(bus)

	if cfg.Archive.Enabled {
		objects, err := storage.NewS3ObjectStore(ctx, &cfg.Archive, storage.WithLogger(log))
		if err != nil {
			return err
		}
		archiver := event.NewSessionArchiveHandler(sessionService, objects, log)
		bus.Subscribe(event.NewIdempotentHandler(archiver, idempotencyStore, "archive", 7*24*time.Hour, log))
		log.Info("Approved sessions are archived", zap.String("bucket", objects.Bucket()))
	}

	if err := bus.Start(ctx); err != nil {
		return err
	}
	defer func() {
		_ = bus.Stop(context.Background())
		log.Info("Event bus stopped", zap.Int64("handler_failures", bus.Failures()))
	}()

	// HTTP
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	docs.SwaggerInfo.Version = version

	var limiter *middleware.RateLimiter
	if cfg.Server.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(cfg.Server.RateLimitRequests, cfg.Server.RateLimitWindow)
	}

	cors := middleware.DefaultCORSConfig()
	if len(cfg.Server.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = cfg.Server.CORSAllowOrigins
	}

	engine, err := router.NewEngine(router.EngineConfig{
		Logger:         log,
		JWTService:     auth.NewJWTService(cfg.JWT),
		ServiceName:    serviceName,
		IsDevelopment:  !cfg.App.IsProduction(),
		TracingEnabled: cfg.Telemetry.Enabled,
		CORS:           cors,
		TrustedProxies: cfg.Server.TrustedProxies,
		MaxBodySize:    cfg.Server.MaxBodySize,
		RateLimiter:    limiter,
		Swagger: middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		},
	}, router.Handlers{
		Articles: handler.NewArticleHandler(articleService, ledgerService),
		Sessions: handler.NewCountSessionHandler(sessionService),
		Lines:    handler.NewCountLineHandler(lineService),
		Health:   handler.NewHealthHandler(db, version),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:           ":" + cfg.Server.Port,
		Handler:        engine,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Server exited gracefully")
	return nil
}

// migrateSchema brings the schema up to date. Postgres runs the embedded SQL
// migrations; sqlite has no migration history and is auto-migrated from the models.
func migrateSchema(db *persistence.Database, log *zap.Logger) error {
	if db.IsSQLite() {
		return db.AutoMigrate()
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, migration.Source{FS: migrations.FS, Dir: "."}, log)
	if err != nil {
		return err
	}
	// closing the migrator would close sqlDB, which the service keeps using
	return m.Up()
}
