package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	_ "github.com/tiller/backend/docs"
	billingapp "github.com/tiller/backend/internal/application/billing"
	catalogapp "github.com/tiller/backend/internal/application/catalog"
	identityapp "github.com/tiller/backend/internal/application/identity"
	partnerapp "github.com/tiller/backend/internal/application/partner"
	reportapp "github.com/tiller/backend/internal/application/report"
	"github.com/tiller/backend/internal/infrastructure/auth"
	"github.com/tiller/backend/internal/infrastructure/cache"
	"github.com/tiller/backend/internal/infrastructure/config"
	"github.com/tiller/backend/internal/infrastructure/event"
	"github.com/tiller/backend/internal/infrastructure/export"
	"github.com/tiller/backend/internal/infrastructure/logger"
	"github.com/tiller/backend/internal/infrastructure/migration"
	"github.com/tiller/backend/internal/infrastructure/persistence"
	"github.com/tiller/backend/internal/infrastructure/printing"
	"github.com/tiller/backend/internal/infrastructure/storage"
	"github.com/tiller/backend/internal/infrastructure/telemetry"
	"github.com/tiller/backend/internal/interfaces/http/handler"
	"github.com/tiller/backend/internal/interfaces/http/middleware"
	"github.com/tiller/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

//	@title			Tiller API
//	@version		1.0
//	@description	Project, milestone billing and payment tracking for a consultancy.

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

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

	ctx := context.Background()

	logProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize log export", zap.Error(err))
	}
	log := logProvider.Bridge(baseLog)
	defer func() { _ = log.Sync() }()

	log.Info("Starting Tiller backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	profiler, err := telemetry.NewProfiler(cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	profiler.LinkSpans(tracerProvider)
	metrics := telemetry.NewMetrics()

	if cfg.Database.Driver == "sqlite" {
		if err := migration.Run(&cfg.Database, log); err != nil {
			log.Fatal("Failed to migrate sqlite database", zap.Error(err))
		}
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSQL(cfg.Telemetry.DBLogFullSQL))
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbTracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	dbTracing.DBName = cfg.Database.DBName
	if err := telemetry.NewDBTracingPlugin(dbTracing, log).Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		if err := metrics.RegisterDB(sqlDB, cfg.Database.DBName); err != nil {
			log.Warn("Database pool metrics unavailable", zap.Error(err))
		}
	}
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	healthChecks := map[string]handler.HealthCheck{
		"database": func(context.Context) error { return db.Ping() },
	}

	// Redis backs the token blacklist and the dashboard cache; without it
	// both fall back to process memory.
	var (
		blacklist      auth.TokenBlacklist
		dashboardCache interface {
			reportapp.Cache
			billingapp.DashboardCache
		}
		redisClient *redis.Client
	)
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable, using in-memory token blacklist and cache", zap.Error(err))
			redisClient = nil
		}
	}
	if redisClient != nil {
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
		dashboardCache = cache.NewRedisDashboardCache(redisClient, cfg.Cache.DashboardTTL)
		healthChecks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	} else {
		blacklist = auth.NewInMemoryTokenBlacklist()
		dashboardCache = cache.NewInMemoryDashboardCache(cfg.Cache.DashboardTTL)
	}

	var objectStorage billingapp.ObjectStorage
	if cfg.Storage.Bucket != "" {
		s3Storage, err := storage.NewS3ObjectStorage(ctx, cfg.Storage, log)
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		if err := s3Storage.EnsureBucket(ctx); err != nil {
			log.Fatal("Object storage bucket unavailable", zap.Error(err), zap.String("bucket", s3Storage.Bucket()))
		}
		objectStorage = s3Storage
	} else {
		log.Warn("No storage bucket configured, project files are kept in memory")
		objectStorage = storage.NewMemoryObjectStorage()
	}

	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(metrics)
	var forwarder *event.AMQPForwarder
	if cfg.Broker.Enabled {
		forwarder, err = event.NewAMQPForwarder(cfg.Broker.URL, cfg.Broker.Exchange, log)
		if err != nil {
			log.Fatal("Failed to connect to message broker", zap.Error(err))
		}
		eventBus.Subscribe(forwarder)
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	printer := printing.NewChromedpPrinter(cfg.Chrome, log)

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	departmentRepo := persistence.NewGormDepartmentRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	clientRepo := persistence.NewGormClientRepository(db.DB)
	projectRepo := persistence.NewGormProjectRepository(db.DB)
	billQueryRepo := persistence.NewGormBillQueryRepository(db.DB)
	fileRepo := persistence.NewGormProjectFileRepository(db.DB)
	dashboardRepo := persistence.NewGormDashboardRepository(db.DB)
	searchRepo := persistence.NewGormSearchRepository(db.DB)

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, jwtService, blacklist, log)
	userService := identityapp.NewUserService(userRepo, blacklist, jwtService, log)
	userService.SetEventPublisher(eventBus)
	departmentService := identityapp.NewDepartmentService(departmentRepo, projectRepo, log)
	categoryService := catalogapp.NewCategoryService(categoryRepo, projectRepo, log)
	clientService := partnerapp.NewClientService(clientRepo, projectRepo, departmentRepo, categoryRepo, log)
	clientService.SetEventPublisher(eventBus)

	projectService := billingapp.NewProjectService(projectRepo, clientRepo, departmentRepo, categoryRepo, fileRepo,
		persistence.NewGormTransactionScope(db.DB), log)
	projectService.SetEventPublisher(eventBus)
	projectService.SetDashboardCache(dashboardCache)
	projectService.SetObjectStorage(objectStorage)

	billService := billingapp.NewBillService(projectRepo, billQueryRepo, log)
	billService.SetEventPublisher(eventBus)
	billService.SetDashboardCache(dashboardCache)

	fileService := billingapp.NewFileService(projectRepo, fileRepo, objectStorage, log)
	documentService := billingapp.NewDocumentService(projectRepo, billQueryRepo, clientRepo, departmentRepo, categoryRepo,
		printing.NewStatementRenderer(printer), printing.NewReceiptRenderer(cfg.App.Name), export.NewBillExporter())

	dashboardService := reportapp.NewDashboardService(dashboardRepo, projectRepo, clientRepo, departmentRepo, categoryRepo, log)
	dashboardService.SetCache(dashboardCache)
	searchService := reportapp.NewSearchService(searchRepo, log)

	middleware.SetupValidator()
	// amounts are JSON numbers on the wire
	decimal.MarshalJSONWithoutQuotes = true
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	loginLimiter := middleware.NewRateLimiter(cfg.HTTP.LoginRateLimit, cfg.HTTP.LoginRateWindow)
	engine, err := router.NewEngine(router.EngineOptions{
		Config:        cfg,
		Logger:        log,
		Authenticator: authService,
		LoginLimiter:  loginLimiter,
		Metrics:       metrics,
		Handlers: router.Handlers{
			Auth:        handler.NewAuthHandler(authService),
			User:        handler.NewUserHandler(userService),
			Department:  handler.NewDepartmentHandler(departmentService),
			Category:    handler.NewCategoryHandler(categoryService),
			Client:      handler.NewClientHandler(clientService),
			Project:     handler.NewProjectHandler(projectService, documentService),
			ProjectFile: handler.NewProjectFileHandler(fileService),
			Bill:        handler.NewBillHandler(billService, documentService),
			Dashboard:   handler.NewDashboardHandler(dashboardService),
			Search:      handler.NewSearchHandler(searchService),
			Health:      handler.NewHealthHandler(version, cfg.Database.Driver, healthChecks),
		},
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	loginLimiter.Stop()
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Warn("Event bus stop failed", zap.Error(err))
	}
	if forwarder != nil {
		if err := forwarder.Close(); err != nil {
			log.Warn("Broker connection close failed", zap.Error(err))
		}
	}
	if err := printer.Close(); err != nil {
		log.Warn("Chrome shutdown failed", zap.Error(err))
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Warn("Profiler stop failed", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Tracer shutdown failed", zap.Error(err))
	}
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Log export shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
