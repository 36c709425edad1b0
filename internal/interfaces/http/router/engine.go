package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/tiller/backend/internal/infrastructure/config"
	"github.com/tiller/backend/internal/infrastructure/logger"
	"github.com/tiller/backend/internal/interfaces/http/dto"
	"github.com/tiller/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

const multipartMemory = 8 << 20

// MetricsExporter observes requests and serves the scrape endpoint
type MetricsExporter interface {
	middleware.RequestObserver
	Handler() http.Handler
}

// EngineOptions wires the engine
type EngineOptions struct {
	Config        *config.Config
	Logger        *zap.Logger
	Authenticator middleware.Authenticator
	LoginLimiter  *middleware.RateLimiter
	// Metrics is optional
	Metrics  MetricsExporter
	Handlers Handlers
}

// NewEngine builds the gin engine with the global middleware chain, the
// operational endpoints and the versioned API.
func NewEngine(opts EngineOptions) (*gin.Engine, error) {
	cfg := opts.Config
	log := opts.Logger

	engine := gin.New()
	engine.MaxMultipartMemory = multipartMemory
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
		SkipPaths:   []string{"/health", "/metrics"},
	}))
	engine.Use(middleware.SpanAttributes())
	engine.Use(logger.GinMiddleware(log))
	if opts.Metrics != nil {
		engine.Use(middleware.HTTPMetrics(opts.Metrics))
	}
	engine.Use(middleware.CORS(cfg.HTTP))
	engine.Use(middleware.Secure(cfg.IsProduction()))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(dto.ErrCodeNotFound, "Route not found", middleware.GetRequestID(c)))
	})

	engine.GET("/health", opts.Handlers.Health.Health)
	if opts.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}
	engine.GET("/swagger/*any", middleware.SwaggerProtection(cfg.Swagger), ginSwagger.WrapHandler(swaggerFiles.Handler))

	loginLimit := func(c *gin.Context) { c.Next() }
	if opts.LoginLimiter != nil {
		loginLimit = middleware.RateLimit(opts.LoginLimiter)
	}
	NewRouter(engine, WithAPIVersion("v1")).
		Register(APIRoutes(opts.Handlers, middleware.JWTAuth(opts.Authenticator, log), loginLimit)...).
		Setup()

	return engine, nil
}
