package router

import (
	"github.com/erp/stockcount/internal/infrastructure/auth"
	"github.com/erp/stockcount/internal/infrastructure/logger"
	"github.com/erp/stockcount/internal/interfaces/http/handler"
	"github.com/erp/stockcount/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// EngineConfig holds what the HTTP engine needs besides the handlers
type EngineConfig struct {
	Logger         *zap.Logger
	JWTService     *auth.JWTService
	ServiceName    string
	IsDevelopment  bool
	TracingEnabled bool
	CORS           middleware.CORSConfig
	TrustedProxies []string
	MaxBodySize    int64
	// RateLimiter is optional; nil disables rate limiting
	RateLimiter *middleware.RateLimiter
	Swagger     middleware.SwaggerConfig
}

// Handlers groups the HTTP handlers served by the engine
type Handlers struct {
	Articles *handler.ArticleHandler
	Sessions *handler.CountSessionHandler
	Lines    *handler.CountLineHandler
	Health   *handler.HealthHandler
}

// NewEngine builds the gin engine: global middleware, health, docs and the
// authenticated /api/v1 routes with one permission per operation
func NewEngine(cfg EngineConfig, h Handlers) (*gin.Engine, error) {
	if err := middleware.SetupValidator(); err != nil {
		return nil, err
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(
		logger.Recovery(cfg.Logger),
		middleware.RequestID(),
		middleware.Secure(middleware.SecureOptions(cfg.IsDevelopment)),
		logger.GinMiddleware(cfg.Logger),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: cfg.ServiceName,
			Enabled:     cfg.TracingEnabled,
			SkipPaths:   []string{"/health"},
		}),
		middleware.TraceAttributes(),
		middleware.CORSWithConfig(cfg.CORS),
	)
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}
	if cfg.RateLimiter != nil {
		engine.Use(middleware.RateLimit(cfg.RateLimiter))
	}

	jwtAuth := middleware.JWTAuth(middleware.JWTMiddlewareConfig{
		JWTService: cfg.JWTService,
		Logger:     cfg.Logger,
	})
	permission := middleware.NewAuthorizer(cfg.Logger).Require

	engine.GET("/health", h.Health.Health)
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(cfg.Swagger, jwtAuth),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	articles := NewDomainGroup("articles", "/articles").
		POST("", permission(auth.PermArticleCreate), h.Articles.Register).
		GET("", permission(auth.PermArticleRead), h.Articles.List).
		GET("/:id", permission(auth.PermArticleRead), h.Articles.GetByID).
		POST("/:id/movements", permission(auth.PermStockMove), h.Articles.ApplyMovement).
		GET("/:id/movements", permission(auth.PermArticleRead), h.Articles.ListMovements)

	sessions := NewDomainGroup("count-sessions", "/count-sessions").
		POST("", permission(auth.PermCountSessionCreate), h.Sessions.Create).
		GET("", permission(auth.PermCountSessionRead), h.Sessions.List).
		GET("/:id", permission(auth.PermCountSessionRead), h.Sessions.GetByID).
		POST("/:id/advance", permission(auth.PermCountSessionAdvance), h.Sessions.Advance).
		DELETE("/:id", permission(auth.PermCountSessionDelete), h.Sessions.Delete).
		POST("/:id/lines", permission(auth.PermCountSessionCreate), h.Sessions.AddLine)

	lines := NewDomainGroup("count-lines", "/count-lines").
		PUT("/:id", permission(auth.PermCountLineRecord), h.Lines.RecordCount)

	NewRouter(engine, WithMiddleware(jwtAuth)).
		Register(articles, sessions, lines).
		Setup()

	return engine, nil
}
