package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wishlist-service/internal/events"
	"github.com/wishlist-service/internal/metrics"
	"github.com/wishlist-service/internal/middleware"
	"github.com/wishlist-service/internal/problem"
	"github.com/wishlist-service/internal/service"
	"github.com/wishlist-service/pkg/response"
)

// RouterConfig carries everything the HTTP layer is built from
type RouterConfig struct {
	Auth         *service.AuthService
	Wishlists    *service.WishlistService
	Reservations *service.ReservationService
	Hub          *events.Hub
	Log          *zap.Logger
	Build        BuildInfo
	HealthChecks map[string]Pinger

	// Metrics is optional; when set it is served on MetricsPath
	Metrics     *metrics.Metrics
	MetricsPath string
}

// NewRouter creates the gin engine with all middleware and routes
func NewRouter(cfg RouterConfig) *gin.Engine {
	SetupValidator()

	router := gin.New()
	router.Use(
		middleware.CorrelationMiddleware(),
		middleware.RecoveryMiddleware(cfg.Log),
		middleware.RequestLoggerMiddleware(cfg.Log),
		middleware.CORSMiddleware(),
	)
	if cfg.Metrics != nil {
		router.Use(middleware.MetricsMiddleware(cfg.Metrics))
		router.GET(cfg.MetricsPath, gin.WrapH(cfg.Metrics.Handler()))
	}

	router.NoRoute(func(c *gin.Context) {
		response.Problem(c, problem.New(problem.KindNotFound, "no route for %s %s", c.Request.Method, c.Request.URL.Path))
	})

	router.GET("/health", NewHealthHandler(cfg.Build, cfg.HealthChecks).Health)

	authMiddleware := middleware.AuthMiddleware(cfg.Auth)
	optionalAuth := middleware.OptionalAuthMiddleware(cfg.Auth)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		NewAuthHandler(cfg.Auth, cfg.Wishlists).RegisterRoutes(v1, authMiddleware, optionalAuth)
		NewWishlistHandler(cfg.Wishlists, cfg.Reservations).RegisterRoutes(v1, authMiddleware, optionalAuth)
		if cfg.Hub != nil {
			NewEventsHandler(cfg.Wishlists, cfg.Hub, cfg.Log).RegisterRoutes(v1, optionalAuth)
		}
	}

	return router
}
