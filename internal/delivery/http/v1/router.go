package v1

import (
	"net/http"

	"cricket-club-backend/internal/delivery/http/middleware"
	"cricket-club-backend/internal/delivery/http/response"
	"cricket-club-backend/internal/domain"
	"cricket-club-backend/pkg/metrics"
	"cricket-club-backend/pkg/ratelimit"
	"cricket-club-backend/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RouterDeps struct {
	ContactUC domain.ContactUsecase
	SquadUC   domain.SquadUsecase
	HealthUC  domain.HealthUsecase

	// Limiter counts contact submissions per client key.
	Limiter        ratelimit.Limiter
	AllowedOrigins []string
	IsProduction   bool

	// Liveness and readiness probes, typically a healthcheck.Handler.
	Probes http.Handler

	Logger         *zap.Logger
	SecurityLogger *security.SecurityLogger
	Metrics        *metrics.Metrics
}

func NewRouter(deps RouterDeps) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(deps.AllowedOrigins, deps.IsProduction)) // CORS must be first!
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(log))
	r.Use(middleware.HTTPMetrics(deps.Metrics))
	r.Use(middleware.SecurityHeadersMiddleware(deps.IsProduction))
	r.Use(middleware.ErrorHandler(log))

	r.NoMethod(func(c *gin.Context) {
		response.Error(c, http.StatusMethodNotAllowed, "Method not allowed")
	})
	r.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, "Not found")
	})

	api := r.Group("/api")
	v1 := r.Group("/v1")

	// Health Check
	v1.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, deps.HealthUC.Check(c.Request.Context()))
	})
	if deps.Probes != nil {
		r.GET("/live", gin.WrapH(deps.Probes))
		r.GET("/ready", gin.WrapH(deps.Probes))
	}
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	// Contact form: 415, then 403, then 429, in that order.
	guards := []gin.HandlerFunc{
		middleware.RequireJSON(),
		middleware.OriginGuard(deps.AllowedOrigins, deps.SecurityLogger, deps.Metrics),
		middleware.RateLimitMiddleware(middleware.RateLimitConfig{
			Limiter:        deps.Limiter,
			SecurityLogger: deps.SecurityLogger,
			Metrics:        deps.Metrics,
			Logger:         log,
		}),
	}
	NewContactHandler(deps.ContactUC, guards, api, v1)

	NewSquadHandler(api, deps.SquadUC)

	return r
}
