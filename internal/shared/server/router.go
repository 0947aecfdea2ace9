package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"filmdecks-backend/internal/shared/auth"
	"filmdecks-backend/internal/shared/config"
	"filmdecks-backend/internal/shared/metrics"
	"filmdecks-backend/internal/shared/server/middleware"
)

// Routes is implemented by every feature handler.
type Routes interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// AdminRoutes is implemented by handlers that expose dashboard routes.
type AdminRoutes interface {
	RegisterAdminRoutes(rg *gin.RouterGroup)
}

// RouterDeps carries what NewRouter needs. Nil handlers are skipped.
type RouterDeps struct {
	Config      config.Config
	Tokens      middleware.TokenVerifier
	Credentials middleware.CredentialChecker
	RateLimiter *middleware.RateLimiter

	Health   Routes
	Login    Routes
	Google   Routes
	Analyses Routes
	Leads    Routes
	Uploads  Routes
}

// DefaultRateRules throttles story intake hard and preview polling loosely.
func DefaultRateRules() map[string]middleware.RateLimitRule {
	return map[string]middleware.RateLimitRule{
		middleware.RateGroupAnalysis: {Rate: 5.0 / 60.0, Burst: 5},
		middleware.RateGroupPolling:  {Rate: 1, Burst: 30},
	}
}

// RateGroupFor maps a request onto its rate limit group.
func RateGroupFor(c *gin.Context) string {
	path := c.Request.URL.Path
	switch {
	case c.Request.Method == http.MethodPost && (path == "/api/ai-analysis" || path == "/api/questionnaire"):
		return middleware.RateGroupAnalysis
	case c.Request.Method == http.MethodGet && path == "/api/ai-analysis" && strings.TrimSpace(c.Query("id")) != "":
		return middleware.RateGroupPolling
	}
	return ""
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Principal(deps.Tokens, deps.Credentials),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:    DefaultRateRules(),
			GroupFor: RateGroupFor,
			Limiter:  deps.RateLimiter,
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	admin := api.Group("/admin", middleware.RequireRole(auth.RoleAdmin))
	for _, h := range []Routes{deps.Health, deps.Login, deps.Google, deps.Analyses, deps.Leads, deps.Uploads} {
		if h == nil {
			continue
		}
		h.RegisterRoutes(api)
		if a, ok := h.(AdminRoutes); ok {
			a.RegisterAdminRoutes(admin)
		}
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
