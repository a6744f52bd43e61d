package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"nutrition-backend/internal/services/health"
	"nutrition-backend/internal/shared/config"
	"nutrition-backend/internal/shared/metrics"
	"nutrition-backend/internal/shared/server/middleware"
	"nutrition-backend/internal/shared/server/respond"
)

// RouteRegistrar is implemented by every feature handler.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RouterDeps carries the handlers mounted under /api/v1.
type RouterDeps struct {
	Config   config.Config
	Health   *health.Service
	Handlers []RouteRegistrar
	// Limiter is shared across requests; nil builds a fresh one.
	Limiter *middleware.RateLimiter
}

// Rate limit groups.
const (
	groupDefault   = "DEFAULT"
	groupRecommend = "RECOMMEND"
	groupAccept    = "ACCEPT"
	groupLookup    = "LOOKUP"
	groupUpload    = "UPLOAD"
)

var defaultRateRules = map[string]middleware.RateLimitRule{
	groupDefault:   {Rate: 10, Burst: 40},
	groupRecommend: {Rate: 2, Burst: 10},
	groupAccept:    {Rate: 2, Burst: 10},
	groupLookup:    {Rate: 1, Burst: 5},
	groupUpload:    {Rate: 0.2, Burst: 3},
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Config.Env),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:        defaultRateRules,
			DefaultGroup: groupDefault,
			GroupFor:     rateGroup,
			Limiter:      deps.Limiter,
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		status, ok := deps.Health.Status(c.Request.Context())
		code := http.StatusOK
		if !ok {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, status)
	})
	for _, h := range deps.Handlers {
		if h != nil {
			h.RegisterRoutes(api)
		}
	}
	return r
}

func rateGroup(c *gin.Context) string {
	path := c.FullPath()
	switch {
	case c.Request.Method == http.MethodGet && path == "/api/v1/recommendations":
		return groupRecommend
	case c.Request.Method == http.MethodPost && strings.HasSuffix(path, "/accept"):
		return groupAccept
	case strings.HasPrefix(path, "/api/v1/foods/search"), strings.HasPrefix(path, "/api/v1/foods/usda"), strings.HasPrefix(path, "/api/v1/foods/barcode"):
		return groupLookup
	case c.Request.Method == http.MethodPost && path == "/api/v1/labels":
		return groupUpload
	default:
		return groupDefault
	}
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
