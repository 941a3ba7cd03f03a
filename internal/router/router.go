package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/beauty-api/internal/config"
	"github.com/jwalitptl/beauty-api/internal/middleware"
	apperrors "github.com/jwalitptl/beauty-api/pkg/errors"
	"github.com/jwalitptl/beauty-api/pkg/metrics"
)

// Handler is implemented by every entity handler. Public routes need no
// token; protected routes run behind Authenticate.
type Handler interface {
	RegisterRoutes(public, protected *gin.RouterGroup)
}

// Handlers lists everything the API mounts. Optional groups may be nil
// when their feature is off.
type Handlers struct {
	Health       Handler
	Metrics      Handler
	Auth         Handler
	Clinic       Handler
	Treatment    Handler
	Professional Handler
	User         Handler
	Appointment  Handler
	Dashboard    Handler

	Consent  Handler
	VIP      Handler
	Points   Handler
	Wellness Handler
}

type RouterConfig struct {
	Mode             string
	RequestTimeout   time.Duration
	MaxBodySize      int64
	RateLimitEnabled bool
	RateLimit        middleware.RateLimiterConfig
	CORS             middleware.CORSConfig
	Security         middleware.SecurityConfig
	Features         config.FeatureConfig
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
	features config.FeatureConfig
}

// route is one entry of the static route table
type route struct {
	name    string
	enabled bool
	handler Handler
}

func NewRouter(auth *middleware.AuthMiddleware, handlers Handlers, m *metrics.Metrics, cfg RouterConfig) *Router {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = middleware.DefaultTimeoutConfig().Duration
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = middleware.DefaultMaxBodySize
	}

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		middleware.Metrics(m),
		middleware.ErrorHandler(),
		middleware.SecurityHeaders(cfg.Security),
		middleware.CORS(cfg.CORS),
		middleware.SizeLimit(cfg.MaxBodySize),
	)
	if cfg.RateLimitEnabled {
		engine.Use(middleware.NewRateLimiter(cfg.RateLimit).RateLimit())
	}
	engine.Use(middleware.Timeout(middleware.TimeoutConfig{Duration: cfg.RequestTimeout}))

	engine.NoRoute(func(c *gin.Context) {
		_ = c.Error(apperrors.NotFound("route", nil))
	})

	return &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
		features: cfg.Features,
	}
}

func (r *Router) routes() []route {
	h := r.handlers
	return []route{
		{name: "health", enabled: true, handler: h.Health},
		{name: "metrics", enabled: true, handler: h.Metrics},
		{name: "auth", enabled: true, handler: h.Auth},
		{name: "clinics", enabled: true, handler: h.Clinic},
		{name: "treatments", enabled: true, handler: h.Treatment},
		{name: "professionals", enabled: true, handler: h.Professional},
		{name: "users", enabled: true, handler: h.User},
		{name: "appointments", enabled: true, handler: h.Appointment},
		{name: "dashboard", enabled: true, handler: h.Dashboard},
		{name: "consent", enabled: r.features.Consent, handler: h.Consent},
		{name: "vip", enabled: r.features.VIP, handler: h.VIP},
		{name: "points", enabled: r.features.Points, handler: h.Points},
		{name: "wellness", enabled: r.features.Wellness, handler: h.Wellness},
	}
}

// Setup mounts every enabled route group under /api/v1
func (r *Router) Setup() {
	public := r.engine.Group("/api/v1")
	protected := r.engine.Group("/api/v1", r.auth.Authenticate())

	for _, rt := range r.routes() {
		if !rt.enabled || rt.handler == nil {
			continue
		}
		rt.handler.RegisterRoutes(public, protected)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
