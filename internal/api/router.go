package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/quillpress/blog-api/docs"
	"github.com/quillpress/blog-api/internal/api/handler"
	"github.com/quillpress/blog-api/internal/api/middleware"
	"github.com/quillpress/blog-api/internal/core/domain"
	"github.com/quillpress/blog-api/internal/core/ports"
	infrahttp "github.com/quillpress/blog-api/internal/infrastructure/http"
	"github.com/quillpress/blog-api/internal/infrastructure/http/handlers"
	"github.com/quillpress/blog-api/internal/pkg/validation"
)

// RateLimitConfig bounds requests per client IP on the auth endpoints.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Dependencies is everything the router wires into handlers and middleware.
type Dependencies struct {
	Accounts  ports.AccountService
	Articles  ports.ArticleService
	Views     ports.ViewRecorder // optional
	Tokens    ports.TokenVerifier
	Validator *validation.Validator
	Limiter   middleware.Limiter // optional
	RateLimit RateLimitConfig
	// TrustProxy reads the client address from X-Forwarded-For instead of
	// the connection. The limiter and view dedup key on that address.
	TrustProxy bool
	Checks     []handlers.DependencyCheck
	Logger     zerolog.Logger
	// Registerer receives the HTTP metrics. Nil selects the default registry.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator(d.Validator)
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)
	if d.TrustProxy {
		e.IPExtractor = echo.ExtractIPFromXFFHeader()
	} else {
		e.IPExtractor = echo.ExtractIPDirect()
	}

	registerer := d.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Logger))
	e.Use(echomiddleware.BodyLimit("1M"))
	e.Use(echomiddleware.CORS())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "http",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/health" || c.Path() == "/health/ready"
		},
	}))

	// --- Operations (no auth required) ---
	infrahttp.RegisterProbes(e, d.Checks...)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.Accounts)
	articleHandler := handler.NewArticleHandler(d.Articles, d.Views)
	authenticate := middleware.Authenticate(d.Tokens)
	optional := middleware.OptionalAuthenticate(d.Tokens)
	authLimit := middleware.RateLimit(d.Limiter, "auth", d.RateLimit.Requests, d.RateLimit.Window, d.Logger)

	api := e.Group("/api")

	// --- Auth routes ---
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register, authLimit)
	auth.POST("/login", authHandler.Login, authLimit)
	auth.GET("/me", authHandler.Me, authenticate)
	auth.PATCH("/me", authHandler.UpdateMe, authenticate)
	auth.POST("/change-password", authHandler.ChangePassword, authenticate)

	// --- Article routes ---
	articles := api.Group("/articles")
	articles.GET("", articleHandler.List, optional)
	articles.GET("/:slug", articleHandler.Get, optional)
	articles.POST("", articleHandler.Create, authenticate)
	articles.PATCH("/:slug", articleHandler.Update, authenticate)
	articles.DELETE("/:slug", articleHandler.Delete, authenticate)
	moderators := middleware.RequireRoles(domain.RoleEditor, domain.RoleAdmin)
	articles.POST("/:slug/publish", articleHandler.Publish, authenticate, moderators)
	articles.POST("/:slug/unpublish", articleHandler.Unpublish, authenticate, moderators)
	api.GET("/tags", articleHandler.Tags)

	// --- Admin routes ---
	admin := api.Group("/admin", authenticate, middleware.RequireRoles(domain.RoleAdmin))
	admin.GET("/accounts/:id", authHandler.Account)

	return e
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
