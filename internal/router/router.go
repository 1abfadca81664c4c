// Package router assembles the HTTP routes and middleware chain.
package router

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/profilesapi/profiles/internal/config"
	"github.com/profilesapi/profiles/internal/handler"
	"github.com/profilesapi/profiles/internal/metrics"
	"github.com/profilesapi/profiles/internal/middleware"
	"github.com/profilesapi/profiles/internal/service"
	"github.com/profilesapi/profiles/internal/validation"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *slog.Logger
	Metrics  metrics.Recorder
	Profiles *service.ProfileService
	Feed     *service.FeedService
	Auth     *service.AuthService
	// Limiter backs rate limiting. Nil disables every limit.
	Limiter middleware.RateLimiter
	// Health is keyed by the dependency name reported in /readyz.
	Health map[string]handler.HealthChecker
}

// New configures the chi router with all routes and middleware.
func New(d Deps) *chi.Mux {
	cfg := d.Config
	logger := d.Logger
	validate := validation.New()

	h := handler.New(Version)
	healthHandler := handler.NewHealthHandler(d.Health)
	metricsHandler := handler.NewMetricsHandler(d.Metrics)
	helloView := handler.NewHelloView(validate)
	helloViewSet := handler.NewHelloViewSet(validate)
	profileHandler := handler.NewProfileHandler(d.Profiles, logger)
	feedHandler := handler.NewFeedHandler(d.Feed, logger)
	authHandler := handler.NewAuthHandler(d.Auth, validate, logger)

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins

	authCfg := middleware.AuthConfig{
		Logger:        logger,
		Authenticator: d.Auth,
		MinDuration:   cfg.AuthMinDuration,
	}

	trustedProxies, err := cfg.TrustedProxyPrefixes()
	if err != nil {
		logger.Warn("ignoring trusted proxies", slog.String("error", err.Error()))
	}

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:         logger,
		Limiter:        d.Limiter,
		Metrics:        d.Metrics,
		TrustedProxies: trustedProxies,
		TokenEnabled:   d.Limiter != nil && cfg.RateLimitTokenEnabled,
		TokenPerMinute: cfg.RateLimitTokenPerMinute,
		TokenBurst:     cfg.RateLimitTokenBurst,
		IPEnabled:      d.Limiter != nil && cfg.RateLimitIPEnabled,
		IPRPS:          cfg.RateLimitIPRPS,
		IPBurst:        cfg.RateLimitIPBurst,
		LoginEnabled:   d.Limiter != nil && cfg.RateLimitLoginEnabled,
		LoginPerMinute: cfg.RateLimitLoginPerMinute,
		LoginBurst:     cfg.RateLimitLoginBurst,
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger, d.Metrics))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()}))
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	// Probes and metrics (no auth required)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Get("/metrics", metricsHandler.Metrics)
	r.Get("/", h.Root)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimitIP(rateLimitCfg))

		// Anonymous callers may read and register; mutations check scopes
		// per route and ownership in the services.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(authCfg))
			r.Use(middleware.RateLimitToken(rateLimitCfg))

			// Per-verb view, wired by hand.
			r.Route("/hello-view", func(r chi.Router) {
				r.Get("/", helloView.Get)
				r.Post("/", helloView.Post)
				r.Put("/", helloView.Put)
				r.Patch("/", helloView.Patch)
				r.Delete("/", helloView.Delete)
				r.Put("/{id}", helloView.Put)
				r.Patch("/{id}", helloView.Patch)
				r.Delete("/{id}", helloView.Delete)
			})

			// View sets, wired from their action names.
			MountViewSet(r, "/hello-viewset", helloViewSet, ViewSetOptions{})
			MountViewSet(r, "/profile", profileHandler, ViewSetOptions{
				Guard:   middleware.RequireWrite(),
				Guarded: []Action{ActionUpdate, ActionPartialUpdate, ActionDestroy},
			})
			MountViewSet(r, "/feed", feedHandler, ViewSetOptions{
				Guard:   middleware.RequireWrite(),
				Guarded: WriteActions,
			})

			r.With(middleware.RateLimitLogin(rateLimitCfg)).Post("/login", authHandler.Login)
		})

		// Session and admin endpoints always need a token.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(authCfg))
			r.Use(middleware.RateLimitToken(rateLimitCfg))

			r.With(middleware.RequireRead()).Post("/logout", authHandler.Logout)
			r.With(middleware.RequireAdmin()).Post("/admin/profiles/{id}/promote", profileHandler.Promote)
		})
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
