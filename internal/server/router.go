package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "portfolio-rate-limiter/docs"
	"portfolio-rate-limiter/internal/config"
	"portfolio-rate-limiter/internal/handler"
	"portfolio-rate-limiter/internal/limiter"
	ratelimitMiddleware "portfolio-rate-limiter/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Deps reúne o que o roteador precisa para montar as rotas
type Deps struct {
	Limiter        ratelimitMiddleware.Checker
	Clock          limiter.Clock
	Routes         config.RoutePolicies
	AllowedOrigins []string
	AdminPassword  string
	Health         *handler.HealthHandler
	Metrics        http.Handler
	Logger         *slog.Logger
}

// NewRouter monta o roteador chi. Falha se algum propósito não tiver política associada.
func NewRouter(deps Deps) (*chi.Mux, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Health == nil {
		deps.Health = handler.NewHealthHandler(nil, deps.Logger)
	}
	if len(deps.AllowedOrigins) == 0 {
		deps.AllowedOrigins = []string{"*"}
	}

	limitFor := func(purpose string) (func(http.Handler) http.Handler, error) {
		policy, err := deps.Routes.GetPolicy(purpose)
		if err != nil {
			return nil, err
		}
		if err := policy.Validate(); err != nil {
			return nil, fmt.Errorf("route %q: %w", purpose, err)
		}
		return ratelimitMiddleware.RateLimit(deps.Limiter, deps.Clock, purpose, policy, deps.Logger), nil
	}

	loginLimit, err := limitFor(config.PurposeLogin)
	if err != nil {
		return nil, err
	}
	contactLimit, err := limitFor(config.PurposeContact)
	if err != nil {
		return nil, err
	}
	newsletterLimit, err := limitFor(config.PurposeNewsletter)
	if err != nil {
		return nil, err
	}
	resourceLimit, err := limitFor(config.PurposeResource)
	if err != nil {
		return nil, err
	}

	forms := handler.NewFormsHandler(deps.Logger)
	admin := handler.NewAdminHandler(deps.AdminPassword, deps.Logger)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	router.Get("/health", deps.Health.Health)

	if deps.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.With(resourceLimit).Get("/resource", deps.Health.Resource)
		r.With(contactLimit).Post("/contact", forms.Contact)
		r.With(newsletterLimit).Post("/newsletter", forms.Newsletter)
		r.With(loginLimit).Post("/admin/login", admin.Login)
	})

	return router, nil
}
