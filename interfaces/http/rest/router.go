package rest

import (
	"net/http"

	"journal-insights/interfaces/http/rest/handlers"
	"journal-insights/interfaces/http/rest/middleware"
	"journal-insights/pkg/auth"
	apperrors "journal-insights/pkg/errors"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Router creates and configures the HTTP router
type Router struct {
	insightHandler *handlers.InsightHandler
	resolver       auth.IdentityResolver
	errorHandler   *apperrors.ErrorHandler
	metrics        http.Handler
	logger         *zap.Logger
}

// NewRouter creates a new router instance. metrics may be nil.
func NewRouter(
	insightHandler *handlers.InsightHandler,
	resolver auth.IdentityResolver,
	errorHandler *apperrors.ErrorHandler,
	metrics http.Handler,
	logger *zap.Logger,
) *Router {
	return &Router{
		insightHandler: insightHandler,
		resolver:       resolver,
		errorHandler:   errorHandler,
		metrics:        metrics,
		logger:         logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() *chi.Mux {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.Logger(rt.logger))
	router.Use(rt.errorHandler.Middleware)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "apikey", "x-client-info"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// The method check runs before authentication
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rt.errorHandler.Handle(w, r, apperrors.NewMethodNotAllowedError(r.Method))
	})

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.metrics != nil {
		router.Method(http.MethodGet, "/metrics", rt.metrics)
	}

	authenticated := router.With(middleware.Authenticate(rt.resolver, rt.errorHandler, rt.logger))
	for _, path := range []string{"/insights", "/api/v1/insights"} {
		authenticated.Post(path, rt.insightHandler.GenerateInsights)
		router.Options(path, noContent)
	}

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests. Dependencies fail
// open, so a constructed router is ready.
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}

func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
