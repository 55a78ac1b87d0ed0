package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yegors/flightboard/internal/config"
	"github.com/yegors/flightboard/pkg/logger"
)

// Router is the API router
type Router struct {
	handler    *Handler
	middleware *Middleware
	metrics    http.Handler
	config     *config.Config
	logger     *logger.Logger
}

// NewRouter creates a new API router. metrics may be nil when the
// Prometheus endpoint is disabled.
func NewRouter(handler *Handler, metrics http.Handler, cfg *config.Config, log *logger.Logger) *Router {
	return &Router{
		handler:    handler,
		middleware: NewMiddleware(log),
		metrics:    metrics,
		config:     cfg,
		logger:     log.Named("api-router"),
	}
}

// Routes returns the API routes
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	router.Use(r.middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(r.middleware.Recoverer)
	router.Use(r.middleware.CORS(r.config.Server.CORSAllowedOrigins))

	router.Route("/api/v1", func(router chi.Router) {
		// Flight routes; {index} is the insertion position of the flight
		router.Get("/flights", r.handler.ListFlights)
		router.Post("/flights", r.handler.AddFlight)
		router.Get("/flights/{index}", r.handler.GetFlight)
		router.Post("/flights/{index}/passengers", r.handler.RegisterPassenger)
		router.Put("/flights/{index}/status", r.handler.ChangeFlightStatus)
		router.Get("/flights/{index}/history", r.handler.GetFlightHistory)

		router.Get("/history", r.handler.GetRecentHistory)
		router.Get("/statistics", r.handler.GetStatistics)
		router.Get("/statuses", r.handler.GetStatuses)
		router.Get("/health", r.handler.GetHealth)

		// Live notices
		router.Get("/notices/ws", r.handler.StreamNotices)
	})

	if r.metrics != nil && r.config.Metrics.Enabled {
		router.Handle(r.config.Metrics.Path, r.metrics)
	}

	return router
}
