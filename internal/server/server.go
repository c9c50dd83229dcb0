package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"sales-analytics/internal/config"
	"sales-analytics/internal/errors"
	"sales-analytics/internal/handlers"
	"sales-analytics/internal/middleware"
	"sales-analytics/internal/observability"
	"sales-analytics/internal/services"
	"sales-analytics/internal/ui/templates"
)

const (
	DashboardTitle = "Sales Analytics Dashboard"
	renderTimeout  = 10 * time.Second
	cacheMaxAge    = "public, max-age=300"
)

type Server struct {
	analytics   *services.Analytics
	router      chi.Router
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

// NewServer wires every route behind the shared middleware stack. A nil
// metrics leaves /metrics unregistered.
func NewServer(cfg *config.Config, analytics *services.Analytics, metrics *observability.Metrics, logger *slog.Logger) *Server {
	s := &Server{
		analytics:   analytics,
		router:      chi.NewRouter(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(analytics, logger),
		sseHandlers: handlers.NewSSEHandlers(analytics, cfg.Report.Currency, logger),
	}
	s.setupMiddleware(cfg, metrics)
	s.setupRoutes(metrics)
	return s
}

func (s *Server) setupMiddleware(cfg *config.Config, metrics *observability.Metrics) {
	s.router.Use(middleware.Chain(
		middleware.Recovery(s.logger),
		middleware.RequestID(),
		middleware.TrustedProxy(cfg.Security),
		middleware.Tracing(),
		middleware.Metrics(metrics),
		middleware.Logger(s.logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.RateLimit(middleware.NewRateLimiter(cfg.Security), s.logger),
	))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", cacheMaxAge)
	if err := templates.Dashboard(DashboardTitle).Render(ctx, w); err != nil {
		s.logger.ErrorContext(ctx, "render dashboard", "error", err)
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

func (s *Server) setupRoutes(metrics *observability.Metrics) {
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteError(w, r, s.logger, errors.NotFound("Route not found").WithDetails(r.URL.Path))
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteError(w, r, s.logger, errors.MethodNotAllowed("Method not allowed").WithDetails(r.Method+" "+r.URL.Path))
	})

	s.router.Get("/", s.handleDashboard)
	s.router.Get("/health", s.apiHandlers.HandleHealth)
	s.router.Get("/admin/stats", s.apiHandlers.HandleStats)
	if metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/summary", s.apiHandlers.HandleSummary)
		r.Get("/regions", s.apiHandlers.HandleRegions)
		r.Get("/top-products", s.apiHandlers.HandleTopProducts)
		r.Get("/customers", s.apiHandlers.HandleCustomers)
		r.Get("/daily", s.apiHandlers.HandleDaily)
		r.Get("/peak-day", s.apiHandlers.HandlePeakDay)
		r.Get("/low-performers", s.apiHandlers.HandleLowPerformers)
		r.Get("/enrichment", s.apiHandlers.HandleEnrichment)
		r.Get("/export.xlsx", s.apiHandlers.HandleExport)
	})

	// Datastar SSE endpoints
	s.router.Route("/sse", func(r chi.Router) {
		r.Get("/regions", s.sseHandlers.HandleRegions)
		r.Get("/top-products", s.sseHandlers.HandleTopProducts)
		r.Get("/customers", s.sseHandlers.HandleCustomers)
		r.Get("/daily", s.sseHandlers.HandleDaily)
		r.Get("/refresh-all", s.sseHandlers.HandleRefreshAll)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
