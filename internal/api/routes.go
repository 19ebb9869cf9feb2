// Route registration and go-chi router setup.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/arielvoskov/reviewlens/internal/api/handlers"
)

// Deps are the constructed services the router exposes. Everything is
// built once in main and injected; the router owns no state.
type Deps struct {
	Chat     handlers.ChatStreamer
	Searcher handlers.ReviewSearcher
	Health   map[string]handlers.HealthChecker
	// Metrics serves the Prometheus registry; nil disables /metrics.
	Metrics http.Handler
}

// NewRouter creates and configures the chi router with all routes.
func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Unauthenticated operational endpoints, used by probes and scrapers.
	healthHandler := handlers.NewHealthHandler(deps.Health)
	r.Get("/health", healthHandler.Health)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	chatHandler := handlers.NewChatHandler(deps.Chat)
	searchHandler := handlers.NewSearchHandler(deps.Searcher)
	insightsHandler := handlers.NewInsightsHandler(deps.Searcher)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/chat", chatHandler.Chat) // POST /api/v1/chat (SSE)

		r.Route("/reviews", func(r chi.Router) {
			r.Post("/search", searchHandler.Search)      // POST /api/v1/reviews/search
			r.Get("/{id}/similar", searchHandler.Similar) // GET /api/v1/reviews/{id}/similar
		})

		r.Post("/insights", insightsHandler.Build) // POST /api/v1/insights
	})

	return r
}
