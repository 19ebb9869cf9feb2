package handlers

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker is any dependency that can report reachability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler reports process liveness and dependency reachability.
type HealthHandler struct {
	deps map[string]HealthChecker
}

// NewHealthHandler creates a HealthHandler over named dependencies.
func NewHealthHandler(deps map[string]HealthChecker) *HealthHandler {
	return &HealthHandler{deps: deps}
}

type healthResponse struct {
	Status string            `json:"status"`
	Deps   map[string]string `json:"deps,omitempty"`
}

// Health handles GET /health. The endpoint stays 200 as long as the
// process is alive; dependency failures are reported in the body so a
// degraded store does not flap load balancer checks.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if len(h.deps) > 0 {
		resp.Deps = make(map[string]string, len(h.deps))
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		for name, dep := range h.deps {
			if err := dep.HealthCheck(ctx); err != nil {
				resp.Deps[name] = "unreachable"
				resp.Status = "degraded"
				continue
			}
			resp.Deps[name] = "ok"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
