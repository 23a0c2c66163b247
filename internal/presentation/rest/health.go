package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// HealthHandler provides liveness and readiness endpoints.
type HealthHandler struct {
	startTime time.Time
	sourceIDs []string
}

// NewHealthHandler creates a health handler reporting the configured
// signal sources in its readiness checks.
func NewHealthHandler(sourceIDs []string) *HealthHandler {
	return &HealthHandler{
		startTime: time.Now(),
		sourceIDs: sourceIDs,
	}
}

// HealthResponse is the JSON response for liveness checks.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Uptime  string `json:"uptime"`
}

// ReadinessResponse is the JSON response for readiness checks.
type ReadinessResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Checks  map[string]string `json:"checks"`
}

// RegisterRoutes mounts the health endpoints.
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
}

// Healthz handles liveness probe requests.
func (h *HealthHandler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: "urlassay",
		Uptime:  time.Since(h.startTime).String(),
	})
}

// Readyz handles readiness probe requests. Sources are registered at
// startup, so readiness reports their presence rather than probing the
// remote backends on every check.
func (h *HealthHandler) Readyz(w http.ResponseWriter, _ *http.Request) {
	checks := make(map[string]string, len(h.sourceIDs))
	for _, id := range h.sourceIDs {
		checks[id] = "registered"
	}

	writeJSON(w, http.StatusOK, ReadinessResponse{
		Status:  "ready",
		Service: "urlassay",
		Checks:  checks,
	})
}
