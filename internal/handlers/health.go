package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/themizzi/storecheck/internal/models"
	"github.com/themizzi/storecheck/internal/repository"
	"github.com/themizzi/storecheck/internal/services"
)

// HealthResponse is the body of GET /healthz
type HealthResponse struct {
	Status      string           `json:"status"`
	LastRun     string           `json:"lastRun,omitempty"`
	LastStatus  models.RunStatus `json:"lastStatus,omitempty"`
	LastStarted *time.Time       `json:"lastStarted,omitempty"`
}

// HealthHandler reports whether the run history is reachable and how the
// last run went. A failing suite does not make the watcher unhealthy.
type HealthHandler struct {
	runService services.RunService
}

// NewHealthHandler creates a new health handler. runService may be nil when
// history is disabled.
func NewHealthHandler(runService services.RunService) *HealthHandler {
	return &HealthHandler{runService: runService}
}

// ServeHTTP handles GET /healthz
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := HealthResponse{Status: "ok"}
	if h.runService == nil {
		sendJSON(w, resp, http.StatusOK)
		return
	}

	run, err := h.runService.LatestRun()
	switch {
	case errors.Is(err, repository.ErrRunNotFound):
	case err != nil:
		log.Printf("Health check failed: %v", err)
		sendJSON(w, HealthResponse{Status: "unavailable"}, http.StatusServiceUnavailable)
		return
	default:
		started := run.StartedAt
		resp.LastRun = run.ID
		resp.LastStatus = run.Status
		resp.LastStarted = &started
	}
	sendJSON(w, resp, http.StatusOK)
}
