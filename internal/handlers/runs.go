package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/themizzi/storecheck/internal/models"
	"github.com/themizzi/storecheck/internal/repository"
	"github.com/themizzi/storecheck/internal/services"
)

// RunsResponse is the body of GET /runs
type RunsResponse struct {
	Runs []*models.Run `json:"runs"`
}

// RunsHandler lists recent suite runs
type RunsHandler struct {
	runService services.RunService
}

// NewRunsHandler creates a new runs handler
func NewRunsHandler(runService services.RunService) *RunsHandler {
	return &RunsHandler{runService: runService}
}

// ServeHTTP handles GET /runs?limit=n
func (h *RunsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			sendErrorResponse(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := h.runService.ListRuns(limit)
	if err != nil {
		log.Printf("Error listing runs: %v", err)
		sendErrorResponse(w, "Failed to list runs", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []*models.Run{}
	}
	sendJSON(w, RunsResponse{Runs: runs}, http.StatusOK)
}

// RunHandler serves one run with its scenario results. It is mounted on
// GET /runs/latest and GET /runs/{id}.
type RunHandler struct {
	runService services.RunService
}

// NewRunHandler creates a new run handler
func NewRunHandler(runService services.RunService) *RunHandler {
	return &RunHandler{runService: runService}
}

// ServeHTTP handles GET /runs/{id}; the id "latest" selects the newest run
func (h *RunHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.PathValue("id")
	var (
		run *models.Run
		err error
	)
	if id == "" || id == "latest" {
		run, err = h.runService.LatestRun()
	} else {
		run, err = h.runService.GetRun(id)
	}

	if errors.Is(err, repository.ErrRunNotFound) {
		sendErrorResponse(w, "No such run", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Error getting run %q: %v", id, err)
		sendErrorResponse(w, "Failed to get run", http.StatusInternalServerError)
		return
	}
	sendJSON(w, run, http.StatusOK)
}
