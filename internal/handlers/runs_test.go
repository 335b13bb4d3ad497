package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"

	"github.com/themizzi/storecheck/internal/harness"
	"github.com/themizzi/storecheck/internal/models"
	"github.com/themizzi/storecheck/internal/repository"
)

// MockRunService is a mock implementation of RunService for testing
type MockRunService struct {
	GetRunFunc    func(string) (*models.Run, error)
	LatestRunFunc func() (*models.Run, error)
	ListRunsFunc  func(int) ([]*models.Run, error)
}

func (m *MockRunService) StartRun(baseURL, browser, trigger string) (*models.Run, error) {
	return models.NewRun(baseURL, browser, trigger)
}

func (m *MockRunService) FinishRun(run *models.Run, results harness.Results) error {
	return nil
}

func (m *MockRunService) AbortRun(run *models.Run, reason string) error {
	return run.Abort(reason)
}

func (m *MockRunService) GetRun(id string) (*models.Run, error) {
	if m.GetRunFunc != nil {
		return m.GetRunFunc(id)
	}
	return &models.Run{ID: id}, nil
}

func (m *MockRunService) LatestRun() (*models.Run, error) {
	if m.LatestRunFunc != nil {
		return m.LatestRunFunc()
	}
	return nil, fmt.Errorf("failed to get latest run: %w", repository.ErrRunNotFound)
}

func (m *MockRunService) ListRuns(limit int) ([]*models.Run, error) {
	if m.ListRunsFunc != nil {
		return m.ListRunsFunc(limit)
	}
	return nil, nil
}

func finishedRun(id string) *models.Run {
	finished := time.Date(2026, 10, 19, 9, 0, 30, 0, time.UTC)
	return &models.Run{
		ID:         id,
		Trigger:    models.TriggerWatch,
		BaseURL:    "https://www.saucedemo.com",
		Browser:    "chromium",
		Status:     models.RunStatusFailed,
		Passed:     1,
		Failed:     1,
		StartedAt:  finished.Add(-30 * time.Second),
		FinishedAt: &finished,
		Scenarios: []models.ScenarioRecord{
			{Name: "login/logout", Outcome: models.OutcomePassed},
			{Name: "cart/badge-and-remove", Outcome: models.OutcomeFailed, Kind: "timeout", Message: "timed out"},
		},
	}
}

func TestRunsHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		query          string
		mockRuns       []*models.Run
		mockError      error
		expectedStatus int
		expectedLimit  int
		expectedCount  int
	}{
		{
			name:           "default limit",
			method:         http.MethodGet,
			mockRuns:       []*models.Run{finishedRun("a"), finishedRun("b")},
			expectedStatus: http.StatusOK,
			expectedLimit:  0,
			expectedCount:  2,
		},
		{
			name:           "explicit limit",
			method:         http.MethodGet,
			query:          "?limit=1",
			mockRuns:       []*models.Run{finishedRun("a")},
			expectedStatus: http.StatusOK,
			expectedLimit:  1,
			expectedCount:  1,
		},
		{
			name:           "no runs is an empty list",
			method:         http.MethodGet,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "bad limit",
			method:         http.MethodGet,
			query:          "?limit=ten",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "service error",
			method:         http.MethodGet,
			mockError:      errors.New("database down"),
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "method not allowed - POST",
			method:         http.MethodPost,
			expectedStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN
			gotLimit := -1
			handler := NewRunsHandler(&MockRunService{
				ListRunsFunc: func(limit int) ([]*models.Run, error) {
					gotLimit = limit
					return tt.mockRuns, tt.mockError
				},
			})
			req := httptest.NewRequest(tt.method, "/runs"+tt.query, nil)
			w := httptest.NewRecorder()

			// WHEN
			handler.ServeHTTP(w, req)

			// THEN
			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}
			if gotLimit != tt.expectedLimit {
				t.Errorf("expected limit %d, got %d", tt.expectedLimit, gotLimit)
			}
			var resp struct {
				Runs []json.RawMessage `json:"runs"`
			}
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Runs == nil {
				t.Error("expected runs to be a list, got null")
			}
			if len(resp.Runs) != tt.expectedCount {
				t.Errorf("expected %d runs, got %d", tt.expectedCount, len(resp.Runs))
			}
		})
	}
}

func TestRunHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		id             string
		getErr         error
		latestErr      error
		expectedStatus int
		expectedID     string
	}{
		{name: "latest", id: "latest", expectedStatus: http.StatusOK, expectedID: "newest"},
		{name: "by id", id: "run-7", expectedStatus: http.StatusOK, expectedID: "run-7"},
		{name: "unknown id", id: "run-8", getErr: fmt.Errorf("failed to get run: %w", repository.ErrRunNotFound), expectedStatus: http.StatusNotFound},
		{name: "no runs yet", id: "latest", latestErr: repository.ErrRunNotFound, expectedStatus: http.StatusNotFound},
		{name: "database error", id: "latest", latestErr: errors.New("connection refused"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN
			handler := NewRunHandler(&MockRunService{
				GetRunFunc: func(id string) (*models.Run, error) {
					if tt.getErr != nil {
						return nil, tt.getErr
					}
					return finishedRun(id), nil
				},
				LatestRunFunc: func() (*models.Run, error) {
					if tt.latestErr != nil {
						return nil, tt.latestErr
					}
					return finishedRun("newest"), nil
				},
			})
			req := httptest.NewRequest(http.MethodGet, "/runs/"+tt.id, nil)
			req.SetPathValue("id", tt.id)
			w := httptest.NewRecorder()

			// WHEN
			handler.ServeHTTP(w, req)

			// THEN
			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.expectedStatus != http.StatusOK {
				var errResp ErrorResponse
				if err := json.NewDecoder(w.Body).Decode(&errResp); err != nil {
					t.Fatalf("failed to decode error response: %v", err)
				}
				if errResp.Message == "" {
					t.Error("expected error message to be set")
				}
				return
			}
			var run models.Run
			if err := json.NewDecoder(w.Body).Decode(&run); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if run.ID != tt.expectedID {
				t.Errorf("expected run %s, got %s", tt.expectedID, run.ID)
			}
			if len(run.Scenarios) != 2 || run.Scenarios[1].Kind != "timeout" {
				t.Errorf("expected scenario results in the body, got %+v", run.Scenarios)
			}
		})
	}
}

func TestHealthHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		service        *MockRunService
		method         string
		expectedStatus int
		expected       HealthResponse
	}{
		{
			name:           "history disabled",
			method:         http.MethodGet,
			expectedStatus: http.StatusOK,
			expected:       HealthResponse{Status: "ok"},
		},
		{
			name:           "no runs yet",
			service:        &MockRunService{},
			method:         http.MethodGet,
			expectedStatus: http.StatusOK,
			expected:       HealthResponse{Status: "ok"},
		},
		{
			name: "failing suite is still healthy",
			service: &MockRunService{LatestRunFunc: func() (*models.Run, error) {
				return finishedRun("r1"), nil
			}},
			method:         http.MethodGet,
			expectedStatus: http.StatusOK,
			expected:       HealthResponse{Status: "ok", LastRun: "r1", LastStatus: models.RunStatusFailed},
		},
		{
			name: "history unreachable",
			service: &MockRunService{LatestRunFunc: func() (*models.Run, error) {
				return nil, errors.New("connection refused")
			}},
			method:         http.MethodGet,
			expectedStatus: http.StatusServiceUnavailable,
			expected:       HealthResponse{Status: "unavailable"},
		},
		{
			name:           "method not allowed - POST",
			method:         http.MethodPost,
			expectedStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN
			var handler *HealthHandler
			if tt.service != nil {
				handler = NewHealthHandler(tt.service)
			} else {
				handler = NewHealthHandler(nil)
			}
			req := httptest.NewRequest(tt.method, "/healthz", nil)
			w := httptest.NewRecorder()

			// WHEN
			handler.ServeHTTP(w, req)

			// THEN
			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.method != http.MethodGet {
				return
			}
			var got HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if got.Status != tt.expected.Status || got.LastRun != tt.expected.LastRun || got.LastStatus != tt.expected.LastStatus {
				t.Errorf("expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}

func TestRunHandlerOverHTTP(t *testing.T) {
	// GIVEN the handlers mounted the way the watch server mounts them
	service := &MockRunService{LatestRunFunc: func() (*models.Run, error) { return finishedRun("newest"), nil }}
	mux := http.NewServeMux()
	mux.Handle("/runs/{id}", NewRunHandler(service))

	httphelpers.WithServer(mux, func(server *httptest.Server) {
		// WHEN
		resp, err := http.Get(server.URL + "/runs/latest")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()

		// THEN
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected status 200, got %d", resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %q", ct)
		}
		var run models.Run
		if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
			t.Fatal(err)
		}
		if run.ID != "newest" {
			t.Errorf("expected newest run, got %s", run.ID)
		}
	})
}
