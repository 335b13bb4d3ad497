package models

import (
	"errors"
	"testing"
	"time"
)

func TestNewRun(t *testing.T) {
	tests := []struct {
		name        string
		baseURL     string
		browser     string
		trigger     string
		wantBrowser string
		wantErr     error
	}{
		{
			name:        "valid run",
			baseURL:     "https://www.saucedemo.com",
			browser:     "firefox",
			trigger:     TriggerCLI,
			wantBrowser: "firefox",
		},
		{
			name:        "browser defaults to chromium",
			baseURL:     "http://localhost:3000",
			trigger:     TriggerWatch,
			wantBrowser: "chromium",
		},
		{
			name:    "relative base URL",
			baseURL: "/inventory.html",
			trigger: TriggerCLI,
			wantErr: ErrInvalidBaseURL,
		},
		{
			name:    "unsupported scheme",
			baseURL: "ftp://example.com",
			trigger: TriggerCLI,
			wantErr: ErrInvalidBaseURL,
		},
		{
			name:    "unknown trigger",
			baseURL: "https://www.saucedemo.com",
			trigger: "cron",
			wantErr: ErrInvalidTrigger,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run, err := NewRun(tt.baseURL, tt.browser, tt.trigger)

			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Errorf("NewRun() error = %v, wantErr %v", err, tt.wantErr)
				}
				if run != nil {
					t.Error("Expected run to be nil when error occurs")
				}
				return
			}

			if err != nil {
				t.Fatalf("NewRun() unexpected error = %v", err)
			}
			if run.ID == "" {
				t.Error("Run ID should not be empty")
			}
			if run.Status != RunStatusPending {
				t.Errorf("Expected status %s, got %s", RunStatusPending, run.Status)
			}
			if run.Browser != tt.wantBrowser {
				t.Errorf("Expected browser %s, got %s", tt.wantBrowser, run.Browser)
			}
		})
	}
}

func TestRun_Start(t *testing.T) {
	tests := []struct {
		name         string
		initialState RunStatus
		wantErr      bool
	}{
		{name: "start pending run", initialState: RunStatusPending},
		{name: "cannot start running run", initialState: RunStatusRunning, wantErr: true},
		{name: "cannot start passed run", initialState: RunStatusPassed, wantErr: true},
		{name: "cannot start aborted run", initialState: RunStatusAborted, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := &Run{Status: tt.initialState}

			err := run.Start()

			if (err != nil) != tt.wantErr {
				t.Fatalf("Start() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidStatusTransition) {
					t.Errorf("Expected ErrInvalidStatusTransition, got %v", err)
				}
				if run.Status != tt.initialState {
					t.Errorf("Status changed on error: %s", run.Status)
				}
				return
			}
			if run.Status != RunStatusRunning {
				t.Errorf("Expected status %s, got %s", RunStatusRunning, run.Status)
			}
		})
	}
}

func TestRun_Finish(t *testing.T) {
	tests := []struct {
		name         string
		initialState RunStatus
		records      []ScenarioRecord
		wantStatus   RunStatus
		wantCounts   [3]int
		wantErr      error
	}{
		{
			name:         "all passed",
			initialState: RunStatusRunning,
			records: []ScenarioRecord{
				{Name: "login/logout", Outcome: OutcomePassed},
				{Name: "login/glitch", Outcome: OutcomeSkipped},
			},
			wantStatus: RunStatusPassed,
			wantCounts: [3]int{1, 0, 1},
		},
		{
			name:         "one failure fails the run",
			initialState: RunStatusRunning,
			records: []ScenarioRecord{
				{Name: "login/logout", Outcome: OutcomePassed},
				{Name: "cart/badge", Outcome: OutcomeFailed, Kind: "timeout"},
			},
			wantStatus: RunStatusFailed,
			wantCounts: [3]int{1, 1, 0},
		},
		{
			name:         "empty suite passes",
			initialState: RunStatusRunning,
			wantStatus:   RunStatusPassed,
		},
		{
			name:         "unknown outcome",
			initialState: RunStatusRunning,
			records:      []ScenarioRecord{{Name: "x", Outcome: "flaky"}},
			wantErr:      ErrInvalidOutcome,
		},
		{
			name:         "pending run cannot finish",
			initialState: RunStatusPending,
			wantErr:      ErrInvalidStatusTransition,
		},
		{
			name:         "terminal status is final",
			initialState: RunStatusFailed,
			wantErr:      ErrRunFinished,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN
			run := &Run{Status: tt.initialState, StartedAt: time.Now()}

			// WHEN
			err := run.Finish(tt.records)

			// THEN
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Finish() error = %v, want %v", err, tt.wantErr)
				}
				if run.FinishedAt != nil && tt.initialState == RunStatusRunning {
					t.Error("FinishedAt set on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Finish() unexpected error = %v", err)
			}
			if run.Status != tt.wantStatus {
				t.Errorf("Expected status %s, got %s", tt.wantStatus, run.Status)
			}
			got := [3]int{run.Passed, run.Failed, run.Skipped}
			if got != tt.wantCounts {
				t.Errorf("Expected counts %v, got %v", tt.wantCounts, got)
			}
			if run.FinishedAt == nil {
				t.Fatal("FinishedAt should be set")
			}
			if run.Duration() < 0 {
				t.Errorf("Duration should not be negative, got %v", run.Duration())
			}
			if run.Total() != len(tt.records) {
				t.Errorf("Expected total %d, got %d", len(tt.records), run.Total())
			}
		})
	}
}

func TestRun_Abort(t *testing.T) {
	tests := []struct {
		name         string
		initialState RunStatus
		wantErr      bool
	}{
		{name: "abort pending run", initialState: RunStatusPending},
		{name: "abort running run", initialState: RunStatusRunning},
		{name: "cannot abort passed run", initialState: RunStatusPassed, wantErr: true},
		{name: "cannot abort aborted run", initialState: RunStatusAborted, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := &Run{Status: tt.initialState}

			err := run.Abort("browser crashed")

			if tt.wantErr {
				if err != ErrRunFinished {
					t.Errorf("Abort() error = %v, want %v", err, ErrRunFinished)
				}
				return
			}
			if err != nil {
				t.Fatalf("Abort() unexpected error = %v", err)
			}
			if run.Status != RunStatusAborted {
				t.Errorf("Expected status %s, got %s", RunStatusAborted, run.Status)
			}
			if run.Message != "browser crashed" {
				t.Errorf("Expected message to be kept, got %q", run.Message)
			}
			if !run.IsFinished() {
				t.Error("Aborted run should be finished")
			}
		})
	}
}

func TestRun_DurationUnfinished(t *testing.T) {
	run := &Run{Status: RunStatusRunning, StartedAt: time.Now()}
	if run.Duration() != 0 {
		t.Errorf("Expected zero duration for unfinished run, got %v", run.Duration())
	}
}
