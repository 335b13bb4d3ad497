//go:build integration
// +build integration

package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/themizzi/storecheck/internal/models"
	"github.com/themizzi/storecheck/internal/repository/testutil"
)

func newRun(t *testing.T, startedAt time.Time) *models.Run {
	t.Helper()
	run, err := models.NewRun("https://www.saucedemo.com", "chromium", models.TriggerCLI)
	if err != nil {
		t.Fatalf("NewRun() error = %v", err)
	}
	run.StartedAt = startedAt.UTC().Truncate(time.Microsecond)
	return run
}

func TestRunRepository_CreateAndGet_Integration(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	defer testDB.Teardown(t)

	repo := NewRunRepositoryWithDB(testDB.DB)

	// GIVEN
	run := newRun(t, time.Now())

	// WHEN
	if err := repo.CreateRun(run); err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}
	got, err := repo.GetRun(run.ID)

	// THEN
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if got.Status != models.RunStatusPending {
		t.Errorf("Status mismatch: got %v, want %v", got.Status, models.RunStatusPending)
	}
	if got.BaseURL != run.BaseURL || got.Browser != run.Browser || got.Trigger != run.Trigger {
		t.Errorf("Run mismatch: got %+v, want %+v", got, run)
	}
	if !got.StartedAt.Equal(run.StartedAt) {
		t.Errorf("StartedAt mismatch: got %v, want %v", got.StartedAt, run.StartedAt)
	}
	if got.FinishedAt != nil {
		t.Errorf("FinishedAt should be nil, got %v", got.FinishedAt)
	}
	if len(got.Scenarios) != 0 {
		t.Errorf("Expected no scenarios, got %d", len(got.Scenarios))
	}
}

func TestRunRepository_CreateRun_DuplicateID_Integration(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	defer testDB.Teardown(t)

	repo := NewRunRepositoryWithDB(testDB.DB)
	run := newRun(t, time.Now())

	if err := repo.CreateRun(run); err != nil {
		t.Fatalf("Failed to create first run: %v", err)
	}
	if err := repo.CreateRun(run); err == nil {
		t.Error("Expected error when creating run with duplicate id, got nil")
	}
}

func TestRunRepository_UpdateRun_Integration(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	defer testDB.Teardown(t)

	repo := NewRunRepositoryWithDB(testDB.DB)

	// GIVEN a stored running run
	run := newRun(t, time.Now())
	if err := repo.CreateRun(run); err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}
	if err := run.Start(); err != nil {
		t.Fatal(err)
	}

	// WHEN it finishes with results
	records := []models.ScenarioRecord{
		{Name: "login/logout", Outcome: models.OutcomePassed, Duration: 1200 * time.Millisecond},
		{Name: "cart/badge-and-remove", Outcome: models.OutcomeFailed, Kind: "timeout", Message: "timed out after 10s", Duration: 10 * time.Second},
		{Name: "login/lands-on-inventory/glitch", Outcome: models.OutcomeSkipped},
	}
	if err := run.Finish(records); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpdateRun(run); err != nil {
		t.Fatalf("UpdateRun() error = %v", err)
	}

	// THEN the stored run carries status, counts and ordered results
	got, err := repo.GetRun(run.ID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if got.Status != models.RunStatusFailed {
		t.Errorf("Status = %v, want %v", got.Status, models.RunStatusFailed)
	}
	if got.Passed != 1 || got.Failed != 1 || got.Skipped != 1 {
		t.Errorf("Counts = %d/%d/%d, want 1/1/1", got.Passed, got.Failed, got.Skipped)
	}
	if got.FinishedAt == nil {
		t.Fatal("FinishedAt should be set")
	}
	if len(got.Scenarios) != len(records) {
		t.Fatalf("Expected %d scenarios, got %d", len(records), len(got.Scenarios))
	}
	for i, want := range records {
		if got.Scenarios[i] != want {
			t.Errorf("Scenario %d = %+v, want %+v", i, got.Scenarios[i], want)
		}
	}

	// AND updating again replaces the results
	run.Scenarios = records[:1]
	if err := repo.UpdateRun(run); err != nil {
		t.Fatalf("second UpdateRun() error = %v", err)
	}
	got, err = repo.GetRun(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Scenarios) != 1 {
		t.Errorf("Expected 1 scenario after replace, got %d", len(got.Scenarios))
	}
}

func TestRunRepository_UpdateRun_NotFound_Integration(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	defer testDB.Teardown(t)

	repo := NewRunRepositoryWithDB(testDB.DB)
	run := newRun(t, time.Now())

	if err := repo.UpdateRun(run); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("UpdateRun() error = %v, want %v", err, ErrRunNotFound)
	}
}

func TestRunRepository_GetRun_NotFound_Integration(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	defer testDB.Teardown(t)

	repo := NewRunRepositoryWithDB(testDB.DB)

	if _, err := repo.GetRun(uuid.New().String()); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("GetRun() error = %v, want %v", err, ErrRunNotFound)
	}
	if _, err := repo.LatestRun(); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("LatestRun() error = %v, want %v", err, ErrRunNotFound)
	}
}

func TestRunRepository_ListAndLatest_Integration(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	defer testDB.Teardown(t)

	repo := NewRunRepositoryWithDB(testDB.DB)

	// GIVEN three runs an hour apart
	base := time.Now().Add(-3 * time.Hour)
	var ids []string
	for i := 0; i < 3; i++ {
		run := newRun(t, base.Add(time.Duration(i)*time.Hour))
		if err := repo.CreateRun(run); err != nil {
			t.Fatalf("CreateRun() error = %v", err)
		}
		ids = append(ids, run.ID)
	}

	// WHEN
	runs, err := repo.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	latest, err := repo.LatestRun()
	if err != nil {
		t.Fatalf("LatestRun() error = %v", err)
	}

	// THEN newest come first
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != ids[2] || runs[1].ID != ids[1] {
		t.Errorf("Order mismatch: got %s, %s", runs[0].ID, runs[1].ID)
	}
	if latest.ID != ids[2] {
		t.Errorf("LatestRun() = %s, want %s", latest.ID, ids[2])
	}
}
