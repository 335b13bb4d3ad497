package services

import (
	"fmt"

	"github.com/themizzi/storecheck/internal/harness"
	"github.com/themizzi/storecheck/internal/models"
)

// RunRepository defines the interface for run persistence
type RunRepository interface {
	CreateRun(run *models.Run) error
	UpdateRun(run *models.Run) error
	GetRun(id string) (*models.Run, error)
	LatestRun() (*models.Run, error)
	ListRuns(limit int) ([]*models.Run, error)
}

// RunService records suite runs and answers history queries
type RunService interface {
	StartRun(baseURL, browser, trigger string) (*models.Run, error)
	FinishRun(run *models.Run, results harness.Results) error
	AbortRun(run *models.Run, reason string) error
	GetRun(id string) (*models.Run, error)
	LatestRun() (*models.Run, error)
	ListRuns(limit int) ([]*models.Run, error)
}

// Listing bounds
const (
	DefaultListLimit = 20
	MaxListLimit     = 500
)

// RunServiceImpl implements RunService
type RunServiceImpl struct {
	runRepo RunRepository
}

// NewRunService creates a new run service
func NewRunService(runRepo RunRepository) RunService {
	return &RunServiceImpl{
		runRepo: runRepo,
	}
}

// StartRun creates a run, persists it and marks it running
func (s *RunServiceImpl) StartRun(baseURL, browser, trigger string) (*models.Run, error) {
	run, err := models.NewRun(baseURL, browser, trigger)
	if err != nil {
		return nil, fmt.Errorf("invalid run: %w", err)
	}

	if err := s.runRepo.CreateRun(run); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	if err := run.Start(); err != nil {
		return nil, err
	}
	if err := s.runRepo.UpdateRun(run); err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}

	return run, nil
}

// FinishRun settles run from the suite results and stores them
func (s *RunServiceImpl) FinishRun(run *models.Run, results harness.Results) error {
	if err := run.Finish(Records(results)); err != nil {
		return err
	}
	if err := s.runRepo.UpdateRun(run); err != nil {
		return fmt.Errorf("failed to store run results: %w", err)
	}
	return nil
}

// AbortRun settles a run that never produced results
func (s *RunServiceImpl) AbortRun(run *models.Run, reason string) error {
	if err := run.Abort(reason); err != nil {
		return err
	}
	if err := s.runRepo.UpdateRun(run); err != nil {
		return fmt.Errorf("failed to abort run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by id
func (s *RunServiceImpl) GetRun(id string) (*models.Run, error) {
	run, err := s.runRepo.GetRun(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// LatestRun retrieves the most recent run
func (s *RunServiceImpl) LatestRun() (*models.Run, error) {
	run, err := s.runRepo.LatestRun()
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return run, nil
}

// ListRuns returns recent runs; limit is clamped to [1, MaxListLimit] and
// zero means DefaultListLimit
func (s *RunServiceImpl) ListRuns(limit int) ([]*models.Run, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	runs, err := s.runRepo.ListRuns(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// Records converts suite results into stored scenario records, in order
func Records(results harness.Results) []models.ScenarioRecord {
	records := make([]models.ScenarioRecord, 0, len(results.Tests))
	for _, t := range results.Tests {
		rec := models.ScenarioRecord{
			Name:     t.TestID.String(),
			Duration: t.Duration,
		}
		switch t.Outcome() {
		case harness.OutcomeFailed:
			rec.Outcome = models.OutcomeFailed
			rec.Kind = t.Kind().String()
			rec.Message = t.Message()
		case harness.OutcomeSkipped:
			rec.Outcome = models.OutcomeSkipped
			rec.Message = t.SkipReason
		default:
			rec.Outcome = models.OutcomePassed
		}
		records = append(records, rec)
	}
	return records
}
