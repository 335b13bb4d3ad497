package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/themizzi/storecheck/internal/database"
	"github.com/themizzi/storecheck/internal/models"
)

// ErrRunNotFound is returned when no run matches
var ErrRunNotFound = errors.New("run not found")

// RunRepository handles database operations for suite runs
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a run repository on the connection opened by
// database.Connect
func NewRunRepository() *RunRepository {
	return &RunRepository{
		db: database.DB,
	}
}

// NewRunRepositoryWithDB creates a run repository with a specific database connection
func NewRunRepositoryWithDB(db *sql.DB) *RunRepository {
	return &RunRepository{
		db: db,
	}
}

// CreateRun inserts a run without scenario results
func (r *RunRepository) CreateRun(run *models.Run) error {
	query := `
		INSERT INTO runs (id, trigger, base_url, browser, status, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(query,
		run.ID,
		run.Trigger,
		run.BaseURL,
		run.Browser,
		run.Status,
		run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	return nil
}

// UpdateRun stores the run's status, counts and scenario results in one
// transaction. Scenario results replace whatever was stored before.
func (r *RunRepository) UpdateRun(run *models.Run) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		UPDATE runs
		SET status = $1, passed = $2, failed = $3, skipped = $4, message = $5, started_at = $6, finished_at = $7
		WHERE id = $8
	`, run.Status, run.Passed, run.Failed, run.Skipped, run.Message, run.StartedAt, run.FinishedAt, run.ID)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrRunNotFound
	}

	if _, err := tx.Exec(`DELETE FROM scenario_results WHERE run_id = $1`, run.ID); err != nil {
		return fmt.Errorf("failed to clear scenario results: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO scenario_results (run_id, position, name, outcome, kind, message, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare scenario insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range run.Scenarios {
		if _, err := stmt.Exec(run.ID, i, rec.Name, rec.Outcome, rec.Kind, rec.Message, rec.Duration.Milliseconds()); err != nil {
			return fmt.Errorf("failed to store result for %s: %w", rec.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

const runColumns = `id, trigger, base_url, browser, status, passed, failed, skipped, message, started_at, finished_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*models.Run, error) {
	run := &models.Run{}
	var finished sql.NullTime
	err := row.Scan(
		&run.ID,
		&run.Trigger,
		&run.BaseURL,
		&run.Browser,
		&run.Status,
		&run.Passed,
		&run.Failed,
		&run.Skipped,
		&run.Message,
		&run.StartedAt,
		&finished,
	)
	if err != nil {
		return nil, err
	}
	if finished.Valid {
		run.FinishedAt = &finished.Time
	}
	return run, nil
}

// GetRun retrieves a run and its scenario results by id
func (r *RunRepository) GetRun(id string) (*models.Run, error) {
	run, err := scanRun(r.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	if err := r.loadScenarios(run); err != nil {
		return nil, err
	}
	return run, nil
}

// LatestRun retrieves the most recently started run with its scenario results
func (r *RunRepository) LatestRun() (*models.Run, error) {
	run, err := scanRun(r.db.QueryRow(`SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC LIMIT 1`))
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	if err := r.loadScenarios(run); err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns up to limit runs, newest first, without scenario results
func (r *RunRepository) ListRuns(limit int) ([]*models.Run, error) {
	rows, err := r.db.Query(`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

func (r *RunRepository) loadScenarios(run *models.Run) error {
	rows, err := r.db.Query(`
		SELECT name, outcome, kind, message, duration_ms
		FROM scenario_results
		WHERE run_id = $1
		ORDER BY position
	`, run.ID)
	if err != nil {
		return fmt.Errorf("failed to load scenario results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec models.ScenarioRecord
		var ms int64
		if err := rows.Scan(&rec.Name, &rec.Outcome, &rec.Kind, &rec.Message, &ms); err != nil {
			return fmt.Errorf("failed to scan scenario result: %w", err)
		}
		rec.Duration = time.Duration(ms) * time.Millisecond
		run.Scenarios = append(run.Scenarios, rec)
	}
	return rows.Err()
}
