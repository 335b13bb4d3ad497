package database

import (
	"database/sql"
	"fmt"
	"log"
)

// Schema creates the run history tables. It is idempotent.
const Schema = `
	CREATE TABLE IF NOT EXISTS runs (
		id UUID PRIMARY KEY,
		trigger VARCHAR(16) NOT NULL,
		base_url TEXT NOT NULL,
		browser VARCHAR(16) NOT NULL,
		status VARCHAR(16) NOT NULL,
		passed INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		message TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);

	CREATE TABLE IF NOT EXISTS scenario_results (
		run_id UUID NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		outcome VARCHAR(16) NOT NULL,
		kind VARCHAR(16) NOT NULL DEFAULT '',
		message TEXT NOT NULL DEFAULT '',
		duration_ms BIGINT NOT NULL,
		PRIMARY KEY (run_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_scenario_results_name ON scenario_results(name);
`

// Migrate creates the run history tables in db.
func Migrate(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("database connection not initialized")
	}
	if _, err := db.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create run history tables: %w", err)
	}
	return nil
}

// RunMigrations migrates the connection opened by Connect
func RunMigrations() error {
	if err := Migrate(DB); err != nil {
		return err
	}
	log.Println("Database migrations completed successfully")
	return nil
}
