package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/themizzi/storecheck/internal/config"
)

var DB *sql.DB

// Connect establishes a connection to the PostgreSQL database holding run
// history. getenv is usually os.Getenv.
func Connect(getenv func(string) string) error {
	pgConfig, err := config.LoadPostgresConfig(getenv)
	if err != nil {
		return fmt.Errorf("failed to load postgres config: %w", err)
	}

	DB, err = Open(pgConfig.ConnectionString())
	return err
}

// Open opens and pings a connection pool for connStr.
func Open(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Runs write a handful of rows; a small pool is enough
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
