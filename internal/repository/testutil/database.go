package testutil

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/themizzi/storecheck/internal/config"
	"github.com/themizzi/storecheck/internal/database"
)

// TestDatabase is a migrated run history living in its own schema
type TestDatabase struct {
	DB         *sql.DB
	SchemaName string
	adminDB    *sql.DB
}

var testDefaults = map[string]string{
	"POSTGRES_USER":     "postgres",
	"POSTGRES_PASSWORD": "postgres",
	"POSTGRES_DB":       "postgres",
	"POSTGRES_HOSTNAME": "localhost",
}

// testEnv reads the environment, falling back to a local throwaway Postgres
func testEnv(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return testDefaults[key]
}

// SetupTestDatabase creates a fresh schema, points a pool at it and runs the
// migrations there. Each test sees only its own runs.
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()

	pgConfig, err := config.LoadPostgresConfig(testEnv)
	if err != nil {
		t.Fatalf("Failed to load postgres config: %v", err)
	}
	connStr := pgConfig.ConnectionString()

	adminDB, err := database.Open(connStr)
	if err != nil {
		t.Fatalf("Failed to connect to postgres: %v", err)
	}

	td := &TestDatabase{
		SchemaName: "storecheck_test_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		adminDB:    adminDB,
	}
	if _, err := adminDB.Exec(fmt.Sprintf("CREATE SCHEMA %s", td.SchemaName)); err != nil {
		adminDB.Close()
		t.Fatalf("Failed to create schema %s: %v", td.SchemaName, err)
	}

	td.DB, err = database.Open(fmt.Sprintf("%s search_path=%s", connStr, td.SchemaName))
	if err != nil {
		td.Teardown(t)
		t.Fatalf("Failed to connect to schema %s: %v", td.SchemaName, err)
	}
	td.DB.SetMaxOpenConns(5)
	td.DB.SetMaxIdleConns(2)
	td.DB.SetConnMaxLifetime(time.Minute)

	if err := database.Migrate(td.DB); err != nil {
		td.Teardown(t)
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return td
}

// Teardown closes the pool and drops the schema with everything in it
func (td *TestDatabase) Teardown(t *testing.T) {
	t.Helper()

	if td.DB != nil {
		td.DB.Close()
		td.DB = nil
	}
	if td.adminDB == nil {
		return
	}
	if _, err := td.adminDB.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", td.SchemaName)); err != nil {
		t.Logf("Warning: failed to drop schema %s: %v", td.SchemaName, err)
	}
	td.adminDB.Close()
	td.adminDB = nil
}
