package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/lib/pq"
)

// setupSQLiteDB opens a migrated SQLite database in a temp directory
func setupSQLiteDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(DriverSQLite, filepath.Join(t.TempDir(), "citeaudit.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

// setupPostgresDB creates a throwaway PostgreSQL database and returns its
// connection string. Tests skip when no server is reachable; set TEST_DB_*
// to point them at one.
func setupPostgresDB(t *testing.T, testName string) string {
	t.Helper()

	host := getEnvOrDefault("TEST_DB_HOST", "localhost")
	port := getEnvOrDefault("TEST_DB_PORT", "5432")
	user := getEnvOrDefault("TEST_DB_USER", "postgres")
	password := getEnvOrDefault("TEST_DB_PASSWORD", "postgres")
	dbName := fmt.Sprintf("test_%s_%d", testName, time.Now().UnixNano())

	adminConnStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=postgres sslmode=disable connect_timeout=2",
		host, port, user, password)

	adminDB, err := sql.Open(DriverPostgres, adminConnStr)
	if err != nil {
		t.Skipf("Could not connect to PostgreSQL for testing: %v", err)
	}
	defer adminDB.Close()

	if err := adminDB.Ping(); err != nil {
		t.Skipf("Could not ping PostgreSQL for testing: %v", err)
	}

	if _, err := adminDB.Exec(fmt.Sprintf("CREATE DATABASE %s", dbName)); err != nil {
		t.Skipf("Could not create test database: %v", err)
	}

	t.Cleanup(func() {
		adminDB, err := sql.Open(DriverPostgres, adminConnStr)
		if err != nil {
			return
		}
		defer adminDB.Close()

		adminDB.Exec(fmt.Sprintf("SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = '%s'", dbName))
		adminDB.Exec(fmt.Sprintf("DROP DATABASE IF EXISTS %s", dbName))
	})

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbName)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
