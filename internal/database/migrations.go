package database

import (
	"fmt"
	"log/slog"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// schemaVersionSQL is applied before any migration so the current version
// can be read
const schemaVersionSQL = `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
`

// migrations are written in the SQL subset shared by PostgreSQL and SQLite
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_documents_table",
		SQL: `
			CREATE TABLE IF NOT EXISTS documents (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL DEFAULT '',
				source_url TEXT NOT NULL DEFAULT '',
				body TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at);
		`,
	},
	{
		Version: 2,
		Name:    "add_audit_status_columns",
		SQL: `
			ALTER TABLE documents ADD COLUMN status TEXT NOT NULL DEFAULT 'queued';
			ALTER TABLE documents ADD COLUMN audited_at TIMESTAMP;
			CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
		`,
	},
}

// Migrate runs all pending migrations, each in its own transaction
func (db *DB) Migrate() error {
	if _, err := db.conn.Exec(schemaVersionSQL); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	currentVersion, err := db.SchemaVersion()
	if err != nil {
		return err
	}
	slog.Info("checking schema version", "driver", db.driver, "version", currentVersion)

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		slog.Info("applying migration", "version", migration.Version, "name", migration.Name)
		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if _, err := tx.Exec(migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to run migration %d (%s): %w", migration.Version, migration.Name, err)
		}

		if _, err := tx.Exec(db.rebind("INSERT INTO schema_version (version) VALUES ($1)"), migration.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	slog.Info("all migrations complete", "version", migrations[len(migrations)-1].Version)
	return nil
}

// SchemaVersion returns the highest applied migration, 0 when none
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}
	return version, nil
}
