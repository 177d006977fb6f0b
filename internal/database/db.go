package database

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrNotFound is returned when a document does not exist
var ErrNotFound = errors.New("document not found")

var placeholderRegex = regexp.MustCompile(`\$\d+`)

// DB represents the database connection
type DB struct {
	conn   *sql.DB
	driver string
}

// New opens and pings a database.
// PostgreSQL format: "host=... user=... password=... dbname=... port=..."
// SQLite format: a file path, or ":memory:"
func New(driver, dsn string) (*DB, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == DriverSQLite {
		// one writer at a time; also keeps :memory: on a single connection
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{conn: conn, driver: driver}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Driver returns the driver name the database was opened with
func (db *DB) Driver() string {
	return db.driver
}

// rebind rewrites $N placeholders for drivers that only accept ?.
// Queries must use each placeholder once, in order.
func (db *DB) rebind(query string) string {
	if db.driver == DriverPostgres {
		return query
	}
	return placeholderRegex.ReplaceAllString(query, "?")
}
