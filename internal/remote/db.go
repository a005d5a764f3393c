// Package remote provides the hosted per-user store for progress and
// experiment data.
//
// The store is a libSQL/SQLite database reached through database/sql.
// Two modes are supported:
//
//   - Hosted mode: a libsql:// URL pointing at a Turso-hosted database.
//   - Embedded mode: a local file path, using SQLite with WAL. This is
//     the self-hosted/dev configuration and is what the tests run
//     against.
//
// Rows are always scoped by the authenticated user's id. Progress is one
// row per user holding the whole phase collection as a JSON blob with
// last-write-wins semantics. Experiments are one row per experiment.
package remote

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"database/sql"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// DB wraps the database connection with store-specific functionality.
type DB struct {
	conn *sql.DB
	addr string
}

// Open connects to the store at addr.
//
// A libsql:// (or https://) addr selects the hosted libSQL driver; any
// other addr is treated as a local SQLite file path and created on
// demand. The caller MUST call Close() when done.
func Open(addr string) (*DB, error) {
	var conn *sql.DB
	var err error

	if strings.HasPrefix(addr, "libsql://") || strings.HasPrefix(addr, "https://") {
		conn, err = sql.Open("libsql", addr)
		if err != nil {
			return nil, fmt.Errorf("failed to open hosted database: %w", err)
		}
	} else {
		dir := filepath.Dir(addr)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		conn, err = sql.Open("sqlite3", fmt.Sprintf("file:%s", addr))
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{conn: conn, addr: addr}

	if !strings.HasPrefix(addr, "libsql://") && !strings.HasPrefix(addr, "https://") {
		// Embedded mode: WAL for concurrent reads, busy timeout for the
		// daemon and CLI sharing one file.
		if _, err := db.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
		if _, err := db.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set busy timeout: %w", err)
		}
	}

	return db, nil
}

// RawDB returns the underlying sql.DB connection.
// The identity provider shares this connection for its own tables.
func (db *DB) RawDB() *sql.DB {
	return db.conn
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	db.conn = nil
	return nil
}

// Ping checks the connection. The connectivity monitor uses this as its
// reachability probe.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// InitSchema creates the store schema if it doesn't exist.
// This is idempotent - safe to call multiple times.
func (db *DB) InitSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS user_progress (
		user_id TEXT PRIMARY KEY,
		phases TEXT NOT NULL,  -- JSON blob, whole phase collection
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS user_experiments (
		id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		date TEXT NOT NULL,
		model_type TEXT NOT NULL,
		avg_fps REAL NOT NULL,
		avg_inference_time REAL NOT NULL,
		avg_cpu_temp REAL NOT NULL,
		fitness REAL,
		parameters TEXT NOT NULL,  -- JSON
		notes TEXT,
		created_at INTEGER NOT NULL,  -- unix nanoseconds, sorts numerically
		updated_at TEXT NOT NULL,
		PRIMARY KEY (user_id, id)
	);

	CREATE INDEX IF NOT EXISTS idx_experiments_user ON user_experiments(user_id);
	CREATE INDEX IF NOT EXISTS idx_experiments_created ON user_experiments(user_id, created_at);
	`

	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}
