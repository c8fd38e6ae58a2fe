package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Outcome values stored in the outcome column
const (
	OutcomeOK    = "OK"
	OutcomeError = "ERROR"
)

// DB manages the SQLite database of tree operation history
type DB struct {
	db *sql.DB
}

// Entry represents one top-level tree operation
type Entry struct {
	ID           int64
	OpID         string
	Timestamp    time.Time
	Operation    string
	Path         string
	Target       string
	Outcome      string
	Count        int
	Bytes        int64
	DurationMs   int64
	ErrorMessage string
}

// Open creates a database connection and initializes the schema
func Open(dbPath string) (*DB, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	// _loc=auto enables automatic DATETIME parsing; the busy timeout lets concurrent writers queue
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_loc=auto&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	// Executing a query creates the file; Ping does not
	if _, err = db.Exec("SELECT 1"); err != nil {
		return nil, fmt.Errorf("failed to initialize database (check permissions on %s): %w", dbPath, err)
	}

	// Enable WAL mode for better concurrency (multiple readers, one writer)
	if _, err = db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if _, err = db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	h := &DB{db: db}
	if err = h.initSchema(); err != nil {
		return nil, err
	}
	return h, nil
}

// initSchema creates tables and indexes if they don't exist
func (h *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS operations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		op_id TEXT NOT NULL UNIQUE,
		timestamp DATETIME NOT NULL,
		operation TEXT NOT NULL,
		path TEXT NOT NULL,
		target TEXT,
		outcome TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		bytes INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		error_message TEXT,

		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_timestamp ON operations(timestamp);
	CREATE INDEX IF NOT EXISTS idx_operation ON operations(operation);
	CREATE INDEX IF NOT EXISTS idx_outcome ON operations(outcome);
	CREATE INDEX IF NOT EXISTS idx_path ON operations(path);

	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`

	_, err := h.db.Exec(schema)
	return err
}

// Record inserts an operation. Missing op ids, timestamps and outcomes are filled in.
func (h *DB) Record(e Entry) error {
	if e.OpID == "" {
		e.OpID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if e.Outcome == "" {
		e.Outcome = OutcomeOK
		if e.ErrorMessage != "" {
			e.Outcome = OutcomeError
		}
	}

	query := `
	INSERT INTO operations (
		op_id, timestamp, operation, path, target, outcome,
		count, bytes, duration_ms, error_message
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := h.db.Exec(
		query,
		e.OpID,
		e.Timestamp,
		e.Operation,
		e.Path,
		e.Target,
		e.Outcome,
		e.Count,
		e.Bytes,
		e.DurationMs,
		e.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("record %s: %w", e.Operation, err)
	}
	return nil
}

// Close closes the database connection
func (h *DB) Close() error {
	return h.db.Close()
}

// Vacuum optimizes the database (run periodically)
func (h *DB) Vacuum() error {
	_, err := h.db.Exec("VACUUM")
	return err
}

// DeleteOlderThan removes records older than the given age
func (h *DB) DeleteOlderThan(age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age)

	result, err := h.db.Exec(`DELETE FROM operations WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
