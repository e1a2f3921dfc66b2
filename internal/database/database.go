package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"media-gallery/internal/logging"
	"media-gallery/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// Database manages the index store: items, their full-text shadow rows, and
// per-user view history.
type Database struct {
	db      *sql.DB
	dbPath  string
	mu      sync.RWMutex
	txStart time.Time // Track transaction start time for metrics
}

// New opens (or creates) the index store at dbPath. The parent directory
// must already exist and be writable.
func New(ctx context.Context, dbPath string) (*Database, error) {
	logging.Info("Index store path: %s", dbPath)

	// busy_timeout helps prevent "database is locked" errors
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_temp_store=MEMORY&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{
		db:     db,
		dbPath: dbPath,
	}

	if err := d.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.Info("Index store initialized at %s", dbPath)
	return d, nil
}

func (d *Database) initialize(ctx context.Context) error {
	schema := `
	-- Canonical catalog
	CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		path TEXT NOT NULL UNIQUE,
		type TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_items_type ON items(type);

	-- Full-text shadow table. Rows share the item rowid and are maintained
	-- explicitly in the same transaction as items, never by trigger.
	CREATE VIRTUAL TABLE IF NOT EXISTS items_fts USING fts5(name);

	-- Per-user viewed timestamps, latest write wins
	CREATE TABLE IF NOT EXISTS view_history (
		user_id TEXT NOT NULL,
		item_path TEXT NOT NULL,
		viewed_at INTEGER NOT NULL,
		PRIMARY KEY (user_id, item_path)
	);

	CREATE INDEX IF NOT EXISTS idx_view_history_user ON view_history(user_id);
	`

	_, err := d.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// Begin starts a transaction. The caller is responsible for calling End
// when done.
func (d *Database) Begin() (*sql.Tx, error) {
	d.mu.Lock()
	txStart := time.Now()

	// Background context - transaction lifetime is managed by End, not a
	// timeout; a deferred cancel here would kill the transaction on return.
	tx, err := d.db.BeginTx(context.Background(), nil)
	d.mu.Unlock()

	if err != nil {
		return nil, err
	}

	d.txStart = txStart
	return tx, nil
}

// End commits the transaction when err is nil, otherwise rolls it back.
// A rollback failure never masks the original error; both are joined.
func (d *Database) End(tx *sql.Tx, err error) error {
	duration := time.Since(d.txStart).Seconds()

	if err != nil {
		metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(duration)
		if rbErr := tx.Rollback(); rbErr != nil {
			logging.Error("rollback failed: %v (original error: %v)", rbErr, err)
			return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
		}
		return err
	}

	metrics.DBTransactionDuration.WithLabelValues("commit").Observe(duration)
	return tx.Commit()
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// UpdateDBMetrics updates database connection metrics
func (d *Database) UpdateDBMetrics() {
	stats := d.db.Stats()
	metrics.DBConnectionsOpen.Set(float64(stats.OpenConnections))
}
