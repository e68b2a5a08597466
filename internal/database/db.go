// Package database stores the history of report runs in SQLite so rule
// percentages can be compared across runs. Only the report and history
// commands use it; the evaluation engine never reads or writes history.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/joshsymonds/appquality/pkg/logger"
	"github.com/joshsymonds/appquality/pkg/pathutil"
)

// DB is a run history database.
type DB struct {
	conn        *sql.DB
	logger      logger.Logger
	path        string
	mu          sync.RWMutex
	maxConns    int
	busyTimeout time.Duration
}

// Option configures a DB.
type Option func(*DB)

// WithMaxConnections sets the maximum number of open connections.
func WithMaxConnections(n int) Option {
	return func(db *DB) {
		db.maxConns = n
	}
}

// WithBusyTimeout sets how long SQLite waits on a locked database.
func WithBusyTimeout(timeout time.Duration) Option {
	return func(db *DB) {
		db.busyTimeout = timeout
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(db *DB) {
		db.logger = log
	}
}

// New opens the history database at path, creating it if needed, and applies
// pending migrations.
func New(ctx context.Context, path string, opts ...Option) (*DB, error) {
	db := &DB{
		logger:      logger.GetGlobalLogger(),
		path:        path,
		maxConns:    4,
		busyTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(db)
	}

	if path != ":memory:" {
		validPath, err := pathutil.ValidateOutputDir(path)
		if err != nil {
			return nil, fmt.Errorf("invalid history database path: %w", err)
		}
		db.path = validPath
		if err := os.MkdirAll(filepath.Dir(validPath), 0750); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	sep := "?"
	if strings.Contains(db.path, "?") {
		sep = "&"
	}
	dsn := fmt.Sprintf("%s%s_busy_timeout=%d&_foreign_keys=on", db.path, sep, db.busyTimeout.Milliseconds())

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	conn.SetMaxOpenConns(db.maxConns)
	conn.SetMaxIdleConns(db.maxConns)
	if db.path == ":memory:" {
		// every connection to :memory: is a separate database
		conn.SetMaxOpenConns(1)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("setting %s: %w", pragma, err)
		}
	}
	db.conn = conn

	if err := db.Migrate(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	db.logger.Debug("Opened history database", "path", db.path)
	return db, nil
}

// Close closes the database.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.conn == nil {
		return nil
	}
	err := db.conn.Close()
	db.conn = nil
	return err
}

// Path returns the resolved database path.
func (db *DB) Path() string {
	return db.path
}

// InTransaction runs fn in a transaction, rolling back when fn fails.
func (db *DB) InTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rolling back transaction: %w (original error: %v)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
