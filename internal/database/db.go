// Package database provides the SQLite-backed implementation of store.Store.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/efreitasn/teamstocks/internal/domain"
)

// Config holds database configuration.
type Config struct {
	Path string
	// BusyTimeout is how long a connection waits on a locked database
	// before the statement fails with SQLITE_BUSY.
	BusyTimeout time.Duration
}

// DB wraps the SQLite connection pool.
type DB struct {
	conn *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	account_id      TEXT PRIMARY KEY,
	cash            TEXT NOT NULL,
	initial_deposit TEXT NOT NULL,
	created_at      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	seq           INTEGER PRIMARY KEY AUTOINCREMENT,
	trade_id      TEXT NOT NULL UNIQUE,
	account_id    TEXT NOT NULL REFERENCES accounts(account_id),
	instrument    TEXT NOT NULL,
	side          TEXT NOT NULL CHECK (side IN ('buy', 'sell')),
	quantity      INTEGER NOT NULL CHECK (quantity > 0),
	price         TEXT NOT NULL,
	balance_after TEXT NOT NULL,
	executed_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trades_account_instrument ON trades(account_id, instrument);

CREATE TABLE IF NOT EXISTS quotes (
	instrument TEXT NOT NULL,
	tick       INTEGER NOT NULL,
	price      TEXT NOT NULL,
	ts         INTEGER NOT NULL,
	PRIMARY KEY (instrument, tick)
);
CREATE INDEX IF NOT EXISTS idx_quotes_instrument_ts ON quotes(instrument, ts, tick);

CREATE TABLE IF NOT EXISTS snapshots (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id TEXT NOT NULL REFERENCES accounts(account_id),
	value      TEXT NOT NULL,
	ts         INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_account ON snapshots(account_id, ts);
`

// New opens the database at cfg.Path, creating the directory and schema if
// needed.
func New(cfg Config) (*DB, error) {
	absPath, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database path to absolute: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	conn, err := sql.Open("sqlite", buildConnectionString(absPath, cfg.BusyTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	configureConnectionPool(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn, path: absPath}
	if err := db.migrate(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return db, nil
}

// buildConnectionString enables WAL, foreign keys and a busy timeout on
// every connection. _txlock=immediate makes BeginTx take the write lock up
// front, so two account units can never both read and then write.
func buildConnectionString(path string, busy time.Duration) string {
	var b strings.Builder
	b.WriteString(path)
	b.WriteString("?_pragma=journal_mode(WAL)")
	b.WriteString("&_pragma=synchronous(FULL)")
	b.WriteString("&_pragma=foreign_keys(1)")
	fmt.Fprintf(&b, "&_pragma=busy_timeout(%d)", busy.Milliseconds())
	b.WriteString("&_txlock=immediate")
	return b.String()
}

func configureConnectionPool(conn *sql.DB) {
	conn.SetMaxOpenConns(8)
	conn.SetMaxIdleConns(4)
	conn.SetConnMaxLifetime(24 * time.Hour)
	conn.SetConnMaxIdleTime(30 * time.Minute)
}

func (db *DB) migrate(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// Ping checks the connection.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// translate maps SQLite lock contention to domain.ErrTransient, keeping the
// driver error in the chain.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if isCode(err, sqlite3.SQLITE_BUSY) || isCode(err, sqlite3.SQLITE_LOCKED) {
		return fmt.Errorf("%w: %w", domain.ErrTransient, err)
	}
	return err
}

func isCode(err error, code int) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	// Extended result codes carry the primary code in the low byte.
	return serr.Code()&0xff == code
}

func isConstraint(err error) bool {
	return isCode(err, sqlite3.SQLITE_CONSTRAINT)
}
