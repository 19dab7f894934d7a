// Package store is the Store (C1) component: a transactional SQLite-backed
// record store that is the single source of truth for inter-service state.
// Every other component reads and writes exclusively through this package;
// no worker calls another worker directly (spec §9, "cyclic coupling
// through Store only").
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/Headhunte-121/trading-bot/models"
)

// Store wraps a *sqlx.DB opened against a single SQLite file. Each worker
// process opens one Store (Open) at startup, reuses it for every cycle and
// closes it on exit (defer db.Close()).
type Store struct {
	db *sqlx.DB
}

// Open connects to the SQLite database at path, applying the WAL pragmas
// the original Python services relied on for multi-process concurrency
// (shared/db_utils.get_db_connection), then runs Migrate.
func Open(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	s := &Store{db: db}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return s, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// schema creates every table named in spec §3, with primary keys enforcing
// the uniqueness invariants the data model calls out. Signals uses a
// surrogate autoincrement id because SQLite cannot express "unique only for
// entry-type rows" as a plain constraint; the partial-uniqueness rule for
// entry signals is enforced in application code (see workers/strategy) by
// an existence check (HasSignal) made before the insert; the check and the
// insert are separate statements and do not share a transaction.
const schema = `
CREATE TABLE IF NOT EXISTS market_bars (
	symbol TEXT NOT NULL,
	timestamp DATETIME NOT NULL,
	timeframe TEXT NOT NULL,
	open REAL NOT NULL,
	high REAL NOT NULL,
	low REAL NOT NULL,
	close REAL NOT NULL,
	volume REAL NOT NULL,
	PRIMARY KEY (symbol, timestamp, timeframe)
);

CREATE TABLE IF NOT EXISTS indicators (
	symbol TEXT NOT NULL,
	timestamp DATETIME NOT NULL,
	timeframe TEXT NOT NULL,
	rsi_14 REAL,
	sma_50 REAL,
	sma_200 REAL,
	lower_bb REAL,
	vwap REAL,
	atr_14 REAL,
	volume_sma_20 REAL,
	PRIMARY KEY (symbol, timestamp, timeframe)
);

CREATE TABLE IF NOT EXISTS forecasts (
	symbol TEXT NOT NULL,
	timestamp DATETIME NOT NULL,
	current_price REAL NOT NULL,
	small_predicted_price REAL NOT NULL,
	large_predicted_price REAL NOT NULL,
	ensemble_predicted_price REAL NOT NULL,
	ensemble_pct_change REAL NOT NULL,
	PRIMARY KEY (symbol, timestamp)
);

CREATE TABLE IF NOT EXISTS signals (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol TEXT NOT NULL,
	timestamp DATETIME NOT NULL,
	signal_type TEXT NOT NULL,
	status TEXT NOT NULL,
	size REAL,
	atr REAL,
	order_id TEXT
);
CREATE INDEX IF NOT EXISTS idx_signals_status ON signals(status);
CREATE INDEX IF NOT EXISTS idx_signals_symbol_ts ON signals(symbol, timestamp);

CREATE TABLE IF NOT EXISTS executed_trades (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol TEXT NOT NULL,
	timestamp DATETIME NOT NULL,
	price REAL NOT NULL,
	qty REAL NOT NULL,
	side TEXT NOT NULL,
	signal_type TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS system_config (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS system_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp DATETIME NOT NULL,
	service_name TEXT NOT NULL,
	log_level TEXT NOT NULL,
	message TEXT NOT NULL
);
`

// Migrate creates every table if it does not already exist. Safe to call
// on every Open; schema evolution beyond additive CREATE TABLE IF NOT
// EXISTS is out of scope (spec §1, "database schema bootstrap beyond the
// tables the core reads/writes").
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

// isTransient classifies a SQLite error as transient (worth retrying) per
// spec §7's "Transient store: retry (3, backoff), then skip cycle" policy.
// Classification is a pure function of the error text, matching the
// spec §9 note that critical-vs-non-critical classification must not
// depend on message text beyond the documented substrings.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "busy") ||
		strings.Contains(msg, "connection refused")
}

// withRetry runs fn up to 3 attempts with exponential backoff starting at
// 100ms, retrying only on transient errors.
func withRetry(fn func() error) error {
	var err error
	backoff := 100 * time.Millisecond
	for attempt := 1; attempt <= 3; attempt++ {
		err = fn()
		if err == nil || !isTransient(err) {
			return err
		}
		if attempt < 3 {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	return err
}

// Read executes query and scans every matching row into dest (a pointer to
// a slice), retrying transient failures per the store's error policy.
func (s *Store) Read(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return withRetry(func() error {
		return s.db.SelectContext(ctx, dest, query, args...)
	})
}

// ReadOne scans a single matching row into dest (a pointer to a struct).
// Returns sql.ErrNoRows if nothing matched — callers treat that as "no
// data available yet", not a transient failure.
func (s *Store) ReadOne(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return withRetry(func() error {
		return s.db.GetContext(ctx, dest, query, args...)
	})
}

// Exec runs a single statement, retrying transient failures.
func (s *Store) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	var res sql.Result
	err := withRetry(func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	})
	return res, err
}

// Transaction runs fn inside a single SQLite transaction, committing on
// success and rolling back on any error fn returns — the unit every
// worker cycle uses to commit its batch atomically (spec §5).
func (s *Store) Transaction(ctx context.Context, fn func(*sqlx.Tx) error) error {
	return withRetry(func() error {
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		if err := fn(tx); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error().Err(rbErr).Msg("rollback failed after transaction error")
			}
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
		return nil
	})
}

// LogEvent writes a SystemLog row. It is called for a subset of events
// only: each worker's startup line, per-symbol Indicator Engine failures and
// the Executor's exhausted stop attachment; every other event goes to
// zerolog alone. A DB row survives process log rotation, the zerolog line
// is for real-time operator visibility.
func (s *Store) LogEvent(ctx context.Context, service string, level models.LogLevel, message string) {
	_, err := s.Exec(ctx,
		`INSERT INTO system_logs (timestamp, service_name, log_level, message) VALUES (?, ?, ?, ?)`,
		time.Now().UTC(), service, level, message,
	)
	if err != nil {
		log.Error().Err(err).Str("service", service).Msg("failed to persist system log event")
	}
}

// GetSystemConfig reads a single SystemConfig value, returning ok=false if
// the key has never been set (the caller applies its own default).
func (s *Store) GetSystemConfig(ctx context.Context, key string) (value string, ok bool, err error) {
	var row models.SystemConfig
	err = s.ReadOne(ctx, &row, `SELECT key, value FROM system_config WHERE key = ?`, key)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return row.Value, true, nil
}

// SetSystemConfig upserts a SystemConfig value.
func (s *Store) SetSystemConfig(ctx context.Context, key, value string) error {
	_, err := s.Exec(ctx,
		`INSERT INTO system_config (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}
