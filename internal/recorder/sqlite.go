package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// pricePlaces is the precision prices are journaled with.
const pricePlaces = 6

// SQLiteRecorder persists runs to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger zerolog.Logger) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Debug().Str("path", dbPath).Msg("SQLite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			method      TEXT NOT NULL,
			kind        TEXT,
			spot        REAL,
			strike      REAL,
			expiry      REAL,
			rate        REAL,
			sigma       REAL,
			num_dt      INTEGER,
			num_paths   INTEGER,
			seed        INTEGER,
			price       TEXT NOT NULL,
			std_err     REAL,
			duration_ms INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON runs(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:30], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(run *Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := run.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	price := decimal.NewFromFloat(run.Price).Round(pricePlaces)

	_, err := r.db.Exec(`INSERT INTO runs
		(timestamp, method, kind, spot, strike, expiry, rate, sigma,
		 num_dt, num_paths, seed, price, std_err, duration_ms)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		ts.UnixMilli(), run.Method, run.Kind,
		run.Spot, run.Strike, run.Expiry, run.Rate, run.Sigma,
		run.NumDt, run.NumPaths, int64(run.Seed),
		price.String(), run.StdErr, run.Duration.Milliseconds(),
	)
	return err
}

// Recent returns up to limit runs, newest first.
func (r *SQLiteRecorder) Recent(limit int) ([]Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT timestamp, method, kind, spot, strike, expiry, rate, sigma,
		num_dt, num_paths, seed, price, std_err, duration_ms
		FROM runs ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run      Run
			ts, dur  int64
			seed     int64
			priceStr string
		)
		if err := rows.Scan(&ts, &run.Method, &run.Kind, &run.Spot, &run.Strike, &run.Expiry,
			&run.Rate, &run.Sigma, &run.NumDt, &run.NumPaths, &seed, &priceStr, &run.StdErr, &dur); err != nil {
			return nil, err
		}
		price, err := decimal.NewFromString(priceStr)
		if err != nil {
			return nil, fmt.Errorf("parse price %q: %w", priceStr, err)
		}
		run.Timestamp = time.UnixMilli(ts)
		run.Seed = uint64(seed)
		run.Price = price.InexactFloat64()
		run.Duration = time.Duration(dur) * time.Millisecond
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Debug().Msg("Closing SQLite recorder")
	return r.db.Close()
}
