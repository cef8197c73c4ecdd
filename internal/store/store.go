// Package store persists finished runs and their event sequences in a SQL database.
// Both sqlite3 and mysql are supported; a DSN names the driver before the first colon,
// as in "sqlite3:runs.db" or "mysql:user:pass@tcp(localhost:3306)/kidcode".
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"kidcode/internal/engine"
	"kidcode/internal/event"
	"kidcode/internal/trace"
	"log/slog"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

var ErrNotFound = errors.New("store: run not found")

// timeLayout is fixed width so timestamps sort correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var schemas = map[string][]string{
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS runs (
			id          TEXT PRIMARY KEY,
			source      TEXT NOT NULL,
			status      TEXT NOT NULL,
			started_at  TEXT NOT NULL,
			finished_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			run_id  TEXT NOT NULL,
			seq     INTEGER NOT NULL,
			kind    TEXT NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (run_id, seq)
		)`,
	},
	DriverMySQL: {
		`CREATE TABLE IF NOT EXISTS runs (
			id          VARCHAR(36) PRIMARY KEY,
			source      MEDIUMTEXT NOT NULL,
			status      VARCHAR(32) NOT NULL,
			started_at  VARCHAR(40) NOT NULL,
			finished_at VARCHAR(40) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			run_id  VARCHAR(36) NOT NULL,
			seq     INT NOT NULL,
			kind    VARCHAR(32) NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (run_id, seq)
		)`,
	},
}

// Run is a stored run with its events in their original order.
type Run struct {
	ID         string
	Source     string
	Status     engine.Status
	StartedAt  time.Time
	FinishedAt time.Time
	Events     []event.Event
}

type RunSummary struct {
	ID         string
	Status     engine.Status
	StartedAt  time.Time
	EventCount int
}

type Store struct {
	db     *sql.DB
	driver string
	logger *slog.Logger
}

// ParseDSN splits "driver:source" into its parts.
func ParseDSN(dsn string) (driver, source string, err error) {
	driver, source, ok := strings.Cut(dsn, ":")
	if !ok || source == "" {
		return "", "", fmt.Errorf("store: invalid dsn %q, want driver:source", dsn)
	}
	switch driver {
	case DriverSQLite, DriverMySQL:
		return driver, source, nil
	}
	return "", "", fmt.Errorf("store: unsupported driver %q (want %s or %s)", driver, DriverSQLite, DriverMySQL)
}

// Open connects to the database named by dsn and creates the tables if needed.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	driver, source, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	switch driver {
	case DriverMySQL:
		cfg, err := mysql.ParseDSN(source)
		if err != nil {
			return nil, fmt.Errorf("store: parse mysql dsn: %w", err)
		}
		connector, err := mysql.NewConnector(cfg)
		if err != nil {
			return nil, fmt.Errorf("store: mysql connector: %w", err)
		}
		db = sql.OpenDB(connector)
	default:
		db, err = sql.Open(driver, source)
		if err != nil {
			slog.Error("failed to open sqlite connection", slog.Any("error", err.Error()))
			return nil, fmt.Errorf("store: open %s: %w", driver, err)
		}
		// sqlite allows one writer at a time
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, driver: driver, logger: logger}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("run store opened", slog.String("driver", driver))
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schemas[s.driver] {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: create schema: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun stores a run and all of its events in one transaction.
func (s *Store) SaveRun(ctx context.Context, result *engine.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, source, status, started_at, finished_at) VALUES (?, ?, ?, ?, ?)`,
		result.RunID, result.Source, string(result.Status),
		formatTime(result.StartedAt), formatTime(result.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("store: insert run %s: %w", result.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO events (run_id, seq, kind, payload) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare event insert: %w", err)
	}
	defer stmt.Close()

	for i, ev := range result.Events {
		payload, err := trace.MarshalEvent(ev)
		if err != nil {
			return fmt.Errorf("store: encode event %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, result.RunID, i, string(ev.Kind()), payload); err != nil {
			return fmt.Errorf("store: insert event %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	s.logger.Info("run saved",
		slog.String("run-id", result.RunID),
		slog.Int("events", len(result.Events)),
	)
	return nil
}

func (s *Store) LoadRun(ctx context.Context, id string) (*Run, error) {
	var run Run
	var status, startedAt, finishedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source, status, started_at, finished_at FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.Source, &status, &startedAt, &finishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: load run %s: %w", id, err)
	}
	run.Status = engine.Status(status)
	if run.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if run.FinishedAt, err = parseTime(finishedAt); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM events WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("store: load events for %s: %w", id, err)
	}
	defer rows.Close()

	run.Events = []event.Event{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("store: scan event: %w", err)
		}
		ev, err := trace.UnmarshalEvent(payload)
		if err != nil {
			return nil, err
		}
		run.Events = append(run.Events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: read events: %w", err)
	}
	return &run, nil
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.status, r.started_at, COUNT(e.seq)
		FROM runs r LEFT JOIN events e ON e.run_id = r.id
		GROUP BY r.id, r.status, r.started_at
		ORDER BY r.started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var sum RunSummary
		var status, startedAt string
		if err := rows.Scan(&sum.ID, &status, &startedAt, &sum.EventCount); err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		sum.Status = engine.Status(status)
		if sum.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, err
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("store: bad timestamp %q: %w", s, err)
	}
	return t, nil
}
