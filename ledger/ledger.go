package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// RunSummary is one finished game as stored in the ledger.
type RunSummary struct {
	ID          int64
	Seed        int64
	Level       string
	Behavior    string
	Ticks       int
	Outcome     string
	Reason      string
	Stars       int
	StarsTotal  int
	Replans     int
	NoPathTicks int
	Expanded    int
	EscalatedAt int
	RecordedAt  time.Time
}

// Totals aggregates every run for one behavior.
type Totals struct {
	Behavior    string
	Runs        int
	Wins        int
	AvgTicks    float64
	AvgReplans  float64
	AvgExpanded float64
	Escalations int
}

type Ledger struct {
	db *sql.DB
}

// Open opens or creates a ledger at path. ":memory:" keeps it in memory.
func Open(path string) (*Ledger, error) {
	if path == "" {
		return nil, fmt.Errorf("ledger: empty db path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Ledger{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("ledger: %s: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			seed INTEGER NOT NULL,
			level TEXT NOT NULL,
			behavior TEXT NOT NULL,
			ticks INTEGER NOT NULL,
			outcome TEXT NOT NULL,
			reason TEXT NOT NULL,
			stars INTEGER NOT NULL,
			stars_total INTEGER NOT NULL,
			replans INTEGER NOT NULL,
			no_path_ticks INTEGER NOT NULL,
			expanded INTEGER NOT NULL,
			escalated_at INTEGER NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS runs_behavior_idx ON runs(behavior);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("ledger: schema: %w", err)
		}
	}
	return nil
}

// Record stores r and returns its row id. A zero RecordedAt is set to now.
func (l *Ledger) Record(ctx context.Context, r RunSummary) (int64, error) {
	if r.RecordedAt.IsZero() {
		r.RecordedAt = time.Now()
	}
	res, err := l.db.ExecContext(ctx,
		`INSERT INTO runs(seed, level, behavior, ticks, outcome, reason, stars, stars_total, replans, no_path_ticks, expanded, escalated_at, recorded_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Seed, r.Level, r.Behavior, r.Ticks, r.Outcome, r.Reason, r.Stars, r.StarsTotal,
		r.Replans, r.NoPathTicks, r.Expanded, r.EscalatedAt, r.RecordedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("ledger: record: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit runs, newest first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, seed, level, behavior, ticks, outcome, reason, stars, stars_total, replans, no_path_ticks, expanded, escalated_at, recorded_at
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		var at string
		if err := rows.Scan(&r.ID, &r.Seed, &r.Level, &r.Behavior, &r.Ticks, &r.Outcome, &r.Reason,
			&r.Stars, &r.StarsTotal, &r.Replans, &r.NoPathTicks, &r.Expanded, &r.EscalatedAt, &at); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339Nano, at); err == nil {
			r.RecordedAt = t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Totals groups every run by behavior, sorted by behavior name.
func (l *Ledger) Totals(ctx context.Context) ([]Totals, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT behavior,
		        COUNT(*),
		        SUM(CASE WHEN outcome = 'won' THEN 1 ELSE 0 END),
		        AVG(ticks),
		        AVG(replans),
		        AVG(expanded),
		        SUM(CASE WHEN escalated_at >= 0 THEN 1 ELSE 0 END)
		 FROM runs GROUP BY behavior ORDER BY behavior`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Totals
	for rows.Next() {
		var t Totals
		if err := rows.Scan(&t.Behavior, &t.Runs, &t.Wins, &t.AvgTicks, &t.AvgReplans, &t.AvgExpanded, &t.Escalations); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}
