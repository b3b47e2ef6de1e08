// Package journal persists control events to a local SQLite database for
// offline diagnostics. The journal is append-only and nothing in the daemon
// reads it back at startup, so control behavior never depends on a previous
// run.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const sqliteDriverName = "sqlite"

// sqliteTimeLayout is the SQLite TIMESTAMP format "YYYY-MM-DD HH:MM:SS".
const sqliteTimeLayout = "2006-01-02 15:04:05"

const schemaFanEvents = `
CREATE TABLE IF NOT EXISTS fan_events (
    id TEXT PRIMARY KEY,
    occurred_at TIMESTAMP NOT NULL,
    type TEXT NOT NULL,
    temp_c REAL NOT NULL,
    detail TEXT
);
`

const schemaFanEventsIndex = `
CREATE INDEX IF NOT EXISTS fan_events_occurred_at ON fan_events (occurred_at);
`

// Entry is one journaled control event.
type Entry struct {
	ID         string
	OccurredAt time.Time
	Type       string
	TempC      float64
	Detail     string
}

// Journal is a SQLite-backed append-only event log.
type Journal struct {
	db *sql.DB
}

// New wraps an existing database handle. The schema must already exist.
func New(db *sql.DB) *Journal { return &Journal{db: db} }

// Open opens or creates the journal database at path and ensures the schema.
func Open(path string) (*Journal, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// The loop is the journal's only writer; one connection is enough.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA journal_mode=WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA busy_timeout=5000: %w", err)
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Surface an unusable file here, not on the first Append.
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &Journal{db: db}, nil
}

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		// No-op once committed.
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaFanEvents,
		schemaFanEventsIndex,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}

// Append inserts one event. If ID or OccurredAt are empty, they're set.
func (j *Journal) Append(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	} else {
		e.OccurredAt = e.OccurredAt.UTC()
	}

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO fan_events (id, occurred_at, type, temp_c, detail) VALUES (?, ?, ?, ?, ?)`,
		e.ID,
		e.OccurredAt.Format(sqliteTimeLayout),
		e.Type,
		e.TempC,
		e.Detail,
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// Recent returns up to n entries, newest first. Insertion order breaks ties
// within the same second.
func (j *Journal) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, occurred_at, type, temp_c, detail FROM fan_events ORDER BY occurred_at DESC, rowid DESC LIMIT ?`,
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	out := make([]Entry, 0, n)
	for rows.Next() {
		var e Entry
		var detail sql.NullString
		if err := rows.Scan(&e.ID, &e.OccurredAt, &e.Type, &e.TempC, &detail); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.OccurredAt = e.OccurredAt.UTC()
		e.Detail = detail.String
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}
