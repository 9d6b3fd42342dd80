// Package sqlitedb stores alert notification state in a local SQLite file.
package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/mamadbah2/dairy/internal/service/notifications"
)

var _ notifications.StateStore = (*StateStore)(nil)

// timestampLayout is fixed width so stored timestamps compare correctly as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// StateStore keeps one row per alert id.
type StateStore struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the database at path and ensures the schema exists.
// ":memory:" opens a private in-memory database.
func Open(path string) (*StateStore, error) {
	if path == "" {
		path = "dairy.db"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serialises writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS alert_state (
		alert_id TEXT PRIMARY KEY,
		read INTEGER NOT NULL DEFAULT 0,
		read_at TEXT,
		snooze_until TEXT,
		updated_at TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create alert_state table: %w", err)
	}
	return &StateStore{db: db, now: time.Now}, nil
}

// WithClock overrides the clock stamping updated_at.
func (s *StateStore) WithClock(now func() time.Time) *StateStore {
	if now != nil {
		s.now = now
	}
	return s
}

// Close releases the database handle.
func (s *StateStore) Close() error {
	return s.db.Close()
}

// Get implements notifications.StateStore.
func (s *StateStore) Get(ctx context.Context, id string) (notifications.State, bool, error) {
	var (
		read        bool
		readAt      sql.NullString
		snoozeUntil sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT read, read_at, snooze_until FROM alert_state WHERE alert_id = ?`, id,
	).Scan(&read, &readAt, &snoozeUntil)
	if errors.Is(err, sql.ErrNoRows) {
		return notifications.State{}, false, nil
	}
	if err != nil {
		return notifications.State{}, false, fmt.Errorf("select alert state: %w", err)
	}

	state := notifications.State{Read: read}
	if state.ReadAt, err = parseTime(readAt); err != nil {
		return notifications.State{}, false, fmt.Errorf("parse read_at for %s: %w", id, err)
	}
	if state.SnoozeUntil, err = parseTime(snoozeUntil); err != nil {
		return notifications.State{}, false, fmt.Errorf("parse snooze_until for %s: %w", id, err)
	}
	return state, true, nil
}

// Put implements notifications.StateStore.
func (s *StateStore) Put(ctx context.Context, id string, state notifications.State) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO alert_state (alert_id, read, read_at, snooze_until, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(alert_id) DO UPDATE SET
			read = excluded.read,
			read_at = excluded.read_at,
			snooze_until = excluded.snooze_until,
			updated_at = excluded.updated_at`,
		id, state.Read, formatTime(state.ReadAt), formatTime(state.SnoozeUntil), s.now().UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("upsert alert state: %w", err)
	}
	return nil
}

// Prune removes rows not touched since before.
func (s *StateStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM alert_state WHERE updated_at < ?`, before.UTC().Format(timestampLayout))
	if err != nil {
		return 0, fmt.Errorf("prune alert state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune alert state: %w", err)
	}
	return n, nil
}

func formatTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(timestampLayout), Valid: true}
}

func parseTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
