package reminder

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jwulff/chime/internal/audio"
	"github.com/jwulff/chime/internal/clock"
)

// Store holds reminders in an in-memory SQLite database. Nothing survives
// the process.
type Store struct {
	db *sql.DB
}

const schema = `
	CREATE TABLE reminders (
		seq       INTEGER PRIMARY KEY AUTOINCREMENT,
		id        TEXT NOT NULL UNIQUE,
		date      TEXT NOT NULL,
		time      TEXT NOT NULL,
		note      TEXT NOT NULL DEFAULT '',
		assetId   TEXT NOT NULL,
		mimeType  TEXT NOT NULL,
		audio     BLOB NOT NULL,
		createdAt REAL NOT NULL
	);
	CREATE INDEX idx_reminders_date ON reminders(date, seq);
`

// OpenMemory creates an empty in-memory store.
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Every pooled connection to :memory: would be a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add appends a reminder. Duplicates are allowed.
func (s *Store) Add(ctx context.Context, r Reminder) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reminders (id, date, time, note, assetId, mimeType, audio, createdAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Date.String(), r.Time, r.Note, r.Asset.ID, r.Asset.MimeType, r.Asset.Data,
		unixFromTime(r.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert reminder: %w", err)
	}
	return nil
}

// ForDate returns the reminders on date in insertion order.
func (s *Store) ForDate(ctx context.Context, date clock.Date) ([]Reminder, error) {
	return s.query(ctx, `
		SELECT id, date, time, note, assetId, mimeType, audio, createdAt
		FROM reminders
		WHERE date = ?
		ORDER BY seq ASC
	`, date.String())
}

// All returns every reminder in insertion order.
func (s *Store) All(ctx context.Context) ([]Reminder, error) {
	return s.query(ctx, `
		SELECT id, date, time, note, assetId, mimeType, audio, createdAt
		FROM reminders
		ORDER BY seq ASC
	`)
}

// Get returns one reminder, or nil if the ID is unknown.
func (s *Store) Get(ctx context.Context, id string) (*Reminder, error) {
	found, err := s.query(ctx, `
		SELECT id, date, time, note, assetId, mimeType, audio, createdAt
		FROM reminders
		WHERE id = ?
	`, id)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

// Count returns the number of stored reminders.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reminders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count reminders: %w", err)
	}
	return n, nil
}

// DatesWithReminders returns the distinct dates in [from, to] that have at
// least one reminder.
func (s *Store) DatesWithReminders(ctx context.Context, from, to clock.Date) (map[clock.Date]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, COUNT(*)
		FROM reminders
		WHERE date BETWEEN ? AND ?
		GROUP BY date
	`, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("query reminder dates: %w", err)
	}
	defer rows.Close()

	out := make(map[clock.Date]int)
	for rows.Next() {
		var raw string
		var n int
		if err := rows.Scan(&raw, &n); err != nil {
			return nil, fmt.Errorf("scan reminder date: %w", err)
		}
		d, err := clock.ParseDate(raw)
		if err != nil {
			return nil, err
		}
		out[d] = n
	}
	return out, rows.Err()
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Reminder, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reminders: %w", err)
	}
	defer rows.Close()

	var reminders []Reminder
	for rows.Next() {
		var r Reminder
		var date string
		var createdAt float64
		asset := &audio.Asset{}
		if err := rows.Scan(&r.ID, &date, &r.Time, &r.Note, &asset.ID, &asset.MimeType,
			&asset.Data, &createdAt); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		r.Date, err = clock.ParseDate(date)
		if err != nil {
			return nil, err
		}
		r.CreatedAt = timeFromUnix(createdAt)
		asset.CreatedAt = r.CreatedAt
		r.Asset = asset
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

func unixFromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
