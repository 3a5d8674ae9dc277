// Package store persists the season calendar in a flat sqlite table so the
// command surface can answer /next and /calendar without re-parsing the feed.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"f1bot/internal/event"
	"f1bot/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type Store struct {
	db  *sql.DB
	log logx.Logger
}

func Open(path string, log logx.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if log.IsZero() {
		log = logx.Nop()
	}
	st := &Store{db: db, log: log}

	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *Store) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Replace swaps the whole table for the given events in one transaction.
// The calendar refresh job calls this after the feed content changed.
func (s *Store) Replace(ctx context.Context, events []event.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM races`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO races(event_type, event_number, location, start_time, description) VALUES(?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, ev := range events {
		if _, err := stmt.ExecContext(ctx,
			ev.Type.String(), ev.Number, ev.Location, ev.Start.Unix(), ev.Description,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Upcoming returns events starting after now, soonest first. TypeAny
// matches every session type.
func (s *Store) Upcoming(ctx context.Context, t event.Type, now time.Time) ([]event.Event, error) {
	query := `SELECT event_type, event_number, location, start_time, description
	          FROM races WHERE start_time > ?`
	args := []any{now.Unix()}
	if t != event.TypeAny {
		query += ` AND event_type = ?`
		args = append(args, t.String())
	}
	query += ` ORDER BY start_time ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []event.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Next returns the soonest upcoming event of the given type, or nil when
// nothing of that type is left on the calendar.
func (s *Store) Next(ctx context.Context, t event.Type, now time.Time) (*event.Event, error) {
	query := `SELECT event_type, event_number, location, start_time, description
	          FROM races WHERE start_time > ?`
	args := []any{now.Unix()}
	if t != event.TypeAny {
		query += ` AND event_type = ?`
		args = append(args, t.String())
	}
	query += ` ORDER BY start_time ASC LIMIT 1`

	row := s.db.QueryRowContext(ctx, query, args...)
	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(sc scanner) (event.Event, error) {
	var (
		typeName string
		number   int
		location string
		startSec int64
		desc     string
	)
	if err := sc.Scan(&typeName, &number, &location, &startSec, &desc); err != nil {
		return event.Event{}, err
	}
	t, err := event.ParseType(typeName)
	if err != nil {
		return event.Event{}, fmt.Errorf("stored event type: %w", err)
	}
	return event.Event{
		Type:        t,
		Number:      number,
		Location:    location,
		Start:       time.Unix(startSec, 0).In(event.ReferenceZone()),
		Description: desc,
	}, nil
}
