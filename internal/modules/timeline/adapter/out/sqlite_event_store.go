package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"scrollkitty/internal/modules/timeline/domain"
	timelineout "scrollkitty/internal/modules/timeline/port/out"
	apperrors "scrollkitty/internal/platform/errors"
	"scrollkitty/internal/platform/sqlitedb"
)

const eventColumns = `id, ts, source_app, health_before, health_after, type, message, emoji, trigger`

type SQLiteEventStore struct {
	db  *sql.DB
	loc *time.Location
}

func NewSQLiteEventStore(ctx context.Context, db *sql.DB, loc *time.Location) (timelineout.EventStore, error) {
	store := &SQLiteEventStore{db: db, loc: loc}
	if err := store.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteEventStore) ensureSchema(ctx context.Context) error {
	err := sqlitedb.EnsureSchema(ctx, s.db,
		`CREATE TABLE IF NOT EXISTS timeline_events (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  id TEXT NOT NULL UNIQUE,
  ts TEXT NOT NULL,
  source_app TEXT NOT NULL DEFAULT '',
  health_before INTEGER NOT NULL,
  health_after INTEGER NOT NULL,
  type TEXT NOT NULL,
  message TEXT NOT NULL DEFAULT '',
  emoji TEXT NOT NULL DEFAULT '',
  trigger TEXT NOT NULL DEFAULT ''
)`,
		`CREATE INDEX IF NOT EXISTS idx_timeline_events_type ON timeline_events(type, seq)`,
	)
	if err != nil {
		return fmt.Errorf("create timeline tables: %w", err)
	}
	return nil
}

func (s *SQLiteEventStore) Recent(ctx context.Context, limit int) ([]domain.Event, error) {
	return s.recent(ctx, s.db, limit, false)
}

// recent reads up to limit newest events, oldest first. With skipCorrupt,
// unreadable rows are left out instead of failing the read.
func (s *SQLiteEventStore) recent(ctx context.Context, q sqlitedb.Querier, limit int, skipCorrupt bool) ([]domain.Event, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM (
  SELECT seq, `+eventColumns+` FROM timeline_events ORDER BY seq DESC LIMIT ?
) ORDER BY seq ASC`, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Event, 0, limit)
	for rows.Next() {
		e, err := s.scan(rows)
		if err != nil {
			if skipCorrupt && errors.Is(err, apperrors.ErrCorruptState) {
				continue
			}
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

// Append checks e against the stored log and inserts it under one write lock,
// so two hosts recording the same grant keep only the first.
func (s *SQLiteEventStore) Append(ctx context.Context, e domain.Event, capacity int) (bool, error) {
	appended := false
	err := sqlitedb.WithinWriteTx(ctx, s.db, func(q sqlitedb.Querier) error {
		existing, err := s.recent(ctx, q, capacity, true)
		if err != nil {
			return err
		}
		log := domain.NewLog(capacity)
		log.Events = existing
		if ok, _ := log.Append(e); !ok {
			return nil
		}
		if _, err := q.ExecContext(ctx,
			`INSERT INTO timeline_events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, sqlitedb.FormatTime(e.Timestamp), e.SourceAppName, e.HealthBefore, e.HealthAfter,
			string(e.Type), e.Message, e.Emoji, e.Trigger,
		); err != nil {
			return fmt.Errorf("insert event %s: %w", e.ID, err)
		}
		if _, err := q.ExecContext(ctx,
			`DELETE FROM timeline_events WHERE seq NOT IN (SELECT seq FROM timeline_events ORDER BY seq DESC LIMIT ?)`,
			capacity,
		); err != nil {
			return fmt.Errorf("trim events: %w", err)
		}
		appended = true
		return nil
	})
	return appended, err
}

func (s *SQLiteEventStore) Latest(ctx context.Context, eventType domain.EventType) (domain.Event, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM timeline_events WHERE type = ? ORDER BY seq DESC LIMIT 1`, string(eventType))
	e, err := s.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Event{}, false, nil
	}
	if err != nil {
		return domain.Event{}, false, err
	}
	return e, true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteEventStore) scan(row scanner) (domain.Event, error) {
	var e domain.Event
	var ts, typ string
	if err := row.Scan(&e.ID, &ts, &e.SourceAppName, &e.HealthBefore, &e.HealthAfter, &typ, &e.Message, &e.Emoji, &e.Trigger); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Event{}, err
		}
		return domain.Event{}, fmt.Errorf("%w: scan event: %v", apperrors.ErrCorruptState, err)
	}
	at, err := sqlitedb.ParseTime(ts, s.loc)
	if err != nil {
		return domain.Event{}, fmt.Errorf("%w: %v", apperrors.ErrCorruptState, err)
	}
	e.Timestamp = at
	e.Type = domain.EventType(typ)
	if err := e.Validate(); err != nil {
		return domain.Event{}, fmt.Errorf("%w: event %s: %v", apperrors.ErrCorruptState, e.ID, err)
	}
	return e, nil
}
