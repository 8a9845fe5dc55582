package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"scrollkitty/internal/modules/usage/domain"
	usageout "scrollkitty/internal/modules/usage/port/out"
	apperrors "scrollkitty/internal/platform/errors"
	"scrollkitty/internal/platform/sqlitedb"
)

type SQLiteCounterStore struct {
	db  *sql.DB
	loc *time.Location
}

func NewSQLiteCounterStore(ctx context.Context, db *sql.DB, loc *time.Location) (usageout.CounterStore, error) {
	store := &SQLiteCounterStore{db: db, loc: loc}
	if err := sqlitedb.EnsureSchema(ctx, db, `CREATE TABLE IF NOT EXISTS session_counters (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  day TEXT NOT NULL,
  cumulative_seconds INTEGER NOT NULL,
  first_grant_at TEXT,
  last_grant_at TEXT,
  grant_count INTEGER NOT NULL
)`); err != nil {
		return nil, fmt.Errorf("create session counters table: %w", err)
	}
	return store, nil
}

// Load returns zero counters with an empty day when nothing is stored.
func (s *SQLiteCounterStore) Load(ctx context.Context) (domain.SessionCounters, error) {
	return s.load(ctx, s.db)
}

func (s *SQLiteCounterStore) Save(ctx context.Context, c domain.SessionCounters) error {
	return saveCounters(ctx, s.db, c)
}

func (s *SQLiteCounterStore) Update(ctx context.Context, fn func(usageout.CounterTx) error) error {
	return sqlitedb.WithinWriteTx(ctx, s.db, func(q sqlitedb.Querier) error {
		return fn(counterTx{store: s, q: q})
	})
}

type counterTx struct {
	store *SQLiteCounterStore
	q     sqlitedb.Querier
}

func (t counterTx) Load(ctx context.Context) (domain.SessionCounters, error) {
	return t.store.load(ctx, t.q)
}

func (t counterTx) Save(ctx context.Context, c domain.SessionCounters) error {
	return saveCounters(ctx, t.q, c)
}

func (s *SQLiteCounterStore) load(ctx context.Context, q sqlitedb.Querier) (domain.SessionCounters, error) {
	var c domain.SessionCounters
	var first, last sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT day, cumulative_seconds, first_grant_at, last_grant_at, grant_count FROM session_counters WHERE id = 1`,
	).Scan(&c.Day, &c.CumulativeSeconds, &first, &last, &c.GrantCount)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SessionCounters{}, nil
	}
	if err != nil {
		return domain.SessionCounters{}, fmt.Errorf("%w: scan session counters: %v", apperrors.ErrCorruptState, err)
	}
	if c.FirstGrantAt, err = sqlitedb.ParseNullTime(first, s.loc); err != nil {
		return domain.SessionCounters{}, fmt.Errorf("%w: %v", apperrors.ErrCorruptState, err)
	}
	if c.LastGrantAt, err = sqlitedb.ParseNullTime(last, s.loc); err != nil {
		return domain.SessionCounters{}, fmt.Errorf("%w: %v", apperrors.ErrCorruptState, err)
	}
	if err := c.Validate(); err != nil {
		return domain.SessionCounters{}, fmt.Errorf("%w: %v", apperrors.ErrCorruptState, err)
	}
	return c, nil
}

func saveCounters(ctx context.Context, q sqlitedb.Querier, c domain.SessionCounters) error {
	_, err := q.ExecContext(ctx, `INSERT INTO session_counters (id, day, cumulative_seconds, first_grant_at, last_grant_at, grant_count)
VALUES (1, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  day=excluded.day,
  cumulative_seconds=excluded.cumulative_seconds,
  first_grant_at=excluded.first_grant_at,
  last_grant_at=excluded.last_grant_at,
  grant_count=excluded.grant_count`,
		c.Day, c.CumulativeSeconds, sqlitedb.NullTime(c.FirstGrantAt), sqlitedb.NullTime(c.LastGrantAt), c.GrantCount)
	if err != nil {
		return fmt.Errorf("save session counters: %w", err)
	}
	return nil
}
