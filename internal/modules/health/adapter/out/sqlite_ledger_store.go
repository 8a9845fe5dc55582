package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"scrollkitty/internal/modules/health/domain"
	healthout "scrollkitty/internal/modules/health/port/out"
	apperrors "scrollkitty/internal/platform/errors"
	"scrollkitty/internal/platform/sqlitedb"
)

const (
	metaResetDay  = "reset_day"
	metaAggregate = "aggregate"
)

type SQLiteLedgerStore struct {
	db  *sql.DB
	loc *time.Location
}

func NewSQLiteLedgerStore(ctx context.Context, db *sql.DB, loc *time.Location) (healthout.LedgerStore, error) {
	store := &SQLiteLedgerStore{db: db, loc: loc}
	if err := store.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteLedgerStore) ensureSchema(ctx context.Context) error {
	err := sqlitedb.EnsureSchema(ctx, s.db,
		`CREATE TABLE IF NOT EXISTS app_health (
  app_id TEXT PRIMARY KEY,
  current_hp REAL NOT NULL,
  max_hp REAL NOT NULL,
  last_deduction_at TEXT
)`,
		`CREATE TABLE IF NOT EXISTS ledger_meta (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
)`,
	)
	if err != nil {
		return fmt.Errorf("create ledger tables: %w", err)
	}
	return nil
}

func (s *SQLiteLedgerStore) Load(ctx context.Context) (domain.Ledger, error) {
	return s.load(ctx, s.db)
}

// Update runs fn against the stored ledger while holding the database write
// lock, so a deduction from another process cannot land between the load and
// the save.
func (s *SQLiteLedgerStore) Update(ctx context.Context, fn func(healthout.LedgerTx) error) error {
	return sqlitedb.WithinWriteTx(ctx, s.db, func(q sqlitedb.Querier) error {
		return fn(ledgerTx{store: s, q: q})
	})
}

type ledgerTx struct {
	store *SQLiteLedgerStore
	q     sqlitedb.Querier
}

func (t ledgerTx) Load(ctx context.Context) (domain.Ledger, error) {
	return t.store.load(ctx, t.q)
}

func (t ledgerTx) Save(ctx context.Context, ledger domain.Ledger, aggregate int) error {
	return save(ctx, t.q, ledger, aggregate)
}

func (s *SQLiteLedgerStore) load(ctx context.Context, q sqlitedb.Querier) (domain.Ledger, error) {
	rows, err := q.QueryContext(ctx, `SELECT app_id, current_hp, max_hp, last_deduction_at FROM app_health`)
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	ledger := domain.NewLedger()
	for rows.Next() {
		var rec domain.AppHealthRecord
		var last sql.NullString
		if err := rows.Scan(&rec.AppID, &rec.CurrentHP, &rec.MaxHP, &last); err != nil {
			return domain.Ledger{}, fmt.Errorf("%w: scan ledger row: %v", apperrors.ErrCorruptState, err)
		}
		at, err := sqlitedb.ParseNullTime(last, s.loc)
		if err != nil {
			return domain.Ledger{}, fmt.Errorf("%w: %v", apperrors.ErrCorruptState, err)
		}
		rec.LastDeductionAt = at
		ledger.Records[rec.AppID] = rec
	}
	if err := rows.Err(); err != nil {
		return domain.Ledger{}, fmt.Errorf("iterate ledger: %w", err)
	}
	if err := ledger.Validate(); err != nil {
		return domain.Ledger{}, fmt.Errorf("%w: %v", apperrors.ErrCorruptState, err)
	}

	var day string
	err = q.QueryRowContext(ctx, `SELECT value FROM ledger_meta WHERE key = ?`, metaResetDay).Scan(&day)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return domain.Ledger{}, fmt.Errorf("query reset day: %w", err)
	}
	ledger.ResetDay = day
	return ledger, nil
}

// save replaces the stored ledger. It runs inside the caller's write transaction.
func save(ctx context.Context, q sqlitedb.Querier, ledger domain.Ledger, aggregate int) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM app_health`); err != nil {
		return fmt.Errorf("clear ledger: %w", err)
	}
	for _, id := range ledger.AppIDs() {
		rec := ledger.Records[id]
		if _, err := q.ExecContext(ctx,
			`INSERT INTO app_health (app_id, current_hp, max_hp, last_deduction_at) VALUES (?, ?, ?, ?)`,
			rec.AppID, rec.CurrentHP, rec.MaxHP, sqlitedb.NullTime(rec.LastDeductionAt),
		); err != nil {
			return fmt.Errorf("insert ledger row %s: %w", rec.AppID, err)
		}
	}
	const upsert = `INSERT INTO ledger_meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value`
	if _, err := q.ExecContext(ctx, upsert, metaResetDay, ledger.ResetDay); err != nil {
		return fmt.Errorf("save reset day: %w", err)
	}
	if _, err := q.ExecContext(ctx, upsert, metaAggregate, strconv.Itoa(aggregate)); err != nil {
		return fmt.Errorf("save aggregate: %w", err)
	}
	return nil
}
