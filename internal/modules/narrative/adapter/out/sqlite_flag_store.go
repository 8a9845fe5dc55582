package out

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"scrollkitty/internal/modules/narrative/domain"
	narrativeout "scrollkitty/internal/modules/narrative/port/out"
	apperrors "scrollkitty/internal/platform/errors"
	"scrollkitty/internal/platform/sqlitedb"
)

type SQLiteFlagStore struct {
	db  *sql.DB
	loc *time.Location
}

func NewSQLiteFlagStore(ctx context.Context, db *sql.DB, loc *time.Location) (narrativeout.FlagStore, error) {
	store := &SQLiteFlagStore{db: db, loc: loc}
	if err := sqlitedb.EnsureSchema(ctx, db, `CREATE TABLE IF NOT EXISTS trigger_flags (
  scope TEXT NOT NULL,
  trigger TEXT NOT NULL,
  fired_at TEXT NOT NULL,
  PRIMARY KEY (scope, trigger)
)`); err != nil {
		return nil, fmt.Errorf("create trigger flags table: %w", err)
	}
	return store, nil
}

func (s *SQLiteFlagStore) Load(ctx context.Context, scopes []string) (domain.FlagSet, error) {
	out := domain.FlagSet{}
	if len(scopes) == 0 {
		return out, nil
	}
	args := make([]any, 0, len(scopes))
	for _, scope := range scopes {
		args = append(args, scope)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(scopes)), ",")
	rows, err := s.db.QueryContext(ctx,
		`SELECT scope, trigger, fired_at FROM trigger_flags WHERE scope IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query trigger flags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var scope, trigger, firedAt string
		if err := rows.Scan(&scope, &trigger, &firedAt); err != nil {
			return nil, fmt.Errorf("%w: scan trigger flag: %v", apperrors.ErrCorruptState, err)
		}
		at, err := sqlitedb.ParseTime(firedAt, s.loc)
		if err != nil {
			return nil, fmt.Errorf("%w: flag %s/%s: %v", apperrors.ErrCorruptState, scope, trigger, err)
		}
		out[domain.FlagKey{Scope: scope, Trigger: domain.Trigger(trigger)}] = at
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trigger flags: %w", err)
	}
	return out, nil
}

func (s *SQLiteFlagStore) Claim(ctx context.Context, scope string, trigger domain.Trigger, at time.Time) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO trigger_flags (scope, trigger, fired_at) VALUES (?, ?, ?)`,
		scope, string(trigger), sqlitedb.FormatTime(at))
	if err != nil {
		return false, fmt.Errorf("claim %s/%s: %w", scope, trigger, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim %s/%s: %w", scope, trigger, err)
	}
	return n == 1, nil
}
