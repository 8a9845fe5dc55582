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
	"scrollkitty/internal/platform/healthband"
	"scrollkitty/internal/platform/sqlitedb"
)

type SQLiteHistoryStore struct {
	db  *sql.DB
	loc *time.Location
}

func NewSQLiteHistoryStore(ctx context.Context, db *sql.DB, loc *time.Location) (narrativeout.HistoryStore, error) {
	store := &SQLiteHistoryStore{db: db, loc: loc}
	if err := sqlitedb.EnsureSchema(ctx, db,
		`CREATE TABLE IF NOT EXISTS message_history (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  ts TEXT NOT NULL,
  trigger TEXT NOT NULL,
  band TEXT NOT NULL,
  rendered_text TEXT NOT NULL,
  emoji TEXT NOT NULL DEFAULT ''
)`,
		`CREATE INDEX IF NOT EXISTS idx_message_history_trigger ON message_history(trigger, seq)`,
	); err != nil {
		return nil, fmt.Errorf("create message history table: %w", err)
	}
	return store, nil
}

func (s *SQLiteHistoryStore) Append(ctx context.Context, entry domain.HistoryEntry, retain int) error {
	if retain <= 0 {
		retain = domain.HistoryRetention
	}
	return sqlitedb.WithinTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO message_history (ts, trigger, band, rendered_text, emoji) VALUES (?, ?, ?, ?, ?)`,
			sqlitedb.FormatTime(entry.Timestamp), string(entry.Trigger), string(entry.Band), entry.RenderedText, entry.Emoji,
		); err != nil {
			return fmt.Errorf("insert history: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM message_history WHERE seq NOT IN (SELECT seq FROM message_history ORDER BY seq DESC LIMIT ?)`,
			retain,
		); err != nil {
			return fmt.Errorf("trim history: %w", err)
		}
		return nil
	})
}

func (s *SQLiteHistoryStore) Recent(ctx context.Context, triggers []domain.Trigger, limit int) ([]domain.HistoryEntry, error) {
	if len(triggers) == 0 || limit <= 0 {
		return nil, nil
	}
	args := make([]any, 0, len(triggers)+1)
	for _, t := range triggers {
		args = append(args, string(t))
	}
	args = append(args, limit)
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(triggers)), ",")
	rows, err := s.db.QueryContext(ctx,
		`SELECT ts, trigger, band, rendered_text, emoji FROM message_history
WHERE trigger IN (`+placeholders+`) ORDER BY seq DESC LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := make([]domain.HistoryEntry, 0, limit)
	for rows.Next() {
		var ts, trigger, band string
		var entry domain.HistoryEntry
		if err := rows.Scan(&ts, &trigger, &band, &entry.RenderedText, &entry.Emoji); err != nil {
			return nil, fmt.Errorf("%w: scan history: %v", apperrors.ErrCorruptState, err)
		}
		at, err := sqlitedb.ParseTime(ts, s.loc)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrCorruptState, err)
		}
		entry.Timestamp = at
		entry.Trigger = domain.Trigger(trigger)
		entry.Band = healthband.Band(band)
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}
