package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order on start; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS diary_entries (
		id                BIGSERIAL PRIMARY KEY,
		user_id           BIGINT      NOT NULL,
		content           TEXT        NOT NULL,
		created_at        TIMESTAMPTZ NOT NULL,
		entry_day         DATE        NOT NULL,
		user_mood_rating  SMALLINT,
		user_stress_level SMALLINT,
		user_sleep_hours  SMALLINT,
		main_worry        VARCHAR(500),
		ai_emotion        VARCHAR(100),
		ai_intensity      SMALLINT,
		ai_summary        TEXT,
		ai_keywords       TEXT[]      NOT NULL DEFAULT '{}',
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS diary_entries_user_day_idx ON diary_entries (user_id, entry_day)`,
	`CREATE INDEX IF NOT EXISTS diary_entries_user_created_idx ON diary_entries (user_id, created_at DESC)`,
}

// Migrate creates the diary schema if it does not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
