package db

import (
	"context"
	"database/sql"
	"fmt"
)

// The statements use the subset of SQL shared by Postgres and SQLite.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS series (
		id           TEXT PRIMARY KEY,
		club_id      TEXT NOT NULL,
		name         TEXT NOT NULL,
		is_completed BOOLEAN NOT NULL DEFAULT FALSE,
		created_at   TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_series_club ON series (club_id)`,
	`CREATE TABLE IF NOT EXISTS matches (
		id          TEXT PRIMARY KEY,
		series_id   TEXT NOT NULL DEFAULT '',
		club_id     TEXT NOT NULL,
		name        TEXT NOT NULL DEFAULT '',
		venue       TEXT,
		match_date  TEXT NOT NULL,
		draw_time   TEXT NOT NULL DEFAULT '',
		start_time  TEXT NOT NULL DEFAULT '',
		end_time    TEXT NOT NULL DEFAULT '',
		capacity    INTEGER NOT NULL DEFAULT 0,
		paid_places INTEGER NOT NULL DEFAULT 0,
		status      TEXT NOT NULL,
		created_at  TIMESTAMP NOT NULL,
		updated_at  TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_series ON matches (series_id)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_status ON matches (status)`,
	`CREATE TABLE IF NOT EXISTS match_anglers (
		match_id      TEXT NOT NULL REFERENCES matches (id) ON DELETE CASCADE,
		angler_id     TEXT NOT NULL,
		registered_at TIMESTAMP NOT NULL,
		CONSTRAINT match_anglers_pkey PRIMARY KEY (match_id, angler_id)
	)`,
	`CREATE TABLE IF NOT EXISTS results (
		id               TEXT PRIMARY KEY,
		match_id         TEXT NOT NULL REFERENCES matches (id) ON DELETE CASCADE,
		series_id        TEXT NOT NULL DEFAULT '',
		club_id          TEXT NOT NULL DEFAULT '',
		user_id          TEXT NOT NULL,
		user_name        TEXT NOT NULL DEFAULT '',
		peg              TEXT NOT NULL DEFAULT '',
		section          TEXT NOT NULL DEFAULT '',
		weight           DOUBLE PRECISION NOT NULL DEFAULT 0,
		status           TEXT NOT NULL,
		position         INTEGER,
		section_position INTEGER,
		updated_at       TIMESTAMP NOT NULL,
		CONSTRAINT results_match_user_key UNIQUE (match_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_results_series ON results (series_id)`,
}

// Migrate creates the tables the repositories use if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d failed: %w", i, err)
		}
	}
	return nil
}
