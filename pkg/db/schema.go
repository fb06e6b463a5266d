package db

import (
	"context"
	"fmt"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id       INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		hash     TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS favorites (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id      INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		project_url  TEXT NOT NULL,
		project_name TEXT NOT NULL,
		image_url    TEXT,
		created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (user_id, project_url)
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id       BIGSERIAL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		hash     TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS favorites (
		id           BIGSERIAL PRIMARY KEY,
		user_id      BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		project_url  TEXT NOT NULL,
		project_name TEXT NOT NULL,
		image_url    TEXT,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (user_id, project_url)
	)`,
}

// Migrate creates the tables if they do not exist yet.
func (d *DB) Migrate(ctx context.Context) error {
	stmts := postgresSchema
	if d.dialect == DriverSQLite {
		stmts = sqliteSchema
	}
	for _, stmt := range stmts {
		if _, err := d.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
