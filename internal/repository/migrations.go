package repository

import (
	"context"
	"fmt"
)

// Migrate applies all schema migrations in order.
// Every statement is idempotent so startup can run this unconditionally.
func (r *Repository) Migrate(ctx context.Context) error {
	migrations := []string{
		createUsersTable,
		createTodosTable,
		createActivityLogTable,
	}

	for i, migration := range migrations {
		if _, err := r.pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d/%d failed: %w", i+1, len(migrations), err)
		}
	}

	return nil
}

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id              TEXT PRIMARY KEY,
	email           TEXT NOT NULL UNIQUE,
	hashed_password TEXT NOT NULL,
	is_active       BOOLEAN NOT NULL DEFAULT TRUE,
	roles           TEXT[] NOT NULL DEFAULT '{user}',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_users_email ON users (email);
`

const createTodosTable = `
CREATE TABLE IF NOT EXISTS todos (
	id          TEXT PRIMARY KEY,
	owner_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	is_done     BOOLEAN NOT NULL DEFAULT FALSE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_todos_owner ON todos (owner_id, created_at);
`

const createActivityLogTable = `
CREATE TABLE IF NOT EXISTS activity_log (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	todo_id     TEXT NOT NULL,
	action      TEXT NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_activity_user_time ON activity_log (user_id, occurred_at);
`
