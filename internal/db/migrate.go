package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is applied on startup. Uniqueness on users(email) and
// attendance(user_id, date) lives here so duplicate creation races lose at
// the storage layer instead of in handler checks.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	name          TEXT NOT NULL,
	role          TEXT NOT NULL,
	employee_id   TEXT NOT NULL DEFAULT '',
	department    TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (email);

CREATE TABLE IF NOT EXISTS attendance (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	date        DATE NOT NULL,
	check_in    TIMESTAMPTZ NOT NULL,
	check_out   TIMESTAMPTZ,
	total_hours NUMERIC(6,2),
	status      TEXT NOT NULL DEFAULT 'present'
);

CREATE UNIQUE INDEX IF NOT EXISTS attendance_user_date_key ON attendance (user_id, date);
`

// Migrate applies the schema in a single transaction.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	tx, err := pool.Begin(ctx)

	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, schema); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}
