package repo

import (
	"context"
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id            BIGSERIAL PRIMARY KEY,
	phone         TEXT NOT NULL,
	message       TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'pending',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	claimed_at    TIMESTAMPTZ,
	sent_at       TIMESTAMPTZ,
	error_message TEXT
);

CREATE INDEX IF NOT EXISTS idx_jobs_status_created ON jobs (status, created_at);

CREATE TABLE IF NOT EXISTS otp_codes (
	id         BIGSERIAL PRIMARY KEY,
	phone      TEXT NOT NULL,
	code       TEXT NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL,
	used       BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_otp_phone_created ON otp_codes (phone, created_at DESC);

CREATE TABLE IF NOT EXISTS users (
	id       BIGSERIAL PRIMARY KEY,
	phone    TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	name     TEXT NOT NULL,
	role     TEXT NOT NULL DEFAULT 'user'
);

CREATE TABLE IF NOT EXISTS bills (
	id            BIGSERIAL PRIMARY KEY,
	phone         TEXT NOT NULL,
	month         TEXT NOT NULL,
	customer_name TEXT,
	customer_code TEXT,
	kwh           DOUBLE PRECISION NOT NULL DEFAULT 0,
	amount        DOUBLE PRECISION NOT NULL DEFAULT 0,
	due_dates     TEXT,
	content       TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_bills_phone_month ON bills (phone, month);
`

// InitSchema creates the tables and indexes if they do not exist yet.
// Safe to run on every boot.
func InitSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
