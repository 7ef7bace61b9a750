package migrations

import "github.com/jmoiron/sqlx"

func init() {
	addMigration(&migration{
		version: "20260301091000",
		name:    "users",
		up: func(tx *sqlx.Tx) error {
			return exec(tx, `
				CREATE TABLE IF NOT EXISTS users (
					id UUID PRIMARY KEY,
					host_id UUID NOT NULL REFERENCES hosts(id) ON DELETE CASCADE,
					name VARCHAR(255) NOT NULL,
					email VARCHAR(255) NOT NULL,
					username VARCHAR(50) NOT NULL,
					password TEXT,
					secure_code TEXT,
					role VARCHAR(20) NOT NULL CHECK (role IN ('admin', 'manager', 'receptionist', 'staff')),
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					is_first_login BOOLEAN NOT NULL DEFAULT TRUE,
					invite_sent_at TIMESTAMPTZ,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					CONSTRAINT users_email_key UNIQUE (email),
					CONSTRAINT users_username_key UNIQUE (username)
				)`,
				`CREATE INDEX IF NOT EXISTS idx_users_host ON users(host_id)`,
			)
		},
		down: func(tx *sqlx.Tx) error {
			return exec(tx, `DROP TABLE IF EXISTS users`)
		},
	})
}
