package migrations

import "github.com/jmoiron/sqlx"

func init() {
	addMigration(&migration{
		version: "20260301090000",
		name:    "hosts",
		up: func(tx *sqlx.Tx) error {
			return exec(tx, `
				CREATE TABLE IF NOT EXISTS hosts (
					id UUID PRIMARY KEY,
					name VARCHAR(255) NOT NULL,
					description TEXT,
					cnpj VARCHAR(14),
					cep VARCHAR(8),
					street VARCHAR(255),
					number VARCHAR(20),
					state CHAR(2),
					phone VARCHAR(20),
					email VARCHAR(255),
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					CONSTRAINT hosts_cnpj_key UNIQUE (cnpj)
				)`, `
				CREATE TABLE IF NOT EXISTS legal_representatives (
					id UUID PRIMARY KEY,
					host_id UUID NOT NULL REFERENCES hosts(id) ON DELETE CASCADE,
					name VARCHAR(255) NOT NULL,
					email VARCHAR(255) NOT NULL,
					cpf CHAR(11) NOT NULL,
					phone VARCHAR(20),
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					CONSTRAINT legal_representatives_cpf_key UNIQUE (cpf)
				)`,
				`CREATE INDEX IF NOT EXISTS idx_legal_representatives_host ON legal_representatives(host_id)`,
			)
		},
		down: func(tx *sqlx.Tx) error {
			return exec(tx,
				`DROP TABLE IF EXISTS legal_representatives`,
				`DROP TABLE IF EXISTS hosts`,
			)
		},
	})
}
