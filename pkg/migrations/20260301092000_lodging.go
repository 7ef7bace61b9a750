package migrations

import "github.com/jmoiron/sqlx"

func init() {
	addMigration(&migration{
		version: "20260301092000",
		name:    "lodging",
		up: func(tx *sqlx.Tx) error {
			return exec(tx, `
				CREATE TABLE IF NOT EXISTS accommodation_types (
					id UUID PRIMARY KEY,
					host_id UUID NOT NULL REFERENCES hosts(id) ON DELETE CASCADE,
					name VARCHAR(100) NOT NULL,
					capacity INTEGER NOT NULL CHECK (capacity >= 1),
					rooms INTEGER NOT NULL CHECK (rooms >= 1),
					bathrooms INTEGER NOT NULL CHECK (bathrooms >= 0),
					min_occupants INTEGER NOT NULL DEFAULT 1,
					max_occupants INTEGER NOT NULL,
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					CHECK (max_occupants >= min_occupants)
				)`,
				`CREATE INDEX IF NOT EXISTS idx_accommodation_types_host ON accommodation_types(host_id)`, `
				CREATE TABLE IF NOT EXISTS accommodations (
					id UUID PRIMARY KEY,
					host_id UUID NOT NULL REFERENCES hosts(id) ON DELETE CASCADE,
					accommodation_type_id UUID NOT NULL REFERENCES accommodation_types(id),
					identifier VARCHAR(50) NOT NULL,
					floor INTEGER CHECK (floor >= 0),
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					CONSTRAINT accommodations_host_identifier_key UNIQUE (host_id, identifier)
				)`, `
				CREATE TABLE IF NOT EXISTS accommodation_pricing_schedules (
					id UUID PRIMARY KEY,
					host_id UUID NOT NULL REFERENCES hosts(id) ON DELETE CASCADE,
					accommodation_type_id UUID NOT NULL REFERENCES accommodation_types(id),
					start_date DATE NOT NULL,
					end_date DATE NOT NULL,
					price NUMERIC(10, 2) NOT NULL CHECK (price >= 0),
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					CHECK (end_date > start_date)
				)`,
				`CREATE INDEX IF NOT EXISTS idx_pricing_schedules_type ON accommodation_pricing_schedules(accommodation_type_id)`,
			)
		},
		down: func(tx *sqlx.Tx) error {
			return exec(tx,
				`DROP TABLE IF EXISTS accommodation_pricing_schedules`,
				`DROP TABLE IF EXISTS accommodations`,
				`DROP TABLE IF EXISTS accommodation_types`,
			)
		},
	})
}
