package migrations

import "github.com/jmoiron/sqlx"

var countries = []string{
	"Argentina", "Bolivia", "Brazil", "Chile", "Colombia", "Costa Rica", "Cuba",
	"Dominican Republic", "Ecuador", "El Salvador", "Guatemala", "Haiti", "Honduras",
	"Mexico", "Nicaragua", "Panama", "Paraguay", "Peru", "Uruguay", "Venezuela",
	"United States", "Canada", "Spain", "Portugal", "United Kingdom", "Germany",
	"France", "Italy", "Japan", "China", "India", "Australia",
}

func init() {
	addMigration(&migration{
		version: "20260301093000",
		name:    "customers",
		up: func(tx *sqlx.Tx) error {
			err := exec(tx, `
				CREATE TABLE IF NOT EXISTS nationalities (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					country VARCHAR(100) NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					CONSTRAINT nationalities_country_key UNIQUE (country)
				)`, `
				CREATE TABLE IF NOT EXISTS customers (
					id UUID PRIMARY KEY,
					host_id UUID NOT NULL REFERENCES hosts(id) ON DELETE CASCADE,
					name VARCHAR(255) NOT NULL,
					email VARCHAR(255) NOT NULL,
					birth_date DATE,
					gender VARCHAR(20) CHECK (gender IN ('male', 'female', 'other', 'not_informed')),
					nationality_id UUID REFERENCES nationalities(id),
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				)`,
				`CREATE INDEX IF NOT EXISTS idx_customers_host_name ON customers(host_id, name)`, `
				CREATE TABLE IF NOT EXISTS customer_documents (
					id UUID PRIMARY KEY,
					customer_id UUID NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
					document VARCHAR(50) NOT NULL,
					type VARCHAR(20) NOT NULL,
					issuing_country VARCHAR(3),
					is_primary BOOLEAN NOT NULL DEFAULT FALSE
				)`, `
				CREATE TABLE IF NOT EXISTS customer_contacts (
					id UUID PRIMARY KEY,
					customer_id UUID NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
					value VARCHAR(100) NOT NULL,
					type VARCHAR(20) NOT NULL,
					is_primary BOOLEAN NOT NULL DEFAULT FALSE
				)`,
			)
			if err != nil {
				return err
			}
			for _, country := range countries {
				if _, err := tx.Exec(`INSERT INTO nationalities (country) VALUES ($1) ON CONFLICT (country) DO NOTHING`, country); err != nil {
					return err
				}
			}
			return nil
		},
		down: func(tx *sqlx.Tx) error {
			return exec(tx,
				`DROP TABLE IF EXISTS customer_contacts`,
				`DROP TABLE IF EXISTS customer_documents`,
				`DROP TABLE IF EXISTS customers`,
				`DROP TABLE IF EXISTS nationalities`,
			)
		},
	})
}
