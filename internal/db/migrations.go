package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'profile_type') THEN
			CREATE TYPE profile_type AS ENUM ('client', 'contractor');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'contract_status') THEN
			CREATE TYPE contract_status AS ENUM ('new', 'in_progress', 'terminated');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS profiles (
		id BIGSERIAL PRIMARY KEY,
		first_name VARCHAR(255) NOT NULL,
		last_name VARCHAR(255) NOT NULL,
		profession VARCHAR(255) NOT NULL,
		balance NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (balance >= 0),
		type profile_type NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS contracts (
		id BIGSERIAL PRIMARY KEY,
		terms TEXT NOT NULL,
		status contract_status NOT NULL DEFAULT 'new',
		client_id BIGINT NOT NULL REFERENCES profiles(id),
		contractor_id BIGINT NOT NULL REFERENCES profiles(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS jobs (
		id BIGSERIAL PRIMARY KEY,
		description TEXT NOT NULL,
		price NUMERIC(12,2) NOT NULL CHECK (price > 0),
		paid BOOLEAN,
		payment_date TIMESTAMPTZ,
		contract_id BIGINT NOT NULL REFERENCES contracts(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT chk_jobs_payment_date CHECK ((paid IS TRUE) = (payment_date IS NOT NULL))
	);`,
	`CREATE TABLE IF NOT EXISTS transfers (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		kind VARCHAR(16) NOT NULL,
		job_id BIGINT REFERENCES jobs(id),
		payer_id BIGINT REFERENCES profiles(id),
		payee_id BIGINT NOT NULL REFERENCES profiles(id),
		amount NUMERIC(12,2) NOT NULL CHECK (amount > 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_client_id ON contracts (client_id);`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_contractor_id ON contracts (contractor_id);`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_contract_id ON jobs (contract_id);`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_payment_date ON jobs (payment_date) WHERE paid IS TRUE;`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_transfers_job_id ON transfers (job_id) WHERE kind = 'job_payment';`,
	`CREATE INDEX IF NOT EXISTS idx_transfers_payee_id ON transfers (payee_id);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
