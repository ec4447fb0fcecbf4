package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func ConnectPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.HealthCheckPeriod = 30 * time.Second
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 15 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}

// Schema is applied on every start and must stay idempotent. Appointment
// schedules and birth dates are wall clock times without a zone.
const Schema = `
CREATE TABLE IF NOT EXISTS patients (
	id                       uuid PRIMARY KEY,
	user_id                  text NOT NULL UNIQUE,
	name                     text NOT NULL,
	email                    text NOT NULL,
	phone                    text NOT NULL,
	birth_date               timestamp NOT NULL,
	gender                   text NOT NULL CHECK (gender IN ('male', 'female', 'other')),
	address                  text NOT NULL DEFAULT '',
	occupation               text NOT NULL DEFAULT '',
	emergency_contact_name   text NOT NULL DEFAULT '',
	emergency_contact_number text NOT NULL DEFAULT '',
	primary_physician        text NOT NULL,
	insurance_provider       text NOT NULL DEFAULT '',
	insurance_policy_number  text NOT NULL DEFAULT '',
	allergies                text NOT NULL DEFAULT '',
	current_medication       text NOT NULL DEFAULT '',
	family_medical_history   text NOT NULL DEFAULT '',
	past_medical_history     text NOT NULL DEFAULT '',
	identification_type      text NOT NULL DEFAULT '',
	identification_number    text NOT NULL DEFAULT '',
	treatment_consent        boolean NOT NULL,
	disclosure_consent       boolean NOT NULL,
	privacy_consent          boolean NOT NULL,
	created_at               timestamptz NOT NULL DEFAULT now(),
	updated_at               timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS appointments (
	id                  uuid PRIMARY KEY,
	patient_id          uuid NOT NULL,
	user_id             text NOT NULL DEFAULT '',
	primary_physician   text NOT NULL,
	schedule            timestamp NOT NULL,
	status              text NOT NULL CHECK (status IN ('pending', 'scheduled', 'cancelled')),
	reason              text,
	note                text,
	cancellation_reason text,
	created_at          timestamptz NOT NULL DEFAULT now(),
	updated_at          timestamptz NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS appointments_created_at_idx ON appointments (created_at DESC);
`

// EnsureSchema creates the tables the ledger needs if they are missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
