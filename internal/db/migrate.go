package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Startup-time schema. Idempotent so every boot can run it.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		is_admin      BOOLEAN NOT NULL DEFAULT FALSE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS time_slots (
		id         UUID PRIMARY KEY,
		slot_time  TEXT NOT NULL UNIQUE,
		capacity   INT NOT NULL CHECK (capacity > 0),
		is_active  BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS appointments (
		id           UUID PRIMARY KEY,
		user_id      UUID NOT NULL REFERENCES users(id),
		date         DATE NOT NULL,
		time_slot_id UUID NOT NULL REFERENCES time_slots(id),
		notes        TEXT NOT NULL DEFAULT '',
		name         TEXT NOT NULL,
		contact      TEXT NOT NULL,
		status       TEXT NOT NULL DEFAULT 'pending',
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	// booking capacity check and availability grouping both hit this pair
	`CREATE INDEX IF NOT EXISTS appointments_date_slot_idx
		ON appointments (date, time_slot_id)`,
	`CREATE INDEX IF NOT EXISTS appointments_user_idx
		ON appointments (user_id)`,
}

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	return nil
}
