package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schemaStatements is valid for both PostgreSQL and SQLite. Deletions are
// ordered explicitly by the repositories, so no foreign key cascades.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS staff (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	shift TEXT NOT NULL CHECK (shift IN ('morning', 'afternoon', 'oncall')),
	role TEXT NOT NULL DEFAULT 'staff' CHECK (role IN ('admin', 'staff')),
	password_hash TEXT,
	needs_password_change BOOLEAN NOT NULL DEFAULT TRUE,
	owner_id TEXT,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS staff_name_key ON staff (LOWER(name))`,
	`CREATE TABLE IF NOT EXISTS sectors (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	staff_id TEXT NOT NULL REFERENCES staff (id),
	owner_id TEXT,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS sectors_staff_id_idx ON sectors (staff_id)`,
	`CREATE TABLE IF NOT EXISTS missed_visits (
	id TEXT PRIMARY KEY,
	sector_id TEXT NOT NULL REFERENCES sectors (id),
	visit_date TEXT NOT NULL,
	owner_id TEXT,
	created_at TIMESTAMP NOT NULL,
	CONSTRAINT missed_visits_sector_date_key UNIQUE (sector_id, visit_date)
)`,
	`CREATE INDEX IF NOT EXISTS missed_visits_visit_date_idx ON missed_visits (visit_date)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
	id TEXT PRIMARY KEY,
	actor_id TEXT,
	action TEXT NOT NULL,
	resource TEXT NOT NULL,
	resource_id TEXT,
	payload TEXT,
	ip_address TEXT,
	user_agent TEXT,
	created_at TIMESTAMP NOT NULL
)`,
}

// Migrate creates missing tables and indices. It is safe to run on every boot.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i+1, classify(err))
		}
	}
	return nil
}
