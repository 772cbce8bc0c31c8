package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Table names of the workforce schema.
const (
	WorkerTable = "worker"
	BonusTable  = "bonus"
	TitleTable  = "title"
)

// seq keeps the source order of every table.
func schemaDDL(d Dialect) []string {
	serial := "BIGSERIAL PRIMARY KEY"
	if d == SQLite {
		serial = "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS ` + WorkerTable + ` (
			seq          ` + serial + `,
			worker_id    BIGINT NOT NULL UNIQUE,
			first_name   TEXT,
			last_name    TEXT,
			salary       NUMERIC NOT NULL,
			joining_date TIMESTAMP NOT NULL,
			department   TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ` + BonusTable + ` (
			seq           ` + serial + `,
			worker_ref_id BIGINT NOT NULL,
			bonus_amount  NUMERIC NOT NULL,
			bonus_date    TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ` + TitleTable + ` (
			seq           ` + serial + `,
			worker_ref_id BIGINT NOT NULL,
			worker_title  TEXT NOT NULL,
			affected_from TIMESTAMP
		)`,
	}
}

// EnsureSchema creates the worker, bonus and title tables when missing.
func EnsureSchema(ctx context.Context, db *sql.DB, d Dialect) error {
	for _, stmt := range schemaDDL(d) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
