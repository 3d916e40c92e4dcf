package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrationStatements = []string{
	`DO $$ BEGIN CREATE TYPE session_status AS ENUM ('active', 'finished'); EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`CREATE TABLE IF NOT EXISTS boardroom_sessions (
		id TEXT PRIMARY KEY,
		company_name TEXT NOT NULL,
		created_by TEXT NOT NULL DEFAULT '',
		quarter INTEGER NOT NULL,
		phase TEXT NOT NULL,
		status session_status NOT NULL DEFAULT 'active',
		current_agenda_index INTEGER NOT NULL DEFAULT 0,
		participants JSONB NOT NULL DEFAULT '[]',
		agenda JSONB NOT NULL DEFAULT '[]',
		messages JSONB NOT NULL DEFAULT '[]',
		company_state JSONB NOT NULL,
		config JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		phase_started_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_boardroom_sessions_status ON boardroom_sessions (status, created_at DESC)`,
}

var sqliteMigrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS boardroom_sessions (
		id TEXT PRIMARY KEY,
		company_name TEXT NOT NULL,
		created_by TEXT NOT NULL DEFAULT '',
		quarter INTEGER NOT NULL,
		phase TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'finished')),
		current_agenda_index INTEGER NOT NULL DEFAULT 0,
		participants TEXT NOT NULL DEFAULT '[]',
		agenda TEXT NOT NULL DEFAULT '[]',
		messages TEXT NOT NULL DEFAULT '[]',
		company_state TEXT NOT NULL,
		config TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		phase_started_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_boardroom_sessions_status ON boardroom_sessions (status, created_at DESC)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
