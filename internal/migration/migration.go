package migration

import (
	"context"

	"prowler/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the run store schema. Every statement is idempotent
// and portable between SQLite and PostgreSQL.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	steps := []struct {
		name string
		sql  string
	}{
		{"permutation_runs table", createRunsTable},
		{"run_trials table", createTrialsTable},
		{"enrichments table", createEnrichmentsTable},
		{"indexes", createIndexes},
		{"schema_version table", createVersionTable},
	}
	for _, step := range steps {
		if _, err := db.ExecContext(ctx, step.sql); err != nil {
			return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to create "+step.name))
		}
	}

	var count int
	if err := db.GetContext(ctx, &count, db.Rebind(`SELECT COUNT(*) FROM schema_version WHERE version = ?`), r.version); err != nil {
		return errors.Wrap(err, "failed to read schema version")
	}
	if count == 0 {
		if _, err := db.ExecContext(ctx, db.Rebind(`INSERT INTO schema_version (version) VALUES (?)`), r.version); err != nil {
			return errors.Wrap(err, "failed to record schema version")
		}
	}
	return nil
}

const createRunsTable = `
	CREATE TABLE IF NOT EXISTS permutation_runs (
		id TEXT PRIMARY KEY,
		strategy TEXT NOT NULL,
		trials INTEGER NOT NULL,
		workers INTEGER NOT NULL,
		threshold DOUBLE PRECISION NOT NULL,
		seed BIGINT NOT NULL,
		row_count INTEGER NOT NULL,
		observed_similar INTEGER NOT NULL,
		observed_dissimilar INTEGER NOT NULL,
		observed_mirror INTEGER NOT NULL,
		summary TEXT NOT NULL,
		significance TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`

const createTrialsTable = `
	CREATE TABLE IF NOT EXISTS run_trials (
		run_id TEXT NOT NULL REFERENCES permutation_runs(id) ON DELETE CASCADE,
		trial_index INTEGER NOT NULL,
		similar INTEGER NOT NULL,
		dissimilar INTEGER NOT NULL,
		mirror INTEGER NOT NULL,
		PRIMARY KEY (run_id, trial_index)
	)`

const createEnrichmentsTable = `
	CREATE TABLE IF NOT EXISTS enrichments (
		id TEXT PRIMARY KEY,
		label TEXT NOT NULL,
		column_name TEXT NOT NULL,
		selected INTEGER NOT NULL,
		total INTEGER NOT NULL,
		bins TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`

const createIndexes = `CREATE INDEX IF NOT EXISTS idx_permutation_runs_strategy ON permutation_runs(strategy, created_at)`

const createVersionTable = `
	CREATE TABLE IF NOT EXISTS schema_version (
		version TEXT PRIMARY KEY
	)`
