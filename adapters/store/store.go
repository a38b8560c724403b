// Package store persists permutation runs and enrichment tables with sqlx on
// SQLite or PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"prowler/domain/core"
	"prowler/domain/interaction"
	"prowler/domain/profile"
	"prowler/internal/config"
	"prowler/internal/errors"
	"prowler/internal/migration"
	"prowler/ports"
)

func init() {
	sqlx.BindDriver(config.DriverSQLite, sqlx.QUESTION)
}

// RunRepository implements ports.RunRepository.
type RunRepository struct {
	db *sqlx.DB
}

// Open connects to the store and applies the schema. driver is
// config.DriverSQLite or config.DriverPostgres.
func Open(ctx context.Context, driver, dsn string) (*RunRepository, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrapf(err, "failed to connect to %s store", driver))
	}
	if driver == config.DriverSQLite {
		// a single connection keeps :memory: databases shared and serialises writers
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
			db.Close()
			return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to enable foreign keys"))
		}
	}
	if err := newRunner().Run(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return NewRunRepository(db), nil
}

// NewRunRepository wraps an already migrated database.
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Close closes the database.
func (r *RunRepository) Close() error {
	return r.db.Close()
}

type runRow struct {
	ID                 string  `db:"id"`
	Strategy           string  `db:"strategy"`
	Trials             int     `db:"trials"`
	Workers            int     `db:"workers"`
	Threshold          float64 `db:"threshold"`
	Seed               int64   `db:"seed"`
	Rows               int     `db:"row_count"`
	ObservedSimilar    int     `db:"observed_similar"`
	ObservedDissimilar int     `db:"observed_dissimilar"`
	ObservedMirror     int     `db:"observed_mirror"`
	Summary            string  `db:"summary"`
	Significance       string  `db:"significance"`
	CreatedAt          string  `db:"created_at"`
}

type trialRow struct {
	Index      int `db:"trial_index"`
	Similar    int `db:"similar"`
	Dissimilar int `db:"dissimilar"`
	Mirror     int `db:"mirror"`
}

const runColumns = `id, strategy, trials, workers, threshold, seed, row_count,
	observed_similar, observed_dissimilar, observed_mirror, summary, significance, created_at`

// SaveRun stores the run and its per-trial counts in one transaction.
func (r *RunRepository) SaveRun(ctx context.Context, run *ports.RunRecord) error {
	if run.ID == "" {
		return core.NewValidationError("run", "ID is required")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = core.Now()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to begin transaction"))
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, tx.Rebind(`INSERT INTO permutation_runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		string(run.ID), run.Strategy, run.Trials, run.Workers, run.Threshold, run.Seed, run.Rows,
		run.Observed.Similar, run.Observed.Dissimilar, run.Observed.Mirror,
		rawOrEmpty(run.Summary), rawOrEmpty(run.Significance), formatTime(run.CreatedAt))
	if err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrapf(err, "failed to insert run %s", run.ID))
	}

	insertTrial := tx.Rebind(`INSERT INTO run_trials (run_id, trial_index, similar, dissimilar, mirror) VALUES (?, ?, ?, ?, ?)`)
	for _, c := range run.Counts {
		if _, err := tx.ExecContext(ctx, insertTrial, string(run.ID), c.Index, c.Similar, c.Dissimilar, c.Mirror); err != nil {
			return errors.WithCode(errors.CodeDatabaseError, errors.Wrapf(err, "failed to insert trial %d", c.Index))
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to commit run"))
	}
	return nil
}

// GetRun loads a run with its trial counts in index order.
func (r *RunRepository) GetRun(ctx context.Context, id core.RunID) (*ports.RunRecord, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT `+runColumns+` FROM permutation_runs WHERE id = ?`), string(id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrapf(err, "failed to load run %s", id))
	}
	rec, err := row.record()
	if err != nil {
		return nil, err
	}

	var trials []trialRow
	err = r.db.SelectContext(ctx, &trials, r.db.Rebind(`SELECT trial_index, similar, dissimilar, mirror
		FROM run_trials WHERE run_id = ? ORDER BY trial_index`), string(id))
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrapf(err, "failed to load trials of run %s", id))
	}
	rec.Counts = make([]ports.TrialCounts, len(trials))
	for i, t := range trials {
		rec.Counts[i] = ports.TrialCounts{Index: t.Index, Tally: profile.Tally{Similar: t.Similar, Dissimilar: t.Dissimilar, Mirror: t.Mirror}}
	}
	return rec, nil
}

// ListRuns returns runs newest first, without their trial counts.
func (r *RunRepository) ListRuns(ctx context.Context, filters ports.RunFilters) ([]*ports.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM permutation_runs`
	var args []interface{}
	if filters.Strategy != "" {
		query += ` WHERE strategy = ?`
		args = append(args, filters.Strategy)
	}
	query += ` ORDER BY created_at DESC, id`
	if filters.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filters.Limit)
		if filters.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filters.Offset)
		}
	}

	var rows []runRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to list runs"))
	}
	out := make([]*ports.RunRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// DeleteRun removes a run and its trials.
func (r *RunRepository) DeleteRun(ctx context.Context, id core.RunID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to begin transaction"))
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM run_trials WHERE run_id = ?`), string(id)); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrapf(err, "failed to delete trials of run %s", id))
	}
	res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM permutation_runs WHERE id = ?`), string(id))
	if err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrapf(err, "failed to delete run %s", id))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
	}
	return tx.Commit()
}

type enrichmentRow struct {
	ID        string `db:"id"`
	Label     string `db:"label"`
	Column    string `db:"column_name"`
	Selected  int    `db:"selected"`
	Total     int    `db:"total"`
	Bins      string `db:"bins"`
	CreatedAt string `db:"created_at"`
}

// SaveEnrichment stores an enrichment table.
func (r *RunRepository) SaveEnrichment(ctx context.Context, rec *ports.EnrichmentRecord) error {
	if rec.ID.IsEmpty() {
		rec.ID = core.NewID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = core.Now()
	}
	bins, err := json.Marshal(rec.Table.Bins)
	if err != nil {
		return errors.Wrap(err, "failed to encode enrichment bins")
	}
	_, err = r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO enrichments (id, label, column_name, selected, total, bins, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		rec.ID.String(), rec.Label, string(rec.Table.Column), rec.Table.Selected, rec.Table.Total, string(bins), formatTime(rec.CreatedAt))
	if err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrapf(err, "failed to insert enrichment %s", rec.ID))
	}
	return nil
}

// GetEnrichment loads an enrichment table.
func (r *RunRepository) GetEnrichment(ctx context.Context, id core.ID) (*ports.EnrichmentRecord, error) {
	var row enrichmentRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT id, label, column_name, selected, total, bins, created_at
		FROM enrichments WHERE id = ?`), id.String())
	if err == sql.ErrNoRows {
		return nil, core.NewNotFoundError("enrichment", id.String())
	}
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrapf(err, "failed to load enrichment %s", id))
	}

	rec := &ports.EnrichmentRecord{ID: core.ID(row.ID), Label: row.Label}
	rec.Table.Column = interaction.Column(row.Column)
	rec.Table.Selected = row.Selected
	rec.Table.Total = row.Total
	if err := json.Unmarshal([]byte(row.Bins), &rec.Table.Bins); err != nil {
		return nil, errors.Wrapf(err, "failed to decode bins of enrichment %s", id)
	}
	if rec.CreatedAt, err = parseTime(row.CreatedAt); err != nil {
		return nil, err
	}
	return rec, nil
}

func (row runRow) record() (*ports.RunRecord, error) {
	created, err := parseTime(row.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &ports.RunRecord{
		ID:           core.RunID(row.ID),
		Strategy:     row.Strategy,
		Trials:       row.Trials,
		Workers:      row.Workers,
		Threshold:    row.Threshold,
		Seed:         row.Seed,
		Rows:         row.Rows,
		Observed:     profile.Tally{Similar: row.ObservedSimilar, Dissimilar: row.ObservedDissimilar, Mirror: row.ObservedMirror},
		Summary:      json.RawMessage(row.Summary),
		Significance: json.RawMessage(row.Significance),
		CreatedAt:    created,
	}, nil
}

// timestamps are stored as fixed-width UTC text so they sort and round-trip
// the same way on both drivers
const timeLayout = "2006-01-02T15:04:05.000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "invalid stored timestamp %q", s)
	}
	return t, nil
}

func rawOrEmpty(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	return string(raw)
}

var _ ports.RunRepository = (*RunRepository)(nil)

func newRunner() migration.Migrator {
	return migration.NewRunner()
}
