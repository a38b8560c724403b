package ports

import (
	"context"
	"encoding/json"
	"time"

	"prowler/domain/core"
	"prowler/domain/profile"
	"prowler/domain/stats"
)

// RunRecord is the stored form of a finished permutation run.
type RunRecord struct {
	ID        core.RunID
	Strategy  string
	Trials    int
	Workers   int
	Threshold float64
	Seed      int64
	Rows      int
	Observed  profile.Tally
	// Summary and Significance are opaque JSON documents owned by the
	// permutation package.
	Summary      json.RawMessage
	Significance json.RawMessage
	Counts       []TrialCounts
	CreatedAt    time.Time
}

// TrialCounts is the tally of one trial.
type TrialCounts struct {
	Index int
	profile.Tally
}

// EnrichmentRecord is a stored enrichment table.
type EnrichmentRecord struct {
	ID        core.ID
	Label     string
	Table     stats.EnrichmentTable
	CreatedAt time.Time
}

// RunFilters for listing runs
type RunFilters struct {
	Strategy string
	Limit    int
	Offset   int
}

// RunRepository persists permutation runs and enrichment tables
type RunRepository interface {
	SaveRun(ctx context.Context, run *RunRecord) error
	GetRun(ctx context.Context, id core.RunID) (*RunRecord, error)
	ListRuns(ctx context.Context, filters RunFilters) ([]*RunRecord, error)
	DeleteRun(ctx context.Context, id core.RunID) error

	SaveEnrichment(ctx context.Context, rec *EnrichmentRecord) error
	GetEnrichment(ctx context.Context, id core.ID) (*EnrichmentRecord, error)
}
