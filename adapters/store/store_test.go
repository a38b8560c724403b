package store

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"prowler/domain/core"
	"prowler/domain/interaction"
	"prowler/domain/profile"
	"prowler/domain/stats"
	"prowler/internal/config"
	"prowler/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *RunRepository {
	t.Helper()
	repo, err := Open(context.Background(), config.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleRun(strategy string, created time.Time) *ports.RunRecord {
	return &ports.RunRecord{
		ID:           core.NewRunID(),
		Strategy:     strategy,
		Trials:       3,
		Workers:      2,
		Threshold:    2,
		Seed:         7,
		Rows:         4,
		Observed:     profile.Tally{Similar: 2, Dissimilar: 1, Mirror: 1},
		Summary:      json.RawMessage(`{"trials":3}`),
		Significance: json.RawMessage(`{"trials":3}`),
		Counts: []ports.TrialCounts{
			{Index: 2, Tally: profile.Tally{Similar: 1, Dissimilar: 2, Mirror: 1}},
			{Index: 0, Tally: profile.Tally{Similar: 2, Dissimilar: 1, Mirror: 1}},
			{Index: 1, Tally: profile.Tally{Similar: 3, Dissimilar: 0, Mirror: 1}},
		},
		CreatedAt: created,
	}
}

func TestSaveAndGetRun(t *testing.T) {
	repo := openMemory(t)
	ctx := context.Background()
	run := sampleRun("names", core.Now())

	require.NoError(t, repo.SaveRun(ctx, run))
	got, err := repo.GetRun(ctx, run.ID)
	require.NoError(t, err)

	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "names", got.Strategy)
	assert.Equal(t, run.Observed, got.Observed)
	assert.JSONEq(t, `{"trials":3}`, string(got.Summary))
	assert.True(t, run.CreatedAt.Equal(got.CreatedAt))
	require.Len(t, got.Counts, 3)
	for i, c := range got.Counts {
		assert.Equal(t, i, c.Index, "trials come back in index order")
	}
	assert.Equal(t, 3, got.Counts[1].Similar)
}

func TestGetRunNotFound(t *testing.T) {
	_, err := openMemory(t).GetRun(context.Background(), core.NewRunID())
	assert.ErrorIs(t, err, core.ErrRunNotFound)
	assert.True(t, core.IsNotFoundError(err))
}

func TestSaveRunRejectsDuplicates(t *testing.T) {
	repo := openMemory(t)
	run := sampleRun("names", core.Now())
	require.NoError(t, repo.SaveRun(context.Background(), run))
	assert.Error(t, repo.SaveRun(context.Background(), run))
}

func TestListRuns(t *testing.T) {
	repo := openMemory(t)
	ctx := context.Background()
	base := core.Now()
	older := sampleRun("columns", base.Add(-time.Hour))
	newer := sampleRun("columns", base)
	other := sampleRun("identity", base.Add(-30*time.Minute))
	for _, r := range []*ports.RunRecord{older, newer, other} {
		require.NoError(t, repo.SaveRun(ctx, r))
	}

	all, err := repo.ListRuns(ctx, ports.RunFilters{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, newer.ID, all[0].ID)
	assert.Equal(t, other.ID, all[1].ID)
	assert.Nil(t, all[0].Counts)

	columns, err := repo.ListRuns(ctx, ports.RunFilters{Strategy: "columns", Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, columns, 1)
	assert.Equal(t, older.ID, columns[0].ID)
}

func TestDeleteRun(t *testing.T) {
	repo := openMemory(t)
	ctx := context.Background()
	run := sampleRun("catalogue", core.Now())
	require.NoError(t, repo.SaveRun(ctx, run))

	require.NoError(t, repo.DeleteRun(ctx, run.ID))
	_, err := repo.GetRun(ctx, run.ID)
	assert.ErrorIs(t, err, core.ErrRunNotFound)
	assert.ErrorIs(t, repo.DeleteRun(ctx, run.ID), core.ErrRunNotFound)
}

func TestEnrichmentRoundTrip(t *testing.T) {
	repo := openMemory(t)
	ctx := context.Background()
	fc, ok := stats.FoldChange(1, 0)
	rec := &ports.EnrichmentRecord{
		Label: "DMF_p SMF_blw_1",
		Table: stats.EnrichmentTable{
			Column:   interaction.ColumnBioprocess,
			Selected: 5,
			Total:    10,
			Bins: []stats.EnrichmentBin{
				{Category: "different", Count: 1, Probability: 0.6, ExpectedCount: 3, Score: -2.5, ExpectedScore: -1, FoldChange: -1.5, FoldChangeDefined: true},
				{Category: "identical", Count: 1, FoldChange: fc, FoldChangeDefined: ok},
			},
		},
	}
	require.NoError(t, repo.SaveEnrichment(ctx, rec))
	require.False(t, rec.ID.IsEmpty())

	got, err := repo.GetEnrichment(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Label, got.Label)
	assert.Equal(t, interaction.ColumnBioprocess, got.Table.Column)
	assert.Equal(t, rec.Table.Bins[0], got.Table.Bins[0])
	assert.False(t, got.Table.Bins[1].FoldChangeDefined)

	_, err = repo.GetEnrichment(ctx, core.NewID())
	assert.True(t, core.IsNotFoundError(err))
}

func TestMigrationsAreIdempotent(t *testing.T) {
	repo := openMemory(t)
	ctx := context.Background()
	require.NoError(t, repo.SaveRun(ctx, sampleRun("names", core.Now())))
	require.NoError(t, newRunner().Run(ctx, repo.db))

	var versions int
	require.NoError(t, repo.db.GetContext(ctx, &versions, `SELECT COUNT(*) FROM schema_version`))
	assert.Equal(t, 1, versions)

	runs, err := repo.ListRuns(ctx, ports.RunFilters{})
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestPostgres(t *testing.T) {
	dsn := os.Getenv("PROWLER_TEST_POSTGRES")
	if dsn == "" {
		t.Skip("PROWLER_TEST_POSTGRES not set")
	}
	repo, err := Open(context.Background(), config.DriverPostgres, dsn)
	require.NoError(t, err)
	defer repo.Close()

	run := sampleRun("names", core.Now())
	require.NoError(t, repo.SaveRun(context.Background(), run))
	defer repo.DeleteRun(context.Background(), run.ID)

	got, err := repo.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Len(t, got.Counts, 3)
}
