package stats

import (
	"testing"

	"prowler/domain/core"
	"prowler/domain/interaction"
	"prowler/domain/profile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	rows := []interaction.Record{
		{QueryID: "A", ArrayID: "B", DMF: 0.9, QuerySMF: 0.5, ArraySMF: 0.6, QueryProfile: "+++", ArrayProfile: "+++"},
		{QueryID: "A", ArrayID: "C", DMF: 0.9, QuerySMF: 0.5, ArraySMF: 0.6, QueryProfile: "+++", ArrayProfile: "+-+"},
		{QueryID: "B", ArrayID: "C", DMF: 0.1, QuerySMF: 0.5, ArraySMF: 0.6, QueryProfile: "+++", ArrayProfile: "---"},
		{QueryID: "C", ArrayID: "D", DMF: 0.55, QuerySMF: 0.5, ArraySMF: 0.6, QueryProfile: "+-+", ArrayProfile: "++-"},
	}
	table, err := interaction.ScoreTable(interaction.MustTable(rows), profile.ScorePair)
	require.NoError(t, err)

	threshold := 2.0
	props, err := Describe(table, &threshold)
	require.NoError(t, err)

	assert.Equal(t, 4, props.Total)
	assert.Equal(t, 2, props.DMFPositive)
	assert.Equal(t, 1, props.DMFNegative)
	require.NotNil(t, props.Profiles)
	assert.Equal(t, profile.Tally{Similar: 2, Dissimilar: 1, Mirror: 1}, *props.Profiles)
	assert.Equal(t, []HistogramBin{{"0", 1}, {"1", 1}, {"2", 1}, {"3", 1}}, props.Histogram)

	expected, err := ExpectedCoOccurrence(props)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, expected, 1e-12)
}

func TestDescribeWithoutThreshold(t *testing.T) {
	table := interaction.MustTable([]interaction.Record{
		{QueryID: "A", ArrayID: "B", QueryProfile: "+", ArrayProfile: "-"},
	})
	props, err := Describe(table, nil)
	require.NoError(t, err)
	assert.Nil(t, props.Profiles)
	assert.Empty(t, props.Histogram)

	_, err = ExpectedCoOccurrence(props)
	assert.True(t, core.IsPreconditionError(err))
}
