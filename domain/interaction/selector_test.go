package interaction

import (
	"testing"

	"prowler/domain/core"
	"prowler/domain/profile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func screen() Table {
	rows := []Record{
		{QueryID: "Q1", ArrayID: "A1", DMF: 0.9, QuerySMF: 0.7, ArraySMF: 0.8, GIS: 0.2, Bioprocess: "identical", QueryProfile: "+++", ArrayProfile: "++-"},
		{QueryID: "Q2", ArrayID: "A2", DMF: 0.1, QuerySMF: 0.7, ArraySMF: 0.8, GIS: -0.3, Bioprocess: "different", QueryProfile: "+-+", ArrayProfile: "-+-"},
		{QueryID: "Q3", ArrayID: "A3", DMF: 0.9, QuerySMF: 1.1, ArraySMF: 0.8, GIS: 0.01, Bioprocess: "different", QueryProfile: "---", ArrayProfile: "+-+"},
		{QueryID: "Q4", ArrayID: "A4", DMF: 0.75, QuerySMF: 0.7, ArraySMF: 0.8, GIS: 0.05, Bioprocess: "identical", QueryProfile: "+0-", ArrayProfile: "+0-"},
	}
	scored, err := ScoreTable(MustTable(rows), profile.ScorePair)
	if err != nil {
		panic(err)
	}
	return scored
}

func ids(t Table) []string {
	out := make([]string, t.Len())
	for i := range out {
		out[i] = t.Record(i).QueryID
	}
	return out
}

func float(v float64) *float64 { return &v }

func TestSelectorFilters(t *testing.T) {
	tests := []struct {
		name     string
		selector Selector
		want     []string
		names    []string
	}{
		{"no filters", Selector{}, []string{"Q1", "Q2", "Q3", "Q4"}, []string{}},
		{"default drops healthy single mutants", DefaultSelector(), []string{"Q1", "Q2", "Q4"}, []string{"SMF_blw_1"}},
		{"positive DMF", Selector{DMF: DMFPositive}, []string{"Q1"}, []string{"DMF_p"}},
		{"negative DMF", Selector{DMF: DMFNegative}, []string{"Q2"}, []string{"DMF_n"}},
		{"GIS window", Selector{GISMin: float(0.0), GISMax: float(0.1)}, []string{"Q3", "Q4"}, []string{"gis_0.1", "gis_0"}},
		{"no flat minus", Selector{NoFlatMinus: true}, []string{"Q1", "Q2", "Q4"}, []string{"no_min_flat"}},
		{"no flat plus", Selector{NoFlatPlus: true}, []string{"Q2", "Q3", "Q4"}, []string{"no_plus_flat"}},
		{"identical process", Selector{Process: ProcessIdentical}, []string{"Q1", "Q4"}, []string{"iden_proc"}},
		{"similar profiles", Selector{Profiles: ProfilesSimilar, Threshold: float(2)}, []string{"Q1", "Q4"}, []string{"sim_prof"}},
		{"dissimilar profiles", Selector{Profiles: ProfilesDissimilar, Threshold: float(2)}, []string{"Q2", "Q3"}, []string{"dis_prof"}},
		{"chained", Selector{SMFBelowOne: true, Process: ProcessDifferent}, []string{"Q2"}, []string{"SMF_blw_1", "diff_proc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := screen()
			sel, err := tt.selector.Apply(input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(sel.Table))
			assert.Equal(t, tt.names, sel.Names)
			assert.Len(t, sel.Filters, len(tt.names))
			assert.Equal(t, 4, input.Len(), "input table must not shrink")
		})
	}
}

func TestSelectorThresholdPairing(t *testing.T) {
	_, err := Selector{Profiles: ProfilesSimilar}.Apply(screen())
	assert.True(t, core.IsPreconditionError(err))

	_, err = Selector{Threshold: float(2)}.Apply(screen())
	assert.True(t, core.IsPreconditionError(err))

	_, err = Selector{DMF: "sideways"}.Apply(screen())
	assert.True(t, core.IsValidationError(err))
}

func TestSelectorNeedsScoresForProfileFilter(t *testing.T) {
	unscored := MustTable([]Record{rec("A", "B", "++", "++")})
	_, err := Selector{Profiles: ProfilesSimilar, Threshold: float(1)}.Apply(unscored)
	assert.True(t, core.IsValidationError(err))
}
