package stats

import (
	"prowler/domain/core"
	"prowler/domain/interaction"
	"prowler/domain/profile"
)

// Properties summarises a (possibly filtered) interaction table.
type Properties struct {
	Total       int `json:"total"`
	DMFPositive int `json:"dmf_positive"`
	DMFNegative int `json:"dmf_negative"`
	// Profiles is only set when a threshold was given.
	Profiles *profile.Tally `json:"profiles,omitempty"`
	// Histogram counts rows per PSS value, ordered by value.
	Histogram []HistogramBin `json:"histogram"`
}

// HistogramBin is one PSS value with its row count.
type HistogramBin struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Describe counts the table's DMF directions, its PSS histogram and, when
// threshold is non-nil, its similar/dissimilar/mirror split.
func Describe(t interaction.Table, threshold *float64) (Properties, error) {
	props := Properties{Total: t.Len()}
	for i := 0; i < t.Len(); i++ {
		r := t.Record(i)
		if r.PositiveDMF() {
			props.DMFPositive++
		}
		if r.NegativeDMF() {
			props.DMFNegative++
		}
	}

	if t.Len() > 0 && t.Scored() {
		counts, order, err := countBy(t, interaction.ColumnPSS)
		if err != nil {
			return Properties{}, err
		}
		props.Histogram = make([]HistogramBin, len(order))
		for i, v := range order {
			props.Histogram[i] = HistogramBin{Value: v, Count: counts[v]}
		}
	}

	if threshold != nil {
		tally, err := t.Tally(*threshold)
		if err != nil {
			return Properties{}, err
		}
		props.Profiles = &tally
	}
	return props, nil
}

// ExpectedCoOccurrence is the number of rows expected to be both DMF-positive
// and similar if the two properties were independent.
func ExpectedCoOccurrence(p Properties) (float64, error) {
	if p.Profiles == nil {
		return 0, core.NewPreconditionError("expected co-occurrence needs a profile tally")
	}
	if p.Total == 0 {
		return 0, core.ErrDivision
	}
	return float64(p.DMFPositive) * float64(p.Profiles.Similar) / float64(p.Total), nil
}
