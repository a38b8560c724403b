package permutation

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"

	"prowler/domain/core"
	"prowler/domain/profile"
)

// ClassSignificance compares one observed class count with its null
// distribution.
type ClassSignificance struct {
	Observed int     `json:"observed"`
	NullMean float64 `json:"null_mean"`
	// PValue is the empirical upper-tail p-value (extreme+1)/(trials+1),
	// where extreme counts trials at least as large as Observed.
	PValue float64 `json:"p_value"`
	// ZScore and NormalPValue are nil when the null distribution has no
	// spread.
	ZScore       *float64 `json:"z_score"`
	NormalPValue *float64 `json:"normal_p_value"`
}

// Significance is the observed tally set against a batch of trials.
type Significance struct {
	Trials     int               `json:"trials"`
	Similar    ClassSignificance `json:"similar"`
	Dissimilar ClassSignificance `json:"dissimilar"`
	Mirror     ClassSignificance `json:"mirror"`
}

// Compare rates observed against the per-trial counts of results.
func Compare(observed profile.Tally, results []TrialResult) (Significance, error) {
	summary, err := Aggregate(results)
	if err != nil {
		return Significance{}, fmt.Errorf("comparing against null: %w", err)
	}
	if observed.Total() == 0 {
		return Significance{}, core.NewPreconditionError("observed tally is empty")
	}

	return Significance{
		Trials: len(results),
		Similar: compareClass(observed.Similar, summary.Similar,
			classCounts(results, func(t profile.Tally) int { return t.Similar })),
		Dissimilar: compareClass(observed.Dissimilar, summary.Dissimilar,
			classCounts(results, func(t profile.Tally) int { return t.Dissimilar })),
		Mirror: compareClass(observed.Mirror, summary.Mirror,
			classCounts(results, func(t profile.Tally) int { return t.Mirror })),
	}, nil
}

func compareClass(observed int, null ClassSummary, counts []float64) ClassSignificance {
	extreme := 0
	for _, c := range counts {
		if c >= float64(observed) {
			extreme++
		}
	}
	out := ClassSignificance{
		Observed: observed,
		NullMean: null.Mean,
		PValue:   float64(extreme+1) / float64(len(counts)+1),
	}
	if null.StdDev > 0 {
		z := (float64(observed) - null.Mean) / null.StdDev
		p := distuv.UnitNormal.Survival(z)
		out.ZScore = &z
		out.NormalPValue = &p
	}
	return out
}
