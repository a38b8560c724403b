package permutation

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"prowler/domain/core"
	"prowler/domain/profile"
)

// ClassSummary describes the null distribution of one class count.
type ClassSummary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
}

// Summary reduces a batch of trials.
type Summary struct {
	Trials     int          `json:"trials"`
	Similar    ClassSummary `json:"similar"`
	Dissimilar ClassSummary `json:"dissimilar"`
	Mirror     ClassSummary `json:"mirror"`
}

// Mean returns the three mean counts.
func (s Summary) Mean() (similar, dissimilar, mirror float64) {
	return s.Similar.Mean, s.Dissimilar.Mean, s.Mirror.Mean
}

// Aggregate averages the class counts of results. The slice is not modified
// and the result does not depend on its order.
func Aggregate(results []TrialResult) (Summary, error) {
	if len(results) == 0 {
		return Summary{}, fmt.Errorf("%w: aggregate over zero trials", core.ErrDivision)
	}

	var err error
	summary := Summary{Trials: len(results)}
	if summary.Similar, err = summarize(classCounts(results, func(t profile.Tally) int { return t.Similar })); err != nil {
		return Summary{}, fmt.Errorf("similar: %w", err)
	}
	if summary.Dissimilar, err = summarize(classCounts(results, func(t profile.Tally) int { return t.Dissimilar })); err != nil {
		return Summary{}, fmt.Errorf("dissimilar: %w", err)
	}
	if summary.Mirror, err = summarize(classCounts(results, func(t profile.Tally) int { return t.Mirror })); err != nil {
		return Summary{}, fmt.Errorf("mirror: %w", err)
	}
	return summary, nil
}

func classCounts(results []TrialResult, pick func(profile.Tally) int) []float64 {
	xs := make([]float64, len(results))
	for i, r := range results {
		xs[i] = float64(pick(r.Tally))
	}
	return xs
}

func summarize(xs []float64) (ClassSummary, error) {
	mean, std := stat.MeanStdDev(xs, nil)
	if len(xs) < 2 || math.IsNaN(std) {
		std = 0
	}
	data := stats.Float64Data(xs)

	lo, err := stats.Min(data)
	if err != nil {
		return ClassSummary{}, err
	}
	hi, err := stats.Max(data)
	if err != nil {
		return ClassSummary{}, err
	}
	median, err := stats.Median(data)
	if err != nil {
		return ClassSummary{}, err
	}
	p95, err := stats.Percentile(data, 95)
	if err != nil {
		return ClassSummary{}, err
	}
	return ClassSummary{Mean: mean, StdDev: std, Min: lo, Max: hi, Median: median, P95: p95}, nil
}
