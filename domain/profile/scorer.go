package profile

import (
	"fmt"
	"math"

	"prowler/domain/core"
)

// ScoreFunc compares two profiles of equal length.
type ScoreFunc func(a, b Profile) (float64, error)

// ScorePair counts the positions where a and b carry the same sign. The score
// ranges from 0, every position differs, to the profile length.
func ScorePair(a, b Profile) (float64, error) {
	if a.Len() != b.Len() {
		return 0, core.NewValidationError("profile pair",
			fmt.Sprintf("lengths differ: %d vs %d", a.Len(), b.Len()))
	}
	matches := 0
	for i := 0; i < a.Len(); i++ {
		if a[i] == b[i] {
			matches++
		}
	}
	return float64(matches), nil
}

// Class is the similarity outcome of one scored pair.
type Class int

const (
	Similar Class = iota
	Dissimilar
	Mirror
)

func (c Class) String() string {
	switch c {
	case Similar:
		return "similar"
	case Dissimilar:
		return "dissimilar"
	case Mirror:
		return "mirror"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// ValidateThreshold rejects thresholds under which a zero score would be both
// similar and mirror.
func ValidateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return core.NewValidationError("threshold", "must be finite")
	}
	if threshold <= 0 {
		return core.NewValidationError("threshold", fmt.Sprintf("must be positive, got %v", threshold))
	}
	return nil
}

// Classify places score into exactly one class:
//
//	similar:    score >= threshold
//	dissimilar: 0 < score < threshold
//	mirror:     score == 0
//
// Negative or NaN scores are rejected rather than clamped.
func Classify(score, threshold float64) (Class, error) {
	if math.IsNaN(score) || score < 0 {
		return 0, core.NewValidationError("similarity score", fmt.Sprintf("must be non-negative, got %v", score))
	}
	switch {
	case score == 0:
		return Mirror, nil
	case score >= threshold:
		return Similar, nil
	default:
		return Dissimilar, nil
	}
}

// Tally holds per-class counts.
type Tally struct {
	Similar    int `json:"similar"`
	Dissimilar int `json:"dissimilar"`
	Mirror     int `json:"mirror"`
}

// Add records one classified pair.
func (t *Tally) Add(c Class) {
	switch c {
	case Similar:
		t.Similar++
	case Dissimilar:
		t.Dissimilar++
	case Mirror:
		t.Mirror++
	}
}

// Total is the number of pairs tallied.
func (t Tally) Total() int { return t.Similar + t.Dissimilar + t.Mirror }
