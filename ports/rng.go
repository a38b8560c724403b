package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic operations
type RNGPort interface {
	// Stream creates the generator for one permutation trial. The same
	// (stream, trial, seed) always yields the same sequence, so a run is
	// reproducible whatever order its trials complete in.
	Stream(ctx context.Context, stream string, trial int, seed int64) (*rand.Rand, error)
}
