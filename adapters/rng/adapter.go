package rng

import (
	"context"
	"math/rand"
	"strconv"
)

// Adapter implements ports.RNGPort with math/rand sources whose seeds are
// derived from the stream name, the trial index and the base seed.
type Adapter struct{}

// New returns an RNG adapter.
func New() *Adapter {
	return &Adapter{}
}

// Stream creates the generator for one trial of a stream.
func (a *Adapter) Stream(ctx context.Context, stream string, trial int, seed int64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	derived := seed
	if stream != "" {
		derived += int64(hashString(stream))
	}
	// trial indices are mixed in through the hash so that adjacent trials do
	// not get adjacent seeds
	derived += int64(hashString(stream+"#"+strconv.Itoa(trial))) << 16
	return rand.New(rand.NewSource(derived)), nil
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c) // djb2 algorithm
	}
	return hash
}
