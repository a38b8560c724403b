package rng

import (
	"context"
	"testing"

	"prowler/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.RNGPort = (*Adapter)(nil)

func draw(t *testing.T, a *Adapter, stream string, trial int, seed int64) []int {
	t.Helper()
	r, err := a.Stream(context.Background(), stream, trial, seed)
	require.NoError(t, err)
	out := make([]int, 8)
	for i := range out {
		out[i] = r.Intn(1000)
	}
	return out
}

func TestStreamIsDeterministic(t *testing.T) {
	a := New()
	assert.Equal(t, draw(t, a, "names", 3, 42), draw(t, a, "names", 3, 42))
}

func TestStreamsDiffer(t *testing.T) {
	a := New()
	base := draw(t, a, "names", 3, 42)
	assert.NotEqual(t, base, draw(t, a, "names", 4, 42), "trial")
	assert.NotEqual(t, base, draw(t, a, "columns", 3, 42), "stream")
	assert.NotEqual(t, base, draw(t, a, "names", 3, 43), "seed")
}

func TestStreamHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Stream(ctx, "names", 0, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHashString(t *testing.T) {
	assert.Equal(t, uint32(5381), hashString(""))
	assert.Equal(t, uint32(5381*33+'a'), hashString("a"))
}
