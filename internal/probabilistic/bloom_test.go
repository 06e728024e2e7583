package probabilistic

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBloomAddThenExists(t *testing.T) {
	b := NewBloom(1000, 0.01)
	require.False(t, b.Exists([]byte("x")))

	added := b.Add([]byte("x"))
	require.True(t, added)
	require.True(t, b.Exists([]byte("x")))
}

func TestBloomReAddReportsNotNew(t *testing.T) {
	b := NewBloom(1000, 0.01)
	b.Add([]byte("x"))
	require.False(t, b.Add([]byte("x")))
}

func TestBloomInfoReflectsReserveArgs(t *testing.T) {
	b := NewBloom(500, 0.02)
	require.EqualValues(t, 500, b.Capacity())
	require.InDelta(t, 0.02, b.ErrorRate(), 1e-9)
}
