package probabilistic

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTDigestQuantileApproximatesMedian(t *testing.T) {
	td, err := NewTDigest(100)
	require.NoError(t, err)

	for i := 1; i <= 1000; i++ {
		require.NoError(t, td.Add(float64(i)))
	}
	require.EqualValues(t, 1000, td.Count())
	require.InDelta(t, 500, td.Quantile(0.5), 20)
}

func TestTDigestMergeCombinesObservations(t *testing.T) {
	a, err := NewTDigest(100)
	require.NoError(t, err)
	b, err := NewTDigest(100)
	require.NoError(t, err)

	for i := 1; i <= 500; i++ {
		require.NoError(t, a.Add(float64(i)))
	}
	for i := 501; i <= 1000; i++ {
		require.NoError(t, b.Add(float64(i)))
	}
	require.NoError(t, a.Merge(b))
	require.EqualValues(t, 1000, a.Count())
}

func TestTDigestDefaultsCompressionWhenUnset(t *testing.T) {
	td, err := NewTDigest(0)
	require.NoError(t, err)
	require.Equal(t, float64(defaultCompression), td.compression)
}
