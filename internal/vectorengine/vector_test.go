package vectorengine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetGetRoundTrip(t *testing.T) {
	s := New()
	require.NoError(t, s.Set("a", []float64{1, 0, 0}, map[string]string{"kind": "x"}))

	v, attrs, ok := s.Get("a")
	require.True(t, ok)
	require.Equal(t, []float64{1, 0, 0}, v)
	require.Equal(t, "x", attrs["kind"])
}

func TestSetRejectsDimMismatch(t *testing.T) {
	s := New()
	require.NoError(t, s.Set("a", []float64{1, 0}, nil))
	err := s.Set("b", []float64{1, 0, 0}, nil)
	require.Error(t, err)
}

func TestDelReportsExistence(t *testing.T) {
	s := New()
	require.False(t, s.Del("missing"))
	s.Set("a", []float64{1}, nil)
	require.True(t, s.Del("a"))
	require.Equal(t, 0, s.Len())
}

func TestSimRanksByCosineSimilarity(t *testing.T) {
	s := New()
	s.Set("same", []float64{1, 0}, nil)
	s.Set("orthogonal", []float64{0, 1}, nil)
	s.Set("opposite", []float64{-1, 0}, nil)

	results := s.Sim([]float64{1, 0}, 3)
	require.Len(t, results, 3)
	require.Equal(t, "same", results[0].ID)
	require.InDelta(t, 1.0, results[0].Score, 1e-9)
	require.Equal(t, "opposite", results[2].ID)
}

func TestSearchAppliesFilter(t *testing.T) {
	s := New()
	s.Set("a", []float64{1, 0}, map[string]string{"tag": "keep"})
	s.Set("b", []float64{1, 0}, map[string]string{"tag": "drop"})

	results := s.Search([]float64{1, 0}, 10, func(id string, attrs map[string]string) bool {
		return attrs["tag"] == "keep"
	})
	require.Len(t, results, 1)
	require.Equal(t, "a", results[0].ID)
}

func TestSimRespectsCount(t *testing.T) {
	s := New()
	s.Set("a", []float64{1}, nil)
	s.Set("b", []float64{1}, nil)
	s.Set("c", []float64{1}, nil)
	require.Len(t, s.Sim([]float64{1}, 2), 2)
}
