package timeseries

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddAndLast(t *testing.T) {
	s := New(nil, 0)
	s.Add(100, 1.5)
	s.Add(200, 2.5)

	last, ok := s.Last()
	require.True(t, ok)
	require.Equal(t, Sample{Timestamp: 200, Value: 2.5}, last)
}

func TestAddOverwritesSameTimestamp(t *testing.T) {
	s := New(nil, 0)
	s.Add(100, 1.0)
	s.Add(100, 2.0)
	require.Equal(t, 1, s.Len())
	last, _ := s.Last()
	require.Equal(t, 2.0, last.Value)
}

func TestIncrByAccumulates(t *testing.T) {
	s := New(nil, 0)
	require.Equal(t, 5.0, s.IncrBy(100, 5))
	require.Equal(t, 8.0, s.IncrBy(200, 3))
	require.Equal(t, 6.0, s.IncrBy(300, -2))
}

func TestRangeInclusiveBounds(t *testing.T) {
	s := New(nil, 0)
	s.Add(100, 1)
	s.Add(200, 2)
	s.Add(300, 3)

	got := s.Range(150, 300)
	require.Equal(t, []Sample{{200, 2}, {300, 3}}, got)
}

func TestRevRangeReversesOrder(t *testing.T) {
	s := New(nil, 0)
	s.Add(100, 1)
	s.Add(200, 2)

	got := s.RevRange(0, 1000)
	require.Equal(t, []Sample{{200, 2}, {100, 1}}, got)
}

func TestRetentionTrimsOldSamples(t *testing.T) {
	s := New(nil, 100)
	s.Add(0, 1)
	s.Add(50, 2)
	s.Add(250, 3) // now=250, cutoff=150: drops ts=0 and ts=50

	require.Equal(t, 1, s.Len())
	last, _ := s.Last()
	require.Equal(t, int64(250), last.Timestamp)
}

func TestDelRemovesInclusiveRange(t *testing.T) {
	s := New(nil, 0)
	s.Add(100, 1)
	s.Add(200, 2)
	s.Add(300, 3)

	n := s.Del(150, 250)
	require.Equal(t, 1, n)
	require.Equal(t, 2, s.Len())
}
