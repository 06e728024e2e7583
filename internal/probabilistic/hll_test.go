package probabilistic

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHLLCountApproximatesCardinality(t *testing.T) {
	h := NewHLL()
	const n = 10000
	for i := 0; i < n; i++ {
		h.Add([]byte(fmt.Sprintf("item-%d", i)))
	}
	count := h.Count()
	// Standard HLL error bound at m=16384 is ~0.8%; allow headroom.
	require.InEpsilonf(t, float64(n), float64(count), 0.05, "estimate %d too far from %d", count, n)
}

func TestHLLAddDuplicateNeverChanges(t *testing.T) {
	h := NewHLL()
	h.Add([]byte("x"))
	changed := false
	for i := 0; i < 100; i++ {
		if h.Add([]byte("x")) {
			changed = true
		}
	}
	require.False(t, changed, "re-adding the same element should never raise a register")
}

func TestHLLMergeUnionsCardinality(t *testing.T) {
	a := NewHLL()
	b := NewHLL()
	for i := 0; i < 5000; i++ {
		a.Add([]byte(fmt.Sprintf("a-%d", i)))
	}
	for i := 0; i < 5000; i++ {
		b.Add([]byte(fmt.Sprintf("b-%d", i)))
	}
	a.Merge(b)
	require.InEpsilon(t, 10000, float64(a.Count()), 0.06)
}

func TestHLLCloneIsIndependent(t *testing.T) {
	a := NewHLL()
	a.Add([]byte("x"))
	clone := a.Clone()
	clone.Add([]byte("y"))
	require.NotEqual(t, a.Count(), clone.Count())
}
