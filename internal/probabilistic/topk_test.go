package probabilistic

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTopKTracksHeaviestItems(t *testing.T) {
	tk := NewTopK(2)
	tk.Add("a")
	tk.Add("a")
	tk.Add("a")
	tk.Add("b")
	dropped := tk.Add("c")

	require.NotEmpty(t, dropped)
	require.True(t, tk.Query("a"))
	require.Equal(t, uint64(3), tk.Count("a"))
}

func TestTopKQueryMissingItem(t *testing.T) {
	tk := NewTopK(3)
	require.False(t, tk.Query("ghost"))
	require.Equal(t, uint64(0), tk.Count("ghost"))
}

func TestTopKListOrdersByCount(t *testing.T) {
	tk := NewTopK(3)
	tk.Add("a")
	tk.Add("b")
	tk.Add("b")
	tk.Add("c")
	tk.Add("c")
	tk.Add("c")

	require.Equal(t, []string{"c", "b", "a"}, tk.List())
}

func TestTopKRepeatedAddDoesNotEvict(t *testing.T) {
	tk := NewTopK(1)
	tk.Add("a")
	dropped := tk.Add("a")
	require.Empty(t, dropped)
	require.Equal(t, uint64(2), tk.Count("a"))
}
