package probabilistic

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCuckooAddExistsDel(t *testing.T) {
	c := NewCuckoo(1000)
	require.False(t, c.Exists([]byte("x")))

	require.True(t, c.Add([]byte("x")))
	require.True(t, c.Exists([]byte("x")))
	require.EqualValues(t, 1, c.Count())

	require.True(t, c.Del([]byte("x")))
	require.False(t, c.Exists([]byte("x")))
}

func TestCuckooAddUniqueRejectsDuplicate(t *testing.T) {
	c := NewCuckoo(1000)
	require.True(t, c.Add([]byte("x")))
	require.False(t, c.Add([]byte("x")))
}

func TestCuckooAddAllowDupAllowsDuplicate(t *testing.T) {
	c := NewCuckoo(1000)
	require.True(t, c.AddAllowDup([]byte("x")))
	require.True(t, c.AddAllowDup([]byte("x")))
	require.EqualValues(t, 2, c.Count())
}

func TestCuckooDelMissingReturnsFalse(t *testing.T) {
	c := NewCuckoo(1000)
	require.False(t, c.Del([]byte("ghost")))
}
