package blob

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReleaseIsIdempotent(t *testing.T) {
	s := NewStore()
	h := s.Put("policy.pdf", []byte("%PDF"))
	data, name, ok := s.Get(h)
	require.True(t, ok)
	require.Equal(t, "policy.pdf", name)
	require.Equal(t, []byte("%PDF"), data)

	require.True(t, s.Release(h))
	require.False(t, s.Release(h))
	require.False(t, s.Release(""))
	require.False(t, s.Release("blob:missing"))
	_, _, ok = s.Get(h)
	require.False(t, ok)
}

func TestReleaseAll(t *testing.T) {
	s := NewStore()
	a := s.Put("a.pdf", nil)
	s.Put("b.pdf", nil)
	require.Equal(t, 2, s.ReleaseAll())
	require.Equal(t, 0, s.Len())
	require.False(t, s.Release(a))
	require.Equal(t, 0, s.ReleaseAll())
}
