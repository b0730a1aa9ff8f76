package codecache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "codecache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestGetMissingKey(t *testing.T) {
	c := openTemp(t)
	_, ok, err := c.Get("nope")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPutThenGet(t *testing.T) {
	c := openTemp(t)
	require.NoError(t, c.Put("abc123", []byte{1, 2, 3}))

	data, ok, err := c.Get("abc123")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte{1, 2, 3}, data)
}

func TestPutOverwritesExistingKey(t *testing.T) {
	c := openTemp(t)
	require.NoError(t, c.Put("k", []byte("first")))
	require.NoError(t, c.Put("k", []byte("second")))

	data, ok, err := c.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("second"), data)
}

func TestDelete(t *testing.T) {
	c := openTemp(t)
	require.NoError(t, c.Put("k", []byte("v")))
	require.NoError(t, c.Delete("k"))

	_, ok, err := c.Get("k")
	require.NoError(t, err)
	require.False(t, ok)
}
