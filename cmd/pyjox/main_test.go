package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/funvibe/pyjox/internal/pyhost/codecache"
)

const fixtureJSON = `{
	"argcount": 0,
	"posonlyargcount": 0,
	"kwonlyargcount": 0,
	"nlocals": 0,
	"stacksize": 1,
	"flags": [],
	"bytecode": "AAA=",
	"consts": [{"kind": "int", "num": "7"}],
	"names": [],
	"varnames": [],
	"cellvars": [],
	"freevars": [],
	"cell2arg": {},
	"name": "f",
	"filename": "<test>",
	"firstlineno": 1
}`

func TestLoadCodeWithoutCacheDecodesFixture(t *testing.T) {
	code, err := loadCode(nil, []byte(fixtureJSON))
	require.NoError(t, err)
	require.Equal(t, "f", code.Name)
	require.Equal(t, int64(7), code.Consts[0].AsInt())
}

func TestLoadCodeCachesAcrossCalls(t *testing.T) {
	cache, err := codecache.Open(filepath.Join(t.TempDir(), "codecache.db"))
	require.NoError(t, err)
	defer cache.Close()

	key := contentCacheKey([]byte(fixtureJSON))
	_, ok, err := cache.Get(key)
	require.NoError(t, err)
	require.False(t, ok, "cache must start empty for this fixture")

	first, err := loadCode(cache, []byte(fixtureJSON))
	require.NoError(t, err)
	require.Equal(t, "f", first.Name)

	_, ok, err = cache.Get(key)
	require.NoError(t, err)
	require.True(t, ok, "loadCode must populate the cache on a miss")

	second, err := loadCode(cache, []byte(fixtureJSON))
	require.NoError(t, err)
	require.Equal(t, first.Name, second.Name)
	require.Equal(t, first.Consts[0].AsInt(), second.Consts[0].AsInt())
}

func TestLoadCodeIgnoresCorruptCacheEntry(t *testing.T) {
	cache, err := codecache.Open(filepath.Join(t.TempDir(), "codecache.db"))
	require.NoError(t, err)
	defer cache.Close()

	key := contentCacheKey([]byte(fixtureJSON))
	require.NoError(t, cache.Put(key, []byte("not a valid gob blob")))

	code, err := loadCode(cache, []byte(fixtureJSON))
	require.NoError(t, err)
	require.Equal(t, "f", code.Name)
}

func TestContentCacheKeyIsStableAndContentSensitive(t *testing.T) {
	require.Equal(t, contentCacheKey([]byte("a")), contentCacheKey([]byte("a")))
	require.NotEqual(t, contentCacheKey([]byte("a")), contentCacheKey([]byte("b")))
}
