package cache

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type summary struct {
	Type       string
	Statements int
}

func TestLRU_Basic(t *testing.T) {
	c := New[string](Options{MaxSize: 3})

	c.Set("a", "value_a")
	c.Set("b", "value_b")
	c.Set("c", "value_c")
	assert.Equal(t, 3, c.Len())

	val, found := c.Get("a")
	require.True(t, found)
	assert.Equal(t, "value_a", val)

	_, found = c.Get("missing")
	assert.False(t, found)
	assert.Equal(t, Stats{Length: 3, Hits: 1, Misses: 1}, c.Stats())
}

func TestLRU_Eviction(t *testing.T) {
	c := New[string](Options{MaxSize: 3})

	c.Set("a", "value_a")
	c.Set("b", "value_b")
	c.Set("c", "value_c")

	// Access 'a' to make it most recently used
	c.Get("a")

	// Add new item - should evict 'b' (least recently used)
	c.Set("d", "value_d")

	assert.Equal(t, 3, c.Len())
	_, found := c.Get("b")
	assert.False(t, found, "b should have been evicted")
	for _, k := range []string{"a", "c", "d"} {
		_, found = c.Get(k)
		assert.True(t, found, "%s should still be present", k)
	}
}

func TestLRU_UpdateAndDelete(t *testing.T) {
	c := New[int](Options{MaxSize: 2})
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 10)
	c.Set("c", 3)

	val, found := c.Get("a")
	require.True(t, found, "updating refreshes recency")
	assert.Equal(t, 10, val)
	_, found = c.Get("b")
	assert.False(t, found)

	c.Delete("a")
	c.Delete("missing")
	assert.Equal(t, 1, c.Len())
}

func TestLRU_SaveLoad(t *testing.T) {
	c := New[summary](Options{MaxSize: 10})
	c.Set("old", summary{Type: "Old", Statements: 1})
	c.Set("new", summary{Type: "New", Statements: 2})

	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))

	restored := New[summary](Options{MaxSize: 1})
	require.NoError(t, restored.Load(&buf))
	assert.Equal(t, 1, restored.Len(), "limits apply on load")
	val, found := restored.Get("new")
	require.True(t, found, "the most recent entry survives")
	assert.Equal(t, summary{Type: "New", Statements: 2}, val)
}

func TestLRU_LoadVersionMismatch(t *testing.T) {
	data, err := msgpack.Marshal(map[string]any{"version": 99, "entries": []any{}})
	require.NoError(t, err)

	c := New[summary](Options{})
	err = c.Load(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrVersion)

	assert.Error(t, c.Load(bytes.NewReader([]byte("not msgpack"))))
}

func TestPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", DefaultFile)

	empty := New[summary](Options{})
	require.NoError(t, LoadFromFile(empty, path), "a missing file is not an error")
	assert.Equal(t, 0, empty.Len())

	c := New[summary](Options{})
	c.Set("k", summary{Type: "Panel"})
	require.NoError(t, PersistToFile(c, path))

	loaded := New[summary](Options{})
	require.NoError(t, LoadFromFile(loaded, path))
	val, found := loaded.Get("k")
	require.True(t, found)
	assert.Equal(t, "Panel", val.Type)

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".cache-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestKey(t *testing.T) {
	assert.NotEqual(t, Key([]byte("ab"), []byte("c")), Key([]byte("a"), []byte("bc")))
	assert.Equal(t, Key([]byte("x")), Key([]byte("x")))
	assert.Len(t, Key(), 64)

	path := filepath.Join(t.TempDir(), "A.java")
	require.NoError(t, os.WriteFile(path, []byte("class A {}"), 0644))
	k1, err := FileKey(path, []byte("cfg1"))
	require.NoError(t, err)
	k2, err := FileKey(path, []byte("cfg2"))
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2, "the salt is part of the key")

	require.NoError(t, os.WriteFile(path, []byte("class A { int x; }"), 0644))
	k3, err := FileKey(path, []byte("cfg1"))
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3, "content changes the key")

	_, err = FileKey(filepath.Join(t.TempDir(), "missing"), nil)
	assert.Error(t, err)
}

func TestLRU_Concurrent(t *testing.T) {
	c := New[int](Options{MaxSize: 50})
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				key := string(rune('a' + (i+j)%26))
				c.Set(key, j)
				c.Get(key)
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 26)
}
