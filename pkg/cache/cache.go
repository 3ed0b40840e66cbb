// Package cache keeps analysis results keyed by the content they were
// computed from, in a bounded LRU that can be persisted between runs.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// DefaultFile is the name of the persisted cache inside a cache directory.
const DefaultFile = "summaries.msgpack"

// formatVersion changes whenever the persisted layout does. Files of another
// version are ignored.
const formatVersion = 1

// Entry is one cached value.
type Entry[V any] struct {
	Key       string    `msgpack:"key"`
	Value     V         `msgpack:"value"`
	CreatedAt time.Time `msgpack:"created_at"`
}

// listItem is an item in the doubly-linked list.
type listItem[V any] struct {
	Entry[V]
	prev *listItem[V]
	next *listItem[V]
}

// list is a doubly-linked list, most recently used at the head.
type list[V any] struct {
	head *listItem[V]
	tail *listItem[V]
	len  int
}

func (l *list[V]) pushFront(item *listItem[V]) {
	item.next = l.head
	item.prev = nil
	if l.head != nil {
		l.head.prev = item
	}
	l.head = item
	if l.tail == nil {
		l.tail = item
	}
	l.len++
}

func (l *list[V]) remove(item *listItem[V]) {
	if item.prev != nil {
		item.prev.next = item.next
	} else {
		l.head = item.next
	}
	if item.next != nil {
		item.next.prev = item.prev
	} else {
		l.tail = item.prev
	}
	item.prev, item.next = nil, nil
	l.len--
}

func (l *list[V]) moveToFront(item *listItem[V]) {
	if item == l.head {
		return
	}
	l.remove(item)
	l.pushFront(item)
}

// Options configures an LRU.
type Options struct {
	// MaxSize is the maximum number of entries. 0 means unlimited.
	MaxSize int
}

// Stats counts lookups since the cache was created.
type Stats struct {
	Length int   `json:"length"`
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// LRU is an in-memory LRU cache safe for concurrent use.
type LRU[V any] struct {
	mu      sync.Mutex
	items   map[string]*listItem[V]
	lru     list[V]
	maxSize int
	hits    int64
	misses  int64
}

// New creates an empty cache.
func New[V any](opts Options) *LRU[V] {
	return &LRU[V]{
		items:   make(map[string]*listItem[V]),
		maxSize: opts.MaxSize,
	}
}

// Get returns the value stored under key.
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, found := c.items[key]
	if !found {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.lru.moveToFront(item)
	return item.Value, true
}

// Set stores value under key, evicting the least recently used entries
// beyond MaxSize.
func (c *LRU[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(Entry[V]{Key: key, Value: value, CreatedAt: time.Now()})
}

func (c *LRU[V]) set(e Entry[V]) {
	if item, exists := c.items[e.Key]; exists {
		item.Entry = e
		c.lru.moveToFront(item)
		return
	}
	item := &listItem[V]{Entry: e}
	c.items[e.Key] = item
	c.lru.pushFront(item)
	for c.maxSize > 0 && c.lru.len > c.maxSize {
		last := c.lru.tail
		c.lru.remove(last)
		delete(c.items, last.Key)
	}
}

// Delete removes key.
func (c *LRU[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if item, found := c.items[key]; found {
		c.lru.remove(item)
		delete(c.items, key)
	}
}

// Len returns the number of entries.
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns the lookup counters.
func (c *LRU[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Length: len(c.items), Hits: c.hits, Misses: c.misses}
}

type cacheData[V any] struct {
	Version int        `msgpack:"version"`
	Entries []Entry[V] `msgpack:"entries"`
}

// Save writes the entries with msgpack, most recently used first.
func (c *LRU[V]) Save(w io.Writer) error {
	c.mu.Lock()
	data := cacheData[V]{Version: formatVersion, Entries: make([]Entry[V], 0, c.lru.len)}
	for item := c.lru.head; item != nil; item = item.next {
		data.Entries = append(data.Entries, item.Entry)
	}
	c.mu.Unlock()

	return msgpack.NewEncoder(w).Encode(&data)
}

// ErrVersion is returned by Load for data written in another format.
var ErrVersion = errors.New("cache format version mismatch")

// Load replaces the entries with those read from r, keeping their order.
func (c *LRU[V]) Load(r io.Reader) error {
	var data cacheData[V]
	if err := msgpack.NewDecoder(r).Decode(&data); err != nil {
		return fmt.Errorf("failed to decode cache: %w", err)
	}
	if data.Version != formatVersion {
		return fmt.Errorf("%w: got %d, want %d", ErrVersion, data.Version, formatVersion)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*listItem[V])
	c.lru = list[V]{}
	for i := len(data.Entries) - 1; i >= 0; i-- {
		c.set(data.Entries[i])
	}
	return nil
}

// PersistToFile saves c to path, creating its directory.
func PersistToFile[V any](c *LRU[V], path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".cache-*")
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := c.Save(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// LoadFromFile fills c from path. A missing file leaves c empty.
func LoadFromFile[V any](c *LRU[V], path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer f.Close()

	return c.Load(f)
}

// Key hashes the given parts into a cache key. Parts are separated so that
// ("ab", "c") and ("a", "bc") differ.
func Key(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%d:", len(p))
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// FileKey hashes the content of path together with salt.
func FileKey(path string, salt []byte) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Key(salt, content), nil
}
