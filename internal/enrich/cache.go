// Package enrich provides the durable enrichment cache and the
// checkpointed runner that drives catalog lookups over a work list.
package enrich

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Cache is a persisted mapping from work key to enrichment record. A
// nil value marks a key that was attempted and definitively failed;
// key absence means the key was never attempted. The cache has exactly
// one writer for the duration of a run.
type Cache[T any] struct {
	path    string
	entries map[string]*T
}

// LoadCache reads a cache snapshot from path. A missing file yields an
// empty cache; any other read or decode failure is an error.
func LoadCache[T any](path string) (*Cache[T], error) {
	c := &Cache[T]{
		path:    path,
		entries: make(map[string]*T),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("reading cache %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		return nil, fmt.Errorf("decoding cache %s: %w", path, err)
	}
	if c.entries == nil {
		c.entries = make(map[string]*T)
	}
	return c, nil
}

// Has reports whether key was attempted, successfully or not.
func (c *Cache[T]) Has(key string) bool {
	_, ok := c.entries[key]
	return ok
}

// Get returns the record for key. The second return distinguishes an
// absent key from one holding an explicit failure marker (nil record).
func (c *Cache[T]) Get(key string) (*T, bool) {
	rec, ok := c.entries[key]
	return rec, ok
}

// Put stores a record for key. A nil record marks the key as
// attempted-and-failed so it is never retried.
func (c *Cache[T]) Put(key string, rec *T) {
	c.entries[key] = rec
}

// Len returns the number of attempted keys.
func (c *Cache[T]) Len() int {
	return len(c.entries)
}

// Keys returns all attempted keys in sorted order.
func (c *Cache[T]) Keys() []string {
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Save writes the full cache snapshot, replacing the previous file.
// A crash mid-write can truncate the file; that risk is accepted and
// bounded by the checkpoint interval.
func (c *Cache[T]) Save() error {
	data, err := json.MarshalIndent(c.entries, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating cache dir: %w", err)
		}
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("writing cache %s: %w", c.path, err)
	}
	return nil
}

// Path returns the file the cache persists to.
func (c *Cache[T]) Path() string { return c.path }
