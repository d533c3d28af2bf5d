package dataset

import (
	"os"
	"sync"
	"time"
)

// Cache memoizes loaded tables per (path, modification time). It sits in
// front of a Loader; the core stays correct without it, and a touched file
// invalidates its entry on the next request.
type Cache struct {
	loader *Loader

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	modTime time.Time
	table   *Table
}

// NewCache wraps a Loader with mtime-keyed memoization.
func NewCache(loader *Loader) *Cache {
	return &Cache{loader: loader, entries: make(map[string]cacheEntry)}
}

// Load returns the cached table when the file is unchanged, otherwise
// delegates to the Loader and stores the result.
func (c *Cache) Load(spec Spec) (*Table, error) {
	path := c.loader.Path(spec)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &SourceNotFoundError{Path: path}
		}
		return nil, err
	}

	c.mu.RLock()
	entry, ok := c.entries[path]
	c.mu.RUnlock()
	if ok && entry.modTime.Equal(info.ModTime()) {
		return entry.table, nil
	}

	table, err := c.loader.Load(spec)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[path] = cacheEntry{modTime: info.ModTime(), table: table}
	c.mu.Unlock()

	return table, nil
}
