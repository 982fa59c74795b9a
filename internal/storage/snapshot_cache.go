package storage

import (
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/monster-tracker/internal/metrics"
	"github.com/monster-tracker/internal/models"
)

// fileLoader decodes the local JSON stores
type fileLoader interface {
	LoadSnapshot(path string) (*models.Snapshot, error)
	LoadUserDirectory(path string) (*models.UserDirectory, error)
}

// SnapshotCache keeps decoded snapshot and directory files in memory until
// the file changes on disk. Concurrent loads of the same file share one
// decode. Returned values are shared and must not be modified.
type SnapshotCache struct {
	files   fileLoader
	metrics *metrics.Registry

	mu      sync.RWMutex
	entries map[string]*cachedFile

	// Atomic counters for statistics
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64

	// In-flight loads, so a burst of requests after a change decodes once
	inflightMu sync.Mutex
	inflight   map[string]*inflightLoad
}

type cachedFile struct {
	modTime time.Time
	size    int64
	value   interface{}
}

// inflightLoad is one decode that other callers wait on
type inflightLoad struct {
	done  chan struct{}
	value interface{}
	err   error
}

// CacheStats reports cache effectiveness
type CacheStats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int   `json:"entries"`
}

// NewSnapshotCache wraps files with an in-memory cache
func NewSnapshotCache(files fileLoader, m *metrics.Registry) *SnapshotCache {
	return &SnapshotCache{
		files:    files,
		metrics:  m,
		entries:  make(map[string]*cachedFile),
		inflight: make(map[string]*inflightLoad),
	}
}

// LoadSnapshot returns the decoded snapshot file
func (c *SnapshotCache) LoadSnapshot(path string) (*models.Snapshot, error) {
	v, err := c.load("snapshot", path, func() (interface{}, error) {
		return c.files.LoadSnapshot(path)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Snapshot), nil
}

// LoadUserDirectory returns the decoded user directory file
func (c *SnapshotCache) LoadUserDirectory(path string) (*models.UserDirectory, error) {
	v, err := c.load("directory", path, func() (interface{}, error) {
		return c.files.LoadUserDirectory(path)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.UserDirectory), nil
}

// Invalidate drops every cached decode of path
func (c *SnapshotCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, "snapshot:"+path)
	delete(c.entries, "directory:"+path)
}

// GetStats returns the hit and miss counters
func (c *SnapshotCache) GetStats() CacheStats {
	c.mu.RLock()
	entries := len(c.entries)
	c.mu.RUnlock()
	return CacheStats{
		Hits:    c.cacheHits.Load(),
		Misses:  c.cacheMisses.Load(),
		Entries: entries,
	}
}

func (c *SnapshotCache) load(kind, path string, fetch func() (interface{}, error)) (interface{}, error) {
	key := kind + ":" + path

	// an unreadable file is never served from cache; the loader reports it
	info, statErr := os.Stat(path)
	if v, ok := c.current(key, info, statErr); ok {
		c.cacheHits.Add(1)
		c.metrics.ObserveCacheLookup("snapshot_file", true)
		return v, nil
	}

	c.cacheMisses.Add(1)
	c.metrics.ObserveCacheLookup("snapshot_file", false)

	call, leader := c.getOrCreateInflight(key)
	if !leader {
		<-call.done
		return call.value, call.err
	}

	if v, ok := c.current(key, info, statErr); ok {
		call.value = v
	} else {
		call.value, call.err = fetch()
	}

	c.mu.Lock()
	if call.err == nil && statErr == nil {
		c.entries[key] = &cachedFile{modTime: info.ModTime(), size: info.Size(), value: call.value}
	} else {
		delete(c.entries, key)
	}
	c.mu.Unlock()

	c.removeInflight(key)
	close(call.done)
	return call.value, call.err
}

// current returns the cached value when it was decoded from the file as
// it is now on disk
func (c *SnapshotCache) current(key string, info os.FileInfo, statErr error) (interface{}, bool) {
	if statErr != nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || !e.modTime.Equal(info.ModTime()) || e.size != info.Size() {
		return nil, false
	}
	return e.value, true
}

// getOrCreateInflight returns the pending load for key, creating it when
// none exists. The second result is true for the caller that must load.
func (c *SnapshotCache) getOrCreateInflight(key string) (*inflightLoad, bool) {
	c.inflightMu.Lock()
	defer c.inflightMu.Unlock()

	if call, ok := c.inflight[key]; ok {
		return call, false
	}
	call := &inflightLoad{done: make(chan struct{})}
	c.inflight[key] = call
	return call, true
}

func (c *SnapshotCache) removeInflight(key string) {
	c.inflightMu.Lock()
	defer c.inflightMu.Unlock()
	delete(c.inflight, key)
}
