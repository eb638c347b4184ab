// Copyright 2025 Shadow Atlas Contributors
//
// MunicipalLRU caches parsed municipal boundary sets in memory: these are
// re-fetched far more often than TIGER layers (one ArcGIS endpoint per
// build invocation per city) but are comparatively small, so an in-process
// bounded LRU avoids redundant re-parsing within a single job without the
// durability cometbft-db gives DownloadCache.

package cache

import (
	"container/list"
	"sync"

	"github.com/shadowatlas/atlas/pkg/boundary"
)

type municipalEntry struct {
	key        string
	boundaries []*boundary.Boundary
}

// MunicipalLRU is a fixed-capacity, goroutine-safe LRU cache of parsed
// municipal boundary sets.
type MunicipalLRU struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element
}

// NewMunicipalLRU builds an LRU with the given capacity (entry count, not
// bytes).
func NewMunicipalLRU(capacity int) *MunicipalLRU {
	if capacity <= 0 {
		capacity = 32
	}
	return &MunicipalLRU{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
	}
}

// Get returns the cached boundaries for key, promoting it to
// most-recently-used.
func (c *MunicipalLRU) Get(key string) ([]*boundary.Boundary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*municipalEntry).boundaries, true
}

// Put inserts or replaces the cached boundaries for key, evicting the
// least-recently-used entry if the cache is full.
func (c *MunicipalLRU) Put(key string, boundaries []*boundary.Boundary) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*municipalEntry).boundaries = boundaries
		c.ll.MoveToFront(el)
		return
	}
	el := c.ll.PushFront(&municipalEntry{key: key, boundaries: boundaries})
	c.items[key] = el
	if c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*municipalEntry).key)
		}
	}
}

// Len returns the current number of cached entries.
func (c *MunicipalLRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
