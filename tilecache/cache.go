// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package tilecache provides a byte-budgeted LRU cache for raster tiles
// plus a bounded bitmap pool that recycles evicted tile buffers.
//
// The cache is the only piece of the rendering core mutated from multiple
// goroutines (the render goroutine and background tile generators), so all
// operations serialize behind one coarse mutex. Contention is negligible
// next to the cost of generating a tile.
package tilecache

import (
	"image"
	"sync"
	"sync/atomic"
)

// Default sizing constants.
const (
	// DefaultTilePixels is the default tile edge length in pixels.
	DefaultTilePixels = 256

	// DefaultBudgetBytes is the default cache budget.
	DefaultBudgetBytes = 128 << 20

	// DefaultCeilingBytes is the hard safety ceiling the budget may grow
	// to under in-flight generation pressure.
	DefaultCeilingBytes = 512 << 20

	// DefaultPoolSize is the default bitmap pool capacity.
	DefaultPoolSize = 32
)

// entry is one cached tile with its LRU list node. Entries double as the
// intrusive list nodes so a lookup reaches both map and list in one step.
type entry struct {
	key   Key
	tile  *Tile
	bytes int64
	prev  *entry
	next  *entry
}

// Cache is a thread-safe, byte-weighted LRU tile cache.
//
// Eviction removes least-recently-used tiles until the total cached byte
// size fits the budget. Evicted bitmaps are returned to the pool rather
// than released; ObtainBitmap hands them back out cleared to transparent.
//
// Evicting or replacing a tile detaches its bitmap for reuse. A *Tile
// obtained from Get is only valid until the next cache mutation; callers
// that composite from cached tiles must serialize compositing against
// Put/Remove/eviction (the tile manager holds its own lock for this).
//
// Cache must not be copied after creation.
type Cache struct {
	mu sync.Mutex

	entries map[Key]*entry
	// Intrusive LRU list: head is most recently used, tail is oldest.
	head *entry
	tail *entry

	totalBytes int64
	budget     int64
	ceiling    int64

	tilePixels int
	tileBytes  int64 // bytes of one full bitmap, for budget anticipation

	pool    []*image.RGBA
	poolCap int

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// New creates a cache for tilePixels-square tiles with the given byte
// budget and growth ceiling. Non-positive arguments fall back to the
// package defaults; a budget below one tile's byte size is raised to it,
// and a ceiling below the budget is raised to the budget.
func New(tilePixels int, budget, ceiling int64, poolCap int) *Cache {
	if tilePixels <= 0 {
		tilePixels = DefaultTilePixels
	}
	tileBytes := int64(tilePixels) * int64(tilePixels) * 4
	if budget <= 0 {
		budget = DefaultBudgetBytes
	}
	if budget < tileBytes {
		// Eviction always keeps the newest entry; a budget smaller than
		// one tile could never be met.
		budget = tileBytes
	}
	if ceiling <= 0 {
		ceiling = DefaultCeilingBytes
	}
	if ceiling < budget {
		ceiling = budget
	}
	if poolCap <= 0 {
		poolCap = DefaultPoolSize
	}
	return &Cache{
		entries:    make(map[Key]*entry),
		budget:     budget,
		ceiling:    ceiling,
		tilePixels: tilePixels,
		tileBytes:  tileBytes,
		poolCap:    poolCap,
	}
}

// TilePixels returns the tile edge length the cache was created for.
func (c *Cache) TilePixels() int {
	return c.tilePixels
}

// Get returns the cached tile for key, marking it most recently used.
func (c *Cache) Get(key Key) (*Tile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.moveToFront(e)
	return e.tile, true
}

// Peek returns the cached tile for key without touching LRU order.
func (c *Cache) Peek(key Key) (*Tile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return e.tile, true
}

// Put stores a tile under key, replacing any previous tile. The replaced
// bitmap goes back to the pool. Older entries are evicted until the total
// byte size fits the budget again.
func (c *Cache) Put(key Key, tile *Tile) {
	if tile == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		c.totalBytes -= e.bytes
		c.releaseLocked(e.tile)
		e.tile = tile
		e.bytes = tile.ByteSize()
		c.totalBytes += e.bytes
		c.moveToFront(e)
	} else {
		e := &entry{key: key, tile: tile, bytes: tile.ByteSize()}
		c.entries[key] = e
		c.totalBytes += e.bytes
		c.pushFront(e)
	}

	c.evictLocked()
}

// Remove drops the tile for key, returning its bitmap to the pool.
func (c *Cache) Remove(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	c.unlink(e)
	delete(c.entries, key)
	c.totalBytes -= e.bytes
	c.releaseLocked(e.tile)
	return true
}

// Clear drops every cached tile, pooling as many bitmaps as fit.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		c.releaseLocked(e.tile)
		delete(c.entries, key)
	}
	c.head = nil
	c.tail = nil
	c.totalBytes = 0
}

// Keys returns a snapshot of every cached key, in no particular order.
func (c *Cache) Keys() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]Key, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	return keys
}

// Len returns the number of cached tiles.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Bytes returns the total byte size of all cached tiles.
func (c *Cache) Bytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalBytes
}

// Budget returns the current byte budget.
func (c *Cache) Budget() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.budget
}

// ObtainBitmap returns a tile-sized bitmap, reusing a pooled one when
// available. The bitmap is cleared to transparent: pooled buffers carry
// the pixels of whatever tile they served before.
func (c *Cache) ObtainBitmap() *image.RGBA {
	c.mu.Lock()
	if n := len(c.pool); n > 0 {
		img := c.pool[n-1]
		c.pool[n-1] = nil
		c.pool = c.pool[:n-1]
		c.mu.Unlock()
		clear(img.Pix)
		return img
	}
	c.mu.Unlock()
	return image.NewRGBA(image.Rect(0, 0, c.tilePixels, c.tilePixels))
}

// ReleaseBitmap returns a bitmap to the pool. Bitmaps of the wrong size
// and overflow beyond the pool capacity are dropped for the GC.
func (c *Cache) ReleaseBitmap(img *image.RGBA) {
	if img == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseBitmapLocked(img)
}

// CheckBudgetAndResize grows the budget, up to the ceiling, when the
// anticipated usage from in-flight generation would exceed the current
// budget. The budget never shrinks here; only eviction pressure shrinks
// occupancy.
func (c *Cache) CheckBudgetAndResize(inFlight int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	anticipated := c.totalBytes + int64(inFlight)*c.tileBytes
	if anticipated <= c.budget {
		return
	}
	if anticipated > c.ceiling {
		anticipated = c.ceiling
	}
	if anticipated > c.budget {
		c.budget = anticipated
	}
}

// IsFull reports whether anticipated usage from in-flight generation
// exceeds the given fraction of the budget. Callers use it to throttle
// low-priority prefetch before it starves visible-tile generation.
func (c *Cache) IsFull(inFlight int, threshold float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	anticipated := c.totalBytes + int64(inFlight)*c.tileBytes
	return float64(anticipated) >= threshold*float64(c.budget)
}

// Stats returns cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	bytes := c.totalBytes
	budget := c.budget
	entries := len(c.entries)
	pooled := len(c.pool)
	c.mu.Unlock()

	hits := c.hits.Load()
	misses := c.misses.Load()
	s := Stats{
		Len:       entries,
		Bytes:     bytes,
		Budget:    budget,
		Pooled:    pooled,
		Hits:      hits,
		Misses:    misses,
		Evictions: c.evictions.Load(),
	}
	if total := hits + misses; total > 0 {
		s.HitRate = float64(hits) / float64(total)
	}
	return s
}

// Stats contains cache counters.
type Stats struct {
	Len       int
	Bytes     int64
	Budget    int64
	Pooled    int
	Hits      uint64
	Misses    uint64
	Evictions uint64
	HitRate   float64
}

// evictLocked removes oldest entries until totalBytes fits the budget.
// The newest entry survives even when it alone exceeds the budget.
func (c *Cache) evictLocked() {
	for c.totalBytes > c.budget && c.tail != nil && c.tail != c.head {
		e := c.tail
		c.unlink(e)
		delete(c.entries, e.key)
		c.totalBytes -= e.bytes
		c.releaseLocked(e.tile)
		c.evictions.Add(1)
	}
}

// releaseLocked pools the bitmap of a tile leaving the cache.
func (c *Cache) releaseLocked(t *Tile) {
	if t == nil || t.Image == nil {
		return
	}
	img := t.Image
	t.Image = nil
	c.releaseBitmapLocked(img)
}

func (c *Cache) releaseBitmapLocked(img *image.RGBA) {
	b := img.Bounds()
	if b.Dx() != c.tilePixels || b.Dy() != c.tilePixels {
		return
	}
	if len(c.pool) >= c.poolCap {
		return
	}
	c.pool = append(c.pool, img)
}

func (c *Cache) pushFront(e *entry) {
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *Cache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.pushFront(e)
}

func (c *Cache) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev = nil
	e.next = nil
}
