// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package tilecache

import (
	"errors"
	"sync"
	"testing"
)

const testTilePixels = 16

// testTileBytes is the byte size of one full test tile.
const testTileBytes = testTilePixels * testTilePixels * 4

func newTestCache(budgetTiles int) *Cache {
	return New(testTilePixels, int64(budgetTiles)*testTileBytes, int64(budgetTiles)*testTileBytes, 8)
}

func newTile(c *Cache, version uint64) *Tile {
	return &Tile{Image: c.ObtainBitmap(), Version: version}
}

func TestGetPut(t *testing.T) {
	c := newTestCache(4)
	key := Key{Col: 1, Row: 2, Level: 0}

	if _, ok := c.Get(key); ok {
		t.Fatal("expected miss on empty cache")
	}

	tile := newTile(c, 1)
	c.Put(key, tile)

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if got != tile {
		t.Error("Get returned a different tile")
	}
	if got.Version != 1 {
		t.Errorf("Version = %d, want 1", got.Version)
	}
}

func TestBudgetInvariant(t *testing.T) {
	c := newTestCache(4)

	// Insert well past the budget; the invariant must hold after every Put.
	for i := 0; i < 20; i++ {
		c.Put(Key{Col: i}, newTile(c, 1))
		if c.Bytes() > c.Budget() {
			t.Fatalf("after put %d: bytes %d exceed budget %d", i, c.Bytes(), c.Budget())
		}
	}
	if c.Len() != 4 {
		t.Errorf("Len = %d, want 4 (budget of 4 tiles)", c.Len())
	}
}

func TestBudgetClampedToOneTile(t *testing.T) {
	// A sub-tile budget could never be met: eviction always keeps the
	// newest entry. New raises such budgets to one tile's byte size.
	c := New(testTilePixels, 1, 1, 8)
	if got := c.Budget(); got != testTileBytes {
		t.Fatalf("Budget = %d, want one tile (%d)", got, testTileBytes)
	}

	for i := 0; i < 3; i++ {
		c.Put(Key{Col: i}, newTile(c, 1))
		if c.Bytes() > c.Budget() {
			t.Fatalf("after put %d: bytes %d exceed budget %d", i, c.Bytes(), c.Budget())
		}
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestEvictionIsLRU(t *testing.T) {
	c := newTestCache(3)
	for i := 0; i < 3; i++ {
		c.Put(Key{Col: i}, newTile(c, 1))
	}

	// Touch tile 0 so tile 1 becomes the oldest.
	if _, ok := c.Get(Key{Col: 0}); !ok {
		t.Fatal("tile 0 missing")
	}
	c.Put(Key{Col: 3}, newTile(c, 1))

	if _, ok := c.Peek(Key{Col: 1}); ok {
		t.Error("expected least-recently-used tile 1 to be evicted")
	}
	for _, col := range []int{0, 2, 3} {
		if _, ok := c.Peek(Key{Col: col}); !ok {
			t.Errorf("expected tile %d to survive", col)
		}
	}
}

func TestReplaceDoesNotLeakBytes(t *testing.T) {
	c := newTestCache(4)
	key := Key{Col: 7}
	c.Put(key, newTile(c, 1))
	c.Put(key, newTile(c, 2))

	if got := c.Bytes(); got != testTileBytes {
		t.Errorf("Bytes = %d after replace, want %d", got, testTileBytes)
	}
	tile, _ := c.Get(key)
	if tile.Version != 2 {
		t.Errorf("Version = %d after replace, want 2", tile.Version)
	}
}

func TestPoolReuse(t *testing.T) {
	c := newTestCache(4)

	img := c.ObtainBitmap()
	img.Pix[0] = 0xff // dirty the buffer
	c.ReleaseBitmap(img)

	got := c.ObtainBitmap()
	if got != img {
		t.Fatal("expected pooled bitmap to be reused")
	}
	for i, p := range got.Pix {
		if p != 0 {
			t.Fatalf("pooled bitmap not cleared at byte %d", i)
		}
	}
}

func TestEvictionReturnsBitmapToPool(t *testing.T) {
	c := newTestCache(1)

	first := newTile(c, 1)
	firstImg := first.Image
	c.Put(Key{Col: 0}, first)
	c.Put(Key{Col: 1}, newTile(c, 1)) // evicts tile 0

	if first.Image != nil {
		t.Error("expected evicted tile's bitmap to be detached")
	}
	if got := c.ObtainBitmap(); got != firstImg {
		t.Error("expected evicted bitmap to come back from the pool")
	}
}

func TestFailedTile(t *testing.T) {
	c := newTestCache(4)
	key := Key{Col: 3}
	c.Put(key, &Tile{Err: errors.New("render failed"), Version: 5})

	tile, ok := c.Get(key)
	if !ok {
		t.Fatal("expected failed tile to be cached")
	}
	if !tile.Failed() {
		t.Error("expected Failed() to report true")
	}
	if tile.ByteSize() >= testTileBytes {
		t.Errorf("failed tile weighs %d bytes, want a small constant", tile.ByteSize())
	}
}

func TestRemoveClear(t *testing.T) {
	c := newTestCache(8)
	for i := 0; i < 5; i++ {
		c.Put(Key{Col: i}, newTile(c, 1))
	}

	if !c.Remove(Key{Col: 2}) {
		t.Fatal("expected Remove to find tile 2")
	}
	if c.Remove(Key{Col: 2}) {
		t.Error("expected second Remove to report false")
	}
	if c.Len() != 4 {
		t.Errorf("Len = %d, want 4", c.Len())
	}

	c.Clear()
	if c.Len() != 0 || c.Bytes() != 0 {
		t.Errorf("Len = %d, Bytes = %d after Clear, want 0, 0", c.Len(), c.Bytes())
	}
}

func TestBudgetGrowth(t *testing.T) {
	budget := int64(4 * testTileBytes)
	ceiling := int64(8 * testTileBytes)
	c := New(testTilePixels, budget, ceiling, 8)

	for i := 0; i < 4; i++ {
		c.Put(Key{Col: i}, newTile(c, 1))
	}

	// Anticipated usage within budget: no growth.
	c.CheckBudgetAndResize(0)
	if got := c.Budget(); got != budget {
		t.Errorf("Budget = %d, want unchanged %d", got, budget)
	}

	// Three in-flight tiles push anticipated usage past the budget.
	c.CheckBudgetAndResize(3)
	if got := c.Budget(); got != 7*testTileBytes {
		t.Errorf("Budget = %d, want %d", got, 7*testTileBytes)
	}

	// Growth is clamped at the ceiling.
	c.CheckBudgetAndResize(100)
	if got := c.Budget(); got != ceiling {
		t.Errorf("Budget = %d, want ceiling %d", got, ceiling)
	}

	// The budget never shrinks proactively.
	c.Clear()
	c.CheckBudgetAndResize(0)
	if got := c.Budget(); got != ceiling {
		t.Errorf("Budget = %d after Clear, want still %d", got, ceiling)
	}
}

func TestIsFull(t *testing.T) {
	c := newTestCache(4)
	for i := 0; i < 3; i++ {
		c.Put(Key{Col: i}, newTile(c, 1))
	}

	if c.IsFull(0, 0.9) {
		t.Error("3 of 4 tiles cached: not full at 0.9 threshold")
	}
	if !c.IsFull(1, 0.9) {
		t.Error("3 cached + 1 in flight: full at 0.9 threshold")
	}
	if !c.IsFull(0, 0.5) {
		t.Error("3 of 4 tiles cached: full at 0.5 threshold")
	}
}

func TestStats(t *testing.T) {
	c := newTestCache(4)
	c.Put(Key{Col: 0}, newTile(c, 1))
	c.Get(Key{Col: 0})
	c.Get(Key{Col: 1})

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 {
		t.Errorf("Hits = %d, Misses = %d, want 1, 1", s.Hits, s.Misses)
	}
	if s.HitRate != 0.5 {
		t.Errorf("HitRate = %v, want 0.5", s.HitRate)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := newTestCache(16)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := Key{Col: i % 32, Row: g}
				switch i % 4 {
				case 0:
					c.Put(key, newTile(c, uint64(i)))
				case 1:
					c.Get(key)
				case 2:
					c.ReleaseBitmap(c.ObtainBitmap())
				case 3:
					c.Remove(key)
				}
			}
		}(g)
	}
	wg.Wait()

	if c.Bytes() > c.Budget() {
		t.Errorf("bytes %d exceed budget %d after concurrent churn", c.Bytes(), c.Budget())
	}
}

func BenchmarkCacheGet(b *testing.B) {
	c := newTestCache(64)
	key := Key{Col: 5, Row: 5}
	c.Put(key, newTile(c, 1))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get(key)
	}
}

func BenchmarkCachePut(b *testing.B) {
	c := newTestCache(64)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Put(Key{Col: i % 128}, &Tile{Image: c.ObtainBitmap()})
	}
}
