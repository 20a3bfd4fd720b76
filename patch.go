package tilecanvas

import (
	"github.com/gogpu/tilecanvas/internal/geom"
	"github.com/gogpu/tilecanvas/tilecache"
	"gonum.org/v1/gonum/spatial/r2"
)

// UpdateTilesWithItem surgically invalidates the tiles an item mutation
// touches. See UpdateTilesWithItems.
func (m *Manager) UpdateTilesWithItem(item Item) {
	m.UpdateTilesWithItems([]Item{item})
}

// UpdateTilesWithItems invalidates every cached tile whose world
// rectangle intersects the mutated items' bounds. On-screen tiles at the
// active level are patched in place so the change appears without a
// flash; off-screen tiles are dropped and regenerate lazily on next
// visibility. In-flight generations over the area are superseded so a
// stale result cannot overwrite the patch.
//
// Highlighter strokes are never patched: their appearance depends on
// compositing the full region, so every intersected tile regenerates.
func (m *Manager) UpdateTilesWithItems(items []Item) {
	if len(items) == 0 || m.destroyed.Load() {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ver := m.version.Add(1)
	for _, key := range m.cache.Keys() {
		world := m.worldRect(key)
		var touching []Item
		for _, it := range items {
			if geom.Intersects(it.Bounds(), world) {
				touching = append(touching, it)
			}
		}
		if len(touching) == 0 {
			continue
		}

		if !m.onScreenLocked(key) {
			m.cache.Remove(key)
			continue
		}
		if anyHighlighter(touching) {
			m.scheduleLocked(key, ver, true, true)
			continue
		}
		m.patchLocked(key, touching, ver)
	}

	m.supersedeLocked(boundsOf(items), ver)
}

// UpdateTilesWithErasure applies an erasure stroke: on-screen tiles get
// the erasure mask drawn straight onto their bitmap, off-screen tiles are
// dropped, and in-flight generations over the area are superseded.
func (m *Manager) UpdateTilesWithErasure(eraser *Stroke) {
	if eraser == nil || m.destroyed.Load() {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ver := m.version.Add(1)
	for _, key := range m.cache.Keys() {
		world := m.worldRect(key)
		if !geom.Intersects(eraser.Bounds(), world) {
			continue
		}
		if !m.onScreenLocked(key) {
			m.cache.Remove(key)
			continue
		}

		tile, ok := m.cache.Get(key)
		if !ok || tile.Failed() || tile.Image == nil {
			continue
		}
		scale := float64(m.cfg.tilePixels) / key.WorldSize(m.cfg.baseTileSize)
		if err := m.renderer.DrawItem(tile.Image, eraser, world.Min, scale); err != nil {
			// Mask drawing failed; fall back to regeneration.
			m.scheduleLocked(key, ver, true, true)
			continue
		}
		tile.Version = ver
	}

	m.supersedeLocked(eraser.Bounds(), ver)
}

// RefreshTiles re-queues generation for every tile intersecting bounds
// without removing any cached entry first: stale pixels stay visible
// until their replacement is ready, so the canvas never flashes blank.
func (m *Manager) RefreshTiles(bounds r2.Box) {
	if m.destroyed.Load() {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ver := m.version.Add(1)
	for _, key := range m.cache.Keys() {
		if geom.Intersects(m.worldRect(key), bounds) {
			m.scheduleLocked(key, ver, m.onScreenLocked(key), true)
		}
	}
	m.supersedeLocked(bounds, ver)
}

// ForceRefreshVisibleTiles re-queues generation for every tile of the
// level matching scale that intersects rect, cached or not. Cached
// entries stay visible until replaced. This is also the path that retries
// tiles stuck on a generation failure.
func (m *Manager) ForceRefreshVisibleTiles(rect r2.Box, scale float64) {
	if m.destroyed.Load() {
		return
	}

	level := m.levelFor(scale)

	m.mu.Lock()
	defer m.mu.Unlock()

	ver := m.version.Add(1)
	for _, key := range m.visibleKeys(rect, level) {
		m.scheduleLocked(key, ver, true, true)
	}
}

// patchLocked redraws a cached tile in place. When every mutated item is
// still present in the model, only those items draw on top of the
// existing pixels (the cheap added-a-stroke path). When any is gone, the
// tile's content is re-rendered synchronously into the same bitmap.
// Caller holds m.mu.
func (m *Manager) patchLocked(key tilecache.Key, mutated []Item, ver uint64) {
	tile, ok := m.cache.Get(key)
	if !ok || tile.Failed() || tile.Image == nil {
		return
	}

	world := m.worldRect(key)
	current := m.model.QueryItems(world)
	scale := float64(m.cfg.tilePixels) / key.WorldSize(m.cfg.baseTileSize)

	present := make(map[Item]bool, len(current))
	for _, it := range current {
		present[it] = true
	}
	allPresent := true
	for _, it := range mutated {
		if !present[it] {
			allPresent = false
			break
		}
	}

	var toDraw []Item
	if allPresent {
		toDraw = append(toDraw, mutated...)
	} else {
		// Something was removed: rebuild the tile from scratch, in the
		// same bitmap, so the key never leaves the cache.
		clear(tile.Image.Pix)
		toDraw = current
	}
	sortItems(toDraw)

	for _, it := range toDraw {
		if err := m.renderer.DrawItem(tile.Image, it, world.Min, scale); err != nil {
			m.log.Warn("tile patch failed", "key", key.String(), "err", err)
			m.scheduleLocked(key, ver, true, true)
			return
		}
	}
	tile.Version = ver
}

// supersedeLocked force-requeues every in-flight job whose tile
// intersects bounds, so results started before the mutation cannot land.
// Caller holds m.mu.
func (m *Manager) supersedeLocked(bounds r2.Box, ver uint64) {
	for key, job := range m.inflight {
		if geom.Intersects(m.worldRect(key), bounds) {
			m.scheduleLocked(key, ver, job.visible, true)
		}
	}
}

// onScreenLocked reports whether key is an active-level tile intersecting
// the last known viewport. Caller holds m.mu.
func (m *Manager) onScreenLocked(key tilecache.Key) bool {
	return m.haveLevel && key.Level == m.level && m.intersectsViewportLocked(key)
}

func anyHighlighter(items []Item) bool {
	for _, it := range items {
		if s, ok := it.(*Stroke); ok && s.Highlighter {
			return true
		}
	}
	return false
}

func boundsOf(items []Item) r2.Box {
	b := items[0].Bounds()
	for _, it := range items[1:] {
		b = geom.Union(b, it.Bounds())
	}
	return b
}
