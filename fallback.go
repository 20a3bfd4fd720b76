package tilecanvas

import (
	"image"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/tilecanvas/tilecache"
	"gonum.org/v1/gonum/spatial/r2"
)

// drawFallbackLocked stands in for a missing tile while generation is in
// flight. It first searches coarser cached levels for a single tile
// covering the same world area and draws it scaled and clipped into the
// missing tile's footprint (cheap, blurry, fills everything at once). If
// no ancestor is cached it composites whatever finer-level fragments
// exist instead (sharper but partial). A single blurry fill beats four
// partial fragments in perceived latency, so ancestors win.
//
// Caller holds m.mu.
func (m *Manager) drawFallbackLocked(dst draw.Image, key tilecache.Key, viewport r2.Box, scale float64) {
	if m.drawAncestorLocked(dst, key, viewport, scale) {
		return
	}
	m.drawChildrenLocked(dst, key, 1, viewport, scale)
}

// drawAncestorLocked draws the nearest cached ancestor's sub-region
// covering key, searching up to fallbackAncestorLevels coarser levels.
// Caller holds m.mu.
func (m *Manager) drawAncestorLocked(dst draw.Image, key tilecache.Key, viewport r2.Box, scale float64) bool {
	world := m.worldRect(key)
	dr := m.screenRect(world, viewport, scale)
	if dr.Empty() {
		return false
	}

	for d := 1; d <= fallbackAncestorLevels; d++ {
		anc := key.Ancestor(d)
		tile, ok := m.cache.Get(anc)
		if !ok || tile.Failed() || tile.Image == nil {
			continue
		}

		// The sub-region of the ancestor bitmap covering key's world rect.
		ancWorld := m.worldRect(anc)
		ppw := float64(m.cfg.tilePixels) / anc.WorldSize(m.cfg.baseTileSize)
		sr := image.Rect(
			int(math.Floor((world.Min.X-ancWorld.Min.X)*ppw)),
			int(math.Floor((world.Min.Y-ancWorld.Min.Y)*ppw)),
			int(math.Ceil((world.Max.X-ancWorld.Min.X)*ppw)),
			int(math.Ceil((world.Max.Y-ancWorld.Min.Y)*ppw)),
		)
		if sr.Empty() {
			continue
		}
		xdraw.ApproxBiLinear.Scale(dst, dr, tile.Image, sr, xdraw.Over, nil)
		return true
	}
	return false
}

// drawChildrenLocked composites cached finer-level fragments of key,
// recursing at most fallbackChildLevels deep for quadrants that have no
// cached tile of their own. Returns whether anything was drawn.
// Caller holds m.mu.
func (m *Manager) drawChildrenLocked(dst draw.Image, key tilecache.Key, depth int, viewport r2.Box, scale float64) bool {
	if depth > fallbackChildLevels {
		return false
	}
	drew := false
	for _, child := range key.Children(1) {
		tile, ok := m.cache.Get(child)
		if ok && !tile.Failed() && tile.Image != nil {
			cdr := m.screenRect(m.worldRect(child), viewport, scale)
			if !cdr.Empty() {
				xdraw.ApproxBiLinear.Scale(dst, cdr, tile.Image, tile.Image.Bounds(), xdraw.Over, nil)
				drew = true
			}
			continue
		}
		if m.drawChildrenLocked(dst, child, depth+1, viewport, scale) {
			drew = true
		}
	}
	return drew
}
