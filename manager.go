package tilecanvas

import (
	"context"
	"image"
	"image/draw"
	"log/slog"
	"math"
	"slices"
	"sync"
	"sync/atomic"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/tilecanvas/internal/geom"
	"github.com/gogpu/tilecanvas/tilecache"
	"golang.org/x/sync/semaphore"
	"gonum.org/v1/gonum/spatial/r2"
)

// Manager coordinates the level-of-detail tile pyramid.
//
// It computes the active zoom level, draws cached tiles into the caller's
// surface, substitutes blurry ancestors or partial child fragments while
// a tile is being generated, schedules background generation and
// surgically invalidates only the tiles a content mutation touches.
//
// One render/UI goroutine calls Render and the UpdateTiles/Refresh
// methods; any number of background generations run concurrently. The
// manager's own mutex serializes compositing against cache mutation, so a
// tile being drawn can never have its bitmap recycled mid-draw.
type Manager struct {
	cfg      config
	log      *slog.Logger
	model    ContentModel
	renderer Renderer
	cache    *tilecache.Cache

	// version is the generation version: bumped on LOD level change and
	// on every invalidation. A job whose captured version no longer
	// matches is discarded at commit. This is the sole mechanism keeping
	// stale pixels out of the cache.
	version atomic.Uint64

	mu        sync.Mutex
	level     int
	haveLevel bool
	viewport  r2.Box
	viewScale float64
	inflight  map[tilecache.Key]*genJob

	sem    *semaphore.Weighted
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	notify *notifier

	destroyed atomic.Bool
}

// NewManager creates a tile manager over the given content model and
// item renderer.
func NewManager(model ContentModel, renderer Renderer, opts ...Option) (*Manager, error) {
	if model == nil {
		return nil, ErrNoModel
	}
	if renderer == nil {
		return nil, ErrNoRenderer
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		cfg:      cfg,
		log:      cfg.logger,
		model:    model,
		renderer: renderer,
		cache:    tilecache.New(cfg.tilePixels, cfg.budgetBytes, cfg.ceilingBytes, cfg.poolSize),
		inflight: make(map[tilecache.Key]*genJob),
		sem:      semaphore.NewWeighted(cfg.maxConcurrent),
		ctx:      ctx,
		cancel:   cancel,
		notify:   newNotifier(cfg.notifyInterval, cfg.onTileReady),
	}
	return m, nil
}

// SetOnTileReady replaces the tile-ready callback.
func (m *Manager) SetOnTileReady(fn func()) {
	m.notify.setFunc(fn)
}

// Cache exposes the tile cache for inspection (stats, budget).
func (m *Manager) Cache() *tilecache.Cache {
	return m.cache
}

// Pending returns the number of tile generations currently in flight.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inflight)
}

// levelFor maps a display scale to an LOD level.
func (m *Manager) levelFor(scale float64) int {
	if scale <= 0 {
		return m.cfg.maxLevel
	}
	level := int(math.Floor(math.Log2(1/scale) + m.cfg.levelBias))
	if level < m.cfg.minLevel {
		level = m.cfg.minLevel
	}
	if level > m.cfg.maxLevel {
		level = m.cfg.maxLevel
	}
	return level
}

// visibleKeys returns the tile keys of the given level intersecting the
// viewport.
func (m *Manager) visibleKeys(viewport r2.Box, level int) []tilecache.Key {
	size := math.Ldexp(m.cfg.baseTileSize, level)
	c0 := int(math.Floor(viewport.Min.X / size))
	c1 := int(math.Floor(viewport.Max.X / size))
	r0 := int(math.Floor(viewport.Min.Y / size))
	r1 := int(math.Floor(viewport.Max.Y / size))

	keys := make([]tilecache.Key, 0, (c1-c0+1)*(r1-r0+1))
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			keys = append(keys, tilecache.Key{Col: col, Row: row, Level: level})
		}
	}
	return keys
}

// Render composites the tiles covering visible into dst at the given
// scale. Cached tiles draw immediately; missing tiles draw a fallback
// substitute and queue background generation.
func (m *Manager) Render(dst draw.Image, visible r2.Box, scale float64) {
	if m.destroyed.Load() {
		return
	}

	level := m.levelFor(scale)

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.haveLevel || level != m.level {
		// A level switch invalidates every in-flight job: their results
		// would land under a stale version anyway, so cancel eagerly.
		if m.haveLevel {
			m.version.Add(1)
			for key, job := range m.inflight {
				if key.Level != level {
					job.cancel()
				}
			}
			m.log.Debug("lod level changed", "level", level, "version", m.version.Load())
		}
		m.level = level
		m.haveLevel = true
	}
	m.viewport = visible
	m.viewScale = scale

	m.cache.CheckBudgetAndResize(len(m.inflight))

	ver := m.version.Load()
	for _, key := range m.visibleKeys(visible, level) {
		tile, ok := m.cache.Get(key)
		if ok && !tile.Failed() {
			m.drawTileLocked(dst, tile, key, visible, scale)
			continue
		}
		m.drawFallbackLocked(dst, key, visible, scale)
		if !ok {
			m.scheduleLocked(key, ver, true, false)
		}
		// Failed tiles stay failed until an explicit refresh.
	}
}

// drawTileLocked draws one cached tile scaled into its on-screen
// footprint. Caller holds m.mu.
func (m *Manager) drawTileLocked(dst draw.Image, tile *tilecache.Tile, key tilecache.Key, viewport r2.Box, scale float64) {
	if tile.Image == nil {
		return
	}
	dr := m.screenRect(key.WorldRect(m.cfg.baseTileSize), viewport, scale)
	if dr.Empty() {
		return
	}
	xdraw.ApproxBiLinear.Scale(dst, dr, tile.Image, tile.Image.Bounds(), xdraw.Over, nil)
}

// screenRect maps a world rectangle to dst pixel coordinates.
func (m *Manager) screenRect(world, viewport r2.Box, scale float64) image.Rectangle {
	return image.Rect(
		int(math.Floor((world.Min.X-viewport.Min.X)*scale)),
		int(math.Floor((world.Min.Y-viewport.Min.Y)*scale)),
		int(math.Ceil((world.Max.X-viewport.Min.X)*scale)),
		int(math.Ceil((world.Max.Y-viewport.Min.Y)*scale)),
	)
}

// currentViewport returns the viewport of the most recent Render call.
func (m *Manager) currentViewport() r2.Box {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewport
}

// Clear drops every cached tile and cancels in-flight generation.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.version.Add(1)
	for _, job := range m.inflight {
		job.cancel()
	}
	m.mu.Unlock()
	m.cache.Clear()
}

// Destroy cancels all background work, waits for it to drain and releases
// the cache. The manager must not be used afterwards.
func (m *Manager) Destroy() {
	if !m.destroyed.CompareAndSwap(false, true) {
		return
	}
	m.cancel()
	m.wg.Wait()
	m.notify.stop()
	m.cache.Clear()
}

// HandleEvent applies a content model event to the tile pyramid.
// Subscribe this to the model's event stream.
func (m *Manager) HandleEvent(ev Event) {
	switch ev.Kind {
	case ItemsAdded, ItemsRemoved:
		m.UpdateTilesWithItems(ev.Items)
	case ContentCleared:
		m.Clear()
	case RegionLoaded:
		m.RefreshTiles(ev.Bounds)
	}
}

// sortItems orders items by draw layer, oldest first within a layer.
func sortItems(items []Item) {
	// Insertion order is unique, so the sort needs no further tie-break.
	slices.SortFunc(items, func(a, b Item) int {
		if a.ZIndex() != b.ZIndex() {
			if a.ZIndex() < b.ZIndex() {
				return -1
			}
			return 1
		}
		switch {
		case a.Order() < b.Order():
			return -1
		case a.Order() > b.Order():
			return 1
		}
		return 0
	})
}

// worldRect returns the world rectangle of a key under the configured
// base tile size.
func (m *Manager) worldRect(key tilecache.Key) r2.Box {
	return key.WorldRect(m.cfg.baseTileSize)
}

// intersectsViewport reports whether a key's world rectangle intersects
// the last known viewport. Caller holds m.mu.
func (m *Manager) intersectsViewportLocked(key tilecache.Key) bool {
	return geom.Intersects(m.worldRect(key), m.viewport)
}
