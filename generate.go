package tilecanvas

import (
	"context"
	"fmt"

	"github.com/gogpu/tilecanvas/tilecache"
)

// genJob is one in-flight tile generation.
type genJob struct {
	key     tilecache.Key
	version uint64 // generation version captured at scheduling
	visible bool   // high priority: the tile intersected the viewport
	ctx     context.Context
	cancel  context.CancelFunc
}

// stale reports whether the job's result must be discarded: its captured
// version no longer matches, it was cancelled, or a high-priority job's
// tile moved off-screen while the job waited.
//
// Generation re-checks this immediately after every suspension point
// (permit wait, item query), because the viewport and version can move
// while the job is parked.
func (m *Manager) stale(job *genJob) bool {
	if job.ctx.Err() != nil {
		return true
	}
	if job.version != m.version.Load() {
		return true
	}
	if job.visible {
		m.mu.Lock()
		// Before the first Render there is no viewport to test against;
		// treat it as intersecting everything.
		ok := !m.haveLevel || m.intersectsViewportLocked(job.key)
		m.mu.Unlock()
		if !ok {
			return true
		}
	}
	return false
}

// scheduleLocked queues background generation for a tile. Caller holds
// m.mu. Low-priority requests are dropped while the cache is near full so
// prefetch cannot starve visible-tile generation; forced requests skip
// the throttle, because refreshing an already-cached tile replaces its
// entry rather than growing the cache, and dropping the re-queue would
// leave the stale bitmap cached forever.
func (m *Manager) scheduleLocked(key tilecache.Key, version uint64, visible, forced bool) {
	if m.destroyed.Load() {
		return
	}
	if job, ok := m.inflight[key]; ok {
		if job.version == version {
			return // already queued for this generation
		}
		// Superseded: the old result may no longer be committed.
		job.cancel()
	}
	if !visible && !forced && m.cache.IsFull(len(m.inflight), m.cfg.prefetchThreshold) {
		return
	}

	ctx, cancel := context.WithCancel(m.ctx)
	job := &genJob{key: key, version: version, visible: visible, ctx: ctx, cancel: cancel}
	m.inflight[key] = job
	m.wg.Add(1)
	go m.generate(job)
}

// generate renders one tile on a background goroutine.
func (m *Manager) generate(job *genJob) {
	defer m.wg.Done()
	defer job.cancel()
	defer func() {
		m.mu.Lock()
		if m.inflight[job.key] == job {
			delete(m.inflight, job.key)
		}
		m.mu.Unlock()
	}()

	// Heavy renders hold a counting permit so simultaneous large
	// allocations stay bounded.
	if err := m.sem.Acquire(job.ctx, 1); err != nil {
		return // cancelled while waiting; silent
	}
	defer m.sem.Release(1)

	if m.stale(job) {
		return
	}

	world := m.worldRect(job.key)
	items := m.model.QueryItems(world)
	// The query may have blocked on a region load; re-validate.
	if m.stale(job) {
		return
	}
	sortItems(items)

	bmp := m.cache.ObtainBitmap()
	scale := float64(m.cfg.tilePixels) / job.key.WorldSize(m.cfg.baseTileSize)
	for _, it := range items {
		if err := m.renderer.DrawItem(bmp, it, world.Min, scale); err != nil {
			m.cache.ReleaseBitmap(bmp)
			m.commit(job, &tilecache.Tile{
				Version: job.version,
				Err:     fmt.Errorf("tilecanvas: generating %v: %w", job.key, err),
			})
			m.log.Warn("tile generation failed", "key", job.key.String(), "err", err)
			return
		}
	}

	m.commit(job, &tilecache.Tile{Image: bmp, Version: job.version})
}

// commit stores a finished tile unless the job went stale. The version
// check happens under the manager lock, the same lock that bumps the
// version, so a stale result can never slip in between check and store.
func (m *Manager) commit(job *genJob, tile *tilecache.Tile) {
	m.mu.Lock()
	if job.ctx.Err() != nil || job.version != m.version.Load() {
		m.mu.Unlock()
		m.cache.ReleaseBitmap(tile.Image)
		return
	}
	m.cache.Put(job.key, tile)
	m.mu.Unlock()

	m.notify.signal()
}
