// Package tilecanvas renders an unbounded 2D drawing surface holding tens
// of thousands of strokes, images, text boxes and links at interactive
// frame rates across arbitrary pan and zoom.
//
// # Overview
//
// Two cooperating subsystems make this possible:
//
//   - quadtree: an auto-growing spatial index answering "which items
//     overlap this rectangle?" in sub-linear time over an infinite plane.
//   - tilecache + Manager: a byte-budgeted cache of raster tiles arranged
//     in a level-of-detail pyramid, generated on background goroutines
//     and invalidated surgically when content changes.
//
// The Manager is the entry point. It consumes items through two narrow
// interfaces, ContentModel (spatial queries) and Renderer (per-item
// drawing), so pen dynamics, persistence and the host UI stay outside
// the core:
//
//	store := tilecanvas.NewStore(r2.Box{Max: r2.Vec{X: 4096, Y: 4096}})
//	mgr, err := tilecanvas.NewManager(store, render.NewSoftware())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer mgr.Destroy()
//	store.Subscribe(mgr.HandleEvent)
//
//	// Each frame:
//	mgr.Render(frame, viewport, zoom)
//
// Render draws every cached tile covering the viewport immediately. For
// tiles still being generated it composites a scaled ancestor (blurry)
// or cached child fragments (sharp but partial), so panning and zooming
// never show a blank region. Finished generations signal a rate-limited
// callback (WithOnTileReady) instead of forcing a repaint per tile.
//
// # Invalidation
//
// Content mutations flow through UpdateTilesWithItem(s) and
// UpdateTilesWithErasure, or wholesale through the Store event stream and
// HandleEvent. Only tiles whose world rectangle intersects the change are
// touched: on-screen tiles at the active level are patched in place,
// off-screen tiles are dropped and regenerate lazily, and in-flight
// generations over the area are superseded. RefreshTiles re-queues
// generation without dropping anything, so stale pixels stay visible
// until their replacement is ready.
//
// The Manager logs nothing by default; inject a logger with WithLogger.
package tilecanvas
