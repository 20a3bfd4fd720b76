package tilecanvas

import (
	"image"

	"gonum.org/v1/gonum/spatial/r2"
)

// ContentModel supplies the items overlapping a world-space rectangle.
// The tile manager is the model's only consumer in this package; it sorts
// the result itself, so any return order is acceptable.
//
// QueryItems may block, for example while a persistence layer loads a
// region. The model is treated as single-writer-at-a-time: callers
// serialize mutations against queries.
type ContentModel interface {
	QueryItems(bounds r2.Box) []Item
}

// Renderer draws a single item into a raster tile.
//
// origin is the world-space point that maps to dst's pixel (0, 0), and
// scale converts world units to dst pixels, so the full world-to-tile
// transform is baked in: pixel = (world - origin) * scale.
//
// A non-nil error marks the whole tile generation as failed; the manager
// caches the failure and stops drawing further items into the tile.
type Renderer interface {
	DrawItem(dst *image.RGBA, item Item, origin r2.Vec, scale float64) error
}

// EventKind discriminates content model events.
type EventKind int

const (
	// ItemsAdded reports newly added items.
	ItemsAdded EventKind = iota

	// ItemsRemoved reports removed items.
	ItemsRemoved

	// ContentCleared reports that the whole canvas was emptied.
	ContentCleared

	// RegionLoaded reports that a persistence layer finished loading the
	// items of a region; tiles over it must be refreshed.
	RegionLoaded
)

// Event is a bounds-tagged content mutation notification.
// Items is set for ItemsAdded and ItemsRemoved; Bounds is set for
// RegionLoaded. ContentCleared carries neither.
type Event struct {
	Kind   EventKind
	Items  []Item
	Bounds r2.Box
}
