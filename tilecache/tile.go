// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package tilecache

import "image"

// Tile is one cached raster tile.
//
// Version records the manager's generation version the pixels were
// produced under; stale versions are discarded before they reach the
// cache, so a cached tile's pixels are always internally consistent.
//
// A tile whose generation failed permanently carries Err instead of a
// magic sentinel bitmap. Failed tiles are cached like any other (so the
// failure is not retried on every frame) but must be excluded from
// compositing; only an explicit refresh retries them.
type Tile struct {
	Image   *image.RGBA
	Version uint64
	Err     error
}

// failedTileBytes is the accounting weight of a failed tile, which holds
// no bitmap.
const failedTileBytes = 64

// Failed reports whether the tile records a permanent generation failure.
func (t *Tile) Failed() bool {
	return t.Err != nil
}

// ByteSize returns the tile's accounting weight in bytes.
func (t *Tile) ByteSize() int64 {
	if t.Image == nil {
		return failedTileBytes
	}
	return int64(len(t.Image.Pix))
}
