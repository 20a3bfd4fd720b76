// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package tilecache

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Key addresses one tile in the level-of-detail pyramid.
//
// Level is the LOD exponent: a tile at level L covers
// baseSize * 2^L world units per side. Higher levels are coarser.
// Keys are pure values and remain stable for the lifetime of a zoom.
type Key struct {
	Col   int
	Row   int
	Level int
}

// String implements fmt.Stringer for log output.
func (k Key) String() string {
	return fmt.Sprintf("tile(%d,%d@%d)", k.Col, k.Row, k.Level)
}

// WorldSize returns the world-space edge length of tiles at k's level.
func (k Key) WorldSize(baseSize float64) float64 {
	return math.Ldexp(baseSize, k.Level)
}

// WorldRect returns the world-space rectangle k covers.
func (k Key) WorldRect(baseSize float64) r2.Box {
	s := k.WorldSize(baseSize)
	min := r2.Vec{X: float64(k.Col) * s, Y: float64(k.Row) * s}
	return r2.Box{Min: min, Max: r2.Vec{X: min.X + s, Y: min.Y + s}}
}

// Ancestor returns the key of the tile d levels above k covering the same
// world area.
func (k Key) Ancestor(d int) Key {
	return Key{
		Col:   floorShift(k.Col, d),
		Row:   floorShift(k.Row, d),
		Level: k.Level + d,
	}
}

// Children returns the keys of the 2^d by 2^d tiles d levels below k that
// tile k's world area.
func (k Key) Children(d int) []Key {
	n := 1 << d
	out := make([]Key, 0, n*n)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			out = append(out, Key{
				Col:   k.Col*n + c,
				Row:   k.Row*n + r,
				Level: k.Level - d,
			})
		}
	}
	return out
}

// floorShift divides by 2^d rounding toward negative infinity, so that
// negative columns and rows map to the correct coarser tile.
func floorShift(v, d int) int {
	if v >= 0 {
		return v >> d
	}
	return -(((-v - 1) >> d) + 1)
}
