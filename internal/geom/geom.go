// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package geom provides axis-aligned rectangle helpers shared by the
// tilecanvas packages.
//
// World-space geometry uses gonum's spatial/r2 types throughout: r2.Vec
// for points and r2.Box for rectangles. Boxes are treated as closed
// intervals; boxes that share only an edge still intersect.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Intersects reports whether a and b overlap.
func Intersects(a, b r2.Box) bool {
	return a.Min.X <= b.Max.X && b.Min.X <= a.Max.X &&
		a.Min.Y <= b.Max.Y && b.Min.Y <= a.Max.Y
}

// Contains reports whether inner lies entirely within outer.
func Contains(outer, inner r2.Box) bool {
	return inner.Min.X >= outer.Min.X && inner.Max.X <= outer.Max.X &&
		inner.Min.Y >= outer.Min.Y && inner.Max.Y <= outer.Max.Y
}

// ContainsPoint reports whether p lies within b.
func ContainsPoint(b r2.Box, p r2.Vec) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

// Union returns the smallest box containing both a and b.
func Union(a, b r2.Box) r2.Box {
	return r2.Box{
		Min: r2.Vec{X: math.Min(a.Min.X, b.Min.X), Y: math.Min(a.Min.Y, b.Min.Y)},
		Max: r2.Vec{X: math.Max(a.Max.X, b.Max.X), Y: math.Max(a.Max.Y, b.Max.Y)},
	}
}

// Center returns the midpoint of b.
func Center(b r2.Box) r2.Vec {
	return r2.Vec{X: (b.Min.X + b.Max.X) / 2, Y: (b.Min.Y + b.Max.Y) / 2}
}

// Pad returns b expanded by d on every side.
// A negative d shrinks the box; the result may be inverted.
func Pad(b r2.Box, d float64) r2.Box {
	return r2.Box{
		Min: r2.Vec{X: b.Min.X - d, Y: b.Min.Y - d},
		Max: r2.Vec{X: b.Max.X + d, Y: b.Max.Y + d},
	}
}

// Empty reports whether b has no area.
func Empty(b r2.Box) bool {
	return b.Min.X >= b.Max.X || b.Min.Y >= b.Max.Y
}

// FromPoints returns the bounding box of the given points.
// Returns the zero box for an empty slice.
func FromPoints(pts []r2.Vec) r2.Box {
	if len(pts) == 0 {
		return r2.Box{}
	}
	b := r2.Box{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		b.Min.X = math.Min(b.Min.X, p.X)
		b.Min.Y = math.Min(b.Min.Y, p.Y)
		b.Max.X = math.Max(b.Max.X, p.X)
		b.Max.Y = math.Max(b.Max.Y, p.Y)
	}
	return b
}

// PointDistance returns the distance from p to b, zero if p is inside.
func PointDistance(b r2.Box, p r2.Vec) float64 {
	dx := math.Max(0, math.Max(b.Min.X-p.X, p.X-b.Max.X))
	dy := math.Max(0, math.Max(b.Min.Y-p.Y, p.Y-b.Max.Y))
	return math.Hypot(dx, dy)
}

// SegmentDistance returns the distance from point p to the segment a-b.
func SegmentDistance(p, a, b r2.Vec) float64 {
	ab := r2.Sub(b, a)
	ap := r2.Sub(p, a)
	len2 := r2.Dot(ab, ab)
	if len2 == 0 {
		return r2.Norm(ap)
	}
	t := r2.Dot(ap, ab) / len2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	closest := r2.Add(a, r2.Scale(t, ab))
	return r2.Norm(r2.Sub(p, closest))
}
