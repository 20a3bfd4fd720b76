// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package geom

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func box(x0, y0, x1, y1 float64) r2.Box {
	return r2.Box{Min: r2.Vec{X: x0, Y: y0}, Max: r2.Vec{X: x1, Y: y1}}
}

func TestIntersects(t *testing.T) {
	tests := []struct {
		name string
		a, b r2.Box
		want bool
	}{
		{"overlapping", box(0, 0, 10, 10), box(5, 5, 15, 15), true},
		{"disjoint", box(0, 0, 10, 10), box(20, 20, 30, 30), false},
		{"shared edge", box(0, 0, 10, 10), box(10, 0, 20, 10), true},
		{"contained", box(0, 0, 100, 100), box(10, 10, 20, 20), true},
		{"disjoint vertically", box(0, 0, 10, 10), box(0, 11, 10, 20), false},
	}
	for _, tt := range tests {
		if got := Intersects(tt.a, tt.b); got != tt.want {
			t.Errorf("%s: Intersects = %v, want %v", tt.name, got, tt.want)
		}
		// Intersection is symmetric.
		if got := Intersects(tt.b, tt.a); got != tt.want {
			t.Errorf("%s (swapped): Intersects = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestContains(t *testing.T) {
	outer := box(0, 0, 100, 100)
	if !Contains(outer, box(10, 10, 20, 20)) {
		t.Error("expected inner box to be contained")
	}
	if !Contains(outer, outer) {
		t.Error("expected box to contain itself")
	}
	if Contains(outer, box(90, 90, 110, 110)) {
		t.Error("expected partially outside box to not be contained")
	}
}

func TestUnion(t *testing.T) {
	got := Union(box(0, 0, 10, 10), box(5, -5, 20, 8))
	want := box(0, -5, 20, 10)
	if got != want {
		t.Errorf("Union = %v, want %v", got, want)
	}
}

func TestFromPoints(t *testing.T) {
	pts := []r2.Vec{{X: 3, Y: 7}, {X: -1, Y: 2}, {X: 5, Y: 4}}
	got := FromPoints(pts)
	want := box(-1, 2, 5, 7)
	if got != want {
		t.Errorf("FromPoints = %v, want %v", got, want)
	}

	if got := FromPoints(nil); got != (r2.Box{}) {
		t.Errorf("FromPoints(nil) = %v, want zero box", got)
	}
}

func TestPointDistance(t *testing.T) {
	b := box(0, 0, 10, 10)
	if d := PointDistance(b, r2.Vec{X: 5, Y: 5}); d != 0 {
		t.Errorf("inside point distance = %v, want 0", d)
	}
	if d := PointDistance(b, r2.Vec{X: 13, Y: 14}); math.Abs(d-5) > 1e-12 {
		t.Errorf("corner distance = %v, want 5", d)
	}
	if d := PointDistance(b, r2.Vec{X: 5, Y: -3}); math.Abs(d-3) > 1e-12 {
		t.Errorf("edge distance = %v, want 3", d)
	}
}

func TestSegmentDistance(t *testing.T) {
	a := r2.Vec{X: 0, Y: 0}
	b := r2.Vec{X: 10, Y: 0}

	if d := SegmentDistance(r2.Vec{X: 5, Y: 3}, a, b); math.Abs(d-3) > 1e-12 {
		t.Errorf("perpendicular distance = %v, want 3", d)
	}
	// Beyond segment end: distance to endpoint.
	if d := SegmentDistance(r2.Vec{X: 14, Y: 3}, a, b); math.Abs(d-5) > 1e-12 {
		t.Errorf("endpoint distance = %v, want 5", d)
	}
	// Degenerate segment.
	if d := SegmentDistance(r2.Vec{X: 3, Y: 4}, a, a); math.Abs(d-5) > 1e-12 {
		t.Errorf("degenerate segment distance = %v, want 5", d)
	}
}
