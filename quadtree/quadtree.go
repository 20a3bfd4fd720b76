// Package quadtree implements an auto-growing quad-tree over axis-aligned
// item bounds.
//
// The tree answers "which items overlap this rectangle?" queries and point
// hit-tests in sub-linear time. Content may be placed anywhere on an
// infinite plane: inserting an item outside the current bounds grows the
// tree outward, doubling the covered region toward the item until it fits.
//
// Nodes live in an arena addressed by stable integer indices, with a single
// current-root index. Growing the tree allocates a new arena slot and moves
// the root index; no live node is ever re-parented or copied.
//
// The tree has no locking of its own. Callers serialize access.
package quadtree

import (
	"github.com/gogpu/tilecanvas/internal/geom"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	// MaxObjects is the number of items a node holds before splitting.
	MaxObjects = 10

	// MaxLevels is the maximum subdivision depth.
	MaxLevels = 20
)

// noChild marks an absent child slot.
const noChild = int32(-1)

// Item is a spatially indexed canvas item. The tree holds non-owning
// references; items are owned by the content model that inserts them.
//
// Bounds must not change while the item is in the tree.
type Item interface {
	// Bounds returns the item's axis-aligned bounding rectangle.
	Bounds() r2.Box

	// ZIndex returns the item's draw layer.
	ZIndex() int

	// Order returns the item's insertion order, unique across all items.
	Order() uint64

	// Distance returns the distance from p to the item's geometry.
	// Stroke-like items measure point-to-segment distance; others
	// measure distance to their bounds.
	Distance(p r2.Vec) float64
}

// node is one arena slot. Children are arena indices, noChild if absent.
// Child quadrant order: 0 = NW, 1 = NE, 2 = SW, 3 = SE.
type node struct {
	bounds   r2.Box
	items    []Item
	children [4]int32
}

// Tree is an auto-growing quad-tree.
type Tree struct {
	nodes []node
	root  int32
	count int
}

// New creates a tree covering the given initial bounds.
// The bounds grow automatically as out-of-bounds items are inserted.
func New(bounds r2.Box) *Tree {
	if geom.Empty(bounds) {
		// A degenerate region cannot double toward an item.
		bounds = geom.Pad(bounds, 1)
	}
	t := &Tree{root: 0}
	t.nodes = append(t.nodes, newNode(bounds))
	return t
}

func newNode(bounds r2.Box) node {
	return node{
		bounds:   bounds,
		children: [4]int32{noChild, noChild, noChild, noChild},
	}
}

// Bounds returns the current root bounds. Every indexed item is contained
// within them.
func (t *Tree) Bounds() r2.Box {
	return t.nodes[t.root].bounds
}

// Len returns the number of indexed items.
func (t *Tree) Len() int {
	return t.count
}

// Insert adds an item to the tree, growing the root outward as many times
// as needed for the item's bounds to fit.
func (t *Tree) Insert(it Item) {
	b := it.Bounds()
	for !geom.Contains(t.nodes[t.root].bounds, b) {
		t.grow(b)
	}
	t.insertAt(t.root, it, 0)
	t.count++
}

// grow doubles the root bounds toward b. The existing root becomes the
// child quadrant on the opposite side of the new center.
func (t *Tree) grow(b r2.Box) {
	old := t.nodes[t.root].bounds
	w := old.Max.X - old.Min.X
	h := old.Max.Y - old.Min.Y
	c := geom.Center(old)
	bc := geom.Center(b)

	// Extend toward the side of center the item sits on.
	min := old.Min
	if bc.X < c.X {
		min.X -= w
	}
	if bc.Y < c.Y {
		min.Y -= h
	}
	bounds := r2.Box{Min: min, Max: r2.Vec{X: min.X + 2*w, Y: min.Y + 2*h}}

	// The old root occupies exactly one quadrant of the new root.
	q := 0
	if old.Min.X > min.X {
		q |= 1 // east half
	}
	if old.Min.Y > min.Y {
		q |= 2 // south half
	}

	n := newNode(bounds)
	n.children[q] = t.root
	for i := range n.children {
		if i != q {
			n.children[i] = t.alloc(newNode(quadrant(bounds, i)))
		}
	}
	t.root = t.alloc(n)
}

// alloc appends a node to the arena and returns its index.
func (t *Tree) alloc(n node) int32 {
	t.nodes = append(t.nodes, n)
	return int32(len(t.nodes) - 1)
}

// quadrant returns the bounds of child quadrant q of b.
func quadrant(b r2.Box, q int) r2.Box {
	c := geom.Center(b)
	sub := r2.Box{Min: b.Min, Max: c}
	if q&1 != 0 {
		sub.Min.X = c.X
		sub.Max.X = b.Max.X
	}
	if q&2 != 0 {
		sub.Min.Y = c.Y
		sub.Max.Y = b.Max.Y
	}
	return sub
}

// childFor returns the quadrant index whose bounds fully contain b,
// or -1 when b straddles a quadrant boundary.
func childFor(bounds r2.Box, b r2.Box) int {
	c := geom.Center(bounds)
	switch {
	case b.Max.X <= c.X && b.Max.Y <= c.Y:
		return 0
	case b.Min.X >= c.X && b.Max.Y <= c.Y:
		return 1
	case b.Max.X <= c.X && b.Min.Y >= c.Y:
		return 2
	case b.Min.X >= c.X && b.Min.Y >= c.Y:
		return 3
	}
	return -1
}

// insertAt stores the item at the shallowest node whose single child
// cannot fully contain it. Splitting may recurse; arena indices stay
// valid across appends, so nodes are always re-fetched by index.
func (t *Tree) insertAt(idx int32, it Item, depth int) {
	b := it.Bounds()
	for {
		n := &t.nodes[idx]
		if n.children[0] != noChild {
			q := childFor(n.bounds, b)
			if q >= 0 {
				idx = n.children[q]
				depth++
				continue
			}
			n.items = append(n.items, it)
			return
		}
		n.items = append(n.items, it)
		if len(n.items) > MaxObjects && depth < MaxLevels {
			t.split(idx, depth)
		}
		return
	}
}

// split subdivides a leaf into four quadrants and redistributes every item
// that fits cleanly into a single child. Straddling items stay put.
func (t *Tree) split(idx int32, depth int) {
	bounds := t.nodes[idx].bounds
	var children [4]int32
	for q := range children {
		children[q] = t.alloc(newNode(quadrant(bounds, q)))
	}
	// alloc may have moved the arena backing array; re-fetch by index.
	moved := t.nodes[idx].items
	t.nodes[idx].items = nil
	t.nodes[idx].children = children

	for _, it := range moved {
		q := childFor(bounds, it.Bounds())
		if q >= 0 {
			t.insertAt(children[q], it, depth+1)
		} else {
			t.nodes[idx].items = append(t.nodes[idx].items, it)
		}
	}
}

// Remove deletes an item from the tree, reporting whether it was found.
// Empty children are never merged back; the tree only compacts on Clear.
func (t *Tree) Remove(it Item) bool {
	b := it.Bounds()
	idx := t.root
	for idx != noChild {
		n := &t.nodes[idx]
		for i, stored := range n.items {
			if stored == it {
				n.items = append(n.items[:i], n.items[i+1:]...)
				t.count--
				return true
			}
		}
		if n.children[0] == noChild {
			return false
		}
		q := childFor(n.bounds, b)
		if q < 0 {
			return false
		}
		idx = n.children[q]
	}
	return false
}

// Retrieve returns every indexed item whose bounds intersect r.
// The result order is unspecified.
func (t *Tree) Retrieve(r r2.Box) []Item {
	var out []Item
	t.retrieve(t.root, r, &out)
	return out
}

func (t *Tree) retrieve(idx int32, r r2.Box, out *[]Item) {
	n := &t.nodes[idx]
	if !geom.Intersects(n.bounds, r) {
		return
	}
	for _, it := range n.items {
		if geom.Intersects(it.Bounds(), r) {
			*out = append(*out, it)
		}
	}
	if n.children[0] == noChild {
		return
	}
	// A query fully inside one quadrant only needs that subtree.
	if q := childFor(n.bounds, r); q >= 0 {
		t.retrieve(n.children[q], r, out)
		return
	}
	for _, c := range n.children {
		t.retrieve(c, r, out)
	}
}

// HitTest returns the indexed item nearest to (x, y) within tolerance,
// or nil when none is close enough. Ties on distance prefer the higher
// z-index, then the newer (higher) insertion order.
func (t *Tree) HitTest(x, y, tolerance float64) Item {
	p := r2.Vec{X: x, Y: y}
	search := r2.Box{
		Min: r2.Vec{X: x - tolerance, Y: y - tolerance},
		Max: r2.Vec{X: x + tolerance, Y: y + tolerance},
	}

	var best Item
	bestDist := tolerance
	for _, it := range t.Retrieve(search) {
		d := it.Distance(p)
		if d > tolerance {
			continue
		}
		switch {
		case best == nil || d < bestDist:
			best, bestDist = it, d
		case d == bestDist:
			if it.ZIndex() > best.ZIndex() ||
				(it.ZIndex() == best.ZIndex() && it.Order() > best.Order()) {
				best = it
			}
		}
	}
	return best
}

// Clear removes all items and resets the arena to a single root covering
// the current bounds.
func (t *Tree) Clear() {
	bounds := t.nodes[t.root].bounds
	t.nodes = t.nodes[:0]
	t.nodes = append(t.nodes, newNode(bounds))
	t.root = 0
	t.count = 0
}
