package tilecanvas

import (
	"sync"

	"github.com/gogpu/tilecanvas/internal/geom"
	"github.com/gogpu/tilecanvas/quadtree"
	"gonum.org/v1/gonum/spatial/r2"
)

// Store is a reference ContentModel: it owns canvas items, assigns their
// insertion order, keeps them spatially indexed in a quad-tree and emits
// mutation events to subscribers.
//
// Store serializes all access behind one mutex, satisfying the
// single-writer requirement of both the quad-tree and the tile manager.
type Store struct {
	mu        sync.Mutex
	tree      *quadtree.Tree
	nextOrder uint64
	listeners []func(Event)
}

// NewStore creates an empty store. The index starts over initialBounds
// and grows automatically as items land outside it.
func NewStore(initialBounds r2.Box) *Store {
	return &Store{tree: quadtree.New(initialBounds)}
}

// Subscribe registers a listener for content events. Listeners are called
// synchronously, after the mutation is applied, without the store lock
// held. Subscribe the tile manager's HandleEvent here.
func (s *Store) Subscribe(fn func(Event)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Store) emit(ev Event) {
	s.mu.Lock()
	listeners := s.listeners
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(ev)
	}
}

// Add inserts items into the store, assigning each a fresh insertion
// order, and emits one ItemsAdded event covering them all. Host-defined
// item types receive their order through OrderSetter.
func (s *Store) Add(items ...Item) {
	if len(items) == 0 {
		return
	}
	s.mu.Lock()
	for _, it := range items {
		s.nextOrder++
		setOrder(it, s.nextOrder)
		s.tree.Insert(it)
	}
	s.mu.Unlock()
	s.emit(Event{Kind: ItemsAdded, Items: items})
}

// Remove deletes items from the store and emits one ItemsRemoved event
// for those actually found.
func (s *Store) Remove(items ...Item) {
	var removed []Item
	s.mu.Lock()
	for _, it := range items {
		if s.tree.Remove(it) {
			removed = append(removed, it)
		}
	}
	s.mu.Unlock()
	if len(removed) > 0 {
		s.emit(Event{Kind: ItemsRemoved, Items: removed})
	}
}

// Erase removes every item whose bounds lie entirely inside the eraser
// stroke's bounds and emits ItemsRemoved for them. Partially overlapped
// items stay; the tile manager masks them out per tile via
// UpdateTilesWithErasure.
func (s *Store) Erase(eraser *Stroke) []Item {
	var removed []Item
	s.mu.Lock()
	for _, it := range s.tree.Retrieve(eraser.Bounds()) {
		if geom.Contains(eraser.Bounds(), it.Bounds()) {
			if s.tree.Remove(it) {
				removed = append(removed, it)
			}
		}
	}
	s.mu.Unlock()
	if len(removed) > 0 {
		s.emit(Event{Kind: ItemsRemoved, Items: removed})
	}
	return removed
}

// Clear empties the store and emits ContentCleared.
func (s *Store) Clear() {
	s.mu.Lock()
	s.tree.Clear()
	s.mu.Unlock()
	s.emit(Event{Kind: ContentCleared})
}

// AddLoaded inserts items that a persistence layer loaded for bounds and
// emits RegionLoaded instead of ItemsAdded, so the tile manager refreshes
// the region wholesale rather than patching item by item.
func (s *Store) AddLoaded(bounds r2.Box, items []Item) {
	s.mu.Lock()
	for _, it := range items {
		s.nextOrder++
		setOrder(it, s.nextOrder)
		s.tree.Insert(it)
	}
	s.mu.Unlock()
	s.emit(Event{Kind: RegionLoaded, Bounds: bounds})
}

// QueryItems implements ContentModel.
func (s *Store) QueryItems(bounds r2.Box) []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Retrieve(bounds)
}

// HitTest returns the item nearest to (x, y) within tolerance, or nil.
func (s *Store) HitTest(x, y, tolerance float64) Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.HitTest(x, y, tolerance)
}

// Len returns the number of stored items.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Len()
}

// Bounds returns the current index bounds.
func (s *Store) Bounds() r2.Box {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Bounds()
}
