package tilecanvas

import (
	"image"
	"image/color"

	"github.com/gogpu/tilecanvas/internal/geom"
	"github.com/gogpu/tilecanvas/quadtree"
	"gonum.org/v1/gonum/spatial/r2"
)

// Item is a canvas item: a freehand stroke, an image, a text box or a
// link. Items carry immutable bounds, a draw layer (z-index) and a
// monotonically increasing insertion order that breaks z-index ties.
//
// The interface is shared with the spatial index; see quadtree.Item.
type Item = quadtree.Item

// Stroke is a freehand polyline stroke.
//
// Construct strokes with NewStroke so the bounds are computed once;
// mutating Points afterwards invalidates the index.
type Stroke struct {
	Points []r2.Vec
	Width  float64
	Color  color.RGBA

	// Highlighter strokes blend translucently with everything under
	// them, so the tile manager never patches them in place.
	Highlighter bool

	// Eraser strokes punch transparency instead of adding pigment.
	Eraser bool

	Z      int
	bounds r2.Box
	order  uint64
}

// NewStroke creates a stroke from its polyline points. The bounds are the
// point bounds padded by half the stroke width.
func NewStroke(points []r2.Vec, width float64, c color.RGBA) *Stroke {
	return &Stroke{
		Points: points,
		Width:  width,
		Color:  c,
		bounds: geom.Pad(geom.FromPoints(points), width/2),
	}
}

// Bounds implements Item.
func (s *Stroke) Bounds() r2.Box { return s.bounds }

// ZIndex implements Item.
func (s *Stroke) ZIndex() int { return s.Z }

// Order implements Item.
func (s *Stroke) Order() uint64 { return s.order }

// Distance returns the distance from p to the nearest polyline segment.
func (s *Stroke) Distance(p r2.Vec) float64 {
	if len(s.Points) == 0 {
		return geom.PointDistance(s.bounds, p)
	}
	if len(s.Points) == 1 {
		return r2.Norm(r2.Sub(p, s.Points[0]))
	}
	best := geom.SegmentDistance(p, s.Points[0], s.Points[1])
	for i := 1; i < len(s.Points)-1; i++ {
		if d := geom.SegmentDistance(p, s.Points[i], s.Points[i+1]); d < best {
			best = d
		}
	}
	return best
}

// ImageItem places a raster image on the canvas, scaled to Rect.
type ImageItem struct {
	Image image.Image
	Rect  r2.Box

	Z     int
	order uint64
}

// NewImageItem creates an image item covering rect.
func NewImageItem(img image.Image, rect r2.Box) *ImageItem {
	return &ImageItem{Image: img, Rect: rect}
}

func (m *ImageItem) Bounds() r2.Box { return m.Rect }
func (m *ImageItem) ZIndex() int    { return m.Z }
func (m *ImageItem) Order() uint64  { return m.order }
func (m *ImageItem) Distance(p r2.Vec) float64 {
	return geom.PointDistance(m.Rect, p)
}

// TextItem places a text box on the canvas. Layout and shaping are the
// renderer's concern; the item only carries the text and its box.
type TextItem struct {
	Text  string
	Rect  r2.Box
	Color color.RGBA

	Z     int
	order uint64
}

// NewTextItem creates a text box covering rect.
func NewTextItem(text string, rect r2.Box, c color.RGBA) *TextItem {
	return &TextItem{Text: text, Rect: rect, Color: c}
}

func (t *TextItem) Bounds() r2.Box { return t.Rect }
func (t *TextItem) ZIndex() int    { return t.Z }
func (t *TextItem) Order() uint64  { return t.order }
func (t *TextItem) Distance(p r2.Vec) float64 {
	return geom.PointDistance(t.Rect, p)
}

// LinkItem places a clickable link region with a label.
type LinkItem struct {
	Label string
	URL   string
	Rect  r2.Box
	Color color.RGBA

	Z     int
	order uint64
}

// NewLinkItem creates a link item covering rect.
func NewLinkItem(label, url string, rect r2.Box, c color.RGBA) *LinkItem {
	return &LinkItem{Label: label, URL: url, Rect: rect, Color: c}
}

func (l *LinkItem) Bounds() r2.Box { return l.Rect }
func (l *LinkItem) ZIndex() int    { return l.Z }
func (l *LinkItem) Order() uint64  { return l.order }
func (l *LinkItem) Distance(p r2.Vec) float64 {
	return geom.PointDistance(l.Rect, p)
}

// OrderSetter is implemented by items that accept a Store-assigned
// insertion order. Host-defined Item types must implement it for the
// z-index tie-break to work; the package's own item types do.
type OrderSetter interface {
	SetOrder(order uint64)
}

// setOrder assigns the insertion order. Orders are assigned once by the
// owning Store and never reused.
func setOrder(it Item, order uint64) {
	switch v := it.(type) {
	case *Stroke:
		v.order = order
	case *ImageItem:
		v.order = order
	case *TextItem:
		v.order = order
	case *LinkItem:
		v.order = order
	default:
		if s, ok := it.(OrderSetter); ok {
			s.SetOrder(order)
		}
	}
}
