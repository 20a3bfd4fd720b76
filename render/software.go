// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render provides a reference software renderer for canvas items.
//
// The tile manager treats item drawing as an opaque callback; this
// package is the batteries-included implementation used by the demo and
// the integration tests. Strokes are stamped as round brush dots along
// their polyline, images are scaled with x/image interpolators, and text
// uses the fixed-size basicfont face. Production hosts with pen-dynamics
// ink shaping plug in their own tilecanvas.Renderer instead.
package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/tilecanvas"
	"gonum.org/v1/gonum/spatial/r2"
)

// highlighterAlpha is the blend factor for highlighter strokes.
const highlighterAlpha = 0.4

// Software renders items on the CPU.
//
// Software is stateless and safe for concurrent use from multiple tile
// generation goroutines.
type Software struct {
	face font.Face
}

// NewSoftware creates a software renderer using the built-in bitmap font.
func NewSoftware() *Software {
	return &Software{face: basicfont.Face7x13}
}

// DrawItem implements tilecanvas.Renderer. origin is the world point at
// dst pixel (0, 0); scale converts world units to pixels.
func (r *Software) DrawItem(dst *image.RGBA, item tilecanvas.Item, origin r2.Vec, scale float64) error {
	switch v := item.(type) {
	case *tilecanvas.Stroke:
		r.drawStroke(dst, v, origin, scale)
	case *tilecanvas.ImageItem:
		r.drawImage(dst, v, origin, scale)
	case *tilecanvas.TextItem:
		r.drawText(dst, v.Text, v.Rect, v.Color, origin, scale, false)
	case *tilecanvas.LinkItem:
		r.drawText(dst, v.Label, v.Rect, v.Color, origin, scale, true)
	default:
		return fmt.Errorf("render: unsupported item type %T", item)
	}
	return nil
}

// drawStroke stamps a round brush along every polyline segment. Eraser
// strokes punch transparency; highlighter strokes blend translucently.
func (r *Software) drawStroke(dst *image.RGBA, s *tilecanvas.Stroke, origin r2.Vec, scale float64) {
	if len(s.Points) == 0 {
		return
	}
	radius := s.Width * scale / 2
	if radius < 0.5 {
		radius = 0.5
	}

	toPixel := func(p r2.Vec) r2.Vec {
		return r2.Scale(scale, r2.Sub(p, origin))
	}

	if len(s.Points) == 1 {
		r.stamp(dst, toPixel(s.Points[0]), radius, s)
		return
	}
	for i := 0; i < len(s.Points)-1; i++ {
		a := toPixel(s.Points[i])
		b := toPixel(s.Points[i+1])
		seg := r2.Sub(b, a)
		length := r2.Norm(seg)

		// Stamp spacing of half a radius keeps the line solid without
		// overdrawing every pixel many times.
		step := radius / 2
		if step < 0.5 {
			step = 0.5
		}
		n := int(length/step) + 1
		for j := 0; j <= n; j++ {
			t := float64(j) / float64(n)
			r.stamp(dst, r2.Add(a, r2.Scale(t, seg)), radius, s)
		}
	}
}

// stamp draws one filled brush dot centered at p (pixel coordinates).
func (r *Software) stamp(dst *image.RGBA, p r2.Vec, radius float64, s *tilecanvas.Stroke) {
	b := dst.Bounds()
	x0 := maxInt(b.Min.X, int(math.Floor(p.X-radius)))
	y0 := maxInt(b.Min.Y, int(math.Floor(p.Y-radius)))
	x1 := minInt(b.Max.X-1, int(math.Ceil(p.X+radius)))
	y1 := minInt(b.Max.Y-1, int(math.Ceil(p.Y+radius)))

	rad2 := radius * radius
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			dx := float64(x) + 0.5 - p.X
			dy := float64(y) + 0.5 - p.Y
			if dx*dx+dy*dy > rad2 {
				continue
			}
			switch {
			case s.Eraser:
				dst.SetRGBA(x, y, color.RGBA{})
			case s.Highlighter:
				blend(dst, x, y, s.Color, highlighterAlpha)
			default:
				dst.SetRGBA(x, y, s.Color)
			}
		}
	}
}

// blend mixes c over the destination pixel at the given opacity.
func blend(dst *image.RGBA, x, y int, c color.RGBA, alpha float64) {
	d := dst.RGBAAt(x, y)
	inv := 1 - alpha
	dst.SetRGBA(x, y, color.RGBA{
		R: uint8(float64(c.R)*alpha + float64(d.R)*inv),
		G: uint8(float64(c.G)*alpha + float64(d.G)*inv),
		B: uint8(float64(c.B)*alpha + float64(d.B)*inv),
		A: uint8(math.Min(255, float64(c.A)*alpha+float64(d.A)*inv)),
	})
}

// drawImage scales the item's image into its world rectangle.
func (r *Software) drawImage(dst *image.RGBA, it *tilecanvas.ImageItem, origin r2.Vec, scale float64) {
	if it.Image == nil {
		return
	}
	dr := pixelRect(it.Rect, origin, scale)
	if dr.Empty() {
		return
	}
	xdraw.ApproxBiLinear.Scale(dst, dr, it.Image, it.Image.Bounds(), xdraw.Over, nil)
}

// drawText draws a single line of text at the top-left of the item's
// rectangle, clipped to dst. Links get an underline across the box.
func (r *Software) drawText(dst *image.RGBA, text string, rect r2.Box, c color.RGBA, origin r2.Vec, scale float64, underline bool) {
	dr := pixelRect(rect, origin, scale)
	if dr.Empty() {
		return
	}
	metrics := r.face.Metrics()
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: r.face,
		Dot: fixed.Point26_6{
			X: fixed.I(dr.Min.X),
			Y: fixed.I(dr.Min.Y) + metrics.Ascent,
		},
	}
	d.DrawString(text)

	if underline {
		y := dr.Min.Y + (metrics.Ascent + metrics.Descent).Ceil()
		if y >= dr.Max.Y {
			y = dr.Max.Y - 1
		}
		for x := dr.Min.X; x < dr.Max.X; x++ {
			if (image.Point{X: x, Y: y}).In(dst.Bounds()) {
				dst.SetRGBA(x, y, c)
			}
		}
	}
}

// pixelRect maps a world rectangle to dst pixel coordinates.
func pixelRect(world r2.Box, origin r2.Vec, scale float64) image.Rectangle {
	return image.Rect(
		int(math.Floor((world.Min.X-origin.X)*scale)),
		int(math.Floor((world.Min.Y-origin.Y)*scale)),
		int(math.Ceil((world.Max.X-origin.X)*scale)),
		int(math.Ceil((world.Max.Y-origin.Y)*scale)),
	)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
