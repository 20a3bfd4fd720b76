// Command canvasdemo renders a synthetic infinite-canvas scene through the
// tile pyramid and writes the composited viewport to a PNG.
package main

import (
	"flag"
	"image"
	"image/color"
	"image/png"
	"log"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/gogpu/tilecanvas"
	"github.com/gogpu/tilecanvas/render"
	"gonum.org/v1/gonum/spatial/r2"
)

func main() {
	var (
		width   = flag.Int("width", 1024, "viewport width in pixels")
		height  = flag.Int("height", 768, "viewport height in pixels")
		scale   = flag.Float64("scale", 1.0, "display scale (0.25 = zoomed out 4x)")
		strokes = flag.Int("strokes", 400, "number of random strokes")
		seed    = flag.Int64("seed", 1, "random seed")
		output  = flag.String("output", "canvas.png", "output file")
	)
	flag.Parse()

	store := tilecanvas.NewStore(r2.Box{Max: r2.Vec{X: 2048, Y: 2048}})
	mgr, err := tilecanvas.NewManager(store, render.NewSoftware())
	if err != nil {
		log.Fatalf("Failed to create manager: %v", err)
	}
	defer mgr.Destroy()
	store.Subscribe(mgr.HandleEvent)

	populate(store, *strokes, *seed)

	viewport := r2.Box{Max: r2.Vec{
		X: float64(*width) / *scale,
		Y: float64(*height) / *scale,
	}}
	dst := image.NewRGBA(image.Rect(0, 0, *width, *height))

	// First pass schedules generation; wait for the pyramid to settle,
	// then composite the finished tiles.
	mgr.Render(dst, viewport, *scale)
	waitSettled(mgr)
	clear(dst.Pix)
	mgr.Render(dst, viewport, *scale)

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", *output, err)
	}
	defer f.Close()
	if err := png.Encode(f, dst); err != nil {
		log.Fatalf("Failed to encode: %v", err)
	}

	stats := mgr.Cache().Stats()
	log.Printf("Demo saved to %s (%dx%d, %d tiles, %d evictions)\n",
		*output, *width, *height, mgr.Cache().Len(), stats.Evictions)
}

func waitSettled(mgr *tilecanvas.Manager) {
	deadline := time.Now().Add(30 * time.Second)
	for mgr.Pending() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
}

func populate(store *tilecanvas.Store, n int, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	items := make([]tilecanvas.Item, 0, n)

	for i := 0; i < n; i++ {
		cx := rng.Float64() * 2048
		cy := rng.Float64() * 2048
		points := wobble(rng, cx, cy)

		c := color.RGBA{
			R: uint8(60 + rng.Intn(196)),
			G: uint8(60 + rng.Intn(196)),
			B: uint8(60 + rng.Intn(196)),
			A: 255,
		}
		width := 1 + rng.Float64()*4
		highlight := rng.Intn(10) == 0
		if highlight {
			width *= 3
		}
		s := tilecanvas.NewStroke(points, width, c)
		s.Highlighter = highlight
		items = append(items, s)
	}

	items = append(items,
		tilecanvas.NewTextItem("infinite canvas", r2.Box{
			Min: r2.Vec{X: 40, Y: 30},
			Max: r2.Vec{X: 400, Y: 60},
		}, color.RGBA{A: 255}),
		tilecanvas.NewLinkItem("example.com", "https://example.com", r2.Box{
			Min: r2.Vec{X: 40, Y: 70},
			Max: r2.Vec{X: 260, Y: 95},
		}, color.RGBA{B: 238, A: 255}),
	)
	store.Add(items...)
}

// wobble traces a short jittered arc around a center point.
func wobble(rng *rand.Rand, cx, cy float64) []r2.Vec {
	segs := 4 + rng.Intn(12)
	points := make([]r2.Vec, 0, segs+1)
	start := rng.Float64() * 2 * math.Pi
	radius := 10 + rng.Float64()*60
	for i := 0; i <= segs; i++ {
		a := start + float64(i)*0.4
		r := radius + rng.Float64()*8
		points = append(points, r2.Vec{
			X: cx + r*math.Cos(a),
			Y: cy + r*math.Sin(a),
		})
	}
	return points
}
