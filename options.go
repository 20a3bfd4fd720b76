package tilecanvas

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/gogpu/tilecanvas/tilecache"
)

// Default Manager configuration.
const (
	// DefaultMinLevel and DefaultMaxLevel bound the LOD pyramid.
	DefaultMinLevel = -8
	DefaultMaxLevel = 16

	// DefaultNotifyInterval throttles tile-ready notifications to about
	// 30 Hz so bursts of finishing tiles coalesce into one repaint.
	DefaultNotifyInterval = 33 * time.Millisecond

	// DefaultPrefetchThreshold is the cache occupancy fraction past which
	// low-priority generation is skipped.
	DefaultPrefetchThreshold = 0.8

	// fallbackAncestorLevels is how many coarser levels are searched for
	// a blurry substitute of a missing tile.
	fallbackAncestorLevels = 5

	// fallbackChildLevels is how many finer levels are searched for
	// partial fragments when no ancestor is cached.
	fallbackChildLevels = 2
)

// Option configures a Manager.
type Option func(*config)

type config struct {
	tilePixels        int
	baseTileSize      float64
	minLevel          int
	maxLevel          int
	levelBias         float64
	maxConcurrent     int64
	budgetBytes       int64
	ceilingBytes      int64
	poolSize          int
	notifyInterval    time.Duration
	prefetchThreshold float64
	logger            *slog.Logger
	onTileReady       func()
}

func defaultConfig() config {
	return config{
		tilePixels:        tilecache.DefaultTilePixels,
		baseTileSize:      float64(tilecache.DefaultTilePixels),
		minLevel:          DefaultMinLevel,
		maxLevel:          DefaultMaxLevel,
		maxConcurrent:     int64(runtime.GOMAXPROCS(0)),
		budgetBytes:       tilecache.DefaultBudgetBytes,
		ceilingBytes:      tilecache.DefaultCeilingBytes,
		poolSize:          tilecache.DefaultPoolSize,
		notifyInterval:    DefaultNotifyInterval,
		prefetchThreshold: DefaultPrefetchThreshold,
		logger:            newNopLogger(),
	}
}

// WithTileSize sets the tile edge length in pixels. The world-space size
// of a level-0 tile defaults to the same number of world units; override
// it with WithBaseTileSize.
func WithTileSize(pixels int) Option {
	return func(c *config) {
		if pixels > 0 {
			c.tilePixels = pixels
			c.baseTileSize = float64(pixels)
		}
	}
}

// WithBaseTileSize sets the world-space edge length of a level-0 tile.
func WithBaseTileSize(size float64) Option {
	return func(c *config) {
		if size > 0 {
			c.baseTileSize = size
		}
	}
}

// WithLevels sets the LOD clamp range and bias. The active level is
// clamp(floor(log2(1/scale) + bias), min, max).
func WithLevels(min, max int, bias float64) Option {
	return func(c *config) {
		if min <= max {
			c.minLevel = min
			c.maxLevel = max
		}
		c.levelBias = bias
	}
}

// WithMaxConcurrent bounds the number of tile generations rendering at
// once. Defaults to GOMAXPROCS.
func WithMaxConcurrent(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxConcurrent = int64(n)
		}
	}
}

// WithCacheBudget sets the tile cache byte budget and the hard ceiling it
// may grow to under in-flight generation pressure.
func WithCacheBudget(budget, ceiling int64) Option {
	return func(c *config) {
		c.budgetBytes = budget
		c.ceilingBytes = ceiling
	}
}

// WithPoolSize bounds the bitmap pool.
func WithPoolSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.poolSize = n
		}
	}
}

// WithNotifyInterval sets the minimum interval between tile-ready
// notifications. Zero disables throttling.
func WithNotifyInterval(d time.Duration) Option {
	return func(c *config) {
		if d >= 0 {
			c.notifyInterval = d
		}
	}
}

// WithPrefetchThreshold sets the cache occupancy fraction past which
// low-priority (off-screen) generation is skipped.
func WithPrefetchThreshold(f float64) Option {
	return func(c *config) {
		if f > 0 {
			c.prefetchThreshold = f
		}
	}
}

// WithLogger injects a logger. The Manager logs nothing by default.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithOnTileReady sets the callback invoked, at most once per notify
// interval, after background tile generations complete.
func WithOnTileReady(fn func()) Option {
	return func(c *config) {
		c.onTileReady = fn
	}
}
