package tilecanvas

import (
	"runtime"
	"testing"
	"time"

	"github.com/gogpu/tilecanvas/tilecache"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.tilePixels != tilecache.DefaultTilePixels {
		t.Errorf("tilePixels = %d, want %d", cfg.tilePixels, tilecache.DefaultTilePixels)
	}
	if cfg.baseTileSize != float64(tilecache.DefaultTilePixels) {
		t.Errorf("baseTileSize = %v, want %v", cfg.baseTileSize, float64(tilecache.DefaultTilePixels))
	}
	if cfg.minLevel != DefaultMinLevel || cfg.maxLevel != DefaultMaxLevel {
		t.Errorf("levels = [%d, %d], want [%d, %d]", cfg.minLevel, cfg.maxLevel, DefaultMinLevel, DefaultMaxLevel)
	}
	if cfg.maxConcurrent != int64(runtime.GOMAXPROCS(0)) {
		t.Errorf("maxConcurrent = %d, want GOMAXPROCS", cfg.maxConcurrent)
	}
	if cfg.notifyInterval != DefaultNotifyInterval {
		t.Errorf("notifyInterval = %v, want %v", cfg.notifyInterval, DefaultNotifyInterval)
	}
	if cfg.logger == nil {
		t.Error("default logger is nil, want silent logger")
	}
}

func TestOptionsApply(t *testing.T) {
	cfg := defaultConfig()
	for _, opt := range []Option{
		WithTileSize(128),
		WithBaseTileSize(512),
		WithLevels(-2, 4, 0.5),
		WithMaxConcurrent(3),
		WithCacheBudget(1<<20, 4<<20),
		WithPoolSize(8),
		WithNotifyInterval(50 * time.Millisecond),
		WithPrefetchThreshold(0.5),
	} {
		opt(&cfg)
	}

	if cfg.tilePixels != 128 {
		t.Errorf("tilePixels = %d, want 128", cfg.tilePixels)
	}
	if cfg.baseTileSize != 512 {
		t.Errorf("baseTileSize = %v, want 512", cfg.baseTileSize)
	}
	if cfg.minLevel != -2 || cfg.maxLevel != 4 || cfg.levelBias != 0.5 {
		t.Errorf("levels = [%d, %d] bias %v", cfg.minLevel, cfg.maxLevel, cfg.levelBias)
	}
	if cfg.maxConcurrent != 3 {
		t.Errorf("maxConcurrent = %d, want 3", cfg.maxConcurrent)
	}
	if cfg.budgetBytes != 1<<20 || cfg.ceilingBytes != 4<<20 {
		t.Errorf("budget = %d/%d", cfg.budgetBytes, cfg.ceilingBytes)
	}
	if cfg.poolSize != 8 {
		t.Errorf("poolSize = %d, want 8", cfg.poolSize)
	}
	if cfg.notifyInterval != 50*time.Millisecond {
		t.Errorf("notifyInterval = %v", cfg.notifyInterval)
	}
	if cfg.prefetchThreshold != 0.5 {
		t.Errorf("prefetchThreshold = %v", cfg.prefetchThreshold)
	}
}

func TestOptionsRejectInvalid(t *testing.T) {
	cfg := defaultConfig()
	for _, opt := range []Option{
		WithTileSize(0),
		WithBaseTileSize(-1),
		WithLevels(5, 1, 0), // min > max: levels unchanged, bias applied
		WithMaxConcurrent(0),
		WithPoolSize(-3),
		WithNotifyInterval(-time.Second),
	} {
		opt(&cfg)
	}

	want := defaultConfig()
	if cfg.tilePixels != want.tilePixels || cfg.baseTileSize != want.baseTileSize {
		t.Errorf("tile sizing changed by invalid options: %d/%v", cfg.tilePixels, cfg.baseTileSize)
	}
	if cfg.minLevel != want.minLevel || cfg.maxLevel != want.maxLevel {
		t.Errorf("levels changed by inverted range: [%d, %d]", cfg.minLevel, cfg.maxLevel)
	}
	if cfg.maxConcurrent != want.maxConcurrent {
		t.Errorf("maxConcurrent changed by zero: %d", cfg.maxConcurrent)
	}
	if cfg.poolSize != want.poolSize {
		t.Errorf("poolSize changed by negative: %d", cfg.poolSize)
	}
	if cfg.notifyInterval != want.notifyInterval {
		t.Errorf("notifyInterval changed by negative: %v", cfg.notifyInterval)
	}
}

func TestWithTileSizeSetsWorldSize(t *testing.T) {
	cfg := defaultConfig()
	WithTileSize(64)(&cfg)
	if cfg.baseTileSize != 64 {
		t.Errorf("baseTileSize = %v after WithTileSize(64), want 64", cfg.baseTileSize)
	}
	// Explicit world size wins regardless of order relative to tile size.
	WithBaseTileSize(1000)(&cfg)
	if cfg.baseTileSize != 1000 {
		t.Errorf("baseTileSize = %v, want 1000", cfg.baseTileSize)
	}
}
