package tilecanvas

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNopHandler_Enabled(t *testing.T) {
	h := nopHandler{}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if h.Enabled(context.Background(), level) {
			t.Errorf("nopHandler.Enabled(%v) = true, want false", level)
		}
	}
}

func TestNopHandler_Handle(t *testing.T) {
	h := nopHandler{}
	if err := h.Handle(context.Background(), slog.Record{}); err != nil {
		t.Errorf("nopHandler.Handle() = %v, want nil", err)
	}
}

func TestNopHandler_WithAttrs(t *testing.T) {
	h := nopHandler{}
	got := h.WithAttrs([]slog.Attr{slog.String("key", "val")})
	if _, ok := got.(nopHandler); !ok {
		t.Errorf("nopHandler.WithAttrs() returned %T, want nopHandler", got)
	}
}

func TestNopHandler_WithGroup(t *testing.T) {
	h := nopHandler{}
	got := h.WithGroup("group")
	if _, ok := got.(nopHandler); !ok {
		t.Errorf("nopHandler.WithGroup() returned %T, want nopHandler", got)
	}
}

func TestManagerSilentByDefault(t *testing.T) {
	m, _ := newTestManager(t, &fillRenderer{})
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn} {
		if m.log.Enabled(context.Background(), level) {
			t.Errorf("default manager logger enabled for %v, want silent", level)
		}
	}
}

func TestWithLoggerReceivesRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	store := NewStore(box(0, 0, 1024, 1024))
	r := &fillRenderer{}
	r.fail.Store(true)
	m, err := NewManager(store, r,
		WithTileSize(64),
		WithNotifyInterval(0),
		WithLogger(logger),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Destroy()
	store.Subscribe(m.HandleEvent)

	store.Add(stroke(10, 10, 20, 20))
	m.Render(frame(64), box(0, 0, 63, 63), 1)
	waitIdle(t, m)

	if !strings.Contains(buf.String(), "tile generation failed") {
		t.Errorf("expected generation failure in log output, got %q", buf.String())
	}
}
