package tilecanvas

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestNotifierCoalescesBurst(t *testing.T) {
	var calls atomic.Int64
	n := newNotifier(100*time.Millisecond, func() { calls.Add(1) })
	defer n.stop()

	for i := 0; i < 20; i++ {
		n.signal()
	}

	deadline := time.Now().Add(time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	// The burst fires once; follow-ups wait out the cooldown.
	time.Sleep(20 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d shortly after a burst, want 1", got)
	}
}

func TestNotifierUnthrottled(t *testing.T) {
	var calls atomic.Int64
	n := newNotifier(0, func() { calls.Add(1) })
	defer n.stop()

	for i := 0; i < 5; i++ {
		n.signal()
		deadline := time.Now().Add(time.Second)
		want := int64(i + 1)
		for calls.Load() < want && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
		if calls.Load() < want {
			t.Fatalf("signal %d never fired", i)
		}
	}
}

func TestNotifierSetFunc(t *testing.T) {
	var first, second atomic.Int64
	n := newNotifier(0, func() { first.Add(1) })
	defer n.stop()

	n.setFunc(func() { second.Add(1) })
	n.signal()

	deadline := time.Now().Add(time.Second)
	for second.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if second.Load() == 0 {
		t.Error("replacement callback never fired")
	}
}

func TestNotifierStopIsClean(t *testing.T) {
	n := newNotifier(time.Hour, nil)
	n.signal()
	n.stop() // must not hang on the pending cooldown
}
