package tilecanvas

import (
	"sync"
	"time"
)

// notifier coalesces tile-ready signals into rate-limited callbacks.
//
// Background generations finish in bursts; repainting on every completion
// would swamp the UI thread. The notifier fires the callback for the
// first signal of a burst and then at most once per interval while
// signals keep arriving.
type notifier struct {
	interval time.Duration

	mu sync.Mutex
	fn func()

	ch   chan struct{} // capacity 1: pending-signal flag
	done chan struct{}
	wg   sync.WaitGroup
}

func newNotifier(interval time.Duration, fn func()) *notifier {
	n := &notifier{
		interval: interval,
		fn:       fn,
		ch:       make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	n.wg.Add(1)
	go n.loop()
	return n
}

// setFunc replaces the callback.
func (n *notifier) setFunc(fn func()) {
	n.mu.Lock()
	n.fn = fn
	n.mu.Unlock()
}

// signal records that at least one tile became ready. Never blocks;
// signals arriving while one is already pending coalesce.
func (n *notifier) signal() {
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

func (n *notifier) stop() {
	close(n.done)
	n.wg.Wait()
}

func (n *notifier) loop() {
	defer n.wg.Done()
	for {
		select {
		case <-n.done:
			return
		case <-n.ch:
			n.call()
			if n.interval <= 0 {
				continue
			}
			// Absorb the burst: signals during the cooldown fold into
			// the pending flag and fire one callback afterwards.
			select {
			case <-n.done:
				return
			case <-time.After(n.interval):
			}
		}
	}
}

func (n *notifier) call() {
	n.mu.Lock()
	fn := n.fn
	n.mu.Unlock()
	if fn != nil {
		fn()
	}
}
