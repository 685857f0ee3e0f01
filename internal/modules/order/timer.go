// README: Countdown bound to one pending offer.
package order

import (
	"sync"
	"time"
)

// OfferTimer counts down once per tick and calls onExpire exactly once when it
// reaches zero. After Stop returns no further tick is observed.
type OfferTimer struct {
	mu        sync.Mutex
	remaining int
	tick      time.Duration
	onExpire  func(*OfferTimer)
	stop      chan struct{}
	started   bool
	stopped   bool
}

func NewOfferTimer(window, tick time.Duration, onExpire func(*OfferTimer)) *OfferTimer {
	if tick <= 0 {
		tick = time.Second
	}
	n := int((window + tick - 1) / tick)
	if n < 1 {
		n = 1
	}
	return &OfferTimer{
		remaining: n,
		tick:      tick,
		onExpire:  onExpire,
		stop:      make(chan struct{}),
	}
}

func (t *OfferTimer) Start() {
	t.mu.Lock()
	if t.started || t.stopped {
		t.mu.Unlock()
		return
	}
	t.started = true
	t.mu.Unlock()
	go t.run()
}

func (t *OfferTimer) run() {
	ticker := time.NewTicker(t.tick)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.mu.Lock()
			if t.stopped {
				t.mu.Unlock()
				return
			}
			t.remaining--
			done := t.remaining <= 0
			if done {
				t.stopped = true
			}
			t.mu.Unlock()
			if done {
				if t.onExpire != nil {
					t.onExpire(t)
				}
				return
			}
		}
	}
}

// Stop is idempotent.
func (t *OfferTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.stopped = true
	close(t.stop)
}

func (t *OfferTimer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.remaining < 0 {
		return 0
	}
	return time.Duration(t.remaining) * t.tick
}

func (t *OfferTimer) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}
