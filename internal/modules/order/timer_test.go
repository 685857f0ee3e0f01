package order

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestOfferTimerFiresOnce(t *testing.T) {
	var fired atomic.Int32
	timer := NewOfferTimer(30*time.Millisecond, 10*time.Millisecond, func(*OfferTimer) {
		fired.Add(1)
	})
	if got := timer.Remaining(); got != 30*time.Millisecond {
		t.Fatalf("expected 30ms remaining before start, got %v", got)
	}
	timer.Start()
	timer.Start()

	waitFor(t, "timer expiry", func() bool { return fired.Load() == 1 })
	time.Sleep(40 * time.Millisecond)
	if n := fired.Load(); n != 1 {
		t.Fatalf("expected exactly one expiry, got %d", n)
	}
	if timer.Remaining() != 0 || !timer.Stopped() {
		t.Fatal("expired timer should report zero remaining and stopped")
	}
}

func TestOfferTimerStopPreventsExpiry(t *testing.T) {
	var fired atomic.Int32
	timer := NewOfferTimer(30*time.Millisecond, 10*time.Millisecond, func(*OfferTimer) {
		fired.Add(1)
	})
	timer.Start()
	timer.Stop()
	timer.Stop()

	time.Sleep(60 * time.Millisecond)
	if fired.Load() != 0 {
		t.Fatal("stopped timer fired")
	}
}

func TestOfferTimerStopBeforeStart(t *testing.T) {
	var fired atomic.Int32
	timer := NewOfferTimer(10*time.Millisecond, 5*time.Millisecond, func(*OfferTimer) {
		fired.Add(1)
	})
	timer.Stop()
	timer.Start()

	time.Sleep(30 * time.Millisecond)
	if fired.Load() != 0 {
		t.Fatal("timer stopped before start must never run")
	}
}

func TestOfferTimerCountsDown(t *testing.T) {
	timer := NewOfferTimer(time.Second, 20*time.Millisecond, nil)
	timer.Start()
	defer timer.Stop()

	waitFor(t, "countdown", func() bool { return timer.Remaining() < time.Second })
}

func TestOfferTimerRoundsWindowUp(t *testing.T) {
	timer := NewOfferTimer(2500*time.Millisecond, time.Second, nil)
	if got := timer.Remaining(); got != 3*time.Second {
		t.Fatalf("expected 3s for a 2.5s window, got %v", got)
	}
	timer = NewOfferTimer(0, time.Second, nil)
	if got := timer.Remaining(); got != time.Second {
		t.Fatalf("expected minimum of one tick, got %v", got)
	}
}
