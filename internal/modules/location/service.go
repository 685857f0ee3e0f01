// README: Tracker owns the current position: device samples in, simulated transit, telemetry out.
package location

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"courier/internal/types"
)

const (
	DefaultTransitInterval = 2 * time.Second
	DefaultTransitStep     = 0.1
	// arrivalKm is the distance under which transit snaps onto the target.
	arrivalKm = 0.005
)

type TrackerConfig struct {
	TransitInterval time.Duration
	TransitStep     float64
}

type Tracker struct {
	cfg      TrackerConfig
	reporter *Reporter
	log      *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	pos     Position
	hasPos  bool
	transit chan struct{}
	done    chan struct{}
}

// NewTracker builds a tracker. reporter may be nil.
func NewTracker(cfg TrackerConfig, reporter *Reporter, log *slog.Logger) *Tracker {
	if cfg.TransitInterval <= 0 {
		cfg.TransitInterval = DefaultTransitInterval
	}
	if cfg.TransitStep <= 0 || cfg.TransitStep > 1 {
		cfg.TransitStep = DefaultTransitStep
	}
	if log == nil {
		log = slog.Default()
	}
	return &Tracker{
		cfg:      cfg,
		reporter: reporter,
		log:      log.With("module", "location"),
		now:      time.Now,
	}
}

func (t *Tracker) Position() (Position, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pos, t.hasPos
}

// Ingest records a device sample and forwards it to telemetry.
func (t *Tracker) Ingest(ctx context.Context, s Sample) (Position, error) {
	p := s.Point()
	if !p.Valid() || s.AccuracyM < 0 {
		return Position{}, ErrInvalidPosition
	}
	at := s.Timestamp
	if at.IsZero() {
		at = t.now()
	}
	pos := Position{Point: p, AccuracyM: s.AccuracyM, UpdatedAt: at}

	t.mu.Lock()
	if t.hasPos && at.Before(t.pos.UpdatedAt) {
		current := t.pos
		t.mu.Unlock()
		t.log.Debug("dropping out-of-order sample", "sample_at", at, "current_at", current.UpdatedAt)
		return current, nil
	}
	t.pos = pos
	t.hasPos = true
	t.mu.Unlock()

	t.report(ctx, pos)
	return pos, nil
}

// Reset places the courier at p, e.g. at the restaurant once an order is accepted.
func (t *Tracker) Reset(p types.Point) {
	t.mu.Lock()
	t.pos = Position{Point: p, Simulated: true, UpdatedAt: t.now()}
	t.hasPos = true
	t.mu.Unlock()
}

// StartTransit moves the position toward target() every TransitInterval by
// TransitStep of the remaining distance until target reports false or
// StopTransit is called. A running transit is replaced.
func (t *Tracker) StartTransit(target func() (types.Point, bool)) {
	t.StopTransit()

	stop := make(chan struct{})
	done := make(chan struct{})
	t.mu.Lock()
	t.transit = stop
	t.done = done
	t.mu.Unlock()

	go t.runTransit(target, stop, done)
}

// StopTransit halts the simulation and waits for its goroutine to exit.
func (t *Tracker) StopTransit() {
	t.mu.Lock()
	stop, done := t.transit, t.done
	t.transit, t.done = nil, nil
	t.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (t *Tracker) Transiting() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transit != nil
}

func (t *Tracker) runTransit(target func() (types.Point, bool), stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(t.cfg.TransitInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			dest, ok := target()
			if !ok {
				return
			}
			pos, moved := t.step(dest, stop)
			if moved {
				t.report(context.Background(), pos)
			}
		}
	}
}

func (t *Tracker) step(dest types.Point, stop chan struct{}) (Position, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	// a stale goroutine must not move the position after StopTransit
	if t.transit != stop || !t.hasPos {
		return Position{}, false
	}
	next := MoveTowards(t.pos.Point, dest, t.cfg.TransitStep)
	if DistanceKm(next, dest) < arrivalKm {
		next = dest
	}
	if next == t.pos.Point {
		return t.pos, false
	}
	t.pos = Position{Point: next, Simulated: true, UpdatedAt: t.now()}
	return t.pos, true
}

func (t *Tracker) report(ctx context.Context, pos Position) {
	if t.reporter == nil {
		return
	}
	t.reporter.Observe(ctx, pos)
}
