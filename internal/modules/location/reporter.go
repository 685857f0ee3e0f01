// README: Reporter throttles position telemetry and fans it out to sinks off the caller's path.
package location

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultReportInterval  = 30 * time.Second
	DefaultReportMinMeters = 50.0
	sinkTimeout            = 10 * time.Second
)

// Sink receives throttled position reports.
type Sink interface {
	Name() string
	Push(ctx context.Context, pos Position) error
}

type ReporterConfig struct {
	Interval  time.Duration
	MinMeters float64
}

type Reporter struct {
	cfg   ReporterConfig
	sinks []Sink
	log   *slog.Logger
	now   func() time.Time

	mu       sync.Mutex
	last     Position
	reported bool
	wg       sync.WaitGroup
}

func NewReporter(cfg ReporterConfig, sinks []Sink, log *slog.Logger) *Reporter {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultReportInterval
	}
	if cfg.MinMeters <= 0 {
		cfg.MinMeters = DefaultReportMinMeters
	}
	if log == nil {
		log = slog.Default()
	}
	return &Reporter{cfg: cfg, sinks: sinks, log: log.With("module", "location.reporter"), now: time.Now}
}

// Observe reports pos if the interval has passed since the last report or the
// courier moved at least MinMeters. It returns whether a report was sent.
// Sinks run in the background; their failures are logged only.
func (r *Reporter) Observe(ctx context.Context, pos Position) bool {
	if len(r.sinks) == 0 {
		return false
	}
	now := r.now()
	r.mu.Lock()
	if r.reported {
		moved := DistanceKm(r.last.Point, pos.Point) * 1000
		if now.Sub(r.last.UpdatedAt) < r.cfg.Interval && moved < r.cfg.MinMeters {
			r.mu.Unlock()
			return false
		}
	}
	r.last = Position{Point: pos.Point, UpdatedAt: now}
	r.reported = true
	r.mu.Unlock()

	// detach from the request: a report must outlive the HTTP call that fed it
	base := context.WithoutCancel(ctx)
	for _, s := range r.sinks {
		r.wg.Add(1)
		go func(s Sink) {
			defer r.wg.Done()
			cctx, cancel := context.WithTimeout(base, sinkTimeout)
			defer cancel()
			if err := s.Push(cctx, pos); err != nil {
				r.log.Warn("location report failed", "sink", s.Name(), "error", err)
			}
		}(s)
	}
	return true
}

// Wait blocks until in-flight reports finish.
func (r *Reporter) Wait() {
	r.wg.Wait()
}
