package location

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"courier/internal/types"
)

type recordingSink struct {
	mu    sync.Mutex
	name  string
	err   error
	calls []Position
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Push(_ context.Context, pos Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, pos)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

var noida = types.Point{Lat: 28.5355, Lng: 77.3910}

func TestIngestValidates(t *testing.T) {
	tr := NewTracker(TrackerConfig{}, nil, nil)
	bad := []Sample{
		{Lat: 91, Lng: 0},
		{Lat: 0, Lng: 181},
		{Lat: 28, Lng: 77, AccuracyM: -1},
	}
	for _, s := range bad {
		if _, err := tr.Ingest(context.Background(), s); !errors.Is(err, ErrInvalidPosition) {
			t.Errorf("sample %+v: expected ErrInvalidPosition, got %v", s, err)
		}
	}
	if _, ok := tr.Position(); ok {
		t.Fatalf("invalid samples must not set a position")
	}
}

func TestIngestKeepsLatest(t *testing.T) {
	tr := NewTracker(TrackerConfig{}, nil, nil)
	t0 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	ctx := context.Background()

	if _, err := tr.Ingest(ctx, Sample{Lat: noida.Lat, Lng: noida.Lng, Timestamp: t0.Add(time.Minute)}); err != nil {
		t.Fatal(err)
	}
	got, err := tr.Ingest(ctx, Sample{Lat: 1, Lng: 1, Timestamp: t0})
	if err != nil {
		t.Fatal(err)
	}
	if got.Point != noida {
		t.Fatalf("older sample replaced position: %+v", got)
	}
	pos, _ := tr.Position()
	if pos.Point != noida || pos.Simulated {
		t.Fatalf("unexpected position %+v", pos)
	}
}

func TestTransitMovesTowardTarget(t *testing.T) {
	tr := NewTracker(TrackerConfig{TransitInterval: 5 * time.Millisecond}, nil, nil)
	tr.Reset(noida)
	target := types.Point{Lat: 28.5700, Lng: 77.3200}
	start := DistanceKm(noida, target)

	tr.StartTransit(func() (types.Point, bool) { return target, true })
	deadline := time.Now().Add(2 * time.Second)
	for {
		pos, _ := tr.Position()
		if DistanceKm(pos.Point, target) < start/2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("transit did not make progress: %+v", pos)
		}
		time.Sleep(5 * time.Millisecond)
	}
	tr.StopTransit()
	if tr.Transiting() {
		t.Fatal("expected transit stopped")
	}

	frozen, _ := tr.Position()
	time.Sleep(30 * time.Millisecond)
	after, _ := tr.Position()
	if after != frozen {
		t.Fatalf("position moved after StopTransit: %+v -> %+v", frozen, after)
	}
}

func TestTransitStopsWhenTargetGone(t *testing.T) {
	tr := NewTracker(TrackerConfig{TransitInterval: 2 * time.Millisecond}, nil, nil)
	tr.Reset(noida)
	var mu sync.Mutex
	calls := 0
	tr.StartTransit(func() (types.Point, bool) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return types.Point{}, false
	})
	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	n := calls
	mu.Unlock()
	if n != 1 {
		t.Fatalf("expected the loop to exit after the first miss, got %d calls", n)
	}
	if pos, _ := tr.Position(); pos.Point != noida {
		t.Fatalf("position should not move, got %+v", pos)
	}
	tr.StopTransit()
}

func TestTransitSnapsOntoTarget(t *testing.T) {
	tr := NewTracker(TrackerConfig{TransitInterval: time.Millisecond, TransitStep: 0.9}, nil, nil)
	target := types.Point{Lat: noida.Lat + 0.01, Lng: noida.Lng}
	tr.Reset(noida)
	tr.StartTransit(func() (types.Point, bool) { return target, true })
	defer tr.StopTransit()

	deadline := time.Now().Add(time.Second)
	for {
		if pos, _ := tr.Position(); pos.Point == target {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("never arrived")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestReporterThrottles(t *testing.T) {
	sink := &recordingSink{name: "rec"}
	r := NewReporter(ReporterConfig{Interval: 30 * time.Second, MinMeters: 50}, []Sink{sink}, nil)
	clock := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return clock }
	ctx := context.Background()

	if !r.Observe(ctx, Position{Point: noida}) {
		t.Fatal("first report should be sent")
	}
	clock = clock.Add(10 * time.Second)
	if r.Observe(ctx, Position{Point: types.Point{Lat: noida.Lat + 0.0001, Lng: noida.Lng}}) {
		t.Fatal("11m move within interval should be throttled")
	}
	if !r.Observe(ctx, Position{Point: types.Point{Lat: noida.Lat + 0.001, Lng: noida.Lng}}) {
		t.Fatal("111m move should be reported")
	}
	clock = clock.Add(31 * time.Second)
	if !r.Observe(ctx, Position{Point: types.Point{Lat: noida.Lat + 0.001, Lng: noida.Lng}}) {
		t.Fatal("report after interval should be sent")
	}
	r.Wait()
	if sink.count() != 3 {
		t.Fatalf("expected 3 pushes, got %d", sink.count())
	}
}

func TestReporterSinkFailureDoesNotBlock(t *testing.T) {
	failing := &recordingSink{name: "bad", err: errors.New("offline")}
	ok := &recordingSink{name: "good"}
	r := NewReporter(ReporterConfig{}, []Sink{failing, ok}, nil)
	tr := NewTracker(TrackerConfig{}, r, nil)

	if _, err := tr.Ingest(context.Background(), Sample{Lat: noida.Lat, Lng: noida.Lng}); err != nil {
		t.Fatalf("telemetry failure leaked into ingest: %v", err)
	}
	r.Wait()
	if failing.count() != 1 || ok.count() != 1 {
		t.Fatalf("expected both sinks called once, got %d/%d", failing.count(), ok.count())
	}
}

func TestBackendSink(t *testing.T) {
	up := &fakeUploader{}
	s := NewBackendSink(up)
	if err := s.Push(context.Background(), Position{Point: noida}); err != nil {
		t.Fatal(err)
	}
	if up.last != noida {
		t.Fatalf("expected %+v uploaded, got %+v", noida, up.last)
	}
}

type fakeUploader struct{ last types.Point }

func (f *fakeUploader) UpdateLocation(_ context.Context, p types.Point) error {
	f.last = p
	return nil
}
