// README: Test doubles shared by the order tests.
package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"courier/internal/types"
)

var errBackendDown = errors.New("backend unavailable")

type fakeBackend struct {
	mu          sync.Mutex
	acceptErr   error
	statusErr   error
	acceptGate  chan struct{}
	accepted    []types.ID
	statusCalls []Status
}

func (b *fakeBackend) AcceptOrder(ctx context.Context, id types.ID) error {
	b.mu.Lock()
	gate := b.acceptGate
	b.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.acceptErr != nil {
		return b.acceptErr
	}
	b.accepted = append(b.accepted, id)
	return nil
}

func (b *fakeBackend) UpdateOrderStatus(_ context.Context, _ types.ID, s Status) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.statusErr != nil {
		return b.statusErr
	}
	b.statusCalls = append(b.statusCalls, s)
	return nil
}

type fakeLedger struct {
	mu     sync.Mutex
	err    error
	orders []*Order
}

func (l *fakeLedger) Append(_ context.Context, o *Order) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.orders = append(l.orders, o.Clone())
	return nil
}

func (l *fakeLedger) all() []*Order {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*Order, len(l.orders))
	copy(out, l.orders)
	return out
}

type fakeSession struct {
	mu     sync.Mutex
	online bool
}

func (s *fakeSession) AcceptingOffers() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

func (s *fakeSession) set(v bool) {
	s.mu.Lock()
	s.online = v
	s.mu.Unlock()
}

type fakeMover struct {
	mu       sync.Mutex
	position types.Point
	moving   bool
	target   func() (types.Point, bool)
}

func (m *fakeMover) Reset(p types.Point) {
	m.mu.Lock()
	m.position = p
	m.mu.Unlock()
}

func (m *fakeMover) StartTransit(target func() (types.Point, bool)) {
	m.mu.Lock()
	m.moving = true
	m.target = target
	m.mu.Unlock()
}

func (m *fakeMover) StopTransit() {
	m.mu.Lock()
	m.moving = false
	m.mu.Unlock()
}

func (m *fakeMover) isMoving() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.moving
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *fakeRecorder) Record(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *fakeRecorder) transitions() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Status, len(r.events))
	for i, e := range r.events {
		out[i] = e.ToStatus
	}
	return out
}

type harness struct {
	svc      *Service
	backend  *fakeBackend
	ledger   *fakeLedger
	session  *fakeSession
	mover    *fakeMover
	recorder *fakeRecorder
}

func newHarness(t *testing.T, window, tick time.Duration) *harness {
	t.Helper()
	h := &harness{
		backend:  &fakeBackend{},
		ledger:   &fakeLedger{},
		session:  &fakeSession{online: true},
		mover:    &fakeMover{},
		recorder: &fakeRecorder{},
	}
	h.svc = NewService(Config{OfferWindow: window, Tick: tick}, Deps{
		Backend:   h.backend,
		Ledger:    h.ledger,
		Session:   h.session,
		Mover:     h.mover,
		Recorders: []Recorder{h.recorder},
	})
	return h
}

func sampleOrder(id string, earnings int64) *Order {
	return &Order{
		ID: types.ID(id),
		Restaurant: Restaurant{
			Name:    "Spice Garden",
			Address: "Sector 18, Noida",
			Pickup:  types.Point{Lat: 28.5355, Lng: 77.3910},
		},
		Customer: Customer{
			Name:    "Rahul Sharma",
			Address: "Sector 62, Noida",
			Phone:   "+91 98765 43210",
			Drop:    types.Point{Lat: 28.6280, Lng: 77.3649},
		},
		Items:         []Item{{Name: "Butter Chicken", Quantity: 1}, {Name: "Naan", Quantity: 2}},
		DistanceKm:    3.2,
		EstimatedTime: "15 min",
		Earnings:      types.INR(earnings),
		PaymentType:   PaymentOnline,
	}
}

func mustOffer(t *testing.T, svc *Service, o *Order) {
	t.Helper()
	if err := svc.Offer(context.Background(), o); err != nil {
		t.Fatalf("offer %s: %v", o.ID, err)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
