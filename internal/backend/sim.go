// README: In-memory stand-in for the platform backend, with latency and failure injection.
package backend

import (
	"context"
	"sort"
	"sync"
	"time"

	"courier/internal/modules/order"
	"courier/internal/types"
)

// Operation names accepted by FailNext.
const (
	OpAvailable = "available"
	OpAssigned  = "assigned"
	OpHistory   = "history"
	OpDashboard = "dashboard"
	OpAccept    = "accept"
	OpStatus    = "status"
	OpToggle    = "toggle"
	OpLocation  = "location"
)

type Sim struct {
	latency time.Duration
	now     func() time.Time

	mu        sync.Mutex
	failures  map[string][]error
	available []*order.Order
	assigned  map[types.ID]*order.Order
	history   []*order.Order
	online    bool
	last      types.Point
	calls     map[string]int
}

func NewSim(latency time.Duration) *Sim {
	return &Sim{
		latency:  latency,
		now:      time.Now,
		failures: map[string][]error{},
		assigned: map[types.ID]*order.Order{},
		calls:    map[string]int{},
	}
}

// FailNext makes the next call of op return err. Calls queue up.
func (s *Sim) FailNext(op string, err error) {
	s.mu.Lock()
	s.failures[op] = append(s.failures[op], err)
	s.mu.Unlock()
}

// Publish adds an order to the available pool.
func (s *Sim) Publish(o *order.Order) {
	s.mu.Lock()
	s.available = append(s.available, o.Clone())
	s.mu.Unlock()
}

func (s *Sim) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *Sim) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

func (s *Sim) LastLocation() types.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Sim) begin(ctx context.Context, op string) error {
	if s.latency > 0 {
		select {
		case <-time.After(s.latency):
		case <-ctx.Done():
			return &APIError{Code: CodeNetwork, Message: "request cancelled", Err: ctx.Err()}
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
	if q := s.failures[op]; len(q) > 0 {
		err := q[0]
		s.failures[op] = q[1:]
		return err
	}
	return nil
}

func (s *Sim) GetAvailableOrders(ctx context.Context) ([]*order.Order, error) {
	if err := s.begin(ctx, OpAvailable); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*order.Order, 0, len(s.available))
	for _, o := range s.available {
		out = append(out, o.Clone())
	}
	return out, nil
}

func (s *Sim) GetAssignedOrders(ctx context.Context) ([]*order.Order, error) {
	if err := s.begin(ctx, OpAssigned); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*order.Order, 0, len(s.assigned))
	for _, o := range s.assigned {
		out = append(out, o.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Sim) GetOrderHistory(ctx context.Context, page, limit int) ([]*order.Order, Pagination, error) {
	if err := s.begin(ctx, OpHistory); err != nil {
		return nil, Pagination{}, err
	}
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	total := len(s.history)
	p := Pagination{Total: total, Page: page, Limit: limit, Pages: (total + limit - 1) / limit}
	start := (page - 1) * limit
	if start >= total {
		return nil, p, nil
	}
	end := min(start+limit, total)
	out := make([]*order.Order, 0, end-start)
	for _, o := range s.history[start:end] {
		out = append(out, o.Clone())
	}
	return out, p, nil
}

func (s *Sim) GetDashboard(ctx context.Context) (*Dashboard, error) {
	if err := s.begin(ctx, OpDashboard); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	d := &Dashboard{}
	y, m, day := now.Date()
	for _, o := range s.history {
		if o.Status != order.StatusDelivered {
			continue
		}
		if oy, om, od := o.CreatedAt.In(now.Location()).Date(); oy == y && om == m && od == day {
			d.Earnings.Today += o.Earnings.Major()
			d.Stats.DeliveriesToday++
		}
	}
	d.Stats.ActiveOrders = len(s.assigned)
	online := s.online
	d.OnlineStatus = &online
	return d, nil
}

func (s *Sim) AcceptOrder(ctx context.Context, id types.ID) error {
	if err := s.begin(ctx, OpAccept); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.available {
		if o.ID == id {
			o.Status = order.StatusAccepted
			s.assigned[id] = o
			s.available = append(s.available[:i], s.available[i+1:]...)
			return nil
		}
	}
	// offers from elsewhere (demo generator) are accepted as-is
	s.assigned[id] = &order.Order{ID: id, Status: order.StatusAccepted, CreatedAt: s.now()}
	return nil
}

func (s *Sim) UpdateOrderStatus(ctx context.Context, id types.ID, status order.Status) error {
	if err := s.begin(ctx, OpStatus); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.assigned[id]
	if !ok {
		return &APIError{Status: 404, Code: CodeNotFound, Message: "Resource not found"}
	}
	o.Status = status
	if order.IsFinal(status) {
		delete(s.assigned, id)
		s.history = append([]*order.Order{o}, s.history...)
	}
	return nil
}

func (s *Sim) ToggleOnlineStatus(ctx context.Context, online bool) error {
	if err := s.begin(ctx, OpToggle); err != nil {
		return err
	}
	s.mu.Lock()
	s.online = online
	s.mu.Unlock()
	return nil
}

func (s *Sim) UpdateLocation(ctx context.Context, p types.Point) error {
	if err := s.begin(ctx, OpLocation); err != nil {
		return err
	}
	s.mu.Lock()
	s.last = p
	s.mu.Unlock()
	return nil
}
