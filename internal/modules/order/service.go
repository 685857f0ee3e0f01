// README: Order service owns the pending-offer and active-order slots and drives transitions.
package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"courier/internal/types"
)

var (
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrBusy              = errors.New("operation already in progress")
	ErrOffline           = errors.New("partner is offline")
	ErrNotFound          = errors.New("order not found")
	ErrBadRequest        = errors.New("bad request")
)

const (
	DefaultOfferWindow = 20 * time.Second
	DefaultOfferTick   = time.Second
)

// Backend confirms transitions with the platform.
type Backend interface {
	AcceptOrder(ctx context.Context, id types.ID) error
	UpdateOrderStatus(ctx context.Context, id types.ID, status Status) error
}

// Ledger receives delivered orders.
type Ledger interface {
	Append(ctx context.Context, o *Order) error
}

// Availability gates new offers.
type Availability interface {
	AcceptingOffers() bool
}

// Mover is driven by the active order: positioned at pickup on accept, moved
// toward the current target while active and halted when the order leaves.
type Mover interface {
	Reset(p types.Point)
	StartTransit(target func() (types.Point, bool))
	StopTransit()
}

// Recorder observes committed transitions. Failures are logged, never fatal.
type Recorder interface {
	Record(ctx context.Context, e Event) error
}

type Config struct {
	OfferWindow time.Duration
	Tick        time.Duration
}

type Deps struct {
	Backend   Backend
	Ledger    Ledger
	Session   Availability
	Mover     Mover
	Recorders []Recorder
	Logger    *slog.Logger
	Now       func() time.Time
}

type AcceptCommand struct {
	OrderID types.ID
}

type RejectCommand struct {
	OrderID types.ID
}

// AdvanceCommand moves the active order one step. A non-empty OrderID must
// match the active order.
type AdvanceCommand struct {
	OrderID types.ID
}

// State is a read-only view for the UI.
type State struct {
	PendingOffer     *Order
	OfferSecondsLeft int
	ActiveOrder      *Order
}

type Service struct {
	cfg  Config
	deps Deps
	log  *slog.Logger

	mu       sync.Mutex
	pending  *Order
	active   *Order
	timer    *OfferTimer
	inFlight bool
	expired  bool
}

func NewService(cfg Config, deps Deps) *Service {
	if cfg.OfferWindow <= 0 {
		cfg.OfferWindow = DefaultOfferWindow
	}
	if cfg.Tick <= 0 {
		cfg.Tick = DefaultOfferTick
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Service{cfg: cfg, deps: deps, log: log.With("module", "order")}
}

// Offer presents o to the partner and starts the offer timer.
func (s *Service) Offer(ctx context.Context, o *Order) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if s.deps.Session != nil && !s.deps.Session.AcceptingOffers() {
		return ErrOffline
	}

	s.mu.Lock()
	if s.pending != nil || s.active != nil {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	offer := o.Clone()
	offer.Status = StatusPending
	if offer.CreatedAt.IsZero() {
		offer.CreatedAt = s.deps.Now()
	}
	t := NewOfferTimer(s.cfg.OfferWindow, s.cfg.Tick, s.expire)
	s.pending = offer
	s.timer = t
	s.expired = false
	s.mu.Unlock()

	t.Start()
	s.log.Info("offer received", "order_id", offer.ID, "window", s.cfg.OfferWindow)
	s.emit(ctx, offer.ID, StatusNone, StatusPending, ActorSystem)
	return nil
}

func (s *Service) Accept(ctx context.Context, cmd AcceptCommand) error {
	s.mu.Lock()
	if s.pending == nil || s.pending.ID != cmd.OrderID {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	if s.inFlight {
		s.mu.Unlock()
		return ErrBusy
	}
	s.inFlight = true
	offer := s.pending
	s.mu.Unlock()

	var err error
	if s.deps.Backend != nil {
		err = s.deps.Backend.AcceptOrder(ctx, offer.ID)
	}

	s.mu.Lock()
	s.inFlight = false
	if err != nil {
		if !s.expired || s.pending != offer {
			s.mu.Unlock()
			return fmt.Errorf("accept order %s: %w", offer.ID, err)
		}
		// the window closed while the call was in flight
		s.clearPendingLocked()
		s.mu.Unlock()
		s.log.Info("offer expired after failed accept", "order_id", offer.ID)
		s.emit(ctx, offer.ID, StatusPending, StatusCancelled, ActorTimer)
		return fmt.Errorf("accept order %s: %w", offer.ID, err)
	}
	active := offer.Clone()
	active.Status = StatusAccepted
	s.clearPendingLocked()
	s.active = active
	pickup := active.Restaurant.Pickup
	s.mu.Unlock()

	if s.deps.Mover != nil {
		// without pickup coordinates the last known fix stays
		if !pickup.IsZero() {
			s.deps.Mover.Reset(pickup)
		}
		s.deps.Mover.StartTransit(s.TransitTarget)
	}
	s.log.Info("order accepted", "order_id", active.ID)
	s.emit(ctx, active.ID, StatusPending, StatusAccepted, ActorPartner)
	return nil
}

func (s *Service) Reject(ctx context.Context, cmd RejectCommand) error {
	s.mu.Lock()
	if s.pending == nil || s.pending.ID != cmd.OrderID {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	if s.inFlight {
		s.mu.Unlock()
		return ErrBusy
	}
	id := s.pending.ID
	s.clearPendingLocked()
	s.mu.Unlock()

	s.log.Info("offer rejected", "order_id", id)
	s.emit(ctx, id, StatusPending, StatusCancelled, ActorPartner)
	return nil
}

// expire is the timer callback. Fires from timers no longer owned are ignored.
func (s *Service) expire(t *OfferTimer) {
	s.mu.Lock()
	if s.timer != t || s.pending == nil {
		s.mu.Unlock()
		return
	}
	if s.inFlight {
		s.expired = true
		s.mu.Unlock()
		return
	}
	id := s.pending.ID
	s.clearPendingLocked()
	s.mu.Unlock()

	s.log.Info("offer expired", "order_id", id)
	s.emit(context.Background(), id, StatusPending, StatusCancelled, ActorTimer)
}

func (s *Service) Advance(ctx context.Context, cmd AdvanceCommand) error {
	s.mu.Lock()
	if s.active == nil || (cmd.OrderID != "" && s.active.ID != cmd.OrderID) {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	if s.inFlight {
		s.mu.Unlock()
		return ErrBusy
	}
	cur := s.active.Clone()
	next, ok := Next(cur.Status)
	if !ok || !CanTransition(cur.Status, next) {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	s.inFlight = true
	s.mu.Unlock()

	if s.deps.Backend != nil {
		if err := s.deps.Backend.UpdateOrderStatus(ctx, cur.ID, next); err != nil {
			s.release()
			return fmt.Errorf("update order %s to %s: %w", cur.ID, next, err)
		}
	}

	if next == StatusDelivered {
		final := cur.Clone()
		final.Status = StatusDelivered
		if s.deps.Ledger != nil {
			if err := s.deps.Ledger.Append(ctx, final); err != nil {
				s.release()
				return fmt.Errorf("record delivered order %s: %w", cur.ID, err)
			}
		}
		s.mu.Lock()
		s.active = nil
		s.inFlight = false
		s.mu.Unlock()
		if s.deps.Mover != nil {
			s.deps.Mover.StopTransit()
		}
	} else {
		s.mu.Lock()
		s.active.Status = next
		s.inFlight = false
		s.mu.Unlock()
	}

	s.log.Info("order advanced", "order_id", cur.ID, "from", cur.Status, "to", next)
	s.emit(ctx, cur.ID, cur.Status, next, ActorPartner)
	return nil
}

// Restore puts an order the backend already assigned into the active slot.
func (s *Service) Restore(ctx context.Context, o *Order) error {
	if o == nil || o.ID == "" || !IsActive(o.Status) {
		return ErrBadRequest
	}
	s.mu.Lock()
	if s.pending != nil || s.active != nil {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	s.active = o.Clone()
	s.mu.Unlock()

	if s.deps.Mover != nil {
		s.deps.Mover.StartTransit(s.TransitTarget)
	}
	s.log.Info("active order restored", "order_id", o.ID, "status", o.Status)
	return nil
}

func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		PendingOffer: s.pending.Clone(),
		ActiveOrder:  s.active.Clone(),
	}
	if s.pending != nil && s.timer != nil {
		st.OfferSecondsLeft = int((s.timer.Remaining() + time.Second - 1) / time.Second)
	}
	return st
}

// Idle reports whether a new offer could be placed right now.
func (s *Service) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending == nil && s.active == nil
}

// TransitTarget is the point the courier is heading to: the restaurant until
// pickup, then the customer.
func (s *Service) TransitTarget() (types.Point, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return types.Point{}, false
	}
	target := s.active.Customer.Drop
	if s.active.Status == StatusAccepted || s.active.Status == StatusPickedUp {
		target = s.active.Restaurant.Pickup
	}
	return target, !target.IsZero()
}

func (s *Service) clearPendingLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = nil
	s.pending = nil
	s.expired = false
}

func (s *Service) release() {
	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
}

func (s *Service) emit(ctx context.Context, id types.ID, from, to Status, actor string) {
	if len(s.deps.Recorders) == 0 {
		return
	}
	e := Event{
		ID:         uuid.NewString(),
		OrderID:    id,
		FromStatus: from,
		ToStatus:   to,
		Actor:      actor,
		CreatedAt:  s.deps.Now(),
	}
	for _, r := range s.deps.Recorders {
		if err := r.Record(ctx, e); err != nil {
			s.log.Warn("record order event", "order_id", id, "to", to, "error", err)
		}
	}
}
