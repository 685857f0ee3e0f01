// README: Order state machine tests (transition table + lifecycle flows).
package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"courier/internal/types"
)

// TestCanTransition verifies the state machine transition table.
func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		// happy-path forward transitions
		{StatusNone, StatusPending, true},
		{StatusPending, StatusAccepted, true},
		{StatusAccepted, StatusPickedUp, true},
		{StatusPickedUp, StatusOnTheWay, true},
		{StatusOnTheWay, StatusDelivered, true},
		// rejection / expiry
		{StatusPending, StatusCancelled, true},
		// invalid: terminal states have no outgoing transitions
		{StatusDelivered, StatusPending, false},
		{StatusCancelled, StatusPending, false},
		{StatusDelivered, StatusCancelled, false},
		// invalid: skipping or reversing
		{StatusPending, StatusPickedUp, false},
		{StatusAccepted, StatusDelivered, false},
		{StatusOnTheWay, StatusPickedUp, false},
		{StatusAccepted, StatusCancelled, false},
	}
	for _, tc := range cases {
		got := CanTransition(tc.from, tc.to)
		if got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCurrentStepAndLabels(t *testing.T) {
	cases := []struct {
		status Status
		step   int
		label  string
	}{
		{StatusPending, 0, ""},
		{StatusAccepted, 1, "Mark as Picked Up"},
		{StatusPickedUp, 2, "Start Delivery"},
		{StatusOnTheWay, 2, "Order Delivered"},
		{StatusDelivered, 3, ""},
		{StatusCancelled, 0, ""},
	}
	for _, tc := range cases {
		if got := CurrentStep(tc.status); got != tc.step {
			t.Errorf("CurrentStep(%s) = %d, want %d", tc.status, got, tc.step)
		}
		if got := ActionLabel(tc.status); got != tc.label {
			t.Errorf("ActionLabel(%s) = %q, want %q", tc.status, got, tc.label)
		}
	}
}

func TestValidate(t *testing.T) {
	if err := sampleOrder("o1", 8500).Validate(); err != nil {
		t.Fatalf("valid order rejected: %v", err)
	}
	noItems := sampleOrder("o2", 8500)
	noItems.Items = nil
	if err := noItems.Validate(); err != ErrBadRequest {
		t.Fatalf("expected ErrBadRequest for empty items, got %v", err)
	}
	noID := sampleOrder("", 8500)
	if err := noID.Validate(); err != ErrBadRequest {
		t.Fatalf("expected ErrBadRequest for missing id, got %v", err)
	}
	zeroQty := sampleOrder("o3", 8500)
	zeroQty.Items[0].Quantity = 0
	if err := zeroQty.Validate(); err != ErrBadRequest {
		t.Fatalf("expected ErrBadRequest for zero quantity, got %v", err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	o := sampleOrder("o1", 8500)
	c := o.Clone()
	c.Items[0].Name = "changed"
	c.Status = StatusDelivered
	if o.Items[0].Name == "changed" || o.Status == StatusDelivered {
		t.Fatal("clone shares state with original")
	}
}

func TestOrderFlowHappyPath(t *testing.T) {
	h := newHarness(t, time.Minute, time.Second)
	ctx := context.Background()

	mustOffer(t, h.svc, sampleOrder("o_happy", 8500))
	st := h.svc.State()
	if st.PendingOffer == nil || st.PendingOffer.Status != StatusPending {
		t.Fatalf("expected pending offer, got %+v", st.PendingOffer)
	}
	if st.OfferSecondsLeft != 60 {
		t.Fatalf("expected 60 seconds left, got %d", st.OfferSecondsLeft)
	}

	if err := h.svc.Accept(ctx, AcceptCommand{OrderID: "o_happy"}); err != nil {
		t.Fatalf("accept: %v", err)
	}
	st = h.svc.State()
	if st.PendingOffer != nil {
		t.Fatal("pending offer not cleared on accept")
	}
	if st.ActiveOrder == nil || st.ActiveOrder.Status != StatusAccepted {
		t.Fatalf("expected active order in accepted, got %+v", st.ActiveOrder)
	}
	if h.mover.position != (types.Point{Lat: 28.5355, Lng: 77.3910}) {
		t.Fatalf("expected position reset to pickup, got %+v", h.mover.position)
	}
	if !h.mover.isMoving() {
		t.Fatal("expected transit to start on accept")
	}

	visited := []Status{StatusAccepted}
	for i := 0; i < 3; i++ {
		if err := h.svc.Advance(ctx, AdvanceCommand{}); err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
		if a := h.svc.State().ActiveOrder; a != nil {
			visited = append(visited, a.Status)
		}
	}
	want := []Status{StatusAccepted, StatusPickedUp, StatusOnTheWay}
	if len(visited) != len(want) {
		t.Fatalf("visited %v, want %v", visited, want)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Fatalf("visited %v, want %v", visited, want)
		}
	}

	if h.svc.State().ActiveOrder != nil {
		t.Fatal("active order not cleared after delivery")
	}
	hist := h.ledger.all()
	if len(hist) != 1 || hist[0].ID != "o_happy" || hist[0].Status != StatusDelivered {
		t.Fatalf("expected delivered order in ledger, got %+v", hist)
	}
	if h.mover.isMoving() {
		t.Fatal("transit must stop once the order leaves the active slot")
	}
	if err := h.svc.Advance(ctx, AdvanceCommand{}); err != ErrInvalidTransition {
		t.Fatalf("advance after delivery: expected ErrInvalidTransition, got %v", err)
	}

	got := h.recorder.transitions()
	wantEvents := []Status{StatusPending, StatusAccepted, StatusPickedUp, StatusOnTheWay, StatusDelivered}
	if len(got) != len(wantEvents) {
		t.Fatalf("events %v, want %v", got, wantEvents)
	}
	for i := range wantEvents {
		if got[i] != wantEvents[i] {
			t.Fatalf("events %v, want %v", got, wantEvents)
		}
	}
	if statuses := h.backend.statusCalls; len(statuses) != 3 || statuses[2] != StatusDelivered {
		t.Fatalf("unexpected backend status calls: %v", statuses)
	}
}

func TestOfferWhileBusyIsRejected(t *testing.T) {
	h := newHarness(t, time.Minute, time.Second)
	ctx := context.Background()

	mustOffer(t, h.svc, sampleOrder("first", 8500))
	if err := h.svc.Offer(ctx, sampleOrder("second", 9500)); err != ErrInvalidTransition {
		t.Fatalf("offer while pending: expected ErrInvalidTransition, got %v", err)
	}
	if h.svc.State().PendingOffer.ID != "first" {
		t.Fatal("pending offer was replaced")
	}

	if err := h.svc.Accept(ctx, AcceptCommand{OrderID: "first"}); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := h.svc.Offer(ctx, sampleOrder("third", 11000)); err != ErrInvalidTransition {
		t.Fatalf("offer while active: expected ErrInvalidTransition, got %v", err)
	}
	st := h.svc.State()
	if st.PendingOffer != nil || st.ActiveOrder.ID != "first" {
		t.Fatalf("state changed by rejected offer: %+v", st)
	}
}

func TestOfferRequiresOnline(t *testing.T) {
	h := newHarness(t, time.Minute, time.Second)
	h.session.set(false)
	if err := h.svc.Offer(context.Background(), sampleOrder("o1", 8500)); err != ErrOffline {
		t.Fatalf("expected ErrOffline, got %v", err)
	}
	if !h.svc.Idle() {
		t.Fatal("offer stored while offline")
	}
}

func TestOfferRejectsInvalidOrder(t *testing.T) {
	h := newHarness(t, time.Minute, time.Second)
	o := sampleOrder("o1", 8500)
	o.Items = nil
	if err := h.svc.Offer(context.Background(), o); err != ErrBadRequest {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
}

func TestAcceptIdentityCheck(t *testing.T) {
	h := newHarness(t, time.Minute, time.Second)
	ctx := context.Background()

	if err := h.svc.Accept(ctx, AcceptCommand{OrderID: "none"}); err != ErrInvalidTransition {
		t.Fatalf("accept without offer: expected ErrInvalidTransition, got %v", err)
	}
	mustOffer(t, h.svc, sampleOrder("o1", 8500))
	if err := h.svc.Accept(ctx, AcceptCommand{OrderID: "other"}); err != ErrInvalidTransition {
		t.Fatalf("accept mismatched id: expected ErrInvalidTransition, got %v", err)
	}
	if err := h.svc.Reject(ctx, RejectCommand{OrderID: "other"}); err != ErrInvalidTransition {
		t.Fatalf("reject mismatched id: expected ErrInvalidTransition, got %v", err)
	}
	st := h.svc.State()
	if st.PendingOffer == nil || st.PendingOffer.ID != "o1" || st.ActiveOrder != nil {
		t.Fatalf("mismatched id changed state: %+v", st)
	}
	if len(h.backend.accepted) != 0 {
		t.Fatal("backend must not be called for a mismatched id")
	}
}

func TestRejectDiscardsOffer(t *testing.T) {
	h := newHarness(t, time.Minute, time.Second)
	ctx := context.Background()

	mustOffer(t, h.svc, sampleOrder("o1", 8500))
	if err := h.svc.Reject(ctx, RejectCommand{OrderID: "o1"}); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if !h.svc.Idle() {
		t.Fatal("expected idle after reject")
	}
	if len(h.ledger.all()) != 0 {
		t.Fatal("rejected offers must not reach the ledger")
	}
	events := h.recorder.transitions()
	if events[len(events)-1] != StatusCancelled {
		t.Fatalf("expected cancelled event, got %v", events)
	}
	// a fresh offer is allowed again
	mustOffer(t, h.svc, sampleOrder("o2", 9500))
}

func TestOfferExpires(t *testing.T) {
	h := newHarness(t, 30*time.Millisecond, 10*time.Millisecond)
	mustOffer(t, h.svc, sampleOrder("o_expire", 8500))

	waitFor(t, "offer expiry", h.svc.Idle)
	if len(h.ledger.all()) != 0 {
		t.Fatal("expired offers must not reach the ledger")
	}
	if err := h.svc.Accept(context.Background(), AcceptCommand{OrderID: "o_expire"}); err != ErrInvalidTransition {
		t.Fatalf("accept after expiry: expected ErrInvalidTransition, got %v", err)
	}
	h.recorder.mu.Lock()
	last := h.recorder.events[len(h.recorder.events)-1]
	h.recorder.mu.Unlock()
	if last.ToStatus != StatusCancelled || last.Actor != ActorTimer {
		t.Fatalf("expected timer cancellation event, got %+v", last)
	}
}

func TestAcceptStopsTimer(t *testing.T) {
	h := newHarness(t, 40*time.Millisecond, 10*time.Millisecond)
	ctx := context.Background()

	mustOffer(t, h.svc, sampleOrder("o1", 8500))
	if err := h.svc.Accept(ctx, AcceptCommand{OrderID: "o1"}); err != nil {
		t.Fatalf("accept: %v", err)
	}
	time.Sleep(80 * time.Millisecond)
	st := h.svc.State()
	if st.ActiveOrder == nil || st.ActiveOrder.Status != StatusAccepted {
		t.Fatalf("late timer fire disturbed the active order: %+v", st)
	}
	for _, s := range h.recorder.transitions() {
		if s == StatusCancelled {
			t.Fatal("timer fired after accept")
		}
	}
}

func TestAcceptBackendFailureKeepsOffer(t *testing.T) {
	h := newHarness(t, time.Minute, time.Second)
	h.backend.acceptErr = errBackendDown
	ctx := context.Background()

	mustOffer(t, h.svc, sampleOrder("o1", 8500))
	err := h.svc.Accept(ctx, AcceptCommand{OrderID: "o1"})
	if !errors.Is(err, errBackendDown) {
		t.Fatalf("expected backend error, got %v", err)
	}
	st := h.svc.State()
	if st.PendingOffer == nil || st.PendingOffer.Status != StatusPending || st.ActiveOrder != nil {
		t.Fatalf("failed accept must leave the offer pending: %+v", st)
	}

	h.backend.mu.Lock()
	h.backend.acceptErr = nil
	h.backend.mu.Unlock()
	if err := h.svc.Accept(ctx, AcceptCommand{OrderID: "o1"}); err != nil {
		t.Fatalf("retry accept: %v", err)
	}
}

func TestAdvanceBackendFailureKeepsStatus(t *testing.T) {
	h := newHarness(t, time.Minute, time.Second)
	ctx := context.Background()

	mustOffer(t, h.svc, sampleOrder("o1", 8500))
	if err := h.svc.Accept(ctx, AcceptCommand{OrderID: "o1"}); err != nil {
		t.Fatalf("accept: %v", err)
	}
	h.backend.statusErr = errBackendDown
	if err := h.svc.Advance(ctx, AdvanceCommand{}); !errors.Is(err, errBackendDown) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if s := h.svc.State().ActiveOrder.Status; s != StatusAccepted {
		t.Fatalf("expected status to stay accepted, got %s", s)
	}

	h.backend.statusErr = nil
	if err := h.svc.Advance(ctx, AdvanceCommand{}); err != nil {
		t.Fatalf("retry advance: %v", err)
	}
	if s := h.svc.State().ActiveOrder.Status; s != StatusPickedUp {
		t.Fatalf("expected picked_up after retry, got %s", s)
	}
}

func TestAdvanceLedgerFailureKeepsActiveOrder(t *testing.T) {
	h := newHarness(t, time.Minute, time.Second)
	ctx := context.Background()

	mustOffer(t, h.svc, sampleOrder("o1", 8500))
	if err := h.svc.Accept(ctx, AcceptCommand{OrderID: "o1"}); err != nil {
		t.Fatalf("accept: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := h.svc.Advance(ctx, AdvanceCommand{}); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}
	h.ledger.err = errors.New("disk full")
	if err := h.svc.Advance(ctx, AdvanceCommand{}); err == nil {
		t.Fatal("expected ledger failure to surface")
	}
	st := h.svc.State()
	if st.ActiveOrder == nil || st.ActiveOrder.Status != StatusOnTheWay {
		t.Fatalf("active order must survive a failed ledger append: %+v", st.ActiveOrder)
	}
	if !h.mover.isMoving() {
		t.Fatal("transit must keep running while the order is still active")
	}

	h.ledger.err = nil
	if err := h.svc.Advance(ctx, AdvanceCommand{}); err != nil {
		t.Fatalf("retry delivery: %v", err)
	}
	if len(h.ledger.all()) != 1 || h.svc.State().ActiveOrder != nil {
		t.Fatal("retry should finalize the order")
	}
}

func TestAdvanceRejectsStaleOrderID(t *testing.T) {
	h := newHarness(t, time.Minute, time.Second)
	ctx := context.Background()

	if err := h.svc.Advance(ctx, AdvanceCommand{}); err != ErrInvalidTransition {
		t.Fatalf("advance with no active order: expected ErrInvalidTransition, got %v", err)
	}
	mustOffer(t, h.svc, sampleOrder("o1", 8500))
	if err := h.svc.Accept(ctx, AcceptCommand{OrderID: "o1"}); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := h.svc.Advance(ctx, AdvanceCommand{OrderID: "old"}); err != ErrInvalidTransition {
		t.Fatalf("advance with stale id: expected ErrInvalidTransition, got %v", err)
	}
	if err := h.svc.Advance(ctx, AdvanceCommand{OrderID: "o1"}); err != nil {
		t.Fatalf("advance with matching id: %v", err)
	}
}

func TestGoingOfflineKeepsActiveOrder(t *testing.T) {
	h := newHarness(t, time.Minute, time.Second)
	ctx := context.Background()

	mustOffer(t, h.svc, sampleOrder("o1", 8500))
	if err := h.svc.Accept(ctx, AcceptCommand{OrderID: "o1"}); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := h.svc.Advance(ctx, AdvanceCommand{}); err != nil {
		t.Fatalf("advance: %v", err)
	}
	h.session.set(false)

	st := h.svc.State()
	if st.ActiveOrder == nil || st.ActiveOrder.Status != StatusPickedUp {
		t.Fatalf("active order changed by going offline: %+v", st.ActiveOrder)
	}
	if err := h.svc.Advance(ctx, AdvanceCommand{}); err != nil {
		t.Fatalf("delivery must continue while offline: %v", err)
	}
}

func TestTransitTarget(t *testing.T) {
	h := newHarness(t, time.Minute, time.Second)
	ctx := context.Background()

	if _, ok := h.svc.TransitTarget(); ok {
		t.Fatal("no target expected without an active order")
	}
	o := sampleOrder("o1", 8500)
	mustOffer(t, h.svc, o)
	if err := h.svc.Accept(ctx, AcceptCommand{OrderID: "o1"}); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if p, _ := h.svc.TransitTarget(); p != o.Restaurant.Pickup {
		t.Fatalf("expected pickup target, got %+v", p)
	}
	if err := h.svc.Advance(ctx, AdvanceCommand{}); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if p, _ := h.svc.TransitTarget(); p != o.Restaurant.Pickup {
		t.Fatalf("expected pickup target while picked up, got %+v", p)
	}
	if err := h.svc.Advance(ctx, AdvanceCommand{}); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if p, _ := h.svc.TransitTarget(); p != o.Customer.Drop {
		t.Fatalf("expected drop target on the way, got %+v", p)
	}
}

func TestAcceptWithoutPickupKeepsPosition(t *testing.T) {
	h := newHarness(t, time.Minute, time.Second)
	ctx := context.Background()
	fix := types.Point{Lat: 28.54, Lng: 77.39}
	h.mover.Reset(fix)

	o := sampleOrder("o1", 8500)
	o.Restaurant.Pickup = types.Point{}
	mustOffer(t, h.svc, o)
	if err := h.svc.Accept(ctx, AcceptCommand{OrderID: "o1"}); err != nil {
		t.Fatalf("accept: %v", err)
	}
	h.mover.mu.Lock()
	got := h.mover.position
	h.mover.mu.Unlock()
	if got != fix {
		t.Fatalf("expected last fix %+v to stay, got %+v", fix, got)
	}
	if _, ok := h.svc.TransitTarget(); ok {
		t.Fatal("expected no transit target without pickup coordinates")
	}
}

func TestRestore(t *testing.T) {
	h := newHarness(t, time.Minute, time.Second)
	ctx := context.Background()

	pending := sampleOrder("o_pending", 8500)
	pending.Status = StatusPending
	if err := h.svc.Restore(ctx, pending); err != ErrBadRequest {
		t.Fatalf("restore non-active order: expected ErrBadRequest, got %v", err)
	}

	o := sampleOrder("o_assigned", 8500)
	o.Status = StatusPickedUp
	if err := h.svc.Restore(ctx, o); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if a := h.svc.State().ActiveOrder; a == nil || a.Status != StatusPickedUp {
		t.Fatalf("expected restored active order, got %+v", a)
	}
	if !h.mover.isMoving() {
		t.Fatal("restored order should resume transit")
	}
	if err := h.svc.Restore(ctx, sampleOrder("another", 1)); err != ErrBadRequest {
		t.Fatalf("expected ErrBadRequest for order without active status, got %v", err)
	}
	second := sampleOrder("o_second", 8500)
	second.Status = StatusAccepted
	if err := h.svc.Restore(ctx, second); err != ErrInvalidTransition {
		t.Fatalf("restore over active order: expected ErrInvalidTransition, got %v", err)
	}
}

func TestStateReturnsCopies(t *testing.T) {
	h := newHarness(t, time.Minute, time.Second)
	mustOffer(t, h.svc, sampleOrder("o1", 8500))

	st := h.svc.State()
	st.PendingOffer.Status = StatusDelivered
	st.PendingOffer.Items[0].Name = "mutated"

	again := h.svc.State()
	if again.PendingOffer.Status != StatusPending || again.PendingOffer.Items[0].Name == "mutated" {
		t.Fatal("callers must not be able to mutate machine state")
	}
}
