// README: Offer poller pulls the next available order while the partner is online and idle.
package order

import (
	"context"
	"errors"
	"time"

	"courier/internal/types"
)

const DefaultPollInterval = 30 * time.Second

// recentOfferTTL keeps a declined or expired offer from being shown again
// straight away when the platform still lists it as available.
const recentOfferTTL = 5 * time.Minute

// OfferSource yields the next candidate offer, or nil when there is none.
type OfferSource interface {
	NextOffer(ctx context.Context) (*Order, error)
}

func (s *Service) RunOfferPoller(ctx context.Context, src OfferSource, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	recent := map[types.ID]time.Time{}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pollOnce(ctx, src, recent)
		}
	}
}

func (s *Service) pollOnce(ctx context.Context, src OfferSource, recent map[types.ID]time.Time) {
	if !s.Idle() {
		return
	}
	if s.deps.Session != nil && !s.deps.Session.AcceptingOffers() {
		return
	}
	now := s.deps.Now()
	for id, at := range recent {
		if now.Sub(at) > recentOfferTTL {
			delete(recent, id)
		}
	}

	o, err := src.NextOffer(ctx)
	if err != nil {
		s.log.Warn("fetch available orders", "error", err)
		return
	}
	if o == nil {
		return
	}
	if _, seen := recent[o.ID]; seen {
		return
	}
	if err := s.Offer(ctx, o); err != nil {
		if errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrOffline) {
			s.log.Debug("offer skipped", "order_id", o.ID, "reason", err)
			return
		}
		s.log.Warn("offer rejected by state machine", "order_id", o.ID, "error", err)
		return
	}
	recent[o.ID] = now
}
