// README: Glue between the backend API and the local order, ledger and session modules.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"courier/internal/modules/ledger"
	"courier/internal/modules/order"
	"courier/internal/types"
)

// Locator resolves an address to coordinates.
type Locator interface {
	Locate(ctx context.Context, address string) (types.Point, error)
}

// Offers is the order.OfferSource backed by the available-orders endpoint.
type Offers struct {
	api     API
	locator Locator
	log     *slog.Logger
}

func NewOffers(api API, locator Locator, log *slog.Logger) *Offers {
	if log == nil {
		log = slog.Default()
	}
	return &Offers{api: api, locator: locator, log: log.With("module", "offers")}
}

// NextOffer returns the first available order, or nil when the list is empty.
func (s *Offers) NextOffer(ctx context.Context) (*order.Order, error) {
	list, err := s.api.GetAvailableOrders(ctx)
	if err != nil {
		return nil, err
	}
	for _, o := range list {
		if o == nil || len(o.Items) == 0 {
			continue
		}
		s.fillCoordinates(ctx, o)
		return o, nil
	}
	return nil, nil
}

func (s *Offers) fillCoordinates(ctx context.Context, o *order.Order) {
	if s.locator == nil {
		return
	}
	if o.Restaurant.Pickup.IsZero() && o.Restaurant.Address != "" {
		if p, err := s.locator.Locate(ctx, o.Restaurant.Address); err == nil {
			o.Restaurant.Pickup = p
		} else {
			s.log.Debug("geocode pickup", "order_id", o.ID, "error", err)
		}
	}
	if o.Customer.Drop.IsZero() && o.Customer.Address != "" {
		if p, err := s.locator.Locate(ctx, o.Customer.Address); err == nil {
			o.Customer.Drop = p
		} else {
			s.log.Debug("geocode drop", "order_id", o.ID, "error", err)
		}
	}
}

// Restorer takes an order the platform already assigned to the partner.
type Restorer interface {
	Restore(ctx context.Context, o *order.Order) error
}

// RestoreAssigned reinstates the first active assignment after a restart.
// It reports whether an order was restored.
func RestoreAssigned(ctx context.Context, api API, orders Restorer) (bool, error) {
	list, err := api.GetAssignedOrders(ctx)
	if err != nil {
		return false, fmt.Errorf("fetch assigned orders: %w", err)
	}
	for _, o := range list {
		if o == nil || !order.IsActive(o.Status) {
			continue
		}
		if err := orders.Restore(ctx, o); err != nil {
			if errors.Is(err, order.ErrInvalidTransition) {
				return false, nil
			}
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// ImportHistory copies finished orders from the history endpoint into the
// ledger, reading at most maxPages pages (0 reads all).
func ImportHistory(ctx context.Context, api API, l *ledger.Ledger, maxPages int) (int, error) {
	added := 0
	for page := 1; maxPages <= 0 || page <= maxPages; page++ {
		items, p, err := api.GetOrderHistory(ctx, page, DefaultPageSize)
		if err != nil {
			return added, fmt.Errorf("fetch history page %d: %w", page, err)
		}
		n, err := l.Import(ctx, items)
		added += n
		if err != nil {
			return added, err
		}
		if len(items) == 0 || page >= p.Pages {
			break
		}
	}
	return added, nil
}

// DashboardCache receives the server-side dashboard numbers.
type DashboardCache interface {
	RecordDashboard(ctx context.Context, today types.Money, completed int)
}

// RefreshDashboard pulls the dashboard and caches its numbers. It returns the
// server's view of the online flag when the response carried one.
func RefreshDashboard(ctx context.Context, api API, cache DashboardCache) (*Dashboard, error) {
	d, err := api.GetDashboard(ctx)
	if err != nil {
		return nil, err
	}
	cache.RecordDashboard(ctx, types.FromMajor(d.Earnings.Today, ""), d.Stats.DeliveriesToday)
	return d, nil
}
