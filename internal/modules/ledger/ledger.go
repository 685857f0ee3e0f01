// README: Append-only history of finished orders; the only source for earnings.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"courier/internal/modules/order"
	"courier/internal/types"
)

var (
	ErrDuplicate = errors.New("order already recorded")
	ErrNotFinal  = errors.New("order is not finished")
)

// Store persists ledger entries. Insert returns ErrDuplicate for a known id.
type Store interface {
	Insert(ctx context.Context, o *order.Order) error
	List(ctx context.Context) ([]*order.Order, error)
}

type Ledger struct {
	store Store
	log   *slog.Logger

	mu     sync.RWMutex
	byID   map[types.ID]*order.Order
	orders []*order.Order
}

// New builds a ledger over store. A nil store keeps entries in memory only.
func New(store Store, log *slog.Logger) *Ledger {
	if log == nil {
		log = slog.Default()
	}
	return &Ledger{
		store: store,
		log:   log.With("module", "ledger"),
		byID:  map[types.ID]*order.Order{},
	}
}

// Append records a delivered or cancelled order. The durable store is written
// first so memory never holds an entry the store lacks.
func (l *Ledger) Append(ctx context.Context, o *order.Order) error {
	if o == nil || o.ID == "" {
		return order.ErrBadRequest
	}
	if !order.IsFinal(o.Status) {
		return fmt.Errorf("%w: %s", ErrNotFinal, o.Status)
	}
	entry := o.Clone()

	l.mu.RLock()
	_, dup := l.byID[entry.ID]
	l.mu.RUnlock()
	if dup {
		return ErrDuplicate
	}
	if l.store != nil {
		if err := l.store.Insert(ctx, entry); err != nil {
			return err
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.byID[entry.ID]; ok {
		return ErrDuplicate
	}
	l.add(entry)
	l.log.Info("order recorded", "order_id", entry.ID, "status", entry.Status, "earnings", entry.Earnings.String())
	return nil
}

func (l *Ledger) add(o *order.Order) {
	l.byID[o.ID] = o
	l.orders = append(l.orders, o)
}

// All returns copies of every entry, newest first by creation time.
func (l *Ledger) All() []order.Order {
	l.mu.RLock()
	out := make([]order.Order, 0, len(l.orders))
	for _, o := range l.orders {
		out = append(out, *o.Clone())
	}
	l.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (l *Ledger) Get(id types.ID) (order.Order, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	o, ok := l.byID[id]
	if !ok {
		return order.Order{}, false
	}
	return *o.Clone(), true
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.orders)
}

// Load replaces the in-memory view with the store's contents.
func (l *Ledger) Load(ctx context.Context) error {
	if l.store == nil {
		return nil
	}
	list, err := l.store.List(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.byID = make(map[types.ID]*order.Order, len(list))
	l.orders = l.orders[:0]
	for _, o := range list {
		if o == nil || !order.IsFinal(o.Status) {
			continue
		}
		if _, ok := l.byID[o.ID]; ok {
			continue
		}
		l.add(o.Clone())
	}
	l.log.Info("ledger loaded", "entries", len(l.orders))
	return nil
}

// Import appends finished orders fetched elsewhere, skipping ones already
// recorded. It returns how many were added.
func (l *Ledger) Import(ctx context.Context, orders []*order.Order) (int, error) {
	added := 0
	for _, o := range orders {
		if o == nil || !order.IsFinal(o.Status) {
			continue
		}
		err := l.Append(ctx, o)
		switch {
		case err == nil:
			added++
		case errors.Is(err, ErrDuplicate):
		default:
			return added, err
		}
	}
	return added, nil
}
