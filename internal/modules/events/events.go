// README: Order transition events published to a message broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"courier/internal/modules/order"
	"courier/internal/types"
)

const (
	TypeOrderTransition = "order.transition"
	DefaultTopic        = "courier.order-events"
)

// Envelope is the wire format shared by every publisher.
type Envelope struct {
	ID         string       `json:"id"`
	Type       string       `json:"type"`
	PartnerID  types.ID     `json:"partner_id"`
	OrderID    types.ID     `json:"order_id"`
	FromStatus order.Status `json:"from_status"`
	ToStatus   order.Status `json:"to_status"`
	Actor      string       `json:"actor"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// Publisher delivers one encoded message keyed for partitioning/routing.
type Publisher interface {
	Publish(ctx context.Context, key string, body []byte) error
	Close() error
}

// Recorder adapts a Publisher to order.Recorder.
type Recorder struct {
	pub       Publisher
	partnerID types.ID
}

func NewRecorder(pub Publisher, partnerID types.ID) *Recorder {
	return &Recorder{pub: pub, partnerID: partnerID}
}

func (r *Recorder) Record(ctx context.Context, e order.Event) error {
	body, err := json.Marshal(Envelope{
		ID:         e.ID,
		Type:       TypeOrderTransition,
		PartnerID:  r.partnerID,
		OrderID:    e.OrderID,
		FromStatus: e.FromStatus,
		ToStatus:   e.ToStatus,
		Actor:      e.Actor,
		OccurredAt: e.CreatedAt.UTC(),
	})
	if err != nil {
		return err
	}
	if err := r.pub.Publish(ctx, string(e.OrderID), body); err != nil {
		return fmt.Errorf("publish %s %s->%s: %w", e.OrderID, e.FromStatus, e.ToStatus, err)
	}
	return nil
}
