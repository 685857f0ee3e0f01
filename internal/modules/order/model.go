// README: Order aggregate, status definitions and the transition table.
package order

import (
	"time"

	"courier/internal/types"
)

type Status string

const (
	StatusNone      Status = "none"
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusPickedUp  Status = "picked_up"
	StatusOnTheWay  Status = "on_the_way"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

type PaymentType string

const (
	PaymentCash   PaymentType = "cash"
	PaymentOnline PaymentType = "online"
)

type Restaurant struct {
	Name    string      `json:"name"`
	Address string      `json:"address"`
	Pickup  types.Point `json:"pickup"`
}

type Customer struct {
	Name    string      `json:"name"`
	Address string      `json:"address"`
	Phone   string      `json:"phone"`
	Drop    types.Point `json:"drop"`
}

type Item struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type Order struct {
	ID            types.ID    `json:"id"`
	Status        Status      `json:"status"`
	Restaurant    Restaurant  `json:"restaurant"`
	Customer      Customer    `json:"customer"`
	Items         []Item      `json:"items"`
	DistanceKm    float64     `json:"distance_km"`
	EstimatedTime string      `json:"estimated_time"`
	Earnings      types.Money `json:"earnings"`
	PaymentType   PaymentType `json:"payment_type"`
	CreatedAt     time.Time   `json:"created_at"`
}

// Event is one committed status change.
type Event struct {
	ID         string
	OrderID    types.ID
	FromStatus Status
	ToStatus   Status
	Actor      string
	CreatedAt  time.Time
}

const (
	ActorPartner = "partner"
	ActorTimer   = "timer"
	ActorSystem  = "system"
)

// AllowedTransitions represents the order state flow (diagram) as code.
var AllowedTransitions = map[Status][]Status{
	StatusNone:     {StatusPending},
	StatusPending:  {StatusAccepted, StatusCancelled},
	StatusAccepted: {StatusPickedUp},
	StatusPickedUp: {StatusOnTheWay},
	StatusOnTheWay: {StatusDelivered},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// Next returns the status advance() moves to from s.
func Next(s Status) (Status, bool) {
	switch s {
	case StatusAccepted:
		return StatusPickedUp, true
	case StatusPickedUp:
		return StatusOnTheWay, true
	case StatusOnTheWay:
		return StatusDelivered, true
	}
	return "", false
}

func IsActive(s Status) bool {
	return s == StatusAccepted || s == StatusPickedUp || s == StatusOnTheWay
}

func IsFinal(s Status) bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CurrentStep maps a status to the 3-stage progress index shown while delivering.
func CurrentStep(s Status) int {
	switch s {
	case StatusAccepted:
		return 1
	case StatusPickedUp, StatusOnTheWay:
		return 2
	case StatusDelivered:
		return 3
	}
	return 0
}

// ActionLabel is the caption of the button that advances an order in status s.
func ActionLabel(s Status) string {
	switch s {
	case StatusAccepted:
		return "Mark as Picked Up"
	case StatusPickedUp:
		return "Start Delivery"
	case StatusOnTheWay:
		return "Order Delivered"
	}
	return ""
}

// Validate checks the fields an offer needs before it can be shown.
func (o *Order) Validate() error {
	if o == nil || o.ID == "" || len(o.Items) == 0 {
		return ErrBadRequest
	}
	for _, it := range o.Items {
		if it.Quantity <= 0 {
			return ErrBadRequest
		}
	}
	return nil
}

// Clone returns a deep copy.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	if o.Items != nil {
		c.Items = make([]Item, len(o.Items))
		copy(c.Items, o.Items)
	}
	return &c
}
