// README: Platform order records and their mapping onto the local order model.
package backend

import (
	"strings"
	"time"

	"courier/internal/modules/location"
	"courier/internal/modules/order"
	"courier/internal/types"
)

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

type locationRecord struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (l *locationRecord) point() types.Point {
	if l == nil {
		return types.Point{}
	}
	return types.Point{Lat: l.Latitude, Lng: l.Longitude}
}

type OrderRecord struct {
	ID   string `json:"_id"`
	User struct {
		ID    string `json:"_id"`
		Name  string `json:"name"`
		Phone string `json:"phone"`
	} `json:"user"`
	Restaurant struct {
		Name     string          `json:"name"`
		Address  string          `json:"address"`
		Phone    string          `json:"phone"`
		Location *locationRecord `json:"location,omitempty"`
	} `json:"restaurant"`
	Items []struct {
		Food struct {
			Name  string  `json:"name"`
			Price float64 `json:"price"`
		} `json:"food"`
		Quantity int     `json:"quantity"`
		Price    float64 `json:"price"`
	} `json:"items"`
	DeliveryAddress struct {
		FullAddress string          `json:"fullAddress"`
		Landmark    string          `json:"landmark"`
		Location    *locationRecord `json:"location,omitempty"`
	} `json:"deliveryAddress"`
	Status                string    `json:"status"`
	PaymentMethod         string    `json:"paymentMethod"`
	DeliveryFee           float64   `json:"deliveryFee"`
	TotalAmount           float64   `json:"totalAmount"`
	Distance              float64   `json:"distance"`
	EstimatedDeliveryTime string    `json:"estimatedDeliveryTime"`
	CreatedAt             time.Time `json:"createdAt"`
}

// MapStatus folds the platform's kitchen-side statuses into the courier
// lifecycle. An assigned order the courier has not collected yet is accepted.
func MapStatus(s string) order.Status {
	switch s {
	case "pending", "confirmed", "preparing", "ready_for_pickup", "accepted":
		return order.StatusAccepted
	case "picked_up":
		return order.StatusPickedUp
	case "on_the_way", "delivering":
		return order.StatusOnTheWay
	case "delivered":
		return order.StatusDelivered
	case "cancelled":
		return order.StatusCancelled
	}
	return order.StatusNone
}

func mapPayment(m string) order.PaymentType {
	switch strings.ToLower(m) {
	case "card", "upi", "online":
		return order.PaymentOnline
	}
	return order.PaymentCash
}

// MapOrder flattens a platform record. Absent fields stay empty; now stands
// in for a missing creation time. Distance and ETA are derived from the
// coordinates when the platform leaves them out.
func MapOrder(rec OrderRecord, now time.Time) *order.Order {
	o := &order.Order{
		ID:     types.ID(rec.ID),
		Status: MapStatus(rec.Status),
		Restaurant: order.Restaurant{
			Name:    rec.Restaurant.Name,
			Address: rec.Restaurant.Address,
			Pickup:  rec.Restaurant.Location.point(),
		},
		Customer: order.Customer{
			Name:    rec.User.Name,
			Address: rec.DeliveryAddress.FullAddress,
			Phone:   rec.User.Phone,
			Drop:    rec.DeliveryAddress.Location.point(),
		},
		DistanceKm:    rec.Distance,
		EstimatedTime: rec.EstimatedDeliveryTime,
		Earnings:      types.FromMajor(rec.DeliveryFee, ""),
		PaymentType:   mapPayment(rec.PaymentMethod),
		CreatedAt:     rec.CreatedAt,
	}
	if rec.DeliveryAddress.Landmark != "" {
		if o.Customer.Address != "" {
			o.Customer.Address += ", "
		}
		o.Customer.Address += rec.DeliveryAddress.Landmark
	}
	for _, it := range rec.Items {
		o.Items = append(o.Items, order.Item{Name: it.Food.Name, Quantity: it.Quantity})
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	if o.DistanceKm <= 0 && !o.Restaurant.Pickup.IsZero() && !o.Customer.Drop.IsZero() {
		o.DistanceKm = location.DistanceKm(o.Restaurant.Pickup, o.Customer.Drop)
	}
	if o.EstimatedTime == "" && o.DistanceKm > 0 {
		o.EstimatedTime = location.EstimateTravelTime(o.DistanceKm)
	}
	return o
}

func mapOrders(recs []OrderRecord, now time.Time) []*order.Order {
	out := make([]*order.Order, 0, len(recs))
	for _, r := range recs {
		if r.ID == "" {
			continue
		}
		out = append(out, MapOrder(r, now))
	}
	return out
}
