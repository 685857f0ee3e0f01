// README: Demo offer generator: the three canned Noida orders plus faker-built variations.
package demo

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/jaswdr/faker"
	"github.com/lucsky/cuid"

	"courier/internal/modules/location"
	"courier/internal/modules/order"
	"courier/internal/modules/pricing"
	"courier/internal/types"
)

// Center is the middle of the demo delivery area (Sector 18, Noida).
var Center = types.Point{Lat: 28.5355, Lng: 77.3910}

var templates = []order.Order{
	{
		Restaurant: order.Restaurant{Name: "Spice Garden", Address: "Shop 12, Sector 18, Noida", Pickup: types.Point{Lat: 28.5355, Lng: 77.3910}},
		Customer:   order.Customer{Name: "Rahul Sharma", Address: "B-204, Palm Greens, Sector 22, Noida", Phone: "+91 98765 43210", Drop: types.Point{Lat: 28.5470, Lng: 77.4010}},
		Items:      []order.Item{{Name: "Chicken Biryani", Quantity: 2}, {Name: "Raita", Quantity: 1}},
		DistanceKm: 3.2, EstimatedTime: "25 min", Earnings: types.INR(8500), PaymentType: order.PaymentOnline,
	},
	{
		Restaurant: order.Restaurant{Name: "Pizza Paradise", Address: "GF-34, Mall Road, Noida", Pickup: types.Point{Lat: 28.5380, Lng: 77.3950}},
		Customer:   order.Customer{Name: "Priya Verma", Address: "A-101, Sky Heights, Sector 15, Noida", Phone: "+91 87654 32109", Drop: types.Point{Lat: 28.5510, Lng: 77.4050}},
		Items:      []order.Item{{Name: "Margherita Pizza", Quantity: 1}, {Name: "Garlic Bread", Quantity: 1}},
		DistanceKm: 2.8, EstimatedTime: "20 min", Earnings: types.INR(9500), PaymentType: order.PaymentCash,
	},
	{
		Restaurant: order.Restaurant{Name: "Burger Junction", Address: "Shop 5, Food Court, Sector 16, Noida", Pickup: types.Point{Lat: 28.5400, Lng: 77.3980}},
		Customer:   order.Customer{Name: "Amit Patel", Address: "C-302, Green Valley, Sector 19, Noida", Phone: "+91 76543 21098", Drop: types.Point{Lat: 28.5550, Lng: 77.4100}},
		Items:      []order.Item{{Name: "Classic Burger", Quantity: 3}, {Name: "Fries", Quantity: 2}, {Name: "Coke", Quantity: 3}},
		DistanceKm: 4.5, EstimatedTime: "30 min", Earnings: types.INR(11000), PaymentType: order.PaymentOnline,
	},
}

var (
	kitchens = []string{"Tandoori Nights", "Curry House", "Wok Express", "Dosa Corner", "Chaat Bazaar", "Kebab Factory"}
	dishes   = []string{"Paneer Tikka", "Butter Chicken", "Veg Hakka Noodles", "Masala Dosa", "Pav Bhaji", "Dal Makhani", "Naan", "Gulab Jamun", "Lassi"}
	sectors  = []int{12, 15, 16, 18, 19, 22, 27, 29, 32, 50, 62}
)

// Config tunes the generator. With Synthetic false only the canned orders
// are produced, in rotation.
type Config struct {
	Synthetic bool
	RadiusKm  float64
}

type Generator struct {
	cfg     Config
	fake    faker.Faker
	pricing *pricing.Service

	mu     sync.Mutex
	next   int
	lastMs int64
}

func NewGenerator(cfg Config, p *pricing.Service) *Generator {
	if cfg.RadiusKm <= 0 {
		cfg.RadiusKm = 3
	}
	if p == nil {
		p = pricing.NewService(pricing.DefaultRate)
	}
	return &Generator{cfg: cfg, fake: faker.New(), pricing: p}
}

// Next builds a fresh offer created at now.
func (g *Generator) Next(now time.Time) *order.Order {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.next
	g.next++

	var o *order.Order
	if !g.cfg.Synthetic || i < len(templates) {
		o = templates[i%len(templates)].Clone()
	} else {
		o = g.synthetic(now)
	}
	o.ID = g.idLocked(now)
	o.Status = order.StatusPending
	o.CreatedAt = now
	return o
}

// NextOffer lets the generator stand in for the platform's offer feed.
func (g *Generator) NextOffer(ctx context.Context) (*order.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return g.Next(time.Now()), nil
}

// idLocked keeps the ORD<millis> shape and falls back to a cuid when two
// offers land in the same millisecond.
func (g *Generator) idLocked(now time.Time) types.ID {
	ms := now.UnixMilli()
	if ms == g.lastMs {
		return types.ID("ORD" + cuid.New())
	}
	g.lastMs = ms
	return types.ID(fmt.Sprintf("ORD%d", ms))
}

func (g *Generator) synthetic(now time.Time) *order.Order {
	f := g.fake
	pickup := g.scatter(Center)
	drop := g.scatter(pickup)
	km := location.DistanceKm(pickup, drop)

	n := f.IntBetween(1, 3)
	items := make([]order.Item, 0, n)
	seen := map[string]bool{}
	for len(items) < n {
		name := f.RandomStringElement(dishes)
		if seen[name] {
			continue
		}
		seen[name] = true
		items = append(items, order.Item{Name: name, Quantity: f.IntBetween(1, 3)})
	}

	payment := order.PaymentOnline
	if f.Bool() {
		payment = order.PaymentCash
	}
	return &order.Order{
		Restaurant: order.Restaurant{
			Name:    f.RandomStringElement(kitchens),
			Address: fmt.Sprintf("%s, Sector %d, Noida", f.Address().StreetAddress(), sectors[f.IntBetween(0, len(sectors)-1)]),
			Pickup:  pickup,
		},
		Customer: order.Customer{
			Name:    f.Person().Name(),
			Address: fmt.Sprintf("%s, Sector %d, Noida", f.Address().StreetAddress(), sectors[f.IntBetween(0, len(sectors)-1)]),
			Phone:   f.Phone().Number(),
			Drop:    drop,
		},
		Items:         items,
		DistanceKm:    math.Round(km*10) / 10,
		EstimatedTime: location.EstimateTravelTime(km),
		Earnings:      g.pricing.Estimate(km, now),
		PaymentType:   payment,
	}
}

// scatter picks a point up to RadiusKm away from p.
func (g *Generator) scatter(p types.Point) types.Point {
	bearing := g.fake.Float64(4, 0, 360) * math.Pi / 180
	dist := g.fake.Float64(3, 0, 1000) / 1000 * g.cfg.RadiusKm
	dLat := dist / 111.32 * math.Cos(bearing)
	dLng := dist / (111.32 * math.Cos(p.Lat*math.Pi/180)) * math.Sin(bearing)
	return types.Point{Lat: p.Lat + dLat, Lng: p.Lng + dLng}
}

// Publisher receives generated offers, e.g. the simulated backend.
type Publisher interface {
	Publish(o *order.Order)
}

// Feed publishes a new offer every interval until ctx is done.
func (g *Generator) Feed(ctx context.Context, pub Publisher, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			pub.Publish(g.Next(now))
		}
	}
}
