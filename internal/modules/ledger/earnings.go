// README: Earnings projections. Pure functions over ledger entries and an explicit clock.
package ledger

import (
	"sort"
	"time"

	"courier/internal/modules/order"
	"courier/internal/types"
)

const (
	WeekDays           = 7
	DefaultHistoryDays = 7
	HistoryDateLayout  = "Jan 2, 2006"
)

type DayBucket struct {
	Label  string      `json:"day"`
	Date   time.Time   `json:"date"`
	Amount types.Money `json:"amount"`
}

type DateGroup struct {
	Date   string      `json:"date"`
	Day    time.Time   `json:"-"`
	Total  types.Money `json:"amount"`
	Orders int         `json:"orders"`
}

type Summary struct {
	Today          types.Money `json:"today"`
	TodayOrders    int         `json:"today_orders"`
	Week           types.Money `json:"week"`
	Weekly         []DayBucket `json:"weekly"`
	History        []DateGroup `json:"history"`
	TotalCompleted int         `json:"total_completed"`
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func delivered(o order.Order) bool {
	return o.Status == order.StatusDelivered
}

// TodayEarnings sums delivered orders created on now's calendar day.
func TodayEarnings(orders []order.Order, now time.Time) types.Money {
	total := types.INR(0)
	for _, o := range orders {
		if delivered(o) && sameDay(o.CreatedAt.In(now.Location()), now) {
			total = total.Add(o.Earnings)
		}
	}
	return total
}

func TodayCount(orders []order.Order, now time.Time) int {
	n := 0
	for _, o := range orders {
		if delivered(o) && sameDay(o.CreatedAt.In(now.Location()), now) {
			n++
		}
	}
	return n
}

// WeeklySeries returns one bucket per day from six days ago through today.
func WeeklySeries(orders []order.Order, now time.Time) []DayBucket {
	today := startOfDay(now)
	buckets := make([]DayBucket, WeekDays)
	for i := range buckets {
		day := today.AddDate(0, 0, i-(WeekDays-1))
		buckets[i] = DayBucket{Label: day.Weekday().String()[:3], Date: day, Amount: types.INR(0)}
	}
	for _, o := range orders {
		if !delivered(o) {
			continue
		}
		created := o.CreatedAt.In(now.Location())
		for i := range buckets {
			if sameDay(created, buckets[i].Date) {
				buckets[i].Amount = buckets[i].Amount.Add(o.Earnings)
				break
			}
		}
	}
	return buckets
}

func WeekTotal(orders []order.Order, now time.Time) types.Money {
	total := types.INR(0)
	for _, b := range WeeklySeries(orders, now) {
		total = total.Add(b.Amount)
	}
	return total
}

// HistoryByDate groups delivered orders by calendar day in loc, newest first.
// limit <= 0 returns every day.
func HistoryByDate(orders []order.Order, loc *time.Location, limit int) []DateGroup {
	if loc == nil {
		loc = time.Local
	}
	groups := map[time.Time]*DateGroup{}
	for _, o := range orders {
		if !delivered(o) {
			continue
		}
		day := startOfDay(o.CreatedAt.In(loc))
		g, ok := groups[day]
		if !ok {
			g = &DateGroup{Date: day.Format(HistoryDateLayout), Day: day, Total: types.INR(0)}
			groups[day] = g
		}
		g.Total = g.Total.Add(o.Earnings)
		g.Orders++
	}
	out := make([]DateGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.After(out[j].Day) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func TotalCompleted(orders []order.Order) int {
	n := 0
	for _, o := range orders {
		if delivered(o) {
			n++
		}
	}
	return n
}

func Summarize(orders []order.Order, now time.Time) Summary {
	weekly := WeeklySeries(orders, now)
	week := types.INR(0)
	for _, b := range weekly {
		week = week.Add(b.Amount)
	}
	return Summary{
		Today:          TodayEarnings(orders, now),
		TodayOrders:    TodayCount(orders, now),
		Week:           week,
		Weekly:         weekly,
		History:        HistoryByDate(orders, now.Location(), DefaultHistoryDays),
		TotalCompleted: TotalCompleted(orders),
	}
}
