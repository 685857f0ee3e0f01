// README: Payout rate definition for a delivery.
package pricing

import "time"

type Rate struct {
	BaseFee      int64   // minor units
	BaseKm       float64 // distance covered by BaseFee
	StepKm       float64
	PerStep      int64
	PeakBonus    int64
	WeatherBonus int64
	Currency     string
}

// DefaultRate pays ₹85 for the first 2 km and ₹5 per started 0.5 km after that.
var DefaultRate = Rate{
	BaseFee:      8500,
	BaseKm:       2,
	StepKm:       0.5,
	PerStep:      500,
	PeakBonus:    1000,
	WeatherBonus: 1500,
	Currency:     "INR",
}

type PricingRequest struct {
	DistanceKm  float64
	RequestTime time.Time
	Weather     string // "rain", "heavy_rain", "normal"
}

type PricingResult struct {
	TotalAmount int64
	Currency    string
	Breakdown   map[string]int64
}
