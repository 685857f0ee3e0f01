// README: Pricing service computes the courier payout for a delivery.
package pricing

import (
	"math"
	"time"

	"courier/internal/types"
)

type Service struct {
	rate Rate
}

func NewService(rate Rate) *Service {
	if rate.StepKm <= 0 {
		rate = DefaultRate
	}
	return &Service{rate: rate}
}

// Calculate returns the payout and its breakdown. Peak windows follow the
// lunch (12-2 PM) and dinner (7-9 PM) rush in RequestTime's location.
func (s *Service) Calculate(req PricingRequest) PricingResult {
	r := s.rate
	breakdown := map[string]int64{"base": r.BaseFee}
	total := r.BaseFee

	if excess := req.DistanceKm - r.BaseKm; excess > 0 {
		steps := int64(math.Ceil(excess/r.StepKm - 1e-9))
		breakdown["distance"] = steps * r.PerStep
		total += steps * r.PerStep
	}
	if IsPeak(req.RequestTime.Hour()) {
		breakdown["peak"] = r.PeakBonus
		total += r.PeakBonus
	}
	switch req.Weather {
	case "rain":
		breakdown["weather"] = r.WeatherBonus
		total += r.WeatherBonus
	case "heavy_rain":
		breakdown["weather"] = 2 * r.WeatherBonus
		total += 2 * r.WeatherBonus
	}
	return PricingResult{TotalAmount: total, Currency: r.Currency, Breakdown: breakdown}
}

// Estimate is the fair-weather payout for distanceKm at t.
func (s *Service) Estimate(distanceKm float64, t time.Time) types.Money {
	res := s.Calculate(PricingRequest{DistanceKm: distanceKm, RequestTime: t, Weather: "normal"})
	return types.Money{Amount: res.TotalAmount, Currency: res.Currency}
}

func IsPeak(hour int) bool {
	return (hour >= 12 && hour < 14) || (hour >= 19 && hour < 21)
}
