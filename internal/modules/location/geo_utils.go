// README: Pure geographic helpers: haversine distance, travel time and distance formatting.
package location

import (
	"fmt"
	"math"

	"courier/internal/types"
)

const (
	earthRadiusKm = 6371.0
	// AverageSpeedKmh is the riding speed assumed when no routing service is available.
	AverageSpeedKmh = 20.0
)

// haversineKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees.
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLng := degreesToRadians(lng2 - lng1)

	rLat1 := degreesToRadians(lat1)
	rLat2 := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func DistanceKm(a, b types.Point) float64 {
	return haversineKm(a.Lat, a.Lng, b.Lat, b.Lng)
}

// MoveTowards returns the point a fraction of the way from `from` to `to`,
// interpolating linearly in degrees. Fraction is clamped to [0, 1].
func MoveTowards(from, to types.Point, fraction float64) types.Point {
	fraction = math.Max(0, math.Min(1, fraction))
	return types.Point{
		Lat: from.Lat + (to.Lat-from.Lat)*fraction,
		Lng: from.Lng + (to.Lng-from.Lng)*fraction,
	}
}

// TravelMinutes is the riding time for km at AverageSpeedKmh, rounded to the
// nearest minute.
func TravelMinutes(km float64) int {
	if km <= 0 {
		return 0
	}
	return int(math.Round(km * 60 / AverageSpeedKmh))
}

// EstimateTravelTime renders TravelMinutes as "12 min" or "1h 5min".
func EstimateTravelTime(km float64) string {
	return formatMinutes(TravelMinutes(km))
}

func formatMinutes(m int) string {
	if m < 60 {
		return fmt.Sprintf("%d min", m)
	}
	return fmt.Sprintf("%dh %dmin", m/60, m%60)
}

// FormatDistance renders metres below 1 km and one decimal of km above.
func FormatDistance(km float64) string {
	if km < 1 {
		return fmt.Sprintf("%d m", int(math.Round(km*1000)))
	}
	return fmt.Sprintf("%.1f km", km)
}
