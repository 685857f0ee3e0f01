// README: Position held by the tracker and the raw samples fed into it.
package location

import (
	"errors"
	"time"

	"courier/internal/types"
)

var ErrInvalidPosition = errors.New("invalid position")

// Position is the most recent known location. Only the latest value is kept.
type Position struct {
	types.Point
	AccuracyM float64   `json:"accuracy_m,omitempty"`
	Simulated bool      `json:"simulated"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Sample is one reading from the device feed.
type Sample struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	AccuracyM float64   `json:"accuracy_m"`
	Timestamp time.Time `json:"timestamp"`
}

func (s Sample) Point() types.Point {
	return types.Point{Lat: s.Lat, Lng: s.Lng}
}
