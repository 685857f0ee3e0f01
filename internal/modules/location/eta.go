// README: ETA from the current position to a target, via a routing service or straight-line fallback.
package location

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"courier/internal/types"
)

var ErrNoPosition = errors.New("position unknown")

const (
	SourceRouting   = "routing"
	SourceHaversine = "haversine"
)

// Router estimates road travel between two points; km is the route length.
type Router interface {
	Estimate(ctx context.Context, from, to types.Point) (time.Duration, float64, error)
}

type ETA struct {
	DistanceKm float64 `json:"distance_km"`
	Distance   string  `json:"distance"`
	Minutes    int     `json:"minutes"`
	Duration   string  `json:"duration"`
	Source     string  `json:"source"`
}

type ETAService struct {
	tracker *Tracker
	router  Router
	log     *slog.Logger
}

// NewETAService builds the estimator. router may be nil.
func NewETAService(tracker *Tracker, router Router, log *slog.Logger) *ETAService {
	if log == nil {
		log = slog.Default()
	}
	return &ETAService{tracker: tracker, router: router, log: log.With("module", "location.eta")}
}

// To estimates travel from the tracked position to target.
func (s *ETAService) To(ctx context.Context, target types.Point) (ETA, error) {
	pos, ok := s.tracker.Position()
	if !ok {
		return ETA{}, ErrNoPosition
	}
	return s.Between(ctx, pos.Point, target)
}

// Between prefers the router and falls back to haversine at AverageSpeedKmh
// when it is missing or fails.
func (s *ETAService) Between(ctx context.Context, from, to types.Point) (ETA, error) {
	if !from.Valid() || !to.Valid() {
		return ETA{}, ErrInvalidPosition
	}
	if s.router != nil {
		d, km, err := s.router.Estimate(ctx, from, to)
		if err == nil {
			mins := int(math.Round(d.Minutes()))
			return ETA{
				DistanceKm: km,
				Distance:   FormatDistance(km),
				Minutes:    mins,
				Duration:   formatMinutes(mins),
				Source:     SourceRouting,
			}, nil
		}
		s.log.Warn("routing estimate failed, using straight line", "error", err)
	}
	km := DistanceKm(from, to)
	return ETA{
		DistanceKm: km,
		Distance:   FormatDistance(km),
		Minutes:    TravelMinutes(km),
		Duration:   EstimateTravelTime(km),
		Source:     SourceHaversine,
	}, nil
}
