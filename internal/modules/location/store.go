// README: Telemetry sinks: platform backend and Redis GEO.
package location

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"courier/internal/types"
)

const (
	courierGeoKey  = "couriers:geo"
	lastSeenPrefix = "couriers:%s:last_seen"
	lastSeenTTL    = 10 * time.Minute
)

// Uploader is the platform endpoint that takes the courier's position.
type Uploader interface {
	UpdateLocation(ctx context.Context, p types.Point) error
}

type BackendSink struct {
	api Uploader
}

func NewBackendSink(api Uploader) *BackendSink {
	return &BackendSink{api: api}
}

func (s *BackendSink) Name() string { return "backend" }

func (s *BackendSink) Push(ctx context.Context, pos Position) error {
	return s.api.UpdateLocation(ctx, pos.Point)
}

// RedisSink keeps the courier in a GEO set so dispatch can query nearby couriers.
type RedisSink struct {
	redis     *redis.Client
	partnerID types.ID
}

func NewRedisSink(redis *redis.Client, partnerID types.ID) *RedisSink {
	return &RedisSink{redis: redis, partnerID: partnerID}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Push(ctx context.Context, pos Position) error {
	pipe := s.redis.Pipeline()
	pipe.GeoAdd(ctx, courierGeoKey, &redis.GeoLocation{
		Name:      string(s.partnerID),
		Longitude: pos.Lng,
		Latitude:  pos.Lat,
	})
	pipe.Set(ctx, lastSeenKey(s.partnerID), pos.UpdatedAt.UTC().Format(time.RFC3339), lastSeenTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// Remove drops the courier from the GEO set, e.g. when going offline.
func (s *RedisSink) Remove(ctx context.Context) error {
	pipe := s.redis.Pipeline()
	pipe.ZRem(ctx, courierGeoKey, string(s.partnerID))
	pipe.Del(ctx, lastSeenKey(s.partnerID))
	_, err := pipe.Exec(ctx)
	return err
}

// Nearby lists courier ids within radiusKm of p, closest first.
func (s *RedisSink) Nearby(ctx context.Context, p types.Point, radiusKm float64) ([]types.ID, error) {
	results, err := s.redis.GeoSearch(ctx, courierGeoKey, &redis.GeoSearchQuery{
		Longitude:  p.Lng,
		Latitude:   p.Lat,
		Radius:     radiusKm,
		RadiusUnit: "km",
		Sort:       "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]types.ID, len(results))
	for i, r := range results {
		ids[i] = types.ID(r)
	}
	return ids, nil
}

func lastSeenKey(id types.ID) string {
	return fmt.Sprintf(lastSeenPrefix, string(id))
}
