package maps

import (
	"context"
	"errors"
	"fmt"

	"googlemaps.github.io/maps"

	"courier/internal/types"
)

var ErrNoMatch = errors.New("address not found")

// PlacesService resolves free-form addresses to coordinates.
type PlacesService struct {
	client *maps.Client
	region string
}

// NewPlacesService creates a new PlacesService with the given API Key.
func NewPlacesService(apiKey, region string) (*PlacesService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &PlacesService{client: client, region: region}, nil
}

// Locate geocodes an address. Orders from the platform sometimes carry only
// the text address of the drop point.
func (s *PlacesService) Locate(ctx context.Context, address string) (types.Point, error) {
	if address == "" {
		return types.Point{}, ErrNoMatch
	}
	results, err := s.client.Geocode(ctx, &maps.GeocodingRequest{
		Address: address,
		Region:  s.region,
	})
	if err != nil {
		return types.Point{}, fmt.Errorf("geocoding api error: %w", err)
	}
	if len(results) == 0 {
		return types.Point{}, ErrNoMatch
	}
	loc := results[0].Geometry.Location
	return types.Point{Lat: loc.Lat, Lng: loc.Lng}, nil
}
