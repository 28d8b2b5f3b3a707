package geocoding

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"
	"googlemaps.github.io/maps"
)

// GoogleProvider reverse geocodes through the Google Maps Geocoding API.
type GoogleProvider struct {
	client GoogleAPIClient
	log    *zap.Logger
}

type GoogleAPIClient interface {
	ReverseGeocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

func NewGoogleProvider(client GoogleAPIClient, log *zap.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, log: log}
}

// ReverseGeocode prefers the locality component of the first result and
// falls back to its formatted address.
func (gp *GoogleProvider) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	gp.log.Debug("Reverse geocoding using Google Maps", zap.Float64("lat", lat), zap.Float64("lon", lon))

	req := &maps.GeocodingRequest{
		LatLng:   &maps.LatLng{Lat: lat, Lng: lon},
		Language: "en",
	}
	results, err := gp.client.ReverseGeocode(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to reverse geocode: %w", err)
	}

	for _, res := range results {
		for _, comp := range res.AddressComponents {
			if slices.Contains(comp.Types, "locality") && comp.LongName != "" {
				return comp.LongName, nil
			}
		}
	}

	if len(results) > 0 && results[0].FormattedAddress != "" {
		return results[0].FormattedAddress, nil
	}

	return "", ErrNoResult
}
