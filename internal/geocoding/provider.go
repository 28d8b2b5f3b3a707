// Package geocoding resolves city names through a static gazetteer and
// coordinates through a reverse geocoding provider.
package geocoding

import (
	"context"
	"errors"
)

// ErrNoResult is returned by reverse providers that found no place name.
var ErrNoResult = errors.New("reverse geocoding returned no result")

// ReverseProvider converts a coordinate pair into a human-readable place name.
type ReverseProvider interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
}
