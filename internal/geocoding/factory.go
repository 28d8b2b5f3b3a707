package geocoding

import (
	"errors"
	"fmt"

	"github.com/vzahanych/weather-ph/internal/config"
	"go.uber.org/zap"
	"googlemaps.github.io/maps"
)

// ProviderType names a reverse geocoding backend.
type ProviderType string

const (
	ProviderTypeNominatim ProviderType = "nominatim"
	ProviderTypeGoogle    ProviderType = "google"
	ProviderTypeGazetteer ProviderType = "gazetteer"
)

// NewReverseProvider builds the reverse geocoder selected in cfg.
func NewReverseProvider(cfg config.GeocodingConfig, g *Gazetteer, log *zap.Logger) (ReverseProvider, error) {
	switch ProviderType(cfg.Reverse) {
	case ProviderTypeNominatim:
		return NewNominatimProvider(cfg.BaseURL, cfg.UserAgent, log), nil
	case ProviderTypeGoogle:
		return newGoogleProvider(cfg, log)
	case ProviderTypeGazetteer:
		if cfg.RadiusKm <= 0 {
			return nil, errors.New("radius_km must be positive for the gazetteer provider")
		}
		return NewGazetteerReverse(g, cfg.RadiusKm), nil
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", cfg.Reverse)
	}
}

func newGoogleProvider(cfg config.GeocodingConfig, log *zap.Logger) (ReverseProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("API key is required for Google provider")
	}

	clientOpts := []maps.ClientOption{
		maps.WithAPIKey(cfg.APIKey),
	}
	if cfg.RateLimit > 0 {
		clientOpts = append(clientOpts, maps.WithRateLimit(cfg.RateLimit))
	}

	client, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return NewGoogleProvider(client, log), nil
}
