// Package weather maps provider responses into models.WeatherRecord.
package weather

import (
	"context"
	"errors"
	"fmt"

	"github.com/vzahanych/weather-ph/internal/config"
	"github.com/vzahanych/weather-ph/internal/httpfetch"
	"github.com/vzahanych/weather-ph/internal/metrics"
	"github.com/vzahanych/weather-ph/internal/models"
	"github.com/vzahanych/weather-ph/pkg/telemetry"
	"go.uber.org/zap"
)

// ErrFetchFailed wraps every failure returned by GetWeather.
var ErrFetchFailed = errors.New("weather fetch failed")

type Fetcher interface {
	GetWeather(ctx context.Context, lat, lon float64) (models.WeatherRecord, error)
	Name() string
}

// DocumentFetcher is satisfied by *httpfetch.Fetcher.
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) (httpfetch.Document, error)
}

// Deps are shared by all providers.
type Deps struct {
	HTTP    DocumentFetcher
	Logger  *zap.Logger
	Tele    *telemetry.Telemetry
	Metrics *metrics.Metrics
}

// NewFetcher creates the provider named by cfg.Type.
func NewFetcher(cfg config.WeatherServiceConfig, deps Deps) (Fetcher, error) {
	switch cfg.Type {
	case "open-meteo":
		return NewOpenMeteoServiceWithConfig(cfg, deps), nil
	case "weather-api":
		if cfg.APIKey == "" {
			return nil, errors.New("weather-api requires an API key")
		}
		return NewWeatherAPIServiceWithConfig(cfg, deps), nil
	default:
		return nil, fmt.Errorf("unknown weather service type: %s", cfg.Type)
	}
}

func fetchFailed(err error) error {
	return fmt.Errorf("%w: %w", ErrFetchFailed, err)
}
