package location

import (
	"fmt"

	"github.com/vzahanych/weather-ph/internal/config"
	"github.com/vzahanych/weather-ph/internal/metrics"
	"go.uber.org/zap"
)

func NewProvider(cfg config.LocationConfig, http DocumentFetcher, logger *zap.Logger, m *metrics.Metrics) (Provider, error) {
	switch cfg.Provider {
	case "static":
		if !cfg.HasFix {
			return NewStaticProvider(nil), nil
		}
		return NewStaticProvider(&Fix{
			Latitude:  cfg.Latitude,
			Longitude: cfg.Longitude,
			Source:    "static",
		}), nil
	case "ip-api":
		return NewIPAPIProvider(cfg.BaseURL, http, logger, m), nil
	default:
		return nil, fmt.Errorf("unsupported location provider: %s", cfg.Provider)
	}
}

func NewSettings(cfg config.LocationConfig) StaticSettings {
	return StaticSettings{Enabled: cfg.ServiceEnabled, Granted: cfg.PermissionGranted}
}
