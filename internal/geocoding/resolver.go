package geocoding

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/vzahanych/weather-ph/internal/metrics"
	"github.com/vzahanych/weather-ph/internal/models"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a name is absent from the gazetteer.
var ErrNotFound = errors.New("location not found")

type Resolver struct {
	gazetteer *Gazetteer
	reverse   ReverseProvider
	log       *zap.Logger
	metrics   *metrics.Metrics
}

func NewResolver(g *Gazetteer, reverse ReverseProvider, log *zap.Logger, m *metrics.Metrics) *Resolver {
	return &Resolver{gazetteer: g, reverse: reverse, log: log, metrics: m}
}

// ResolveByName looks the name up in the gazetteer.
func (r *Resolver) ResolveByName(name string) (models.Location, error) {
	loc, ok := r.gazetteer.Lookup(name)
	if !ok {
		return models.Location{}, ErrNotFound
	}
	return loc, nil
}

// ResolveByCoordinates returns a display name, or ok=false when the provider
// has nothing. Provider errors are logged and treated as "unknown".
func (r *Resolver) ResolveByCoordinates(ctx context.Context, lat, lon float64) (string, bool) {
	if r.reverse == nil {
		return "", false
	}

	started := time.Now()
	name, err := r.reverse.ReverseGeocode(ctx, lat, lon)
	r.metrics.ObserveUpstream("reverse-geocoding", started)
	if err != nil {
		if !errors.Is(err, ErrNoResult) {
			r.log.Warn("Reverse geocoding failed",
				zap.Float64("lat", lat),
				zap.Float64("lon", lon),
				zap.Error(err))
		}
		return "", false
	}

	name = strings.TrimSpace(name)
	return name, name != ""
}

// Names lists the canonical names of the gazetteer.
func (r *Resolver) Names() []string {
	return r.gazetteer.Names()
}
