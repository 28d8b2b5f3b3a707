// Package job implements the periodic background weather notification.
package job

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vzahanych/weather-ph/internal/location"
	"github.com/vzahanych/weather-ph/internal/metrics"
	"github.com/vzahanych/weather-ph/internal/models"
	"github.com/vzahanych/weather-ph/internal/notify"
	"github.com/vzahanych/weather-ph/internal/prefs"
	"github.com/vzahanych/weather-ph/internal/weather"
	"github.com/vzahanych/weather-ph/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	DefaultCity       = "Manila"
	defaultFixTimeout = 15 * time.Second

	// fallbackLocationName labels a fix that reverse geocoding could not name.
	fallbackLocationName = "Your Location"
)

var (
	ErrNoFix          = errors.New("no location fix available")
	ErrFixTimeout     = errors.New("timed out waiting for a location fix")
	ErrLocationFailed = errors.New("location provider failed")
)

// Geocoder is satisfied by *geocoding.Resolver.
type Geocoder interface {
	ResolveByName(name string) (models.Location, error)
	ResolveByCoordinates(ctx context.Context, lat, lon float64) (string, bool)
}

type Deps struct {
	Geocoder    Geocoder
	Weather     weather.Fetcher
	Location    location.Provider
	Settings    location.Settings
	Prefs       prefs.Store
	Notifier    notify.Notifier
	Logger      *zap.Logger
	Tele        *telemetry.Telemetry
	Metrics     *metrics.Metrics
	FixTimeout  time.Duration
	DefaultCity string
}

// Job fetches the weather for the device position when location is usable,
// otherwise for the last searched city, and enqueues one notification.
// It never retries: the scheduler decides when to run again.
type Job struct {
	geocoder    Geocoder
	weather     weather.Fetcher
	location    location.Provider
	settings    location.Settings
	prefs       prefs.Store
	notifier    notify.Notifier
	logger      *zap.Logger
	tele        *telemetry.Telemetry
	metrics     *metrics.Metrics
	fixTimeout  time.Duration
	defaultCity string
}

func New(deps Deps) *Job {
	j := &Job{
		geocoder:    deps.Geocoder,
		weather:     deps.Weather,
		location:    deps.Location,
		settings:    deps.Settings,
		prefs:       deps.Prefs,
		notifier:    deps.Notifier,
		logger:      deps.Logger.With(zap.String("component", "notification_job")),
		tele:        deps.Tele,
		metrics:     deps.Metrics,
		fixTimeout:  deps.FixTimeout,
		defaultCity: strings.TrimSpace(deps.DefaultCity),
	}
	if j.fixTimeout <= 0 {
		j.fixTimeout = defaultFixTimeout
	}
	if j.defaultCity == "" {
		j.defaultCity = DefaultCity
	}
	return j
}

// Run performs one job execution. A nil error means exactly one payload was
// handed to the notifier.
func (j *Job) Run(ctx context.Context) (err error) {
	source := "last_city"
	if j.settings.LocationEnabled() && j.settings.PermissionGranted() {
		source = "gps"
	}

	ctx, end := j.tele.StartSpan(ctx, "job.Run", attribute.String("source", source))
	defer func() { end(err) }()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notification job panicked: %v", r)
			j.logger.Error("Notification job panicked", zap.Any("recovered", r), zap.Stack("stack"))
		}
		status := "success"
		if err != nil {
			status = "failure"
		}
		j.metrics.RecordJobRun(source, status)
	}()

	var payload models.NotificationPayload
	if source == "gps" {
		payload, err = j.fromCurrentLocation(ctx)
	} else {
		payload, err = j.fromLastCity(ctx)
	}
	if err != nil {
		j.logger.Warn("Notification job failed", zap.String("source", source), zap.Error(err))
		return err
	}

	if err = j.notifier.Enqueue(ctx, payload); err != nil {
		j.logger.Error("Failed to enqueue notification", zap.Error(err))
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}

	j.logger.Info("Notification enqueued",
		zap.String("source", source),
		zap.String("location", payload.LocationName))
	return nil
}

func (j *Job) fromCurrentLocation(ctx context.Context) (models.NotificationPayload, error) {
	fix, err := j.awaitFix(ctx)
	if err != nil {
		return models.NotificationPayload{}, err
	}

	rec, err := j.weather.GetWeather(ctx, fix.Latitude, fix.Longitude)
	if err != nil {
		return models.NotificationPayload{}, err
	}

	name, ok := j.geocoder.ResolveByCoordinates(ctx, fix.Latitude, fix.Longitude)
	if !ok {
		name = fallbackLocationName
	}

	return models.NewNotificationPayload(name, rec), nil
}

// awaitFix waits at most fixTimeout for the provider's single result.
func (j *Job) awaitFix(ctx context.Context) (*location.Fix, error) {
	ctx, cancel := context.WithTimeout(ctx, j.fixTimeout)
	defer cancel()

	select {
	case res := <-j.location.CurrentLocation(ctx, location.AccuracyHigh):
		if res.Err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLocationFailed, res.Err)
		}
		if res.Fix == nil {
			return nil, ErrNoFix
		}
		if _, err := models.NewLocation(fallbackLocationName, res.Fix.Latitude, res.Fix.Longitude); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoFix, err)
		}
		return res.Fix, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w after %s", ErrFixTimeout, j.fixTimeout)
	}
}

func (j *Job) fromLastCity(ctx context.Context) (models.NotificationPayload, error) {
	city := j.defaultCity
	if j.prefs != nil {
		stored, err := j.prefs.GetString(ctx, prefs.KeyLastCity, j.defaultCity)
		if err != nil {
			j.logger.Warn("Could not read last city, using default", zap.Error(err))
		} else if strings.TrimSpace(stored) != "" {
			city = stored
		}
	}

	loc, err := j.geocoder.ResolveByName(city)
	if err != nil {
		return models.NotificationPayload{}, fmt.Errorf("resolve %q: %w", city, err)
	}

	rec, err := j.weather.GetWeather(ctx, loc.Latitude(), loc.Longitude())
	if err != nil {
		return models.NotificationPayload{}, err
	}

	return models.NewNotificationPayload(loc.Name(), rec), nil
}
