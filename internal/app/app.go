// Package app wires the configured components together for the commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/vzahanych/weather-ph/internal/config"
	"github.com/vzahanych/weather-ph/internal/geocoding"
	"github.com/vzahanych/weather-ph/internal/httpfetch"
	"github.com/vzahanych/weather-ph/internal/job"
	"github.com/vzahanych/weather-ph/internal/location"
	"github.com/vzahanych/weather-ph/internal/metrics"
	"github.com/vzahanych/weather-ph/internal/notify"
	"github.com/vzahanych/weather-ph/internal/orchestrator"
	"github.com/vzahanych/weather-ph/internal/prefs"
	"github.com/vzahanych/weather-ph/internal/scheduler"
	"github.com/vzahanych/weather-ph/internal/server"
	"github.com/vzahanych/weather-ph/internal/server/handlers"
	"github.com/vzahanych/weather-ph/internal/weather"
	"github.com/vzahanych/weather-ph/pkg/telemetry"
	"go.uber.org/zap"
)

type App struct {
	cfg    *config.Config
	logger *zap.Logger
	tele   *telemetry.Telemetry

	Registry     *prometheus.Registry
	Metrics      *metrics.Metrics
	Resolver     *geocoding.Resolver
	Prefs        prefs.Store
	Notifier     *notify.Queue
	Looper       *orchestrator.Looper
	Orchestrator *orchestrator.Orchestrator
	Job          *job.Job
}

// New builds every component from cfg. Close releases them in reverse order.
func New(cfg *config.Config, logger *zap.Logger, tele *telemetry.Telemetry) (*App, error) {
	a := &App{cfg: cfg, logger: logger, tele: tele}

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.Metrics = metrics.NewMetrics(a.Registry)

	gazetteer, err := loadGazetteer(cfg.Geocoding)
	if err != nil {
		return nil, err
	}

	reverse, err := geocoding.NewReverseProvider(cfg.Geocoding, gazetteer, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create reverse geocoder: %w", err)
	}
	a.Resolver = geocoding.NewResolver(gazetteer, reverse, logger, a.Metrics)

	fetcher := httpfetch.New(logger)

	weatherSvc, err := weather.NewFetcher(cfg.ActiveWeatherService(), weather.Deps{
		HTTP:    fetcher,
		Logger:  logger,
		Tele:    tele,
		Metrics: a.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create weather service: %w", err)
	}
	logger.Info("Registered weather service", zap.String("service", weatherSvc.Name()))

	provider, err := location.NewProvider(cfg.Location, fetcher, logger, a.Metrics)
	if err != nil {
		return nil, err
	}
	settings := location.NewSettings(cfg.Location)

	if cfg.Preferences.Path == "" {
		a.Prefs = prefs.NewMemoryStore()
	} else {
		store, err := prefs.NewSQLite(cfg.Preferences.Path, logger)
		if err != nil {
			return nil, err
		}
		a.Prefs = store
	}

	renderer, err := notify.NewRenderer(cfg.Notifications, logger)
	if err != nil {
		_ = a.Prefs.Close()
		return nil, err
	}
	a.Notifier = notify.NewQueue(renderer, cfg.Notifications.QueueSize, logger, a.Metrics)

	a.Looper = orchestrator.NewLooper(logger)
	a.Orchestrator = orchestrator.New(orchestrator.Deps{
		Geocoder:   a.Resolver,
		Weather:    weatherSvc,
		Location:   provider,
		Settings:   settings,
		Dispatcher: a.Looper,
		Logger:     logger,
		Tele:       tele,
		Metrics:    a.Metrics,
		QueueSize:  cfg.Orchestrator.QueueSize,
	})

	a.Job = job.New(job.Deps{
		Geocoder:    a.Resolver,
		Weather:     weatherSvc,
		Location:    provider,
		Settings:    settings,
		Prefs:       a.Prefs,
		Notifier:    a.Notifier,
		Logger:      logger,
		Tele:        tele,
		Metrics:     a.Metrics,
		FixTimeout:  time.Duration(cfg.Job.FixTimeout) * time.Second,
		DefaultCity: cfg.Job.DefaultCity,
	})

	return a, nil
}

func loadGazetteer(cfg config.GeocodingConfig) (*geocoding.Gazetteer, error) {
	if cfg.GazetteerPath != "" {
		return geocoding.LoadGazetteerFile(cfg.GazetteerPath)
	}
	return geocoding.DefaultGazetteer()
}

// Server builds the HTTP API on top of the app's components.
func (a *App) Server() *server.Server {
	checks := map[string]handlers.ReadinessCheck{}
	if p, ok := a.Prefs.(interface{ Ping(context.Context) error }); ok {
		checks["preferences"] = p.Ping
	}

	return server.NewServer(server.Deps{
		Config:     a.cfg.Server,
		Loader:     a.Orchestrator,
		Cities:     a.Resolver,
		Prefs:      a.Prefs,
		Job:        a.Job,
		JobTimeout: a.JobTimeout(),
		Checks:     checks,
		Gatherer:   a.Registry,
		Metrics:    a.Metrics,
		Logger:     a.logger,
		Tele:       a.tele,
	})
}

// Scheduler builds the periodic runner for the notification job.
func (a *App) Scheduler() *scheduler.Scheduler {
	return scheduler.New(a.Job,
		time.Duration(a.cfg.Job.Interval)*time.Minute,
		a.JobTimeout(),
		a.logger)
}

func (a *App) JobTimeout() time.Duration {
	return time.Duration(a.cfg.Job.Timeout) * time.Second
}

// Close drains in-flight requests and notifications, then closes storage.
func (a *App) Close(ctx context.Context) error {
	var errs []error

	if err := a.Orchestrator.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("orchestrator: %w", err))
	}
	a.Looper.Close()

	if err := a.Notifier.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("notifier: %w", err))
	}
	if err := a.Prefs.Close(); err != nil {
		errs = append(errs, fmt.Errorf("preferences: %w", err))
	}

	return errors.Join(errs...)
}
