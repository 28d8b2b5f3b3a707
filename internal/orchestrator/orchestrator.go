// Package orchestrator turns a city name, a coordinate pair or the device
// position into exactly one weather outcome per request.
package orchestrator

import (
	"context"
	"errors"
	"sync"

	"github.com/vzahanych/weather-ph/internal/location"
	"github.com/vzahanych/weather-ph/internal/metrics"
	"github.com/vzahanych/weather-ph/internal/models"
	"github.com/vzahanych/weather-ph/internal/requestid"
	"github.com/vzahanych/weather-ph/internal/weather"
	"github.com/vzahanych/weather-ph/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// User-visible outcome messages.
const (
	MsgLocationNotFound        = "Location not found"
	MsgFetchFailed             = "Failed to fetch weather"
	MsgFetchFailedForLocation  = "Failed to fetch weather for your location"
	MsgPermissionDenied        = "Location permission not granted"
	MsgCurrentLocationFailed   = "Failed to get current location"
	MsgCurrentLocationNotFound = "Could not get current location"

	// FallbackLocationName labels coordinates that reverse geocoding could
	// not name.
	FallbackLocationName = "Your Location"
)

const defaultQueueSize = 64

var ErrClosed = errors.New("orchestrator is shut down")

// Callback receives the outcome of one request.
type Callback func(models.Outcome)

// Geocoder is satisfied by *geocoding.Resolver.
type Geocoder interface {
	ResolveByName(name string) (models.Location, error)
	ResolveByCoordinates(ctx context.Context, lat, lon float64) (string, bool)
}

// Deps wires an Orchestrator. A nil Dispatcher gets a private Looper that
// Shutdown closes.
type Deps struct {
	Geocoder   Geocoder
	Weather    weather.Fetcher
	Location   location.Provider
	Settings   location.Settings
	Dispatcher Dispatcher
	Logger     *zap.Logger
	Tele       *telemetry.Telemetry
	Metrics    *metrics.Metrics
	QueueSize  int
}

type task struct {
	ctx  context.Context
	path string
	run  func(ctx context.Context) models.Outcome
	cb   Callback
}

// Orchestrator owns a single worker goroutine, so at most one request is in
// flight at a time. Callbacks are always delivered through the Dispatcher.
type Orchestrator struct {
	geocoder   Geocoder
	weather    weather.Fetcher
	location   location.Provider
	settings   location.Settings
	dispatcher Dispatcher
	logger     *zap.Logger
	tele       *telemetry.Telemetry
	metrics    *metrics.Metrics

	ownLooper *Looper

	mu       sync.RWMutex
	closed   bool
	tasks    chan *task
	workerWg sync.WaitGroup
	fixWg    sync.WaitGroup
}

func New(deps Deps) *Orchestrator {
	size := deps.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}

	o := &Orchestrator{
		geocoder:   deps.Geocoder,
		weather:    deps.Weather,
		location:   deps.Location,
		settings:   deps.Settings,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger.With(zap.String("component", "orchestrator")),
		tele:       deps.Tele,
		metrics:    deps.Metrics,
		tasks:      make(chan *task, size),
	}
	if o.dispatcher == nil {
		o.ownLooper = NewLooper(o.logger)
		o.dispatcher = o.ownLooper
	}

	o.workerWg.Add(1)
	go o.work()

	return o
}

// LoadByName resolves name against the gazetteer and fetches its weather.
func (o *Orchestrator) LoadByName(ctx context.Context, name string, cb Callback) error {
	return o.submit(ctx, "name", cb, func(ctx context.Context) models.Outcome {
		return o.byName(ctx, name)
	})
}

// LoadByCoordinates fetches weather for lat/lon and names the place by
// reverse geocoding, falling back to FallbackLocationName.
func (o *Orchestrator) LoadByCoordinates(ctx context.Context, lat, lon float64, cb Callback) error {
	return o.submit(ctx, "coordinates", cb, func(ctx context.Context) models.Outcome {
		return o.byCoordinates(ctx, lat, lon)
	})
}

// LoadCurrentLocation asks the location provider for one high accuracy fix
// and continues as LoadByCoordinates. Without permission the provider is
// never called.
func (o *Orchestrator) LoadCurrentLocation(ctx context.Context, cb Callback) error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		return ErrClosed
	}

	ctx = context.WithoutCancel(ctx)
	log := requestid.Logger(ctx, o.logger)

	if !o.settings.PermissionGranted() {
		log.Info("Current location requested without permission")
		o.deliver("current", cb, models.Failed{Message: MsgPermissionDenied})
		return nil
	}

	results := o.location.CurrentLocation(ctx, location.AccuracyHigh)

	o.fixWg.Add(1)
	go func() {
		defer o.fixWg.Done()
		o.awaitFix(ctx, log, results, cb)
	}()

	return nil
}

func (o *Orchestrator) awaitFix(ctx context.Context, log *zap.Logger, results <-chan location.Result, cb Callback) {
	res := <-results

	switch {
	case res.Err != nil:
		log.Warn("Location provider failed", zap.Error(res.Err))
		o.deliver("current", cb, models.Failed{Message: MsgCurrentLocationFailed})
		return
	case res.Fix == nil:
		log.Info("Location provider has no fix")
		o.deliver("current", cb, models.Failed{Message: MsgCurrentLocationNotFound})
		return
	}

	lat, lon := res.Fix.Latitude, res.Fix.Longitude
	err := o.submit(ctx, "current", cb, func(ctx context.Context) models.Outcome {
		return o.byCoordinates(ctx, lat, lon)
	})
	if err != nil {
		log.Warn("Fix arrived after shutdown", zap.Error(err))
		o.deliver("current", cb, models.Failed{Message: MsgFetchFailedForLocation})
	}
}

// Shutdown rejects new requests with ErrClosed, finishes queued ones and
// waits for the worker, or for ctx to end.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	if !o.closed {
		o.closed = true
		close(o.tasks)
	}
	o.mu.Unlock()

	done := make(chan struct{})
	go func() {
		o.workerWg.Wait()
		o.fixWg.Wait()
		if o.ownLooper != nil {
			o.ownLooper.Close()
		}
		close(done)
	}()

	select {
	case <-done:
		o.logger.Info("Orchestrator stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) submit(ctx context.Context, path string, cb Callback, run func(context.Context) models.Outcome) error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		return ErrClosed
	}

	o.tasks <- &task{
		ctx:  context.WithoutCancel(ctx),
		path: path,
		run:  run,
		cb:   cb,
	}
	o.metrics.SetQueueDepth(len(o.tasks))

	return nil
}

func (o *Orchestrator) work() {
	defer o.workerWg.Done()

	o.logger.Debug("Worker started")
	for t := range o.tasks {
		o.metrics.SetQueueDepth(len(o.tasks))
		o.process(t)
	}
	o.logger.Debug("Task queue closed, worker stopping")
}

func (o *Orchestrator) process(t *task) {
	ctx, end := o.tele.StartSpan(t.ctx, "orchestrator.process", attribute.String("path", t.path))

	outcome := o.safeRun(ctx, t)

	var err error
	if f, ok := outcome.(models.Failed); ok {
		err = errors.New(f.Message)
	}
	end(err)

	o.deliver(t.path, t.cb, outcome)
}

// safeRun turns a panic in a collaborator into a failed outcome so the
// callback is still invoked.
func (o *Orchestrator) safeRun(ctx context.Context, t *task) (outcome models.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			requestid.Logger(ctx, o.logger).Error("Request panicked",
				zap.String("path", t.path),
				zap.Any("recovered", r),
				zap.Stack("stack"))
			outcome = models.Failed{Message: failureMessage(t.path)}
		}
	}()
	return t.run(ctx)
}

func (o *Orchestrator) deliver(path string, cb Callback, outcome models.Outcome) {
	status := "loaded"
	if _, ok := outcome.(models.Failed); ok {
		status = "failed"
	}
	o.metrics.RecordOutcome(path, status)

	o.dispatcher.Post(func() { cb(outcome) })
}

func (o *Orchestrator) byName(ctx context.Context, name string) models.Outcome {
	log := requestid.Logger(ctx, o.logger).With(zap.String("city", name))

	loc, err := o.geocoder.ResolveByName(name)
	if err != nil {
		log.Info("City not found", zap.Error(err))
		return models.Failed{Message: MsgLocationNotFound}
	}

	rec, err := o.weather.GetWeather(ctx, loc.Latitude(), loc.Longitude())
	if err != nil {
		log.Warn("Weather fetch failed", zap.Error(err))
		return models.Failed{Message: MsgFetchFailed}
	}

	log.Info("Weather loaded", zap.String("location", loc.Name()))
	return models.Loaded{Weather: rec, LocationName: loc.Name()}
}

func (o *Orchestrator) byCoordinates(ctx context.Context, lat, lon float64) models.Outcome {
	log := requestid.Logger(ctx, o.logger).With(zap.Float64("lat", lat), zap.Float64("lon", lon))

	if _, err := models.NewLocation(FallbackLocationName, lat, lon); err != nil {
		log.Info("Rejected coordinates", zap.Error(err))
		return models.Failed{Message: MsgFetchFailedForLocation}
	}

	rec, err := o.weather.GetWeather(ctx, lat, lon)
	if err != nil {
		log.Warn("Weather fetch failed", zap.Error(err))
		return models.Failed{Message: MsgFetchFailedForLocation}
	}

	name, ok := o.geocoder.ResolveByCoordinates(ctx, lat, lon)
	if !ok {
		name = FallbackLocationName
	}

	log.Info("Weather loaded", zap.String("location", name))
	return models.Loaded{Weather: rec, LocationName: name}
}

func failureMessage(path string) string {
	switch path {
	case "name":
		return MsgFetchFailed
	default:
		return MsgFetchFailedForLocation
	}
}
