package job_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/weather-ph/internal/geocoding"
	"github.com/vzahanych/weather-ph/internal/job"
	"github.com/vzahanych/weather-ph/internal/location"
	"github.com/vzahanych/weather-ph/internal/metrics"
	"github.com/vzahanych/weather-ph/internal/models"
	"github.com/vzahanych/weather-ph/internal/prefs"
	"go.uber.org/zap/zaptest"
)

var clearSky = models.WeatherRecord{
	Temperature:              30.5,
	Description:              "Clear",
	Humidity:                 70,
	WindSpeed:                5.0,
	PrecipitationProbability: 10,
	Pressure:                 1010,
}

type stubWeather struct {
	err     error
	lastLat float64
	calls   atomic.Int32
}

func (w *stubWeather) GetWeather(_ context.Context, lat, _ float64) (models.WeatherRecord, error) {
	w.calls.Add(1)
	w.lastLat = lat
	if w.err != nil {
		return models.WeatherRecord{}, w.err
	}
	return clearSky, nil
}

func (w *stubWeather) Name() string { return "stub" }

type stubProvider struct {
	result location.Result
	hang   bool
	calls  atomic.Int32
}

func (p *stubProvider) CurrentLocation(context.Context, location.Accuracy) <-chan location.Result {
	p.calls.Add(1)
	ch := make(chan location.Result, 1)
	if !p.hang {
		ch <- p.result
	}
	return ch
}

type stubReverse struct {
	name string
	ok   bool
}

type stubGeocoder struct {
	*geocoding.Resolver
	reverse stubReverse
}

func (g stubGeocoder) ResolveByCoordinates(context.Context, float64, float64) (string, bool) {
	return g.reverse.name, g.reverse.ok
}

type captureNotifier struct {
	mu       sync.Mutex
	payloads []models.NotificationPayload
}

func (n *captureNotifier) Enqueue(_ context.Context, p models.NotificationPayload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.payloads = append(n.payloads, p)
	return nil
}

type fixture struct {
	weather  *stubWeather
	provider *stubProvider
	settings location.StaticSettings
	store    *prefs.MemoryStore
	reverse  stubReverse
	notifier *captureNotifier
	metrics  *metrics.Metrics
	timeout  time.Duration
}

func newFixture() *fixture {
	return &fixture{
		weather:  &stubWeather{},
		provider: &stubProvider{result: location.Result{Fix: &location.Fix{Latitude: 10.3157, Longitude: 123.8854}}},
		store:    prefs.NewMemoryStore(),
		reverse:  stubReverse{name: "Cebu City", ok: true},
		notifier: &captureNotifier{},
		metrics:  metrics.NewMetrics(prometheus.NewRegistry()),
	}
}

func (f *fixture) build(t *testing.T) *job.Job {
	t.Helper()
	g, err := geocoding.DefaultGazetteer()
	require.NoError(t, err)
	log := zaptest.NewLogger(t)

	return job.New(job.Deps{
		Geocoder:   stubGeocoder{Resolver: geocoding.NewResolver(g, nil, log, nil), reverse: f.reverse},
		Weather:    f.weather,
		Location:   f.provider,
		Settings:   f.settings,
		Prefs:      f.store,
		Notifier:   f.notifier,
		Logger:     log,
		Metrics:    f.metrics,
		FixTimeout: f.timeout,
	})
}

func TestRun_DefaultCityWhenGPSDisabled(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.build(t).Run(context.Background()))

	require.Len(t, f.notifier.payloads, 1)
	assert.Equal(t, models.NewNotificationPayload("Manila", clearSky), f.notifier.payloads[0])
	assert.Zero(t, f.provider.calls.Load())
	assert.InDelta(t, 14.5995, f.weather.lastLat, 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.JobRuns.WithLabelValues("last_city", "success")), 0)
}

func TestRun_PersistedCity(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.store.PutString(context.Background(), prefs.KeyLastCity, "davao"))

	require.NoError(t, f.build(t).Run(context.Background()))

	require.Len(t, f.notifier.payloads, 1)
	assert.Equal(t, "Davao City", f.notifier.payloads[0].LocationName)
}

func TestRun_PermissionWithoutServiceUsesLastCity(t *testing.T) {
	f := newFixture()
	f.settings = location.StaticSettings{Enabled: false, Granted: true}

	require.NoError(t, f.build(t).Run(context.Background()))

	assert.Zero(t, f.provider.calls.Load())
	require.Len(t, f.notifier.payloads, 1)
	assert.Equal(t, "Manila", f.notifier.payloads[0].LocationName)
}

func TestRun_CurrentLocation(t *testing.T) {
	f := newFixture()
	f.settings = location.StaticSettings{Enabled: true, Granted: true}

	require.NoError(t, f.build(t).Run(context.Background()))

	assert.EqualValues(t, 1, f.provider.calls.Load())
	require.Len(t, f.notifier.payloads, 1)
	assert.Equal(t, models.NewNotificationPayload("Cebu City", clearSky), f.notifier.payloads[0])
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.JobRuns.WithLabelValues("gps", "success")), 0)
}

func TestRun_CurrentLocationUnnamed(t *testing.T) {
	f := newFixture()
	f.settings = location.StaticSettings{Enabled: true, Granted: true}
	f.reverse = stubReverse{}

	require.NoError(t, f.build(t).Run(context.Background()))

	require.Len(t, f.notifier.payloads, 1)
	assert.Equal(t, "Your Location", f.notifier.payloads[0].LocationName)
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(f *fixture)
		wantErr error
	}{
		{
			name: "unknown persisted city",
			mutate: func(f *fixture) {
				_ = f.store.PutString(context.Background(), prefs.KeyLastCity, "Atlantis")
			},
			wantErr: geocoding.ErrNotFound,
		},
		{
			name:    "fetch failure",
			mutate:  func(f *fixture) { f.weather.err = assert.AnError },
			wantErr: assert.AnError,
		},
		{
			name: "no fix",
			mutate: func(f *fixture) {
				f.settings = location.StaticSettings{Enabled: true, Granted: true}
				f.provider.result = location.Result{}
			},
			wantErr: job.ErrNoFix,
		},
		{
			name: "provider error",
			mutate: func(f *fixture) {
				f.settings = location.StaticSettings{Enabled: true, Granted: true}
				f.provider.result = location.Result{Err: location.ErrUnavailable}
			},
			wantErr: job.ErrLocationFailed,
		},
		{
			name: "fix timeout",
			mutate: func(f *fixture) {
				f.settings = location.StaticSettings{Enabled: true, Granted: true}
				f.provider.hang = true
				f.timeout = 20 * time.Millisecond
			},
			wantErr: job.ErrFixTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.mutate(f)

			err := f.build(t).Run(context.Background())
			require.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.notifier.payloads)
		})
	}
}

func TestRun_FixTimeoutSkipsFetch(t *testing.T) {
	f := newFixture()
	f.settings = location.StaticSettings{Enabled: true, Granted: true}
	f.provider.hang = true
	f.timeout = 10 * time.Millisecond

	require.Error(t, f.build(t).Run(context.Background()))
	assert.Zero(t, f.weather.calls.Load())
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.JobRuns.WithLabelValues("gps", "failure")), 0)
}
