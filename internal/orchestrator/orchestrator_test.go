package orchestrator_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/weather-ph/internal/location"
	"github.com/vzahanych/weather-ph/internal/models"
	"github.com/vzahanych/weather-ph/internal/orchestrator"
	"go.uber.org/zap/zaptest"
)

type harness struct {
	geo      *fakeGeocoder
	weather  *fakeWeather
	provider *fakeProvider
	settings location.StaticSettings
	orch     *orchestrator.Orchestrator
}

func newHarness(t *testing.T, mutate func(h *harness)) *harness {
	t.Helper()
	h := &harness{
		geo:      &fakeGeocoder{reverseName: "Manila", reverseOK: true},
		weather:  &fakeWeather{rec: clearSky},
		provider: &fakeProvider{result: location.Result{Fix: &location.Fix{Latitude: 14.6, Longitude: 121.0}}},
		settings: location.StaticSettings{Enabled: true, Granted: true},
	}
	if mutate != nil {
		mutate(h)
	}

	log := zaptest.NewLogger(t)
	looper := orchestrator.NewLooper(log)
	h.orch = orchestrator.New(orchestrator.Deps{
		Geocoder:   h.geo,
		Weather:    h.weather,
		Location:   h.provider,
		Settings:   h.settings,
		Dispatcher: looper,
		Logger:     log,
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, h.orch.Shutdown(ctx))
		looper.Close()
	})
	return h
}

func failed(msg string) models.Outcome { return models.Failed{Message: msg} }

func TestLoadByName(t *testing.T) {
	tests := []struct {
		name   string
		city   string
		mutate func(h *harness)
		want   models.Outcome
	}{
		{
			name: "loaded with canonical name",
			city: "Manila",
			want: models.Loaded{Weather: clearSky, LocationName: "Manila"},
		},
		{
			name: "unknown city",
			city: "Atlantis",
			want: failed(orchestrator.MsgLocationNotFound),
		},
		{
			name:   "fetch failure",
			city:   "Manila",
			mutate: func(h *harness) { h.weather.err = assert.AnError },
			want:   failed(orchestrator.MsgFetchFailed),
		},
		{
			name:   "panicking fetcher still delivers",
			city:   "Manila",
			mutate: func(h *harness) { h.weather.panic = true },
			want:   failed(orchestrator.MsgFetchFailed),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.mutate)
			c := newCollector()

			require.NoError(t, h.orch.LoadByName(context.Background(), tt.city, c.callback))

			got := c.wait(t, 1)
			assert.Equal(t, tt.want, got[0])
			assert.Equal(t, 1, c.settle())
		})
	}
}

func TestLoadByName_UnknownCitySkipsFetch(t *testing.T) {
	h := newHarness(t, nil)
	c := newCollector()

	require.NoError(t, h.orch.LoadByName(context.Background(), "Atlantis", c.callback))
	c.wait(t, 1)

	assert.Zero(t, h.weather.calls.Load())
}

func TestLoadByCoordinates(t *testing.T) {
	tests := []struct {
		name   string
		lat    float64
		lon    float64
		mutate func(h *harness)
		want   models.Outcome
	}{
		{
			name: "reverse geocoded name",
			lat:  14.6,
			lon:  121.0,
			want: models.Loaded{Weather: clearSky, LocationName: "Manila"},
		},
		{
			name: "unknown place uses fallback label",
			lat:  8.9,
			lon:  119.9,
			mutate: func(h *harness) {
				h.geo.reverseOK = false
				h.geo.reverseName = ""
			},
			want: models.Loaded{Weather: clearSky, LocationName: orchestrator.FallbackLocationName},
		},
		{
			name:   "fetch failure",
			lat:    14.6,
			lon:    121.0,
			mutate: func(h *harness) { h.weather.err = assert.AnError },
			want:   failed(orchestrator.MsgFetchFailedForLocation),
		},
		{
			name: "out of range coordinates",
			lat:  91,
			lon:  0,
			want: failed(orchestrator.MsgFetchFailedForLocation),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.mutate)
			c := newCollector()

			require.NoError(t, h.orch.LoadByCoordinates(context.Background(), tt.lat, tt.lon, c.callback))

			got := c.wait(t, 1)
			assert.Equal(t, tt.want, got[0])
			assert.Equal(t, 1, c.settle())
		})
	}
}

func TestLoadByCoordinates_FetchFailureSkipsReverse(t *testing.T) {
	h := newHarness(t, func(h *harness) { h.weather.err = assert.AnError })
	c := newCollector()

	require.NoError(t, h.orch.LoadByCoordinates(context.Background(), 14.6, 121.0, c.callback))
	c.wait(t, 1)

	assert.Zero(t, h.geo.reverseHits.Load())
}

func TestLoadCurrentLocation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(h *harness)
		want   models.Outcome
	}{
		{
			name: "fix is reverse geocoded",
			want: models.Loaded{Weather: clearSky, LocationName: "Manila"},
		},
		{
			name:   "provider error",
			mutate: func(h *harness) { h.provider.result = location.Result{Err: location.ErrUnavailable} },
			want:   failed(orchestrator.MsgCurrentLocationFailed),
		},
		{
			name:   "no fix",
			mutate: func(h *harness) { h.provider.result = location.Result{} },
			want:   failed(orchestrator.MsgCurrentLocationNotFound),
		},
		{
			name:   "fetch failure after fix",
			mutate: func(h *harness) { h.weather.err = assert.AnError },
			want:   failed(orchestrator.MsgFetchFailedForLocation),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.mutate)
			c := newCollector()

			require.NoError(t, h.orch.LoadCurrentLocation(context.Background(), c.callback))

			got := c.wait(t, 1)
			assert.Equal(t, tt.want, got[0])
			assert.Equal(t, 1, c.settle())
			assert.EqualValues(t, 1, h.provider.calls.Load())
		})
	}
}

func TestLoadCurrentLocation_PermissionDenied(t *testing.T) {
	h := newHarness(t, func(h *harness) { h.settings.Granted = false })
	c := newCollector()

	require.NoError(t, h.orch.LoadCurrentLocation(context.Background(), c.callback))

	got := c.wait(t, 1)
	assert.Equal(t, failed(orchestrator.MsgPermissionDenied), got[0])
	assert.Equal(t, 1, c.settle())
	assert.Zero(t, h.provider.calls.Load())
	assert.Zero(t, h.weather.calls.Load())
}

func TestLoadByName_Idempotent(t *testing.T) {
	h := newHarness(t, nil)
	c := newCollector()

	require.NoError(t, h.orch.LoadByName(context.Background(), "Manila", c.callback))
	require.NoError(t, h.orch.LoadByName(context.Background(), "Manila", c.callback))

	got := c.wait(t, 2)
	assert.Equal(t, got[0], got[1])
}

func TestWorkerRunsOneRequestAtATime(t *testing.T) {
	h := newHarness(t, func(h *harness) { h.weather.delay = 10 * time.Millisecond })
	c := newCollector()

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, h.orch.LoadByCoordinates(context.Background(), 14.6, 121.0, c.callback))
		}()
	}
	wg.Wait()

	got := c.wait(t, n)
	assert.Len(t, got, n)
	assert.EqualValues(t, 1, h.weather.maxSeen.Load())
}

func TestCallbacksRunOnDispatcher(t *testing.T) {
	h := newHarness(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan models.Outcome, 1)
	require.NoError(t, h.orch.LoadByName(ctx, "Manila", func(o models.Outcome) { done <- o }))
	// Cancelling the caller's context does not abort a queued request.
	cancel()

	select {
	case o := <-done:
		assert.IsType(t, models.Loaded{}, o)
	case <-time.After(5 * time.Second):
		t.Fatal("outcome not delivered")
	}
}

func TestShutdown(t *testing.T) {
	log := zaptest.NewLogger(t)
	w := &fakeWeather{rec: clearSky, delay: 20 * time.Millisecond}
	orch := orchestrator.New(orchestrator.Deps{
		Geocoder: &fakeGeocoder{reverseOK: true, reverseName: "Manila"},
		Weather:  w,
		Location: &fakeProvider{},
		Settings: location.StaticSettings{Granted: true},
		Logger:   log,
	})

	c := newCollector()
	for i := 0; i < 3; i++ {
		require.NoError(t, orch.LoadByName(context.Background(), "Manila", c.callback))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, orch.Shutdown(ctx))

	// Queued work drained before Shutdown returned.
	assert.Len(t, c.wait(t, 3), 3)

	require.ErrorIs(t, orch.LoadByName(context.Background(), "Manila", c.callback), orchestrator.ErrClosed)
	require.ErrorIs(t, orch.LoadByCoordinates(context.Background(), 1, 1, c.callback), orchestrator.ErrClosed)
	require.ErrorIs(t, orch.LoadCurrentLocation(context.Background(), c.callback), orchestrator.ErrClosed)
	assert.Equal(t, 3, c.settle())

	require.NoError(t, orch.Shutdown(ctx))
}

func TestShutdown_FixAfterClose(t *testing.T) {
	gate := make(chan struct{})
	h := newHarness(t, func(h *harness) { h.provider.gate = gate })
	c := newCollector()

	require.NoError(t, h.orch.LoadCurrentLocation(context.Background(), c.callback))

	shutdownDone := make(chan error, 1)
	go func() { shutdownDone <- h.orch.Shutdown(context.Background()) }()

	// Let Shutdown mark the orchestrator closed before the fix arrives.
	time.Sleep(20 * time.Millisecond)
	close(gate)

	got := c.wait(t, 1)
	assert.Equal(t, failed(orchestrator.MsgFetchFailedForLocation), got[0])
	require.NoError(t, <-shutdownDone)
	assert.Zero(t, h.weather.calls.Load())
}
