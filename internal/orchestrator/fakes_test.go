package orchestrator_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vzahanych/weather-ph/internal/geocoding"
	"github.com/vzahanych/weather-ph/internal/location"
	"github.com/vzahanych/weather-ph/internal/models"
	"github.com/vzahanych/weather-ph/internal/weather"
)

var clearSky = models.WeatherRecord{
	Temperature:              30.5,
	Description:              "Clear",
	Humidity:                 70,
	WindSpeed:                5.0,
	PrecipitationProbability: 10,
	Pressure:                 1010,
}

type fakeGeocoder struct {
	reverseName string
	reverseOK   bool
	reverseHits atomic.Int32
}

func (g *fakeGeocoder) ResolveByName(name string) (models.Location, error) {
	if name != "Manila" {
		return models.Location{}, geocoding.ErrNotFound
	}
	return models.NewLocation("Manila", 14.5995, 120.9842)
}

func (g *fakeGeocoder) ResolveByCoordinates(context.Context, float64, float64) (string, bool) {
	g.reverseHits.Add(1)
	return g.reverseName, g.reverseOK
}

type fakeWeather struct {
	rec   models.WeatherRecord
	err   error
	delay time.Duration
	panic bool

	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (w *fakeWeather) GetWeather(context.Context, float64, float64) (models.WeatherRecord, error) {
	w.calls.Add(1)
	n := w.inFlight.Add(1)
	defer w.inFlight.Add(-1)
	for {
		seen := w.maxSeen.Load()
		if n <= seen || w.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	if w.panic {
		panic("upstream exploded")
	}
	if w.delay > 0 {
		time.Sleep(w.delay)
	}
	if w.err != nil {
		return models.WeatherRecord{}, w.err
	}
	return w.rec, nil
}

func (w *fakeWeather) Name() string { return "fake" }

var _ weather.Fetcher = (*fakeWeather)(nil)

type fakeProvider struct {
	result location.Result
	gate   chan struct{}
	calls  atomic.Int32
}

func (p *fakeProvider) CurrentLocation(_ context.Context, accuracy location.Accuracy) <-chan location.Result {
	p.calls.Add(1)
	ch := make(chan location.Result, 1)
	go func() {
		if p.gate != nil {
			<-p.gate
		}
		ch <- p.result
	}()
	return ch
}

// collector records outcomes and lets tests wait for a number of them.
type collector struct {
	mu       sync.Mutex
	outcomes []models.Outcome
	arrived  chan struct{}
}

func newCollector() *collector {
	return &collector{arrived: make(chan struct{}, 128)}
}

func (c *collector) callback(o models.Outcome) {
	c.mu.Lock()
	c.outcomes = append(c.outcomes, o)
	c.mu.Unlock()
	c.arrived <- struct{}{}
}

func (c *collector) wait(t *testing.T, n int) []models.Outcome {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-c.arrived:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for outcome %d of %d", i+1, n)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Outcome(nil), c.outcomes...)
}

// settle gives a stray second delivery a chance to show up.
func (c *collector) settle() int {
	time.Sleep(50 * time.Millisecond)
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.outcomes)
}
