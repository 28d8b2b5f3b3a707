package location_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/weather-ph/internal/config"
	"github.com/vzahanych/weather-ph/internal/httpfetch"
	"github.com/vzahanych/weather-ph/internal/location"
	"go.uber.org/zap/zaptest"
)

func receive(t *testing.T, ch <-chan location.Result) location.Result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("no location result delivered")
		return location.Result{}
	}
}

func ipAPIServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/json/", r.URL.Path)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestStaticProvider(t *testing.T) {
	p := location.NewStaticProvider(&location.Fix{Latitude: 14.6, Longitude: 121.0})
	r := receive(t, p.CurrentLocation(context.Background(), location.AccuracyHigh))
	require.NoError(t, r.Err)
	require.NotNil(t, r.Fix)
	assert.InDelta(t, 14.6, r.Fix.Latitude, 1e-9)

	r = receive(t, location.NewStaticProvider(nil).CurrentLocation(context.Background(), location.AccuracyHigh))
	assert.NoError(t, r.Err)
	assert.Nil(t, r.Fix)
}

func TestIPAPIProvider(t *testing.T) {
	log := zaptest.NewLogger(t)

	t.Run("success", func(t *testing.T) {
		srv := ipAPIServer(t, http.StatusOK, `{"status":"success","lat":10.3157,"lon":123.8854}`)
		p := location.NewIPAPIProvider(srv.URL, httpfetch.New(log), log, nil)

		r := receive(t, p.CurrentLocation(context.Background(), location.AccuracyHigh))
		require.NoError(t, r.Err)
		require.NotNil(t, r.Fix)
		assert.InDelta(t, 10.3157, r.Fix.Latitude, 1e-9)
		assert.InDelta(t, 123.8854, r.Fix.Longitude, 1e-9)
		assert.Equal(t, "ip-api", r.Fix.Source)
	})

	t.Run("fail status yields no fix", func(t *testing.T) {
		srv := ipAPIServer(t, http.StatusOK, `{"status":"fail","message":"private range"}`)
		p := location.NewIPAPIProvider(srv.URL, httpfetch.New(log), log, nil)

		r := receive(t, p.CurrentLocation(context.Background(), location.AccuracyHigh))
		assert.NoError(t, r.Err)
		assert.Nil(t, r.Fix)
	})

	t.Run("http error", func(t *testing.T) {
		srv := ipAPIServer(t, http.StatusTooManyRequests, `{}`)
		p := location.NewIPAPIProvider(srv.URL, httpfetch.New(log), log, nil)

		r := receive(t, p.CurrentLocation(context.Background(), location.AccuracyHigh))
		require.ErrorIs(t, r.Err, location.ErrUnavailable)
		assert.Nil(t, r.Fix)
	})

	t.Run("missing coordinates", func(t *testing.T) {
		srv := ipAPIServer(t, http.StatusOK, `{"status":"success"}`)
		p := location.NewIPAPIProvider(srv.URL, httpfetch.New(log), log, nil)

		r := receive(t, p.CurrentLocation(context.Background(), location.AccuracyHigh))
		require.ErrorIs(t, r.Err, httpfetch.ErrMissingField)
	})
}

func TestNewProvider(t *testing.T) {
	log := zaptest.NewLogger(t)

	p, err := location.NewProvider(config.LocationConfig{Provider: "static", HasFix: true, Latitude: 7.19, Longitude: 125.45}, nil, log, nil)
	require.NoError(t, err)
	r := receive(t, p.CurrentLocation(context.Background(), location.AccuracyHigh))
	require.NotNil(t, r.Fix)
	assert.Equal(t, "static", r.Fix.Source)

	p, err = location.NewProvider(config.LocationConfig{Provider: "ip-api"}, httpfetch.New(log), log, nil)
	require.NoError(t, err)
	assert.IsType(t, &location.IPAPIProvider{}, p)

	_, err = location.NewProvider(config.LocationConfig{Provider: "gps"}, nil, log, nil)
	require.Error(t, err)
}

func TestSettings(t *testing.T) {
	s := location.NewSettings(config.LocationConfig{ServiceEnabled: true})
	assert.True(t, s.LocationEnabled())
	assert.False(t, s.PermissionGranted())
	assert.Equal(t, "high", location.AccuracyHigh.String())
}
