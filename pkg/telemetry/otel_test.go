package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/weather-ph/internal/config"
	"github.com/vzahanych/weather-ph/pkg/telemetry"
)

func TestNew_Disabled(t *testing.T) {
	tele, err := telemetry.New(context.Background(), config.TelemetryConfig{Enabled: false}, "test")
	require.NoError(t, err)

	assert.False(t, tele.IsEnabled())
	assert.NotNil(t, tele.GetTracer())
	assert.NoError(t, tele.Shutdown(context.Background()))
}

func TestNilTelemetry(t *testing.T) {
	var tele *telemetry.Telemetry

	assert.False(t, tele.IsEnabled())

	ctx, end := tele.StartSpan(context.Background(), "noop")
	require.NotNil(t, ctx)
	end(errors.New("boom"))
}
