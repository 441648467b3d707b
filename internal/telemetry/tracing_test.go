package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/web3events/server/internal/config"
)

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), config.TracingConfig{Enabled: false}, "test")

	require.NoError(t, err)
	require.NotNil(t, shutdown)
	require.NoError(t, shutdown(context.Background()))
}

func TestInitTracingRejectsBadSampleRate(t *testing.T) {
	for _, rate := range []float64{-0.1, 1.5} {
		_, err := InitTracing(context.Background(), config.TracingConfig{
			Enabled:     true,
			ServiceName: "web3events",
			SampleRate:  rate,
		}, "test")
		require.Error(t, err)
	}
}

func TestInitTracingEnabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), config.TracingConfig{
		Enabled:     true,
		ServiceName: "web3events",
		SampleRate:  1.0,
	}, "test")

	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
