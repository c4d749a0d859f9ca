package infrastructure

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/config"
)

func TestNewTelemetry_Metrics(t *testing.T) {
	ctx := context.Background()
	tel, err := NewTelemetry(ctx, config.TelemetryConfig{
		ServiceName:   "finsight-test",
		TraceExporter: "none",
		SampleRatio:   1,
		EnableMetrics: true,
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, tel.Registry)
	defer tel.Shutdown(ctx)

	counter, err := tel.Meter().Int64Counter("finsight_test_events")
	require.NoError(t, err)
	counter.Add(ctx, 3)

	families, err := tel.Registry.Gather()
	require.NoError(t, err)

	found := false
	for _, mf := range families {
		if strings.HasPrefix(mf.GetName(), "finsight_test_events") {
			found = true
		}
	}
	assert.True(t, found, "counter should be exported through the registry")
}

func TestNoopTelemetry(t *testing.T) {
	tel := NoopTelemetry()

	_, span := tel.Tracer().Start(context.Background(), "noop")
	span.End()

	assert.Nil(t, tel.Registry)
	assert.NoError(t, tel.Shutdown(context.Background()))
}
