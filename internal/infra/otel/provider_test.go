package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitProvider_Disabled(t *testing.T) {
	telemetry, err := InitProvider(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, telemetry)
	assert.NoError(t, telemetry.Shutdown(context.Background()))
}

func TestSampler(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{ratio: 0, want: "root:AlwaysOffSampler"},
		{ratio: -1, want: "root:AlwaysOffSampler"},
		{ratio: 1, want: "root:AlwaysOnSampler"},
		{ratio: 0.25, want: "root:TraceIDRatioBased{0.25}"},
	}
	for _, tt := range tests {
		assert.Contains(t, sampler(tt.ratio).Description(), tt.want)
	}
}

func TestSignalURL(t *testing.T) {
	assert.Equal(t, "http://collector:4318/v1/traces", signalURL("http://collector:4318", "traces"))
	assert.Equal(t, "http://collector:4318/v1/logs", signalURL("http://collector:4318/", "logs"))
}
