package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTracingProviderDisabled(t *testing.T) {
	tp, err := NewTracingProvider(Config{Enabled: false})
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())

	// Disabled provider is inert but still usable as a component.
	assert.NoError(t, tp.Start(context.Background()))
	assert.NoError(t, tp.Stop(context.Background()))
	assert.NotNil(t, tp.GetTracer("test"))
	assert.Equal(t, "Tracing Provider", tp.Name())
}

func TestNewTracingProviderRequiresEndpoint(t *testing.T) {
	_, err := NewTracingProvider(Config{Enabled: true})
	assert.Error(t, err)
}
