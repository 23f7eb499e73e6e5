package observability

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), Options{}, zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetup_WithEndpoint(t *testing.T) {
	// The exporter connects lazily, so setup succeeds without a collector.
	shutdown, err := Setup(context.Background(), Options{
		Endpoint:    "127.0.0.1:4318",
		ServiceName: "llmrevise-test",
		Insecure:    true,
	}, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx) // nothing was exported; only check it doesn't hang
}
