package otel_test

import (
	"context"
	"testing"

	"travel-rag/internal/infra/otel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitProvider_DisabledIsNoop(t *testing.T) {
	shutdown, err := otel.InitProvider(context.Background(), otel.Config{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
