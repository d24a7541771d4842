package di_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"travel-rag/internal/adapter/repository"
	"travel-rag/internal/adapter/vectorstore/memory"
	"travel-rag/internal/adapter/vectorstore/qdrant"
	"travel-rag/internal/di"
	"travel-rag/internal/infra/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func baseConfig() *config.Config {
	cfg := config.Load()
	cfg.Vector.Backend = config.BackendMemory
	cfg.Embedder.Provider = config.ProviderOllama
	cfg.LLM.Provider = config.ProviderOllama
	return cfg
}

func TestNewApplicationComponents_Memory(t *testing.T) {
	c, err := di.NewApplicationComponents(context.Background(), baseConfig(), testLogger())
	require.NoError(t, err)
	defer c.Close()

	assert.IsType(t, &memory.Index{}, c.Index)
	assert.IsType(t, &repository.MemoryJobRepository{}, c.JobRepo)
	assert.NotNil(t, c.Handler)
	assert.NotNil(t, c.Worker)
}

func TestNewApplicationComponents_Qdrant(t *testing.T) {
	cfg := baseConfig()
	cfg.Vector.Backend = config.BackendQdrant

	c, err := di.NewApplicationComponents(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	defer c.Close()

	assert.IsType(t, &qdrant.Index{}, c.Index)
}

func TestNewApplicationComponents_OpenAI(t *testing.T) {
	cfg := baseConfig()
	cfg.LLM.Provider = config.ProviderOpenAI
	cfg.Embedder.Provider = config.ProviderOpenAI
	cfg.LLM.OpenAIAPIKey = "sk-test"
	cfg.LLM.Model = "gpt-4o-mini"

	c, err := di.NewApplicationComponents(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	defer c.Close()

	assert.Contains(t, c.LLM.Version(), "gpt-4o-mini")
}

func TestNewApplicationComponents_UnknownBackend(t *testing.T) {
	cfg := baseConfig()
	cfg.Vector.Backend = "faiss"

	_, err := di.NewApplicationComponents(context.Background(), cfg, testLogger())
	assert.ErrorContains(t, err, "unknown vector backend")
}

func TestRetrievalConfig_MapsEnvironment(t *testing.T) {
	cfg := baseConfig()
	cfg.Hybrid.Alpha = 0.3
	cfg.Retry.Attempts = 4
	cfg.RAG.RetrievalTimeout = 2 * time.Second

	rc := di.RetrievalConfig(cfg)

	assert.Equal(t, 0.3, rc.Hybrid.Alpha)
	assert.Equal(t, 4, rc.Retry.Attempts)
	assert.Equal(t, 2*time.Second, rc.RetrievalTimeout)
	assert.NoError(t, rc.Validate())
}
