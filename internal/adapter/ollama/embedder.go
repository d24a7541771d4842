// Package ollama talks to an Ollama server over its REST API for embeddings
// and chat generation.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"travel-rag/internal/domain"
	"travel-rag/internal/infra/httpclient"
)

type Embedder struct {
	baseURL   string
	model     string
	dimension int
	client    *http.Client
	logger    *slog.Logger
}

// NewEmbedder returns an embedder for model. dimension is the model's
// output size and is checked against every response.
func NewEmbedder(baseURL, model string, dimension int, timeout time.Duration, logger *slog.Logger) *Embedder {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Embedder{
		baseURL:   strings.TrimRight(baseURL, "/"),
		model:     model,
		dimension: dimension,
		client:    httpclient.NewPooledClient(timeout),
		logger:    logger,
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (e *Embedder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	start := time.Now()

	payload, err := json.Marshal(embedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embed", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Error("ollama_embed_failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)))
		return nil, domain.NewError(domain.KindConnection, "ollama.embed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		e.logger.Error("ollama_embed_bad_status",
			slog.Int("status", resp.StatusCode),
			slog.Duration("elapsed", time.Since(start)))
		return nil, domain.NewError(domain.KindConnection, "ollama.embed",
			fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, domain.NewError(domain.KindConnection, "ollama.embed", fmt.Errorf("failed to decode response: %w", err))
	}
	if len(out.Embeddings) != len(texts) {
		return nil, domain.NewError(domain.KindConnection, "ollama.embed",
			fmt.Errorf("expected %d embeddings, got %d", len(texts), len(out.Embeddings)))
	}
	for i, vec := range out.Embeddings {
		if e.dimension > 0 && len(vec) != e.dimension {
			return nil, domain.NewError(domain.KindConnection, "ollama.embed",
				fmt.Errorf("embedding %d has dimension %d, want %d", i, len(vec), e.dimension))
		}
	}

	e.logger.Debug("ollama_embed_completed",
		slog.Int("embedding_count", len(out.Embeddings)),
		slog.Duration("elapsed", time.Since(start)))

	return out.Embeddings, nil
}

func (e *Embedder) Dimension() int {
	return e.dimension
}

func (e *Embedder) Version() string {
	return e.model
}

var _ domain.VectorEncoder = (*Embedder)(nil)
