package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"travel-rag/internal/domain"
	"travel-rag/internal/infra/httpclient"
)

// keepAlive keeps the model loaded between requests.
const keepAlive = "10m"

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string         `json:"model"`
	Messages  []chatMessage  `json:"messages"`
	Stream    bool           `json:"stream"`
	KeepAlive string         `json:"keep_alive,omitempty"`
	Options   map[string]any `json:"options,omitempty"`
}

type chatChunk struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done  bool   `json:"done"`
	Error string `json:"error,omitempty"`
}

// Generator sends prompts to Ollama's chat endpoint. Responses are always
// requested as an NDJSON stream; Generate aggregates it.
type Generator struct {
	baseURL     string
	model       string
	temperature float64
	client      *http.Client
	logger      *slog.Logger
}

func NewGenerator(baseURL, model string, temperature float64, timeout time.Duration, logger *slog.Logger) *Generator {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Generator{
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		temperature: temperature,
		client:      httpclient.NewPooledClient(timeout),
		logger:      logger,
	}
}

func (g *Generator) buildOptions(maxTokens int) map[string]any {
	opts := map[string]any{"temperature": g.temperature}
	if maxTokens > 0 {
		opts["num_predict"] = maxTokens
	}
	return opts
}

func (g *Generator) openStream(ctx context.Context, prompt string, maxTokens int) (*http.Response, error) {
	payload, err := json.Marshal(chatRequest{
		Model:     g.model,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		Stream:    true,
		KeepAlive: keepAlive,
		Options:   g.buildOptions(maxTokens),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, domain.NewError(domain.KindConnection, "ollama.chat", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = resp.Body.Close()
		return nil, domain.NewError(domain.KindGeneration, "ollama.chat",
			fmt.Errorf("generation endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}
	return resp, nil
}

// Generate returns the full assistant message.
func (g *Generator) Generate(ctx context.Context, prompt string, maxTokens int) (*domain.LLMResponse, error) {
	start := time.Now()
	resp, err := g.openStream(ctx, prompt, maxTokens)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var b strings.Builder
	done := false
	err = readChunks(resp.Body, func(c chatChunk) bool {
		b.WriteString(c.Message.Content)
		done = c.Done
		return !c.Done
	})
	if err != nil {
		return nil, err
	}

	g.logger.Debug("ollama_generate_completed",
		slog.String("model", g.model),
		slog.Int("chars", b.Len()),
		slog.Duration("elapsed", time.Since(start)))

	return &domain.LLMResponse{Text: strings.TrimSpace(b.String()), Done: done}, nil
}

// GenerateStream yields chunks as they arrive. Both channels are closed
// when the stream ends.
func (g *Generator) GenerateStream(ctx context.Context, prompt string, maxTokens int) (<-chan domain.LLMStreamChunk, <-chan error, error) {
	resp, err := g.openStream(ctx, prompt, maxTokens)
	if err != nil {
		return nil, nil, err
	}

	chunks := make(chan domain.LLMStreamChunk)
	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		defer close(chunks)
		defer func() { _ = resp.Body.Close() }()

		err := readChunks(resp.Body, func(c chatChunk) bool {
			select {
			case <-ctx.Done():
				return false
			case chunks <- domain.LLMStreamChunk{Text: c.Message.Content, Done: c.Done}:
				return !c.Done
			}
		})
		if err != nil {
			errs <- err
			return
		}
		if ctx.Err() != nil {
			errs <- ctx.Err()
		}
	}()
	return chunks, errs, nil
}

func (g *Generator) Version() string {
	return g.model
}

// readChunks decodes NDJSON lines and hands each to fn until fn returns false
// or the body ends.
func readChunks(body io.Reader, fn func(chatChunk) bool) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var c chatChunk
		if err := json.Unmarshal(line, &c); err != nil {
			return domain.NewError(domain.KindGeneration, "ollama.chat", fmt.Errorf("failed to decode chunk: %w", err))
		}
		if c.Error != "" {
			return domain.NewError(domain.KindGeneration, "ollama.chat", errors.New(c.Error))
		}
		if !fn(c) {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return domain.NewError(domain.KindConnection, "ollama.chat", err)
	}
	return nil
}

var _ domain.LLMClient = (*Generator)(nil)
