// Package openai adapts the OpenAI API (or any compatible server) to the
// embedding and LLM client interfaces.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"travel-rag/internal/domain"

	goopenai "github.com/sashabaranov/go-openai"
)

// NewClient builds an API client. baseURL is optional and points the client
// at a compatible server.
func NewClient(apiKey, baseURL string) *goopenai.Client {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return goopenai.NewClientWithConfig(cfg)
}

type Embedder struct {
	client    *goopenai.Client
	model     string
	dimension int
	logger    *slog.Logger
}

func NewEmbedder(client *goopenai.Client, model string, dimension int, logger *slog.Logger) *Embedder {
	return &Embedder{client: client, model: model, dimension: dimension, logger: logger}
}

func (e *Embedder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	resp, err := e.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Input: texts,
		Model: goopenai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, domain.NewError(domain.KindConnection, "openai.embed", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, domain.NewError(domain.KindConnection, "openai.embed",
			fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data)))
	}

	data := append([]goopenai.Embedding(nil), resp.Data...)
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	out := make([][]float32, len(data))
	for i, d := range data {
		if e.dimension > 0 && len(d.Embedding) != e.dimension {
			return nil, domain.NewError(domain.KindConnection, "openai.embed",
				fmt.Errorf("embedding %d has dimension %d, want %d", i, len(d.Embedding), e.dimension))
		}
		out[i] = d.Embedding
	}
	return out, nil
}

func (e *Embedder) Dimension() int  { return e.dimension }
func (e *Embedder) Version() string { return e.model }

type Generator struct {
	client      *goopenai.Client
	model       string
	temperature float32
	logger      *slog.Logger
}

func NewGenerator(client *goopenai.Client, model string, temperature float64, logger *slog.Logger) *Generator {
	return &Generator{client: client, model: model, temperature: float32(temperature), logger: logger}
}

func (g *Generator) request(prompt string, maxTokens int, stream bool) goopenai.ChatCompletionRequest {
	return goopenai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    []goopenai.ChatCompletionMessage{{Role: goopenai.ChatMessageRoleUser, Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: g.temperature,
		Stream:      stream,
	}
}

func (g *Generator) Generate(ctx context.Context, prompt string, maxTokens int) (*domain.LLMResponse, error) {
	resp, err := g.client.CreateChatCompletion(ctx, g.request(prompt, maxTokens, false))
	if err != nil {
		return nil, classify("openai.generate", err)
	}
	if len(resp.Choices) == 0 {
		return &domain.LLMResponse{Done: true}, nil
	}
	return &domain.LLMResponse{
		Text: strings.TrimSpace(resp.Choices[0].Message.Content),
		Done: resp.Choices[0].FinishReason != goopenai.FinishReasonNull,
	}, nil
}

func (g *Generator) GenerateStream(ctx context.Context, prompt string, maxTokens int) (<-chan domain.LLMStreamChunk, <-chan error, error) {
	stream, err := g.client.CreateChatCompletionStream(ctx, g.request(prompt, maxTokens, true))
	if err != nil {
		return nil, nil, classify("openai.stream", err)
	}

	chunks := make(chan domain.LLMStreamChunk)
	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		defer close(chunks)
		defer stream.Close()
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				select {
				case chunks <- domain.LLMStreamChunk{Done: true}:
				case <-ctx.Done():
				}
				return
			}
			if err != nil {
				errs <- classify("openai.stream", err)
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			select {
			case chunks <- domain.LLMStreamChunk{Text: resp.Choices[0].Delta.Content}:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
	}()
	return chunks, errs, nil
}

func (g *Generator) Version() string {
	return g.model
}

// classify maps API errors (the server answered) to generation failures and
// everything else to connection failures.
func classify(op string, err error) error {
	var apiErr *goopenai.APIError
	var reqErr *goopenai.RequestError
	if errors.As(err, &apiErr) || errors.As(err, &reqErr) {
		return domain.NewError(domain.KindGeneration, op, err)
	}
	return domain.NewError(domain.KindConnection, op, err)
}

var (
	_ domain.VectorEncoder = (*Embedder)(nil)
	_ domain.LLMClient     = (*Generator)(nil)
)
