// Package gemini adapts Google's Generative AI SDK to the embedding and
// LLM client interfaces.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"travel-rag/internal/domain"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// NewClient opens an SDK client. The caller closes it on shutdown.
func NewClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return client, nil
}

// Embedder batches texts through BatchEmbedContents.
type Embedder struct {
	model     *genai.EmbeddingModel
	name      string
	dimension int
	logger    *slog.Logger
}

func NewEmbedder(client *genai.Client, model string, dimension int, logger *slog.Logger) *Embedder {
	return &Embedder{
		model:     client.EmbeddingModel(model),
		name:      model,
		dimension: dimension,
		logger:    logger,
	}
}

func (e *Embedder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	batch := e.model.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}
	resp, err := e.model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, domain.NewError(domain.KindConnection, "gemini.embed", err)
	}
	return embeddingValues(resp, len(texts), e.dimension)
}

func (e *Embedder) Dimension() int  { return e.dimension }
func (e *Embedder) Version() string { return e.name }

func embeddingValues(resp *genai.BatchEmbedContentsResponse, want, dimension int) ([][]float32, error) {
	if resp == nil || len(resp.Embeddings) != want {
		got := 0
		if resp != nil {
			got = len(resp.Embeddings)
		}
		return nil, domain.NewError(domain.KindConnection, "gemini.embed", fmt.Errorf("expected %d embeddings, got %d", want, got))
	}
	out := make([][]float32, want)
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, domain.NewError(domain.KindConnection, "gemini.embed", fmt.Errorf("embedding %d is empty", i))
		}
		if dimension > 0 && len(emb.Values) != dimension {
			return nil, domain.NewError(domain.KindConnection, "gemini.embed",
				fmt.Errorf("embedding %d has dimension %d, want %d", i, len(emb.Values), dimension))
		}
		out[i] = emb.Values
	}
	return out, nil
}

// Generator calls GenerateContent on one model.
type Generator struct {
	client      *genai.Client
	name        string
	temperature float32
	logger      *slog.Logger
}

func NewGenerator(client *genai.Client, model string, temperature float64, logger *slog.Logger) *Generator {
	return &Generator{client: client, name: model, temperature: float32(temperature), logger: logger}
}

func (g *Generator) model(maxTokens int) *genai.GenerativeModel {
	m := g.client.GenerativeModel(g.name)
	m.SetTemperature(g.temperature)
	if maxTokens > 0 {
		m.SetMaxOutputTokens(int32(maxTokens))
	}
	return m
}

func (g *Generator) Generate(ctx context.Context, prompt string, maxTokens int) (*domain.LLMResponse, error) {
	resp, err := g.model(maxTokens).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, domain.NewError(domain.KindGeneration, "gemini.generate", err)
	}
	return &domain.LLMResponse{Text: strings.TrimSpace(responseText(resp)), Done: true}, nil
}

func (g *Generator) GenerateStream(ctx context.Context, prompt string, maxTokens int) (<-chan domain.LLMStreamChunk, <-chan error, error) {
	iter := g.model(maxTokens).GenerateContentStream(ctx, genai.Text(prompt))

	chunks := make(chan domain.LLMStreamChunk)
	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		defer close(chunks)
		for {
			resp, err := iter.Next()
			if errors.Is(err, iterator.Done) {
				select {
				case chunks <- domain.LLMStreamChunk{Done: true}:
				case <-ctx.Done():
				}
				return
			}
			if err != nil {
				errs <- domain.NewError(domain.KindGeneration, "gemini.stream", err)
				return
			}
			select {
			case chunks <- domain.LLMStreamChunk{Text: responseText(resp)}:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
	}()
	return chunks, errs, nil
}

func (g *Generator) Version() string {
	return g.name
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}

var (
	_ domain.VectorEncoder = (*Embedder)(nil)
	_ domain.LLMClient     = (*Generator)(nil)
)
