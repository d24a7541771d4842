package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"travel-rag/internal/domain"
	"travel-rag/internal/usecase"
	"travel-rag/internal/usecase/retrieval"

	"github.com/stretchr/testify/mock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type mockHybridSearcher struct {
	mock.Mock
}

func (m *mockHybridSearcher) Search(ctx context.Context, req retrieval.SearchRequest) ([]domain.SearchResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SearchResult), args.Error(1)
}

type mockAnswerGenerator struct {
	mock.Mock
}

func (m *mockAnswerGenerator) Generate(ctx context.Context, input usecase.GenerationInput) (usecase.GenerationOutput, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(usecase.GenerationOutput), args.Error(1)
}

func (m *mockAnswerGenerator) Stream(ctx context.Context, input usecase.GenerationInput) (<-chan string, <-chan error, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(<-chan string), args.Get(1).(<-chan error), args.Error(2)
}

func (m *mockAnswerGenerator) Model() string {
	return "mock-model"
}

type mockLLMClient struct {
	mock.Mock
}

func (m *mockLLMClient) Generate(ctx context.Context, prompt string, maxTokens int) (*domain.LLMResponse, error) {
	args := m.Called(ctx, prompt, maxTokens)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LLMResponse), args.Error(1)
}

func (m *mockLLMClient) GenerateStream(ctx context.Context, prompt string, maxTokens int) (<-chan domain.LLMStreamChunk, <-chan error, error) {
	args := m.Called(ctx, prompt, maxTokens)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(<-chan domain.LLMStreamChunk), args.Get(1).(<-chan error), args.Error(2)
}

func (m *mockLLMClient) Version() string {
	return "mock"
}

// conceptEncoder embeds text as an L2-normalised bag of concept stems.
// Destination stems weigh double so a wrong country costs more similarity
// than a shared topic word earns, as with a real embedding model.
type conceptEncoder struct {
	stems   []string
	weights map[string]float32
	err     error
}

func newConceptEncoder() *conceptEncoder {
	return &conceptEncoder{
		stems: []string{
			"japan", "visa", "india", "usa", "uae", "dubai", "law", "culture",
			"safety", "food", "passport", "schengen", "embassy", "uk",
		},
		weights: map[string]float32{
			"japan": 2, "usa": 2, "uae": 2, "dubai": 2, "uk": 2, "schengen": 2,
		},
	}
}

func (e *conceptEncoder) Encode(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		lower := strings.ToLower(t)
		vec := make([]float32, len(e.stems))
		var sq float64
		for j, stem := range e.stems {
			if !strings.Contains(lower, stem) {
				continue
			}
			w, ok := e.weights[stem]
			if !ok {
				w = 1
			}
			vec[j] = w
			sq += float64(w * w)
		}
		if sq > 0 {
			scale := float32(1 / math.Sqrt(sq))
			for j := range vec {
				vec[j] *= scale
			}
		}
		out[i] = vec
	}
	return out, nil
}

func (e *conceptEncoder) Dimension() int  { return len(e.stems) }
func (e *conceptEncoder) Version() string { return "concept-test" }

func doc(id, title, body, sourceCountry string, score float64) domain.SearchResult {
	return domain.SearchResult{
		Document: domain.Document{ID: id, Title: title, Body: body, Country: "Japan", SourceCountry: sourceCountry, LastUpdated: "2024-11-01"},
		Score:    score,
	}
}

func ranked(results ...domain.SearchResult) []domain.SearchResult {
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}

func testConfig() usecase.RetrievalConfig {
	cfg := usecase.DefaultRetrievalConfig()
	cfg.Retry = cfg.Retry.WithSleep(func(context.Context, time.Duration) error { return nil })
	return cfg
}
