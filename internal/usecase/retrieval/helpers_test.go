package retrieval_test

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"

	"travel-rag/internal/domain"

	"github.com/stretchr/testify/mock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// conceptEncoder embeds text as an L2-normalised bag of concept stems.
type conceptEncoder struct {
	stems []string
}

func newConceptEncoder() *conceptEncoder {
	return &conceptEncoder{stems: []string{
		"japan", "visa", "india", "usa", "uae", "dubai", "law", "culture",
		"safety", "food", "passport", "tokyo", "schengen", "embassy",
	}}
}

func (e *conceptEncoder) Encode(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		lower := strings.ToLower(t)
		vec := make([]float32, len(e.stems))
		var norm float64
		for j, stem := range e.stems {
			if strings.Contains(lower, stem) {
				vec[j] = 1
				norm++
			}
		}
		if norm > 0 {
			scale := float32(1 / math.Sqrt(norm))
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

// fakeIndex answers queries by brute-force cosine over its documents, or
// from fixed hits when those are set.
type fakeIndex struct {
	mu      sync.Mutex
	docs    []domain.IndexedDocument
	hits    []domain.ScoredDocument
	queries int
}

func (f *fakeIndex) EnsureCollection(context.Context, int) error { return nil }

func (f *fakeIndex) Upsert(_ context.Context, docs []domain.IndexedDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = append(f.docs, docs...)
	return nil
}

func (f *fakeIndex) Query(_ context.Context, vector []float32, k int, filter domain.Filter) ([]domain.ScoredDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++

	if f.hits != nil {
		out := append([]domain.ScoredDocument(nil), f.hits...)
		if len(out) > k {
			out = out[:k]
		}
		return out, nil
	}

	var out []domain.ScoredDocument
	for _, d := range f.docs {
		if filter.Country != "" && d.Document.Country != filter.Country {
			continue
		}
		if filter.Category != nil && d.Document.Category != *filter.Category {
			continue
		}
		out = append(out, domain.ScoredDocument{Document: d.Document, Score: cosine(vector, d.Embedding)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func (f *fakeIndex) CollectionStats(context.Context) (domain.CollectionStats, error) {
	return domain.CollectionStats{Count: len(f.docs)}, nil
}

func (f *fakeIndex) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// countingLexical records calls and returns fixed results or an error.
type countingLexical struct {
	calls      int
	results    []domain.SearchResult
	err        error
	candidates []domain.Document
	limit      int
}

func (c *countingLexical) Search(_ context.Context, _ string, candidates []domain.Document, limit int) ([]domain.SearchResult, error) {
	c.calls++
	c.candidates = candidates
	c.limit = limit
	if c.err != nil {
		return nil, c.err
	}
	return c.results, nil
}

// MockVectorEncoder is a test double for domain.VectorEncoder.
type MockVectorEncoder struct {
	mock.Mock
}

func (m *MockVectorEncoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

func (m *MockVectorEncoder) Dimension() int  { return 3 }
func (m *MockVectorEncoder) Version() string { return "mock" }

// MockVectorIndex is a test double for domain.VectorIndex.
type MockVectorIndex struct {
	mock.Mock
}

func (m *MockVectorIndex) EnsureCollection(ctx context.Context, dimension int) error {
	return m.Called(ctx, dimension).Error(0)
}

func (m *MockVectorIndex) Upsert(ctx context.Context, docs []domain.IndexedDocument) error {
	return m.Called(ctx, docs).Error(0)
}

func (m *MockVectorIndex) Query(ctx context.Context, vector []float32, k int, filter domain.Filter) ([]domain.ScoredDocument, error) {
	args := m.Called(ctx, vector, k, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ScoredDocument), args.Error(1)
}

func (m *MockVectorIndex) CollectionStats(ctx context.Context) (domain.CollectionStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.CollectionStats), args.Error(1)
}

func doc(id, title, body string) domain.Document {
	return domain.Document{ID: id, Title: title, Body: body, Country: "Japan", Reliability: domain.DefaultReliability}
}

func scored(d domain.Document, score float64) domain.ScoredDocument {
	return domain.ScoredDocument{Document: d, Score: score}
}

func result(d domain.Document, score float64) domain.SearchResult {
	return domain.SearchResult{Document: d, Score: score}
}

func ids(results []domain.SearchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Document.ID
	}
	return out
}
