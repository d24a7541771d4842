package retrieval_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"travel-rag/internal/domain"
	"travel-rag/internal/usecase/retrieval"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func alpha(v float64) *float64 { return &v }

func fixedIndex(hits ...domain.ScoredDocument) *fakeIndex {
	return &fakeIndex{hits: hits}
}

func assertWellFormed(t *testing.T, results []domain.SearchResult, maxResults int) {
	t.Helper()
	assert.LessOrEqual(t, len(results), maxResults)
	seen := map[string]bool{}
	for i, r := range results {
		assert.Equal(t, i+1, r.Rank, "ranks must be contiguous from 1")
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
		assert.False(t, seen[r.Document.ID], "duplicate %s", r.Document.ID)
		seen[r.Document.ID] = true
		if i > 0 {
			assert.GreaterOrEqual(t, results[i-1].Score, r.Score, "scores must be non-increasing")
		}
	}
}

func TestHybridSearch_AlphaOneSkipsLexical(t *testing.T) {
	d1, d2, d3 := doc("d1", "A", ""), doc("d2", "B", ""), doc("d3", "C", "")
	lex := &countingLexical{}
	r := retrieval.NewHybridRetriever(newConceptEncoder(), fixedIndex(scored(d1, 0.9), scored(d2, 0.7), scored(d3, 0.2)),
		lex, retrieval.DefaultHybridConfig(), discardLogger())

	results, err := r.Search(context.Background(), retrieval.SearchRequest{Query: "japan", MaxResults: 2, Alpha: alpha(1.0)})
	require.NoError(t, err)

	assert.Equal(t, 0, lex.calls)
	assert.Equal(t, []string{"d1", "d2"}, ids(results))
	assert.Equal(t, 0.9, results[0].Score)
	assertWellFormed(t, results, 2)
}

func TestHybridSearch_AlphaZeroIsLexicalOnly(t *testing.T) {
	d1, d2 := doc("d1", "A", ""), doc("d2", "B", "")
	lex := &countingLexical{results: []domain.SearchResult{result(d2, 1.0), result(d1, 0.3)}}
	r := retrieval.NewHybridRetriever(newConceptEncoder(), fixedIndex(scored(d1, 0.9), scored(d2, 0.1)),
		lex, retrieval.DefaultHybridConfig(), discardLogger())

	results, err := r.Search(context.Background(), retrieval.SearchRequest{Query: "japan", MaxResults: 5, Alpha: alpha(0)})
	require.NoError(t, err)

	assert.Equal(t, []string{"d2", "d1"}, ids(results))
	assert.Equal(t, 1.0, results[0].Score)
	assert.Equal(t, 0.3, results[1].Score)
	assertWellFormed(t, results, 5)
}

func TestHybridSearch_LexicalRunsOverSemanticPool(t *testing.T) {
	d1, d2 := doc("d1", "A", ""), doc("d2", "B", "")
	lex := &countingLexical{}
	r := retrieval.NewHybridRetriever(newConceptEncoder(), fixedIndex(scored(d1, 0.9), scored(d2, 0.5)),
		lex, retrieval.DefaultHybridConfig(), discardLogger())

	_, err := r.Search(context.Background(), retrieval.SearchRequest{Query: "japan", MaxResults: 3})
	require.NoError(t, err)

	require.Equal(t, 1, lex.calls)
	assert.Equal(t, 6, lex.limit)
	require.Len(t, lex.candidates, 2)
	assert.Equal(t, "d1", lex.candidates[0].ID)
	assert.Equal(t, "d2", lex.candidates[1].ID)
}

func TestHybridSearch_WeightedFusion(t *testing.T) {
	d1, d2, d3 := doc("d1", "A", ""), doc("d2", "B", ""), doc("d3", "C", "")
	lex := &countingLexical{results: []domain.SearchResult{result(d3, 1.0), result(d1, 0.5)}}
	r := retrieval.NewHybridRetriever(newConceptEncoder(), fixedIndex(scored(d1, 0.9), scored(d2, 0.8), scored(d3, 0.1)),
		lex, retrieval.DefaultHybridConfig(), discardLogger())

	results, err := r.Search(context.Background(), retrieval.SearchRequest{Query: "japan", MaxResults: 5, Alpha: alpha(0.5)})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, []string{"d1", "d3", "d2"}, ids(results))
	assert.InDelta(t, 0.7, results[0].Score, 1e-9)
	assert.InDelta(t, 0.55, results[1].Score, 1e-9)
	// d2 has no lexical score, which counts as zero.
	assert.InDelta(t, 0.4, results[2].Score, 1e-9)
	assertWellFormed(t, results, 5)
}

func TestHybridSearch_TiesKeepRRFOrder(t *testing.T) {
	d1, d2 := doc("d1", "A", ""), doc("d2", "B", "")
	lex := &countingLexical{}
	r := retrieval.NewHybridRetriever(newConceptEncoder(), fixedIndex(scored(d1, 0.5), scored(d2, 0.5)),
		lex, retrieval.DefaultHybridConfig(), discardLogger())

	results, err := r.Search(context.Background(), retrieval.SearchRequest{Query: "japan", MaxResults: 5, Alpha: alpha(0.5)})
	require.NoError(t, err)
	assert.Equal(t, []string{"d1", "d2"}, ids(results))
}

func TestHybridSearch_LexicalFailureFallsBackToSemantic(t *testing.T) {
	d1, d2 := doc("d1", "A", ""), doc("d2", "B", "")
	lex := &countingLexical{err: errors.New("tokeniser exploded")}
	r := retrieval.NewHybridRetriever(newConceptEncoder(), fixedIndex(scored(d2, 0.8), scored(d1, 0.6)),
		lex, retrieval.DefaultHybridConfig(), discardLogger())

	results, err := r.Search(context.Background(), retrieval.SearchRequest{Query: "japan", MaxResults: 5})
	require.NoError(t, err)

	assert.Equal(t, 1, lex.calls)
	assert.Equal(t, []string{"d2", "d1"}, ids(results))
	assert.Equal(t, 0.8, results[0].Score)
}

func TestHybridSearch_SemanticFailureIsRetrievalError(t *testing.T) {
	enc := new(MockVectorEncoder)
	enc.On("Encode", mock.Anything, []string{"japan"}).Return([][]float32{{1, 0, 0}}, nil)

	idx := new(MockVectorIndex)
	idx.On("Query", mock.Anything, []float32{1, 0, 0}, 10, domain.Filter{}).Return(nil, errors.New("connection refused"))

	lex := &countingLexical{}
	r := retrieval.NewHybridRetriever(enc, idx, lex, retrieval.DefaultHybridConfig(), discardLogger())

	_, err := r.Search(context.Background(), retrieval.SearchRequest{Query: "japan", MaxResults: 5})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRetrieval)
	assert.Equal(t, 0, lex.calls)
	enc.AssertExpectations(t)
	idx.AssertExpectations(t)
}

func TestHybridSearch_EncoderFailureIsRetrievalError(t *testing.T) {
	enc := new(MockVectorEncoder)
	enc.On("Encode", mock.Anything, mock.Anything).Return(nil, errors.New("embedder down"))

	idx := new(MockVectorIndex)
	r := retrieval.NewHybridRetriever(enc, idx, &countingLexical{}, retrieval.DefaultHybridConfig(), discardLogger())

	_, err := r.Search(context.Background(), retrieval.SearchRequest{Query: "japan", MaxResults: 5})
	assert.ErrorIs(t, err, domain.ErrRetrieval)
	idx.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHybridSearch_EmptyIndex(t *testing.T) {
	r := retrieval.NewHybridRetriever(newConceptEncoder(), &fakeIndex{}, retrieval.NewBM25Scorer(discardLogger()),
		retrieval.DefaultHybridConfig(), discardLogger())

	results, err := r.Search(context.Background(), retrieval.SearchRequest{Query: "japan visa", MaxResults: 5})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestHybridSearch_ClampsAndDeduplicatesSemanticHits(t *testing.T) {
	d1, d2 := doc("d1", "A", ""), doc("d2", "B", "")
	r := retrieval.NewHybridRetriever(newConceptEncoder(), fixedIndex(scored(d1, 1.2), scored(d1, 0.9), scored(d2, -0.3)),
		&countingLexical{}, retrieval.DefaultHybridConfig(), discardLogger())

	results, err := r.Search(context.Background(), retrieval.SearchRequest{Query: "japan", MaxResults: 5, Alpha: alpha(1)})
	require.NoError(t, err)

	assert.Equal(t, []string{"d1", "d2"}, ids(results))
	assert.Equal(t, 1.0, results[0].Score)
	assert.Equal(t, 0.0, results[1].Score)
}

func TestHybridSearch_FilterReachesIndex(t *testing.T) {
	enc := newConceptEncoder()
	idx := &fakeIndex{}
	docs := []domain.Document{
		{ID: "jp", Title: "Japan visa", Body: "Japan visa for India", Country: "Japan", Category: domain.CategoryVisaRequirements},
		{ID: "ae", Title: "UAE visa", Body: "UAE visa for India", Country: "UAE", Category: domain.CategoryVisaRequirements},
	}
	indexAll(t, enc, idx, docs)

	r := retrieval.NewHybridRetriever(enc, idx, retrieval.NewBM25Scorer(discardLogger()), retrieval.DefaultHybridConfig(), discardLogger())
	results, err := r.Search(context.Background(), retrieval.SearchRequest{
		Query:      "visa for india",
		Filter:     domain.Filter{Country: "UAE"},
		MaxResults: 5,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "ae", results[0].Document.ID)
}

func TestHybridSearch_ExactTitleRoundTrip(t *testing.T) {
	enc := newConceptEncoder()
	idx := &fakeIndex{}
	docs := []domain.Document{
		{ID: "jp", Title: "Japan Tourist Visa Requirements", Body: "Indian citizens traveling to Japan require a visa from the embassy."},
		{ID: "ae", Title: "UAE Laws for Tourists", Body: "Dubai has strict law on alcohol and dress."},
		{ID: "in", Title: "India Safety Tips", Body: "Stay alert in crowded places in India."},
	}
	indexAll(t, enc, idx, docs)

	r := retrieval.NewHybridRetriever(enc, idx, retrieval.NewBM25Scorer(discardLogger()), retrieval.DefaultHybridConfig(), discardLogger())

	for _, a := range []*float64{nil, alpha(0), alpha(1)} {
		results, err := r.Search(context.Background(), retrieval.SearchRequest{Query: "Japan Tourist Visa Requirements", MaxResults: 3, Alpha: a})
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, "jp", results[0].Document.ID)
		assert.Equal(t, 1, results[0].Rank)
		assertWellFormed(t, results, 3)
	}

	lexicalOnly, err := r.Search(context.Background(), retrieval.SearchRequest{Query: "Japan Tourist Visa Requirements", MaxResults: 3, Alpha: alpha(0)})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, lexicalOnly[0].Score, 1e-9)
}

func TestHybridSearch_CandidateCacheAndInvalidate(t *testing.T) {
	d1 := doc("d1", "A", "")
	idx := fixedIndex(scored(d1, 0.9))
	cache := retrieval.NewCandidateCache(16, time.Minute)
	r := retrieval.NewHybridRetriever(newConceptEncoder(), idx, &countingLexical{}, retrieval.DefaultHybridConfig(), discardLogger(),
		retrieval.WithCandidateCache(cache))

	req := retrieval.SearchRequest{Query: "japan", MaxResults: 5}
	_, err := r.Search(context.Background(), req)
	require.NoError(t, err)
	_, err = r.Search(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, idx.queryCount())

	r.Invalidate()
	_, err = r.Search(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, idx.queryCount())
}

func TestHybridSearch_DefaultsMaxResults(t *testing.T) {
	hits := make([]domain.ScoredDocument, 0, 12)
	for i := 0; i < 12; i++ {
		hits = append(hits, scored(doc(string(rune('a'+i)), "", ""), 0.9-float64(i)*0.05))
	}
	r := retrieval.NewHybridRetriever(newConceptEncoder(), fixedIndex(hits...), &countingLexical{}, retrieval.DefaultHybridConfig(), discardLogger())

	results, err := r.Search(context.Background(), retrieval.SearchRequest{Query: "japan"})
	require.NoError(t, err)
	assert.Len(t, results, domain.DefaultMaxResults)
	assertWellFormed(t, results, domain.DefaultMaxResults)
}

func TestHybridConfig_Validate(t *testing.T) {
	assert.NoError(t, retrieval.DefaultHybridConfig().Validate())
	assert.Error(t, retrieval.HybridConfig{Alpha: 1.5, RRFK: 60, Overfetch: 2}.Validate())
	assert.Error(t, retrieval.HybridConfig{Alpha: 0.5, RRFK: 0, Overfetch: 2}.Validate())
	assert.Error(t, retrieval.HybridConfig{Alpha: 0.5, RRFK: 60, Overfetch: 0}.Validate())
}

func indexAll(t *testing.T, enc domain.VectorEncoder, idx domain.VectorIndex, docs []domain.Document) {
	t.Helper()
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.EmbeddingText()
	}
	vecs, err := enc.Encode(context.Background(), texts)
	require.NoError(t, err)
	batch := make([]domain.IndexedDocument, len(docs))
	for i, d := range docs {
		batch[i] = domain.IndexedDocument{Document: d, Embedding: vecs[i]}
	}
	require.NoError(t, idx.Upsert(context.Background(), batch))
}
