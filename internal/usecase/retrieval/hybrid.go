package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"travel-rag/internal/domain"
	"travel-rag/internal/infra/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// alphaEpsilon decides when alpha counts as pure semantic (1) or pure lexical (0).
const alphaEpsilon = 0.01

// Search modes reported in logs and spans.
const (
	ModeSemantic = "semantic"
	ModeLexical  = "lexical"
	ModeHybrid   = "hybrid"
	ModeFallback = "semantic_fallback"
)

// HybridConfig holds the fusion parameters.
type HybridConfig struct {
	// Alpha weights semantic (1.0) against lexical (0.0) scores.
	Alpha float64
	// RRFK is the Reciprocal Rank Fusion constant.
	RRFK float64
	// Overfetch multiplies max results for the candidate pool size.
	Overfetch int
}

// DefaultHybridConfig returns alpha 0.7, k 60 and a 2x overfetch.
func DefaultHybridConfig() HybridConfig {
	return HybridConfig{Alpha: 0.7, RRFK: DefaultRRFK, Overfetch: 2}
}

// Validate checks the configuration ranges.
func (c HybridConfig) Validate() error {
	if c.Alpha < 0 || c.Alpha > 1 {
		return fmt.Errorf("hybrid alpha must be in [0.0, 1.0], got %f", c.Alpha)
	}
	if c.RRFK <= 0 {
		return fmt.Errorf("rrf k must be positive, got %f", c.RRFK)
	}
	if c.Overfetch < 1 {
		return fmt.Errorf("overfetch must be at least 1, got %d", c.Overfetch)
	}
	return nil
}

// SearchRequest is one hybrid search call. A nil Alpha uses the configured default.
type SearchRequest struct {
	Query      string
	Filter     domain.Filter
	MaxResults int
	Alpha      *float64
}

// HybridRetriever runs semantic search, then BM25 over the semantic pool,
// and blends the two by alpha.
type HybridRetriever struct {
	encoder domain.VectorEncoder
	index   domain.VectorIndex
	lexical domain.LexicalSearcher
	cfg     HybridConfig
	cache   *CandidateCache
	tracer  trace.Tracer
	logger  *slog.Logger
}

// HybridOption customises a HybridRetriever.
type HybridOption func(*HybridRetriever)

// WithCandidateCache enables caching of semantic candidate pools.
func WithCandidateCache(c *CandidateCache) HybridOption {
	return func(r *HybridRetriever) {
		r.cache = c
	}
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) HybridOption {
	return func(r *HybridRetriever) {
		r.tracer = t
	}
}

// NewHybridRetriever wires the retriever. lexical may be any LexicalSearcher;
// production uses BM25Scorer.
func NewHybridRetriever(
	encoder domain.VectorEncoder,
	index domain.VectorIndex,
	lexical domain.LexicalSearcher,
	cfg HybridConfig,
	logger *slog.Logger,
	opts ...HybridOption,
) *HybridRetriever {
	if cfg.RRFK <= 0 {
		cfg.RRFK = DefaultRRFK
	}
	if cfg.Overfetch < 1 {
		cfg.Overfetch = 2
	}
	r := &HybridRetriever{
		encoder: encoder,
		index:   index,
		lexical: lexical,
		cfg:     cfg,
		tracer:  otel.Tracer("travel-rag/retrieval"),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefaultAlpha returns the configured alpha.
func (r *HybridRetriever) DefaultAlpha() float64 {
	return r.cfg.Alpha
}

// Invalidate drops cached candidate pools. Call after re-indexing.
func (r *HybridRetriever) Invalidate() {
	if r.cache != nil {
		r.cache.Purge()
	}
}

// Search returns at most MaxResults results sorted by descending score with
// contiguous ranks from 1. Semantic failures are returned as retrieval
// errors; lexical failures fall back to the semantic ranking.
func (r *HybridRetriever) Search(ctx context.Context, req SearchRequest) ([]domain.SearchResult, error) {
	start := time.Now()

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = domain.DefaultMaxResults
	}
	alpha := r.cfg.Alpha
	if req.Alpha != nil {
		alpha = clamp01(*req.Alpha)
	}
	fetch := maxResults * r.cfg.Overfetch

	ctx, span := r.tracer.Start(ctx, "hybrid.search", trace.WithAttributes(
		attribute.Int("rag.max_results", maxResults),
		attribute.Float64("rag.alpha", alpha),
	))
	defer span.End()

	semantic, err := r.semanticSearch(ctx, req.Query, req.Filter, fetch)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "semantic search failed")
		return nil, err
	}

	mode := ModeHybrid
	var results []domain.SearchResult

	switch {
	case alpha >= 1-alphaEpsilon:
		mode = ModeSemantic
		results = finalize(semantic, maxResults)
	default:
		lexical, lexErr := r.lexicalSearch(ctx, req.Query, semantic, fetch)
		switch {
		case lexErr != nil:
			mode = ModeFallback
			metrics.LexicalFallbackTotal.Inc()
			r.logger.Warn("lexical_search_failed_using_semantic_only",
				slog.String("error", lexErr.Error()),
				slog.Int("semantic_count", len(semantic)))
			results = finalize(semantic, maxResults)
		case alpha <= alphaEpsilon:
			mode = ModeLexical
			results = finalize(lexical, maxResults)
		default:
			results = finalize(r.fuse(ctx, semantic, lexical, alpha), maxResults)
		}
	}

	span.SetAttributes(
		attribute.String("rag.search_mode", mode),
		attribute.Int("rag.result_count", len(results)),
	)
	metrics.RetrievalResults.Observe(float64(len(results)))

	r.logger.Info("hybrid_search_completed",
		slog.String("mode", mode),
		slog.Float64("alpha", alpha),
		slog.Int("semantic_count", len(semantic)),
		slog.Int("result_count", len(results)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return results, nil
}

func (r *HybridRetriever) semanticSearch(ctx context.Context, query string, filter domain.Filter, k int) ([]domain.SearchResult, error) {
	if r.cache != nil {
		if pool, ok := r.cache.Get(query, filter, k); ok {
			r.logger.Debug("semantic_candidates_cache_hit", slog.Int("count", len(pool)))
			return pool, nil
		}
	}

	ctx, span := r.tracer.Start(ctx, "hybrid.semantic")
	defer span.End()

	vec, err := domain.EncodeOne(ctx, r.encoder, query)
	if err != nil {
		return nil, domain.NewError(domain.KindRetrieval, "hybrid.embed_query", err)
	}

	hits, err := r.index.Query(ctx, vec, k, filter)
	if err != nil {
		return nil, domain.NewError(domain.KindRetrieval, "hybrid.semantic_search", err)
	}

	seen := make(map[string]bool, len(hits))
	pool := make([]domain.SearchResult, 0, len(hits))
	for _, h := range hits {
		if seen[h.Document.ID] {
			continue
		}
		seen[h.Document.ID] = true
		pool = append(pool, domain.SearchResult{Document: h.Document, Score: clamp01(h.Score)})
	}
	sortByScore(pool)
	assignRanks(pool)

	span.SetAttributes(attribute.Int("rag.candidate_count", len(pool)))

	if r.cache != nil {
		r.cache.Add(query, filter, k, pool)
	}
	return pool, nil
}

func (r *HybridRetriever) lexicalSearch(ctx context.Context, query string, pool []domain.SearchResult, limit int) ([]domain.SearchResult, error) {
	ctx, span := r.tracer.Start(ctx, "hybrid.lexical")
	defer span.End()

	docs := make([]domain.Document, len(pool))
	for i, res := range pool {
		docs[i] = res.Document
	}
	results, err := r.lexical.Search(ctx, query, docs, limit)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return results, nil
}

// fuse builds the RRF union and scores each candidate with
// alpha·semantic + (1-alpha)·lexical. A side that did not return the
// document contributes 0. Equal scores keep RRF order.
func (r *HybridRetriever) fuse(ctx context.Context, semantic, lexical []domain.SearchResult, alpha float64) []domain.SearchResult {
	_, span := r.tracer.Start(ctx, "hybrid.fuse")
	defer span.End()

	semScores := make(map[string]float64, len(semantic))
	for _, res := range semantic {
		semScores[res.Document.ID] = res.Score
	}
	lexScores := make(map[string]float64, len(lexical))
	for _, res := range lexical {
		lexScores[res.Document.ID] = res.Score
	}

	candidates := ReciprocalRankFusion(r.cfg.RRFK, semantic, lexical)

	out := make([]domain.SearchResult, len(candidates))
	for i, c := range candidates {
		id := c.Document.ID
		out[i] = domain.SearchResult{
			Document: c.Document,
			Score:    clamp01(alpha*semScores[id] + (1-alpha)*lexScores[id]),
		}
	}
	sortByScore(out)
	span.SetAttributes(attribute.Int("rag.fused_count", len(out)))
	return out
}

// finalize copies, sorts, truncates and re-ranks a result list.
func finalize(results []domain.SearchResult, maxResults int) []domain.SearchResult {
	out := append([]domain.SearchResult(nil), results...)
	sortByScore(out)
	if len(out) > maxResults {
		out = out[:maxResults]
	}
	assignRanks(out)
	return out
}

func sortByScore(results []domain.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}

func assignRanks(results []domain.SearchResult) {
	for i := range results {
		results[i].Rank = i + 1
	}
}
