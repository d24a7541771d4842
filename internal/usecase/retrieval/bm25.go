package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"travel-rag/internal/domain"
)

// BM25Okapi parameters.
const (
	DefaultBM25K1 = 1.5
	DefaultBM25B  = 0.75
)

// BM25Scorer ranks an in-memory candidate set with BM25Okapi.
//
// Tokenisation is lower-case plus whitespace split with no stemming, so
// "japan?" and "japan" are different terms. Titles are counted twice ahead
// of the body to favour title matches.
type BM25Scorer struct {
	k1     float64
	b      float64
	logger *slog.Logger
}

// NewBM25Scorer returns a scorer with the standard k1/b parameters.
func NewBM25Scorer(logger *slog.Logger) *BM25Scorer {
	return &BM25Scorer{k1: DefaultBM25K1, b: DefaultBM25B, logger: logger}
}

// Tokenize lower-cases s and splits it on whitespace.
func Tokenize(s string) []string {
	return strings.Fields(strings.ToLower(s))
}

func lexicalText(doc domain.Document) string {
	return doc.Title + " " + doc.Title + " " + doc.Body
}

type bm25Doc struct {
	index  int
	length int
	tf     map[string]int
}

// Search scores candidates against query and returns up to limit results
// normalised by the highest raw score. A limit <= 0 returns every match.
func (s *BM25Scorer) Search(ctx context.Context, query string, candidates []domain.Document, limit int) ([]domain.SearchResult, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("bm25 search: %w", err)
	}

	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 {
		return nil, nil
	}

	docs := make([]bm25Doc, len(candidates))
	docFreq := make(map[string]int)
	totalLen := 0
	for i, cand := range candidates {
		tokens := Tokenize(lexicalText(cand))
		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
		}
		for tok := range tf {
			docFreq[tok]++
		}
		docs[i] = bm25Doc{index: i, length: len(tokens), tf: tf}
		totalLen += len(tokens)
	}

	n := float64(len(docs))
	avgLen := float64(totalLen) / n
	if avgLen == 0 {
		return nil, nil
	}

	idf := make(map[string]float64, len(queryTokens))
	for _, tok := range queryTokens {
		if _, ok := idf[tok]; ok {
			continue
		}
		df := float64(docFreq[tok])
		idf[tok] = math.Log(1 + (n-df+0.5)/(df+0.5))
	}

	type scored struct {
		index int
		raw   float64
	}
	hits := make([]scored, 0, len(docs))
	for i, d := range docs {
		if i%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("bm25 search: %w", err)
			}
		}
		norm := s.k1 * (1 - s.b + s.b*float64(d.length)/avgLen)
		var score float64
		for _, tok := range queryTokens {
			f := float64(d.tf[tok])
			if f == 0 {
				continue
			}
			score += idf[tok] * f * (s.k1 + 1) / (f + norm)
		}
		if score > 0 && !math.IsNaN(score) && !math.IsInf(score, 0) {
			hits = append(hits, scored{index: d.index, raw: score})
		}
	}
	if len(hits) == 0 {
		return nil, nil
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].raw > hits[j].raw
	})

	maxScore := hits[0].raw
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	results := make([]domain.SearchResult, len(hits))
	for i, h := range hits {
		results[i] = domain.SearchResult{
			Document: candidates[h.index],
			Score:    h.raw / maxScore,
			Rank:     i + 1,
		}
	}

	s.logger.Debug("bm25_search_completed",
		slog.Int("candidate_count", len(candidates)),
		slog.Int("query_terms", len(queryTokens)),
		slog.Int("match_count", len(results)),
		slog.Float64("max_raw_score", maxScore))

	return results, nil
}

var _ domain.LexicalSearcher = (*BM25Scorer)(nil)
