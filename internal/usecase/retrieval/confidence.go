package retrieval

import "travel-rag/internal/domain"

// Confidence weights.
const (
	confidenceTopWeight      = 0.4
	confidenceTop3Weight     = 0.3
	confidenceCoverageWeight = 0.3
	confidenceFullCoverage   = 5
)

// Confidence summarises retrieval quality in [0,1]:
// 0.4·top + 0.3·mean(top 3) + 0.3·min(n/5, 1).
func Confidence(results []domain.SearchResult) float64 {
	if len(results) == 0 {
		return 0
	}

	top := results[0].Score

	k := min(3, len(results))
	var sum float64
	for _, r := range results[:k] {
		sum += r.Score
	}
	top3 := sum / float64(k)

	coverage := min(float64(len(results))/confidenceFullCoverage, 1.0)

	c := confidenceTopWeight*top + confidenceTop3Weight*top3 + confidenceCoverageWeight*coverage
	return clamp01(c)
}

// AverageScore returns the mean score, or 0 for an empty list.
func AverageScore(results []domain.SearchResult) float64 {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range results {
		sum += r.Score
	}
	return sum / float64(len(results))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
