package retrieval_test

import (
	"testing"

	"travel-rag/internal/domain"
	"travel-rag/internal/usecase/retrieval"

	"github.com/stretchr/testify/assert"
)

func indiaSourced(score float64) []domain.SearchResult {
	d := doc("visa_india_japan_001", "Japan Tourist Visa Requirements for Indian Citizens", "")
	d.SourceCountry = "India"
	return []domain.SearchResult{{Document: d, Score: score, Rank: 1}}
}

func TestGapDetector_Detect(t *testing.T) {
	detector := retrieval.NewGapDetector(0, "")
	assert.Equal(t, retrieval.DefaultRelevanceThreshold, detector.Threshold())

	tests := []struct {
		name     string
		query    string
		results  []domain.SearchResult
		wantGap  bool
		contains []string
	}{
		{
			name:     "unsupported nationality with weak india-sourced match",
			query:    "What visa do Chinese citizens need for Japan?",
			results:  indiaSourced(0.4),
			wantGap:  true,
			contains: []string{"Chinese citizens", "China-specific", "Indian citizens", "travel to India", "embassy"},
		},
		{
			name:    "strong match is not a gap",
			query:   "What visa do Chinese citizens need for Japan?",
			results: indiaSourced(0.9),
		},
		{
			name:    "no unsupported keyword",
			query:   "What visa do I need for Japan?",
			results: indiaSourced(0.4),
		},
		{
			name:  "top document not sourced from covered country",
			query: "Do Brazilian tourists need a visa for India?",
			results: func() []domain.SearchResult {
				r := indiaSourced(0.4)
				r[0].Document.SourceCountry = "USA"
				return r
			}(),
		},
		{
			name:    "empty results",
			query:   "chinese visa",
			results: nil,
		},
		{
			name:     "multi-word keyword",
			query:    "south korea passport holders and Japan",
			results:  indiaSourced(0.2),
			wantGap:  true,
			contains: []string{"South Korea citizens", "South Korea-specific"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, gap := detector.Detect(tt.query, tt.results)
			assert.Equal(t, tt.wantGap, gap)
			if !tt.wantGap {
				assert.Empty(t, msg)
				return
			}
			for _, s := range tt.contains {
				assert.Contains(t, msg, s)
			}
		})
	}
}

func TestGapDetector_CustomThreshold(t *testing.T) {
	detector := retrieval.NewGapDetector(0.95, "India")

	_, gap := detector.Detect("russian traveller", indiaSourced(0.9))
	assert.True(t, gap)
}
