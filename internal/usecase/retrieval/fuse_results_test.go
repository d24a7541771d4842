package retrieval_test

import (
	"testing"

	"travel-rag/internal/domain"
	"travel-rag/internal/usecase/retrieval"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReciprocalRankFusion_UnionAndScores(t *testing.T) {
	a, b, c := doc("a", "A", ""), doc("b", "B", ""), doc("c", "C", "")

	semantic := []domain.SearchResult{result(a, 0.9), result(b, 0.8)}
	lexical := []domain.SearchResult{result(b, 1.0), result(c, 0.4)}

	fused := retrieval.ReciprocalRankFusion(60, semantic, lexical)
	require.Len(t, fused, 3)

	// b appears in both lists so it leads.
	assert.Equal(t, "b", fused[0].Document.ID)
	assert.InDelta(t, 1.0/62+1.0/61, fused[0].RRFScore, 1e-12)
	assert.Equal(t, "a", fused[1].Document.ID)
	assert.InDelta(t, 1.0/61, fused[1].RRFScore, 1e-12)
	assert.Equal(t, "c", fused[2].Document.ID)
	assert.InDelta(t, 1.0/62, fused[2].RRFScore, 1e-12)
}

func TestReciprocalRankFusion_TiesKeepFirstSeenOrder(t *testing.T) {
	a, b := doc("a", "A", ""), doc("b", "B", "")

	fused := retrieval.ReciprocalRankFusion(60, []domain.SearchResult{result(a, 1)}, []domain.SearchResult{result(b, 1)})
	require.Len(t, fused, 2)
	assert.Equal(t, "a", fused[0].Document.ID)
	assert.Equal(t, "b", fused[1].Document.ID)
}

func TestReciprocalRankFusion_DuplicatesWithinListCountOnce(t *testing.T) {
	a := doc("a", "A", "")

	fused := retrieval.ReciprocalRankFusion(60, []domain.SearchResult{result(a, 1), result(a, 0.5)})
	require.Len(t, fused, 1)
	assert.InDelta(t, 1.0/61, fused[0].RRFScore, 1e-12)
}

func TestReciprocalRankFusion_NonPositiveKUsesDefault(t *testing.T) {
	a := doc("a", "A", "")

	fused := retrieval.ReciprocalRankFusion(0, []domain.SearchResult{result(a, 1)})
	require.Len(t, fused, 1)
	assert.InDelta(t, 1.0/(retrieval.DefaultRRFK+1), fused[0].RRFScore, 1e-12)
}

func TestReciprocalRankFusion_Empty(t *testing.T) {
	assert.Empty(t, retrieval.ReciprocalRankFusion(60))
	assert.Empty(t, retrieval.ReciprocalRankFusion(60, nil, nil))
}
