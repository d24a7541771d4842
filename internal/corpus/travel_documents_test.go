package corpus_test

import (
	"testing"

	"travel-rag/internal/corpus"
	"travel-rag/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll_DocumentsAreValidAndUnique(t *testing.T) {
	docs := corpus.All()
	require.Len(t, docs, 15)

	seen := map[string]bool{}
	for _, d := range docs {
		assert.NoError(t, d.Validate(), d.ID)
		assert.False(t, seen[d.ID], "duplicate id %s", d.ID)
		seen[d.ID] = true
		assert.Equal(t, domain.StatusPending, d.Status)
		assert.GreaterOrEqual(t, d.Reliability, 0.0)
		assert.LessOrEqual(t, d.Reliability, 1.0)
	}
}

func TestAll_ReturnsCopies(t *testing.T) {
	first := corpus.All()
	first[0].Tags[0] = "mutated"
	first[0].Title = "mutated"

	second := corpus.All()
	assert.NotEqual(t, "mutated", second[0].Tags[0])
	assert.NotEqual(t, "mutated", second[0].Title)
}

func TestByID(t *testing.T) {
	d, ok := corpus.ByID("visa_india_japan_001")
	require.True(t, ok)
	assert.Equal(t, "Japan", d.Country)
	assert.Equal(t, "India", d.SourceCountry)
	assert.Equal(t, domain.CategoryVisaRequirements, d.Category)

	_, ok = corpus.ByID("missing")
	assert.False(t, ok)
}

func TestByIDs(t *testing.T) {
	docs := corpus.ByIDs([]string{"safety_india_001", "laws_japan_001", "nope"})
	require.Len(t, docs, 2)
	assert.Equal(t, "laws_japan_001", docs[0].ID)
	assert.Equal(t, "safety_india_001", docs[1].ID)
}

func TestByCountry(t *testing.T) {
	assert.Len(t, corpus.ByCountry("japan"), 4)
	assert.Len(t, corpus.ByCountry("India"), 5)
	assert.Empty(t, corpus.ByCountry("Peru"))
}

func TestByCategory(t *testing.T) {
	assert.Len(t, corpus.ByCategory(domain.CategoryVisaRequirements), 7)
	assert.Len(t, corpus.ByCategory(domain.CategoryLocalLaws), 3)
	assert.Len(t, corpus.ByCategory(domain.CategoryCulturalEtiquette), 3)
	assert.Len(t, corpus.ByCategory(domain.CategorySafetyGuidelines), 2)
	assert.Empty(t, corpus.ByCategory(domain.CategoryBudget))
}

func TestResolve(t *testing.T) {
	assert.Len(t, corpus.Resolve(nil), len(corpus.All()))
	only := corpus.Resolve([]string{"culture_japan_001"})
	require.Len(t, only, 1)
	assert.Equal(t, "culture_japan_001", only[0].ID)
}
