package pgvector

import (
	"testing"

	"travel-rag/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQuery(t *testing.T) {
	t.Run("no filter", func(t *testing.T) {
		sql, args := buildQuery("travel_documents", domain.Filter{})
		assert.NotContains(t, sql, "WHERE")
		assert.Contains(t, sql, "LIMIT $2")
		assert.Empty(t, args)
	})

	t.Run("country and category", func(t *testing.T) {
		cat := domain.CategoryLocalLaws
		sql, args := buildQuery("travel_documents", domain.Filter{Country: "Japan", Category: &cat})
		assert.Contains(t, sql, "WHERE country = $2 AND category = $3")
		assert.Contains(t, sql, "LIMIT $4")
		assert.Equal(t, []any{"Japan", "local_laws"}, args)
	})

	t.Run("category only", func(t *testing.T) {
		cat := domain.CategoryCulturalEtiquette
		sql, args := buildQuery("t", domain.Filter{Category: &cat})
		assert.Contains(t, sql, "WHERE category = $2")
		assert.Contains(t, sql, "LIMIT $3")
		assert.Equal(t, []any{"cultural_etiquette"}, args)
	})
}

func TestParseVectorType(t *testing.T) {
	assert.Equal(t, 768, parseVectorType("vector(768)"))
	assert.Equal(t, 0, parseVectorType("vector"))
	assert.Equal(t, 0, parseVectorType("text"))
}

func TestNew_RejectsUnsafeTable(t *testing.T) {
	_, err := New(nil, nil, "docs; DROP TABLE x")
	require.Error(t, err)

	idx, err := New(nil, nil, "travel_documents")
	require.NoError(t, err)
	assert.Contains(t, idx.upsertSQL(), "ON CONFLICT (id) DO UPDATE")
}
