package usecase_test

import (
	"strings"
	"testing"

	"travel-rag/internal/usecase"

	"github.com/stretchr/testify/assert"
)

func TestQueryAdvisor(t *testing.T) {
	advisor := usecase.NewQueryAdvisor()

	t.Run("good query", func(t *testing.T) {
		advice := advisor.Validate("Do Indian citizens need a visa for Japan?")
		assert.True(t, advice.Valid)
		assert.Empty(t, advice.Issues)
		assert.Empty(t, advice.Suggestions)
	})

	t.Run("too short", func(t *testing.T) {
		advice := advisor.Validate("visa?")
		assert.False(t, advice.Valid)
		assert.Equal(t, []string{"Query is too short"}, advice.Issues)
		assert.Equal(t, 5, advice.Length)
	})

	t.Run("too long", func(t *testing.T) {
		advice := advisor.Validate(strings.Repeat("visa ", 120))
		assert.False(t, advice.Valid)
		assert.Contains(t, advice.Issues, "Query is very long")
	})

	t.Run("greeting", func(t *testing.T) {
		advice := advisor.Validate("Hello")
		assert.False(t, advice.Valid)
		assert.Contains(t, advice.Suggestions, "Ask a specific question about travel, visas, local laws, or cultural information")
	})
}
