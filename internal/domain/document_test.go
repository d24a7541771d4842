package domain_test

import (
	"encoding/json"
	"errors"
	"testing"

	"travel-rag/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory_AllLabels(t *testing.T) {
	for _, c := range domain.AllCategories() {
		parsed, err := domain.ParseCategory(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}
	assert.Len(t, domain.AllCategories(), 13)
}

func TestParseCategory_Normalises(t *testing.T) {
	c, err := domain.ParseCategory("  Visa_Requirements ")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryVisaRequirements, c)
}

func TestParseCategory_Unknown(t *testing.T) {
	_, err := domain.ParseCategory("nightlife")
	assert.True(t, errors.Is(err, domain.ErrUnknownCategory))
}

func TestCategory_JSON(t *testing.T) {
	type payload struct {
		Category domain.Category `json:"category"`
	}
	raw, err := json.Marshal(payload{Category: domain.CategoryFoodDining})
	require.NoError(t, err)
	assert.JSONEq(t, `{"category":"food_dining"}`, string(raw))

	var back payload
	require.NoError(t, json.Unmarshal([]byte(`{"category":"local_laws"}`), &back))
	assert.Equal(t, domain.CategoryLocalLaws, back.Category)

	assert.Error(t, json.Unmarshal([]byte(`{"category":"bogus"}`), &back))
}

func TestCategory_Label(t *testing.T) {
	assert.Equal(t, "Visa Requirements", domain.CategoryVisaRequirements.Label())
	assert.Equal(t, "General", domain.CategoryGeneral.Label())
}

func TestDocumentStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to domain.DocumentStatus
		ok       bool
	}{
		{domain.StatusPending, domain.StatusProcessing, true},
		{domain.StatusPending, domain.StatusIndexed, true},
		{domain.StatusPending, domain.StatusFailed, true},
		{domain.StatusProcessing, domain.StatusIndexed, true},
		{domain.StatusProcessing, domain.StatusFailed, true},
		{domain.StatusFailed, domain.StatusProcessing, true},
		{domain.StatusIndexed, domain.StatusPending, false},
		{domain.StatusIndexed, domain.StatusFailed, false},
		{domain.StatusFailed, domain.StatusIndexed, false},
		{domain.StatusProcessing, domain.StatusPending, false},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			doc := domain.Document{ID: "d1", Status: tt.from}
			next, err := doc.WithStatus(tt.to)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.to, next.Status)
			} else {
				assert.ErrorIs(t, err, domain.ErrInvalidTransition)
				assert.Equal(t, tt.from, next.Status)
			}
			assert.Equal(t, tt.from, doc.Status, "original must not change")
		})
	}
}

func TestDocument_WithStatusCopiesTags(t *testing.T) {
	doc := domain.Document{ID: "d1", Tags: []string{"a"}}
	next, err := doc.WithStatus(domain.StatusIndexed)
	require.NoError(t, err)
	next.Tags[0] = "changed"
	assert.Equal(t, "a", doc.Tags[0])
}

func TestDocument_Validate(t *testing.T) {
	valid := domain.Document{ID: "x", Title: "T", Body: "B", Reliability: 0.9}
	assert.NoError(t, valid.Validate())

	noTitle := valid
	noTitle.Title = " "
	assert.ErrorIs(t, noTitle.Validate(), domain.ErrValidation)

	badReliability := valid
	badReliability.Reliability = 1.5
	assert.ErrorIs(t, badReliability.Validate(), domain.ErrValidation)
}

func TestDocument_EmbeddingTextStartsWithTitle(t *testing.T) {
	doc := domain.Document{Title: "Japan Visa", Body: "Apply early."}
	assert.Equal(t, "Japan Visa\n\nApply early.", doc.EmbeddingText())
}
