package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Category classifies a travel document. The set is closed.
type Category int

const (
	CategoryGeneral Category = iota
	CategoryVisaRequirements
	CategoryLocalLaws
	CategoryCulturalEtiquette
	CategorySafetyGuidelines
	CategoryTravelTips
	CategoryAccommodation
	CategoryTransportation
	CategoryFoodDining
	CategoryActivities
	CategoryBudget
	CategoryWeather
	CategoryHealth
)

// ErrUnknownCategory is returned when a category label is not recognised.
var ErrUnknownCategory = errors.New("unknown category")

// AllCategories lists every category in declaration order.
func AllCategories() []Category {
	return []Category{
		CategoryGeneral,
		CategoryVisaRequirements,
		CategoryLocalLaws,
		CategoryCulturalEtiquette,
		CategorySafetyGuidelines,
		CategoryTravelTips,
		CategoryAccommodation,
		CategoryTransportation,
		CategoryFoodDining,
		CategoryActivities,
		CategoryBudget,
		CategoryWeather,
		CategoryHealth,
	}
}

// String returns the wire label used in payloads and HTTP bodies.
func (c Category) String() string {
	switch c {
	case CategoryGeneral:
		return "general"
	case CategoryVisaRequirements:
		return "visa_requirements"
	case CategoryLocalLaws:
		return "local_laws"
	case CategoryCulturalEtiquette:
		return "cultural_etiquette"
	case CategorySafetyGuidelines:
		return "safety_guidelines"
	case CategoryTravelTips:
		return "travel_tips"
	case CategoryAccommodation:
		return "accommodation"
	case CategoryTransportation:
		return "transportation"
	case CategoryFoodDining:
		return "food_dining"
	case CategoryActivities:
		return "activities"
	case CategoryBudget:
		return "budget"
	case CategoryWeather:
		return "weather"
	case CategoryHealth:
		return "health"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// Label returns a human readable form, e.g. "Visa Requirements".
func (c Category) Label() string {
	words := strings.Split(c.String(), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// ParseCategory converts a wire label into a Category.
func ParseCategory(s string) (Category, error) {
	label := strings.ToLower(strings.TrimSpace(s))
	for _, c := range AllCategories() {
		if c.String() == label {
			return c, nil
		}
	}
	return CategoryGeneral, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// DocumentStatus tracks where a document is in the indexing lifecycle.
type DocumentStatus int

const (
	StatusPending DocumentStatus = iota
	StatusProcessing
	StatusIndexed
	StatusFailed
)

// ErrInvalidTransition is returned for a status change the lifecycle does not allow.
var ErrInvalidTransition = errors.New("invalid status transition")

func (s DocumentStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusProcessing:
		return "processing"
	case StatusIndexed:
		return "indexed"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// ParseDocumentStatus converts a stored label back into a DocumentStatus.
func ParseDocumentStatus(s string) (DocumentStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return StatusPending, nil
	case "processing":
		return StatusProcessing, nil
	case "indexed":
		return StatusIndexed, nil
	case "failed":
		return StatusFailed, nil
	default:
		return StatusPending, fmt.Errorf("unknown document status %q", s)
	}
}

func (s DocumentStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *DocumentStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseDocumentStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// CanTransition reports whether the lifecycle allows moving from s to next.
// Indexed documents are final until their body changes, at which point a
// fresh document value starts again from pending.
func (s DocumentStatus) CanTransition(next DocumentStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusIndexed || next == StatusFailed
	case StatusProcessing:
		return next == StatusIndexed || next == StatusFailed
	case StatusFailed:
		return next == StatusProcessing
	case StatusIndexed:
		return false
	default:
		return false
	}
}

// Document is an immutable unit of curated travel content.
type Document struct {
	ID            string
	Title         string
	Body          string
	Category      Category
	Country       string
	SourceCountry string
	Tags          []string
	Source        string
	LastUpdated   string
	Reliability   float64
	Status        DocumentStatus
}

// DefaultReliability is applied when a document does not declare one.
const DefaultReliability = 0.8

// WithStatus returns a copy of the document moved to next.
func (d Document) WithStatus(next DocumentStatus) (Document, error) {
	if !d.Status.CanTransition(next) {
		return d, fmt.Errorf("%w: %s -> %s (document %s)", ErrInvalidTransition, d.Status, next, d.ID)
	}
	out := d
	out.Tags = append([]string(nil), d.Tags...)
	out.Status = next
	return out, nil
}

// EmbeddingText is the text handed to the embedding provider for this document.
func (d Document) EmbeddingText() string {
	return d.Title + "\n\n" + d.Body
}

// Validate checks the fields required before indexing.
func (d Document) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return NewError(KindValidation, "document.validate", errors.New("id is required"))
	}
	if strings.TrimSpace(d.Title) == "" {
		return NewError(KindValidation, "document.validate", fmt.Errorf("title is required (document %s)", d.ID))
	}
	if strings.TrimSpace(d.Body) == "" {
		return NewError(KindValidation, "document.validate", fmt.Errorf("body is required (document %s)", d.ID))
	}
	if d.Reliability < 0 || d.Reliability > 1 {
		return NewError(KindValidation, "document.validate", fmt.Errorf("reliability %.2f outside [0,1] (document %s)", d.Reliability, d.ID))
	}
	return nil
}

// SearchResult is a document scored against one query. Rank is 1-based.
type SearchResult struct {
	Document Document
	Score    float64
	Rank     int
}
