package usecase

import (
	"context"
	"fmt"
	"strings"

	"travel-rag/internal/domain"

	"github.com/google/uuid"
)

// Canned answers for the pipeline's early exits.
const (
	NoResultsAnswer = "I couldn't find specific information about your query in my knowledge base. Could you please rephrase your question or provide more details?"
	DegradedAnswer  = "I'm sorry, I ran into a problem while answering your question. Please try again in a moment."
)

// Routes reported in metadata and metrics.
const (
	RouteRAG       = "rag"
	RouteSmallTalk = "small_talk"
)

// Outcome says which branch of the pipeline produced an answer.
type Outcome int

const (
	OutcomeAnswered Outcome = iota
	OutcomeNoResults
	OutcomeKnowledgeGap
	OutcomeDegraded
	OutcomeSmallTalk
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAnswered:
		return "answered"
	case OutcomeNoResults:
		return "no_results"
	case OutcomeKnowledgeGap:
		return "knowledge_gap"
	case OutcomeDegraded:
		return "degraded"
	case OutcomeSmallTalk:
		return "small_talk"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// AnswerWithRAGInput encapsulates the parameters that drive a RAG answer request.
type AnswerWithRAGInput struct {
	Query          string
	Country        string
	Category       *domain.Category
	MaxResults     int
	History        []domain.ChatTurn
	IncludeSources bool
	// Alpha overrides the configured hybrid weight when set.
	Alpha *float64
}

// AnswerMetadata is serialised as the response's metadata object.
type AnswerMetadata struct {
	RetrievalDuration  float64 `json:"retrieval_duration"`
	GenerationDuration float64 `json:"generation_duration"`
	TopScore           float64 `json:"top_score"`
	AvgScore           float64 `json:"avg_score"`
	RequestID          string  `json:"request_id"`
	Route              string  `json:"route"`
	Outcome            string  `json:"outcome"`
	Error              string  `json:"error,omitempty"`
	Model              string  `json:"model,omitempty"`
	Attempts           int     `json:"attempts,omitempty"`
}

// AnswerWithRAGOutput represents the normalized answer returned to API clients.
type AnswerWithRAGOutput struct {
	RequestID       uuid.UUID
	Query           string
	Answer          string
	Sources         []domain.SearchResult
	ConfidenceScore float64
	// ProcessingTime is in seconds.
	ProcessingTime float64
	RetrievalCount int
	Outcome        Outcome
	Metadata       AnswerMetadata
}

// AnswerWithRAGUsecase defines the contract for generating grounded answers.
type AnswerWithRAGUsecase interface {
	Execute(ctx context.Context, input AnswerWithRAGInput) (*AnswerWithRAGOutput, error)
	Stream(ctx context.Context, input AnswerWithRAGInput) <-chan StreamEvent
}

type StreamEventKind string

const (
	StreamEventKindMeta     StreamEventKind = "meta"
	StreamEventKindDelta    StreamEventKind = "delta"
	StreamEventKindDone     StreamEventKind = "done"
	StreamEventKindFallback StreamEventKind = "fallback"
	StreamEventKindError    StreamEventKind = "error"
)

// StreamEvent is one server-sent event. Payload is StreamMeta for meta,
// string for delta and error, and *AnswerWithRAGOutput for done and fallback.
type StreamEvent struct {
	Kind    StreamEventKind
	Payload any
}

type StreamMeta struct {
	RequestID       uuid.UUID
	Sources         []domain.SearchResult
	ConfidenceScore float64
}

// toQuery applies the default result count and builds the domain query.
func (in AnswerWithRAGInput) toQuery(defaultMax int) domain.Query {
	maxResults := in.MaxResults
	if maxResults == 0 {
		maxResults = defaultMax
	}
	return domain.Query{
		Text: strings.TrimSpace(in.Query),
		Filter: domain.Filter{
			Country:  strings.TrimSpace(in.Country),
			Category: in.Category,
		},
		MaxResults: maxResults,
		History:    in.History,
	}
}
