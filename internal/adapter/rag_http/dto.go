package rag_http

import (
	"fmt"
	"strings"

	"travel-rag/internal/domain"
	"travel-rag/internal/usecase"
)

type chatTurnDTO struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AnswerRequest is the body of /v1/rag/answer, its stream variant and /rag-travel.
type AnswerRequest struct {
	Query          string        `json:"query"`
	Country        *string       `json:"country,omitempty"`
	Category       *string       `json:"category,omitempty"`
	MaxResults     *int          `json:"max_results,omitempty"`
	ChatHistory    []chatTurnDTO `json:"chat_history,omitempty"`
	IncludeSources *bool         `json:"include_sources,omitempty"`
	HybridAlpha    *float64      `json:"hybrid_alpha,omitempty"`
}

// SearchRequest is the body of /v1/rag/search.
type SearchRequest struct {
	Query       string   `json:"query"`
	Country     *string  `json:"country,omitempty"`
	Category    *string  `json:"category,omitempty"`
	TopK        *int     `json:"top_k,omitempty"`
	HybridAlpha *float64 `json:"hybrid_alpha,omitempty"`
}

type ValidateRequest struct {
	Query string `json:"query"`
}

type SourceView struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Content     string  `json:"content"`
	Category    string  `json:"category"`
	Country     string  `json:"country,omitempty"`
	Source      string  `json:"source,omitempty"`
	LastUpdated string  `json:"last_updated,omitempty"`
	Score       float64 `json:"score"`
	Rank        int     `json:"rank"`
}

// AnswerView is the full answer representation.
type AnswerView struct {
	Query           string                 `json:"query"`
	Answer          string                 `json:"answer"`
	Sources         []SourceView           `json:"sources"`
	ConfidenceScore float64                `json:"confidence_score"`
	ProcessingTime  float64                `json:"processing_time"`
	RetrievalCount  int                    `json:"retrieval_count"`
	RequestID       string                 `json:"request_id"`
	Metadata        usecase.AnswerMetadata `json:"metadata"`
}

type retrievedContext struct {
	ID    string  `json:"id"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

type legacyDebug struct {
	RequestID       string                 `json:"request_id"`
	Outcome         string                 `json:"outcome"`
	ConfidenceScore float64                `json:"confidence_score"`
	ProcessingTime  float64                `json:"processing_time"`
	Metadata        usecase.AnswerMetadata `json:"metadata"`
}

// LegacyView is the /rag-travel representation.
type LegacyView struct {
	Answer           string             `json:"answer"`
	RetrievedContext []retrievedContext `json:"retrieved_context"`
	Debug            *legacyDebug       `json:"debug,omitempty"`
}

type SearchView struct {
	Query           string       `json:"query"`
	Results         []SourceView `json:"results"`
	TotalResults    int          `json:"total_results"`
	ConfidenceScore float64      `json:"confidence_score"`
	ProcessingTime  float64      `json:"processing_time"`
}

type ValidateView struct {
	Valid       bool     `json:"valid"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
	Length      int      `json:"length"`
}

type CollectionView struct {
	Name      string         `json:"name"`
	Count     int            `json:"count"`
	Status    string         `json:"status"`
	Dimension int            `json:"dimension"`
	ByStatus  map[string]int `json:"by_status,omitempty"`
}

type ErrorView struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type streamMetaView struct {
	RequestID       string       `json:"request_id"`
	Sources         []SourceView `json:"sources"`
	ConfidenceScore float64      `json:"confidence_score"`
}

type streamDeltaView struct {
	Text string `json:"text"`
}

func toInput(req AnswerRequest) (usecase.AnswerWithRAGInput, error) {
	input := usecase.AnswerWithRAGInput{
		Query:          req.Query,
		IncludeSources: true,
		Alpha:          req.HybridAlpha,
	}
	if req.Country != nil {
		input.Country = *req.Country
	}
	if req.MaxResults != nil {
		input.MaxResults = *req.MaxResults
		if input.MaxResults == 0 {
			return input, validationError("max_results must be between %d and %d, got 0", domain.MinMaxResults, domain.MaxMaxResults)
		}
	}
	if req.IncludeSources != nil {
		input.IncludeSources = *req.IncludeSources
	}
	category, err := parseCategory(req.Category)
	if err != nil {
		return input, err
	}
	input.Category = category
	if err := checkAlpha(req.HybridAlpha); err != nil {
		return input, err
	}

	for _, turn := range req.ChatHistory {
		role, err := domain.ParseRole(turn.Role)
		if err != nil {
			return input, domain.NewError(domain.KindValidation, "http.chat_history", err)
		}
		input.History = append(input.History, domain.ChatTurn{Role: role, Content: turn.Content})
	}
	return input, nil
}

func toSearchInput(req SearchRequest) (usecase.RetrieveContextInput, error) {
	input := usecase.RetrieveContextInput{Query: req.Query, Alpha: req.HybridAlpha}
	if req.Country != nil {
		input.Country = *req.Country
	}
	if req.TopK != nil {
		input.TopK = *req.TopK
		if input.TopK == 0 {
			return input, validationError("top_k must be between %d and %d, got 0", domain.MinMaxResults, domain.MaxMaxResults)
		}
	}
	category, err := parseCategory(req.Category)
	if err != nil {
		return input, err
	}
	input.Category = category
	return input, checkAlpha(req.HybridAlpha)
}

func parseCategory(label *string) (*domain.Category, error) {
	if label == nil || strings.TrimSpace(*label) == "" {
		return nil, nil
	}
	c, err := domain.ParseCategory(*label)
	if err != nil {
		return nil, domain.NewError(domain.KindValidation, "http.category", err)
	}
	return &c, nil
}

func checkAlpha(alpha *float64) error {
	if alpha != nil && (*alpha < 0 || *alpha > 1) {
		return validationError("hybrid_alpha must be in [0.0, 1.0], got %v", *alpha)
	}
	return nil
}

func validationError(format string, args ...any) error {
	return domain.NewError(domain.KindValidation, "http.request", fmt.Errorf(format, args...))
}

func toSourceViews(results []domain.SearchResult) []SourceView {
	views := make([]SourceView, len(results))
	for i, r := range results {
		views[i] = SourceView{
			ID:          r.Document.ID,
			Title:       r.Document.Title,
			Content:     r.Document.Body,
			Category:    r.Document.Category.String(),
			Country:     r.Document.Country,
			Source:      r.Document.Source,
			LastUpdated: r.Document.LastUpdated,
			Score:       r.Score,
			Rank:        r.Rank,
		}
	}
	return views
}

// ToAnswerView renders the full view of an answer.
func ToAnswerView(out *usecase.AnswerWithRAGOutput) AnswerView {
	return AnswerView{
		Query:           out.Query,
		Answer:          out.Answer,
		Sources:         toSourceViews(out.Sources),
		ConfidenceScore: out.ConfidenceScore,
		ProcessingTime:  out.ProcessingTime,
		RetrievalCount:  out.RetrievalCount,
		RequestID:       out.RequestID.String(),
		Metadata:        out.Metadata,
	}
}

// ToLegacyView renders the /rag-travel view of the same answer. Degraded
// answers report a single "error" context and sourceless answers a "none" one.
func ToLegacyView(out *usecase.AnswerWithRAGOutput, debug bool) LegacyView {
	view := LegacyView{Answer: out.Answer}

	switch {
	case out.Outcome == usecase.OutcomeDegraded:
		view.RetrievedContext = []retrievedContext{{ID: "error", Text: out.Metadata.Error, Score: 0}}
	case len(out.Sources) == 0:
		view.RetrievedContext = []retrievedContext{{ID: "none", Text: "", Score: 0}}
	default:
		view.RetrievedContext = make([]retrievedContext, len(out.Sources))
		for i, s := range out.Sources {
			view.RetrievedContext[i] = retrievedContext{ID: s.Document.ID, Text: s.Document.Body, Score: s.Score}
		}
	}

	if debug {
		view.Debug = &legacyDebug{
			RequestID:       out.RequestID.String(),
			Outcome:         out.Outcome.String(),
			ConfidenceScore: out.ConfidenceScore,
			ProcessingTime:  out.ProcessingTime,
			Metadata:        out.Metadata,
		}
	}
	return view
}

func toSearchView(out *usecase.RetrieveContextOutput) SearchView {
	return SearchView{
		Query:           out.Query,
		Results:         toSourceViews(out.Results),
		TotalResults:    len(out.Results),
		ConfidenceScore: out.ConfidenceScore,
		ProcessingTime:  out.ProcessingTime,
	}
}
