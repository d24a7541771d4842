package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"travel-rag/internal/domain"
	"travel-rag/internal/infra/metrics"
	"travel-rag/internal/usecase/retrieval"
)

// RetrieveContextInput defines the input parameters for a retrieval-only search.
type RetrieveContextInput struct {
	Query    string
	Country  string
	Category *domain.Category
	TopK     int
	Alpha    *float64
}

// RetrieveContextOutput defines the output for RetrieveContext.
type RetrieveContextOutput struct {
	Query           string
	Results         []domain.SearchResult
	ConfidenceScore float64
	// ProcessingTime is in seconds.
	ProcessingTime float64
}

// RetrieveContextUsecase runs hybrid search without generation.
type RetrieveContextUsecase interface {
	Execute(ctx context.Context, input RetrieveContextInput) (*RetrieveContextOutput, error)
}

type retrieveContextUsecase struct {
	retriever HybridSearcher
	cfg       RetrievalConfig
	logger    *slog.Logger
}

// NewRetrieveContextUsecase creates a new RetrieveContextUsecase.
func NewRetrieveContextUsecase(retriever HybridSearcher, cfg RetrievalConfig, logger *slog.Logger) RetrieveContextUsecase {
	return &retrieveContextUsecase{retriever: retriever, cfg: cfg, logger: logger}
}

// Execute validates the query and returns the ranked results. Unlike the
// answer pipeline, retrieval errors are returned to the caller.
func (u *retrieveContextUsecase) Execute(ctx context.Context, input RetrieveContextInput) (*RetrieveContextOutput, error) {
	topK := input.TopK
	if topK == 0 {
		topK = u.cfg.DefaultMaxResults
	}
	query := domain.Query{
		Text:       strings.TrimSpace(input.Query),
		Filter:     domain.Filter{Country: strings.TrimSpace(input.Country), Category: input.Category},
		MaxResults: topK,
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, u.cfg.RetrievalTimeout)
	defer cancel()

	start := time.Now()
	results, err := u.retriever.Search(ctx, retrieval.SearchRequest{
		Query:      query.Text,
		Filter:     query.Filter,
		MaxResults: query.MaxResults,
		Alpha:      input.Alpha,
	})
	elapsed := time.Since(start)
	metrics.ObserveStage("search", elapsed.Seconds())
	if err != nil {
		u.logger.Error("search_failed", slog.String("error", err.Error()))
		return nil, err
	}
	if results == nil {
		results = []domain.SearchResult{}
	}

	return &RetrieveContextOutput{
		Query:           query.Text,
		Results:         results,
		ConfidenceScore: retrieval.Confidence(results),
		ProcessingTime:  elapsed.Seconds(),
	}, nil
}
