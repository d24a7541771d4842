package domain

import "context"

// LexicalSearcher ranks candidate documents by keyword relevance.
// Scores are normalised into [0,1]; documents with no match are omitted.
type LexicalSearcher interface {
	Search(ctx context.Context, query string, candidates []Document, limit int) ([]SearchResult, error)
}
