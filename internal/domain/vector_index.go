package domain

import "context"

// IndexedDocument pairs a document with its embedding for upsert.
type IndexedDocument struct {
	Document  Document
	Embedding []float32
}

// ScoredDocument is a raw nearest-neighbour hit. Score is a similarity where
// higher is better; backends report cosine similarity.
type ScoredDocument struct {
	Document Document
	Score    float64
}

// CollectionStats summarises what the index currently holds.
type CollectionStats struct {
	Name      string
	Count     int
	Status    string
	Dimension int
	ByStatus  map[string]int
}

// VectorIndex stores embeddings with document payloads and answers
// filtered nearest-neighbour queries.
type VectorIndex interface {
	// EnsureCollection creates the backing collection when it does not exist.
	EnsureCollection(ctx context.Context, dimension int) error
	// Upsert inserts or replaces documents by ID.
	Upsert(ctx context.Context, docs []IndexedDocument) error
	// Query returns up to k hits ordered by descending score.
	Query(ctx context.Context, vector []float32, k int, filter Filter) ([]ScoredDocument, error)
	CollectionStats(ctx context.Context) (CollectionStats, error)
}
