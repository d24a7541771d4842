// Package memory is an in-process vector index using brute-force cosine
// similarity. It backs development runs and tests.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"travel-rag/internal/domain"
)

type entry struct {
	doc    domain.Document
	vector []float32
	norm   float64
	seq    int
}

// Index is safe for concurrent use.
type Index struct {
	mu      sync.RWMutex
	name    string
	dim     int
	entries map[string]*entry
	nextSeq int
}

// New returns an empty index reported under name.
func New(name string) *Index {
	return &Index{name: name, entries: make(map[string]*entry)}
}

func (i *Index) EnsureCollection(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("memory index: dimension must be positive, got %d", dimension)
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.dim == 0 {
		i.dim = dimension
		return nil
	}
	if i.dim != dimension {
		return fmt.Errorf("memory index: collection %q has dimension %d, requested %d", i.name, i.dim, dimension)
	}
	return nil
}

// Upsert replaces documents by ID. A replaced document keeps its original
// position in the tie order.
func (i *Index) Upsert(ctx context.Context, docs []domain.IndexedDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	i.mu.Lock()
	defer i.mu.Unlock()

	for _, d := range docs {
		if i.dim == 0 {
			i.dim = len(d.Embedding)
		}
		if len(d.Embedding) != i.dim {
			return fmt.Errorf("memory index: document %s has dimension %d, want %d", d.Document.ID, len(d.Embedding), i.dim)
		}
	}

	for _, d := range docs {
		vec := append([]float32(nil), d.Embedding...)
		doc := d.Document
		doc.Tags = append([]string(nil), doc.Tags...)
		if existing, ok := i.entries[doc.ID]; ok {
			existing.doc = doc
			existing.vector = vec
			existing.norm = norm(vec)
			continue
		}
		i.entries[doc.ID] = &entry{doc: doc, vector: vec, norm: norm(vec), seq: i.nextSeq}
		i.nextSeq++
	}
	return nil
}

// Query returns up to k hits ordered by cosine similarity, ties by insertion.
func (i *Index) Query(ctx context.Context, vector []float32, k int, filter domain.Filter) ([]domain.ScoredDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	if i.dim != 0 && len(vector) != i.dim {
		return nil, fmt.Errorf("memory index: query dimension %d, want %d", len(vector), i.dim)
	}
	qnorm := norm(vector)

	type hit struct {
		e     *entry
		score float64
	}
	hits := make([]hit, 0, len(i.entries))
	for _, e := range i.entries {
		if !matches(e.doc, filter) {
			continue
		}
		hits = append(hits, hit{e: e, score: cosine(vector, qnorm, e.vector, e.norm)})
	}

	sort.Slice(hits, func(a, b int) bool {
		if hits[a].score != hits[b].score {
			return hits[a].score > hits[b].score
		}
		return hits[a].e.seq < hits[b].e.seq
	})
	if len(hits) > k {
		hits = hits[:k]
	}

	out := make([]domain.ScoredDocument, len(hits))
	for j, h := range hits {
		doc := h.e.doc
		doc.Tags = append([]string(nil), doc.Tags...)
		out[j] = domain.ScoredDocument{Document: doc, Score: h.score}
	}
	return out, nil
}

func (i *Index) CollectionStats(_ context.Context) (domain.CollectionStats, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	byStatus := make(map[string]int)
	for _, e := range i.entries {
		byStatus[e.doc.Status.String()]++
	}
	status := "green"
	if i.dim == 0 {
		status = "empty"
	}
	return domain.CollectionStats{
		Name:      i.name,
		Count:     len(i.entries),
		Status:    status,
		Dimension: i.dim,
		ByStatus:  byStatus,
	}, nil
}

func matches(doc domain.Document, filter domain.Filter) bool {
	if filter.Country != "" && doc.Country != filter.Country {
		return false
	}
	if filter.Category != nil && doc.Category != *filter.Category {
		return false
	}
	return true
}

func norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func cosine(a []float32, na float64, b []float32, nb float64) float64 {
	if na == 0 || nb == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (na * nb)
}

var _ domain.VectorIndex = (*Index)(nil)
