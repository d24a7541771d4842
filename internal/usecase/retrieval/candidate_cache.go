package retrieval

import (
	"fmt"
	"time"

	"travel-rag/internal/domain"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CandidateCache keeps semantic candidate pools keyed by exact query text,
// filters and fetch size. It must be purged whenever the index changes.
type CandidateCache struct {
	lru *expirable.LRU[string, []domain.SearchResult]
}

// NewCandidateCache returns a cache holding up to size pools for ttl.
func NewCandidateCache(size int, ttl time.Duration) *CandidateCache {
	if size <= 0 {
		size = 256
	}
	return &CandidateCache{lru: expirable.NewLRU[string, []domain.SearchResult](size, nil, ttl)}
}

func candidateKey(query string, filter domain.Filter, k int) string {
	category := "*"
	if filter.Category != nil {
		category = filter.Category.String()
	}
	return fmt.Sprintf("%s\x00%s\x00%s\x00%d", query, filter.Country, category, k)
}

// Get returns a copy of the cached pool.
func (c *CandidateCache) Get(query string, filter domain.Filter, k int) ([]domain.SearchResult, bool) {
	pool, ok := c.lru.Get(candidateKey(query, filter, k))
	if !ok {
		return nil, false
	}
	return append([]domain.SearchResult(nil), pool...), true
}

func (c *CandidateCache) Add(query string, filter domain.Filter, k int, pool []domain.SearchResult) {
	c.lru.Add(candidateKey(query, filter, k), append([]domain.SearchResult(nil), pool...))
}

// Purge drops every cached pool.
func (c *CandidateCache) Purge() {
	c.lru.Purge()
}

func (c *CandidateCache) Len() int {
	return c.lru.Len()
}
