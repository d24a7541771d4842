package qdrant_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"travel-rag/internal/adapter/vectorstore/qdrant"
	"travel-rag/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeQdrant records requests and serves canned responses for one collection.
type fakeQdrant struct {
	mu       sync.Mutex
	exists   bool
	size     int
	points   []map[string]any
	searches []map[string]any
	apiKeys  []string
}

func (f *fakeQdrant) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/collections/travel_documents", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.apiKeys = append(f.apiKeys, r.Header.Get("api-key"))
		switch r.Method {
		case http.MethodGet:
			if !f.exists {
				w.WriteHeader(http.StatusNotFound)
				_, _ = fmt.Fprint(w, `{"status":{"error":"Not found: Collection doesn't exist"}}`)
				return
			}
			_, _ = fmt.Fprintf(w, `{"status":"ok","result":{"status":"green","points_count":%d,"config":{"params":{"vectors":{"size":%d,"distance":"Cosine"}}}}}`, len(f.points), f.size)
		case http.MethodPut:
			var req struct {
				Vectors struct {
					Size     int    `json:"size"`
					Distance string `json:"distance"`
				} `json:"vectors"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "Cosine", req.Vectors.Distance)
			f.exists = true
			f.size = req.Vectors.Size
			_, _ = fmt.Fprint(w, `{"status":"ok","result":true}`)
		}
	})
	mux.HandleFunc("/collections/travel_documents/points", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		assert.Equal(t, "true", r.URL.Query().Get("wait"))
		var req struct {
			Points []map[string]any `json:"points"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		f.points = append(f.points, req.Points...)
		_, _ = fmt.Fprint(w, `{"status":"ok","result":{"status":"completed"}}`)
	})
	mux.HandleFunc("/collections/travel_documents/points/search", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		f.searches = append(f.searches, req)
		_, _ = fmt.Fprint(w, `{"status":"ok","result":[
			{"id":"p1","score":0.91,"payload":{"doc_id":"visa_india_japan_001","title":"Japan Tourist Visa","body":"b","category":"visa_requirements","country":"Japan","source_country":"India","tags":["visa"],"status":"indexed","reliability":0.95}},
			{"id":"p2","score":0.5,"payload":{"doc_id":"broken","category":"not_a_category","status":"indexed"}}
		]}`)
	})
	return mux
}

func newIndex(t *testing.T) (*qdrant.Index, *fakeQdrant) {
	fake := &fakeQdrant{}
	server := httptest.NewServer(fake.handler(t))
	t.Cleanup(server.Close)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return qdrant.New(server.URL, "travel_documents", "secret", time.Second, logger), fake
}

func TestIndex_EnsureCollectionCreatesOnce(t *testing.T) {
	idx, fake := newIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.EnsureCollection(ctx, 768))
	require.NoError(t, idx.EnsureCollection(ctx, 768))
	assert.Equal(t, 768, fake.size)
	assert.Error(t, idx.EnsureCollection(ctx, 384))
	assert.Equal(t, "secret", fake.apiKeys[0])
}

func TestIndex_UpsertUsesStablePointIDs(t *testing.T) {
	idx, fake := newIndex(t)
	doc := domain.Document{ID: "visa_india_japan_001", Title: "t", Body: "b", Category: domain.CategoryVisaRequirements, Country: "Japan", Status: domain.StatusIndexed}

	require.NoError(t, idx.Upsert(context.Background(), []domain.IndexedDocument{{Document: doc, Embedding: []float32{1, 0}}}))
	require.Len(t, fake.points, 1)

	assert.Equal(t, qdrant.PointID("visa_india_japan_001"), fake.points[0]["id"])
	assert.Equal(t, qdrant.PointID("visa_india_japan_001"), qdrant.PointID("visa_india_japan_001"))
	assert.NotEqual(t, qdrant.PointID("a"), qdrant.PointID("b"))

	payload := fake.points[0]["payload"].(map[string]any)
	assert.Equal(t, "visa_requirements", payload["category"])
	assert.Equal(t, "Japan", payload["country"])
	assert.Equal(t, "indexed", payload["status"])
}

func TestIndex_QuerySendsFilterAndDecodesPayload(t *testing.T) {
	idx, fake := newIndex(t)
	cat := domain.CategoryVisaRequirements

	hits, err := idx.Query(context.Background(), []float32{1, 0}, 4, domain.Filter{Country: "Japan", Category: &cat})
	require.NoError(t, err)

	require.Len(t, hits, 1)
	assert.Equal(t, "visa_india_japan_001", hits[0].Document.ID)
	assert.Equal(t, domain.CategoryVisaRequirements, hits[0].Document.Category)
	assert.Equal(t, 0.91, hits[0].Score)

	req := fake.searches[0]
	assert.EqualValues(t, 4, req["limit"])
	must := req["filter"].(map[string]any)["must"].([]any)
	require.Len(t, must, 2)
	assert.Equal(t, "country", must[0].(map[string]any)["key"])
	assert.Equal(t, "visa_requirements", must[1].(map[string]any)["match"].(map[string]any)["value"])
}

func TestIndex_QueryWithoutFilterOmitsIt(t *testing.T) {
	idx, fake := newIndex(t)
	_, err := idx.Query(context.Background(), []float32{1, 0}, 2, domain.Filter{})
	require.NoError(t, err)
	_, ok := fake.searches[0]["filter"]
	assert.False(t, ok)
}

func TestIndex_CollectionStats(t *testing.T) {
	idx, _ := newIndex(t)
	ctx := context.Background()

	stats, err := idx.CollectionStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "empty", stats.Status)

	require.NoError(t, idx.EnsureCollection(ctx, 2))
	require.NoError(t, idx.Upsert(ctx, []domain.IndexedDocument{{Document: domain.Document{ID: "a"}, Embedding: []float32{1, 0}}}))

	stats, err = idx.CollectionStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "green", stats.Status)
	assert.Equal(t, 1, stats.Count)
	assert.Equal(t, 2, stats.Dimension)
}

func TestIndex_ServerErrorIsConnection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	idx := qdrant.New(server.URL, "travel_documents", "", time.Second, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	_, err := idx.Query(context.Background(), []float32{1}, 1, domain.Filter{})
	assert.ErrorIs(t, err, domain.ErrConnection)
}
