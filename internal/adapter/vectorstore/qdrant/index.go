// Package qdrant is a domain.VectorIndex backed by the Qdrant REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"travel-rag/internal/domain"
	"travel-rag/internal/infra/httpclient"

	"github.com/google/uuid"
)

// errNotFound marks a 404 from Qdrant.
var errNotFound = errors.New("qdrant: not found")

type Index struct {
	baseURL    string
	collection string
	apiKey     string
	client     *http.Client
	logger     *slog.Logger
}

func New(baseURL, collection, apiKey string, timeout time.Duration, logger *slog.Logger) *Index {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Index{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		apiKey:     apiKey,
		client:     httpclient.NewPooledClient(timeout),
		logger:     logger,
	}
}

// PointID maps a document id to a stable Qdrant point id.
func PointID(docID string) string {
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(docID)).String()
}

func (i *Index) collectionPath(suffix string) string {
	return "/collections/" + url.PathEscape(i.collection) + suffix
}

func (i *Index) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("qdrant: dimension must be positive, got %d", dimension)
	}

	var info envelope[collectionInfo]
	err := i.do(ctx, http.MethodGet, i.collectionPath(""), nil, &info)
	switch {
	case err == nil:
		if size := info.Result.Config.Params.Vectors.Size; size != 0 && size != dimension {
			return fmt.Errorf("qdrant: collection %q has dimension %d, requested %d", i.collection, size, dimension)
		}
		return nil
	case !errors.Is(err, errNotFound):
		return domain.NewError(domain.KindConnection, "qdrant.ensure_collection", err)
	}

	req := map[string]any{
		"vectors": map[string]any{"size": dimension, "distance": "Cosine"},
	}
	var rsp envelope[json.RawMessage]
	if err := i.do(ctx, http.MethodPut, i.collectionPath(""), req, &rsp); err != nil {
		return domain.NewError(domain.KindConnection, "qdrant.create_collection", err)
	}
	if rsp.Status.State != "ok" {
		return domain.NewError(domain.KindConnection, "qdrant.create_collection", errors.New(rsp.Status.Error))
	}
	i.logger.Info("qdrant_collection_created", slog.String("collection", i.collection), slog.Int("dimension", dimension))
	return nil
}

func (i *Index) Upsert(ctx context.Context, docs []domain.IndexedDocument) error {
	if len(docs) == 0 {
		return nil
	}
	points := make([]point, len(docs))
	for n, d := range docs {
		points[n] = point{ID: PointID(d.Document.ID), Vector: d.Embedding, Payload: toPayload(d.Document)}
	}

	var rsp envelope[json.RawMessage]
	if err := i.do(ctx, http.MethodPut, i.collectionPath("/points?wait=true"), map[string]any{"points": points}, &rsp); err != nil {
		return domain.NewError(domain.KindConnection, "qdrant.upsert", err)
	}
	if rsp.Status.State != "ok" && rsp.Status.Error != "" {
		return domain.NewError(domain.KindConnection, "qdrant.upsert", errors.New(rsp.Status.Error))
	}
	return nil
}

func (i *Index) Query(ctx context.Context, vector []float32, k int, f domain.Filter) ([]domain.ScoredDocument, error) {
	if k <= 0 {
		return nil, nil
	}
	req := searchRequest{Vector: vector, Limit: k, WithPayload: true, Filter: buildFilter(f)}

	var rsp envelope[[]scoredPoint]
	if err := i.do(ctx, http.MethodPost, i.collectionPath("/points/search"), req, &rsp); err != nil {
		return nil, domain.NewError(domain.KindConnection, "qdrant.search", err)
	}

	out := make([]domain.ScoredDocument, 0, len(rsp.Result))
	for _, p := range rsp.Result {
		doc, err := p.Payload.document()
		if err != nil {
			i.logger.Warn("qdrant_point_skipped", slog.String("point_id", p.ID), slog.String("error", err.Error()))
			continue
		}
		out = append(out, domain.ScoredDocument{Document: doc, Score: p.Score})
	}
	return out, nil
}

func (i *Index) CollectionStats(ctx context.Context) (domain.CollectionStats, error) {
	var info envelope[collectionInfo]
	err := i.do(ctx, http.MethodGet, i.collectionPath(""), nil, &info)
	if errors.Is(err, errNotFound) {
		return domain.CollectionStats{Name: i.collection, Status: "empty"}, nil
	}
	if err != nil {
		return domain.CollectionStats{}, domain.NewError(domain.KindConnection, "qdrant.stats", err)
	}
	return domain.CollectionStats{
		Name:      i.collection,
		Count:     info.Result.PointsCount,
		Status:    info.Result.Status,
		Dimension: info.Result.Config.Params.Vectors.Size,
	}, nil
}

func (i *Index) do(ctx context.Context, method, path string, req, rsp any) error {
	var body io.Reader
	if req != nil {
		data, err := json.Marshal(req)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	request, err := http.NewRequestWithContext(ctx, method, i.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	if i.apiKey != "" {
		request.Header.Set("api-key", i.apiKey)
	}

	response, err := i.client.Do(request)
	if err != nil {
		return err
	}
	defer func() { _ = response.Body.Close() }()

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if response.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("qdrant http %d: %s", response.StatusCode, strings.TrimSpace(string(data)))
	}
	if rsp != nil && len(data) > 0 {
		if err := json.Unmarshal(data, rsp); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

var _ domain.VectorIndex = (*Index)(nil)
