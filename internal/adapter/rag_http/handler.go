package rag_http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"travel-rag/internal/corpus"
	"travel-rag/internal/domain"
	"travel-rag/internal/infra/logger"
	"travel-rag/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const readinessTimeout = 2 * time.Second

// StatsReader is the part of the vector index the API reports on.
type StatsReader interface {
	CollectionStats(ctx context.Context) (domain.CollectionStats, error)
}

type Handler struct {
	assistant usecase.AssistantUsecase
	retrieve  usecase.RetrieveContextUsecase
	advisor   *usecase.QueryAdvisor
	stats     StatsReader
	jobRepo   domain.IndexJobRepository
	logger    *slog.Logger
}

func NewHandler(
	assistant usecase.AssistantUsecase,
	retrieve usecase.RetrieveContextUsecase,
	advisor *usecase.QueryAdvisor,
	stats StatsReader,
	jobRepo domain.IndexJobRepository,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		assistant: assistant,
		retrieve:  retrieve,
		advisor:   advisor,
		stats:     stats,
		jobRepo:   jobRepo,
		logger:    logger,
	}
}

// Register mounts every route on e. limited wraps the endpoints that reach
// the models.
func (h *Handler) Register(e *echo.Echo, limited ...echo.MiddlewareFunc) {
	e.GET("/healthz", h.Healthz)
	e.GET("/readyz", h.Readyz)

	e.POST("/rag-travel", h.LegacyAnswer, limited...)

	v1 := e.Group("/v1/rag")
	v1.POST("/answer", h.Answer, limited...)
	v1.POST("/answer/stream", h.AnswerStream, limited...)
	v1.POST("/search", h.Search, limited...)
	v1.POST("/validate-query", h.ValidateQuery)
	v1.GET("/collection", h.Collection)

	e.POST("/internal/rag/reindex", h.Reindex)
}

// Answer a travel question with sources and metadata
// (POST /v1/rag/answer)
func (h *Handler) Answer(c echo.Context) error {
	out, err := h.answer(c, false)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, ToAnswerView(out))
}

// Answer a travel question in the compact format
// (POST /rag-travel)
// retrieved_context always lists what was retrieved, so include_sources is ignored here.
func (h *Handler) LegacyAnswer(c echo.Context) error {
	out, err := h.answer(c, true)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, ToLegacyView(out, c.QueryParam("debug") == "true"))
}

func (h *Handler) answer(c echo.Context, forceSources bool) (*usecase.AnswerWithRAGOutput, error) {
	var req AnswerRequest
	if err := c.Bind(&req); err != nil {
		return nil, errMalformed
	}
	input, err := toInput(req)
	if err != nil {
		return nil, err
	}
	if forceSources {
		input.IncludeSources = true
	}
	return h.assistant.Execute(h.requestContext(c, "answer"), input)
}

// Stream an answer as server-sent events
// (POST /v1/rag/answer/stream)
func (h *Handler) AnswerStream(c echo.Context) error {
	var req AnswerRequest
	if err := c.Bind(&req); err != nil {
		return h.writeError(c, errMalformed)
	}
	input, err := toInput(req)
	if err != nil {
		return h.writeError(c, err)
	}
	if err := precheck(input); err != nil {
		return h.writeError(c, err)
	}

	w := c.Response()
	flusher, ok := w.Writer.(http.Flusher)
	if !ok {
		return c.JSON(http.StatusInternalServerError, ErrorView{Error: "streaming not supported"})
	}
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := h.requestContext(c, "answer_stream")
	for event := range h.assistant.Stream(ctx, input) {
		payload, err := streamPayload(event)
		if err != nil {
			h.logger.ErrorContext(ctx, "sse_encode_failed", slog.String("error", err.Error()))
			continue
		}
		if err := writeSSE(w, string(event.Kind), payload); err != nil {
			h.logger.InfoContext(ctx, "sse_client_disconnected", slog.String("error", err.Error()))
			return nil
		}
		flusher.Flush()
	}
	return nil
}

// Retrieve ranked documents without generation
// (POST /v1/rag/search)
func (h *Handler) Search(c echo.Context) error {
	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		return h.writeError(c, errMalformed)
	}
	input, err := toSearchInput(req)
	if err != nil {
		return h.writeError(c, err)
	}
	out, err := h.retrieve.Execute(h.requestContext(c, "search"), input)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, toSearchView(out))
}

// Advise on a query before it is asked
// (POST /v1/rag/validate-query)
func (h *Handler) ValidateQuery(c echo.Context) error {
	var req ValidateRequest
	if err := c.Bind(&req); err != nil {
		return h.writeError(c, errMalformed)
	}
	if strings.TrimSpace(req.Query) == "" {
		return h.writeError(c, validationError("query must not be empty"))
	}
	advice := h.advisor.Validate(req.Query)
	return c.JSON(http.StatusOK, ValidateView{
		Valid:       advice.Valid,
		Issues:      advice.Issues,
		Suggestions: advice.Suggestions,
		Length:      advice.Length,
	})
}

// (GET /v1/rag/collection)
func (h *Handler) Collection(c echo.Context) error {
	stats, err := h.stats.CollectionStats(c.Request().Context())
	if err != nil {
		h.logger.ErrorContext(c.Request().Context(), "collection_stats_failed", slog.String("error", err.Error()))
		return c.JSON(http.StatusServiceUnavailable, ErrorView{Error: "index_unavailable", Message: err.Error()})
	}
	return c.JSON(http.StatusOK, CollectionView(stats))
}

type reindexRequest struct {
	DocumentIDs []string `json:"document_ids"`
}

// Queue a corpus re-index for the background worker
// (POST /internal/rag/reindex)
func (h *Handler) Reindex(c echo.Context) error {
	var req reindexRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return h.writeError(c, errMalformed)
		}
	}
	for _, id := range req.DocumentIDs {
		if _, ok := corpus.ByID(id); !ok {
			return h.writeError(c, validationError("unknown document id %q", id))
		}
	}

	now := time.Now()
	job := &domain.IndexJob{
		ID:          uuid.New(),
		DocumentIDs: req.DocumentIDs,
		Status:      domain.JobStatusNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.jobRepo.Enqueue(c.Request().Context(), job); err != nil {
		h.logger.ErrorContext(c.Request().Context(), "reindex_enqueue_failed", slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, ErrorView{Error: "enqueue_failed", Message: err.Error()})
	}

	h.logger.InfoContext(c.Request().Context(), "reindex_job_enqueued",
		slog.String("job_id", job.ID.String()),
		slog.Int("document_count", len(job.DocumentIDs)))
	return c.JSON(http.StatusAccepted, map[string]string{"job_id": job.ID.String(), "status": "queued"})
}

// (GET /healthz)
func (h *Handler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz reports ready once the vector index answers a stats call.
// (GET /readyz)
func (h *Handler) Readyz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	stats, err := h.stats.CollectionStats(ctx)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "ready", "documents": stats.Count})
}

var errMalformed = errors.New("invalid request")

func (h *Handler) writeError(c echo.Context, err error) error {
	requestID := requestIDOf(c)
	switch {
	case errors.Is(err, errMalformed):
		return c.JSON(http.StatusBadRequest, ErrorView{Error: "invalid request", RequestID: requestID})
	case errors.Is(err, domain.ErrValidation):
		return c.JSON(http.StatusBadRequest, ErrorView{
			Error:     "validation_error",
			Message:   validationMessage(err),
			RequestID: requestID,
		})
	}

	h.logger.ErrorContext(c.Request().Context(), "request_failed",
		slog.String("request_id", requestID),
		slog.String("kind", string(domain.KindOf(err))),
		slog.String("error", err.Error()))
	status := http.StatusInternalServerError
	if kind := domain.KindOf(err); kind == domain.KindRetrieval || kind == domain.KindConnection {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, ErrorView{Error: "internal_error", Message: err.Error(), RequestID: requestID})
}

// validationMessage strips the op and kind prefix so clients see only the
// field-level reason.
func validationMessage(err error) string {
	var de *domain.Error
	if errors.As(err, &de) && de.Err != nil {
		return de.Err.Error()
	}
	return err.Error()
}

func (h *Handler) requestContext(c echo.Context, route string) context.Context {
	ctx := logger.WithRequestID(c.Request().Context(), requestIDOf(c))
	return logger.WithRoute(ctx, route)
}

// requestIDOf prefers the id set by the RequestID middleware.
func requestIDOf(c echo.Context) string {
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	if id := c.Request().Header.Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	id := uuid.NewString()
	c.Response().Header().Set(echo.HeaderXRequestID, id)
	return id
}

// precheck rejects a streamed request before the event stream starts, so a
// bad query still gets a 400 instead of an error event.
func precheck(input usecase.AnswerWithRAGInput) error {
	maxResults := input.MaxResults
	if maxResults == 0 {
		maxResults = domain.DefaultMaxResults
	}
	return domain.Query{Text: input.Query, MaxResults: maxResults}.Validate()
}

func streamPayload(event usecase.StreamEvent) (any, error) {
	switch event.Kind {
	case usecase.StreamEventKindMeta:
		meta, ok := event.Payload.(usecase.StreamMeta)
		if !ok {
			return nil, fmt.Errorf("meta payload has type %T", event.Payload)
		}
		return streamMetaView{
			RequestID:       meta.RequestID.String(),
			Sources:         toSourceViews(meta.Sources),
			ConfidenceScore: meta.ConfidenceScore,
		}, nil
	case usecase.StreamEventKindDelta:
		text, _ := event.Payload.(string)
		return streamDeltaView{Text: text}, nil
	case usecase.StreamEventKindDone, usecase.StreamEventKindFallback:
		out, ok := event.Payload.(*usecase.AnswerWithRAGOutput)
		if !ok {
			return nil, fmt.Errorf("%s payload has type %T", event.Kind, event.Payload)
		}
		return ToAnswerView(out), nil
	case usecase.StreamEventKindError:
		msg, _ := event.Payload.(string)
		return ErrorView{Error: "stream_error", Message: msg}, nil
	default:
		return nil, fmt.Errorf("unknown stream event %q", event.Kind)
	}
}

func writeSSE(w http.ResponseWriter, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
