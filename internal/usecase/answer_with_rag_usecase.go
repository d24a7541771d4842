package usecase

import (
	"context"
	"log/slog"
	"time"

	"travel-rag/internal/domain"
	"travel-rag/internal/infra/metrics"
	"travel-rag/internal/usecase/retrieval"

	"github.com/google/uuid"
)

// gapEvidenceLimit is how many weak results accompany a knowledge-gap answer.
const gapEvidenceLimit = 3

// HybridSearcher is the retrieval stage of the pipeline.
type HybridSearcher interface {
	Search(ctx context.Context, req retrieval.SearchRequest) ([]domain.SearchResult, error)
}

// GapDetector flags questions the corpus cannot answer.
type GapDetector interface {
	Detect(query string, results []domain.SearchResult) (string, bool)
}

type answerWithRAGUsecase struct {
	retriever HybridSearcher
	generator AnswerGenerator
	gaps      GapDetector
	cfg       RetrievalConfig
	logger    *slog.Logger
	now       func() time.Time
}

// NewAnswerWithRAGUsecase wires together the components needed to generate a RAG answer.
func NewAnswerWithRAGUsecase(
	retriever HybridSearcher,
	generator AnswerGenerator,
	gaps GapDetector,
	cfg RetrievalConfig,
	logger *slog.Logger,
) AnswerWithRAGUsecase {
	return &answerWithRAGUsecase{
		retriever: retriever,
		generator: generator,
		gaps:      gaps,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// pipelineState is threaded through the stages by value; each stage returns
// a new state instead of mutating its input.
type pipelineState struct {
	requestID  uuid.UUID
	input      AnswerWithRAGInput
	query      domain.Query
	results    []domain.SearchResult
	retrieval  time.Duration
	contextMD  string
	answer     string
	generation time.Duration
	attempts   int
}

// Execute runs the pipeline. The error is non-nil only when the input fails
// validation; every later failure is reported as a degraded answer.
func (u *answerWithRAGUsecase) Execute(ctx context.Context, input AnswerWithRAGInput) (*AnswerWithRAGOutput, error) {
	st, err := u.start(input)
	if err != nil {
		return nil, err
	}

	st, err = u.retrieve(ctx, st)
	if err != nil {
		return u.finish(u.degraded(st, err)), nil
	}
	if len(st.results) == 0 {
		return u.finish(u.noResults(st)), nil
	}
	if msg, ok := u.gaps.Detect(st.query.Text, st.results); ok {
		return u.finish(u.knowledgeGap(st, msg)), nil
	}

	st = u.formatContext(st)
	st, err = u.generate(ctx, st)
	if err != nil {
		return u.finish(u.degraded(st, err)), nil
	}
	return u.finish(u.assemble(st)), nil
}

func (u *answerWithRAGUsecase) start(input AnswerWithRAGInput) (pipelineState, error) {
	query := input.toQuery(u.cfg.DefaultMaxResults)
	if err := query.Validate(); err != nil {
		return pipelineState{}, err
	}
	query.History = domain.TrimHistory(query.History, u.cfg.HistoryTurns)
	return pipelineState{
		requestID: uuid.New(),
		input:     input,
		query:     query,
	}, nil
}

func (u *answerWithRAGUsecase) retrieve(ctx context.Context, st pipelineState) (pipelineState, error) {
	ctx, cancel := context.WithTimeout(ctx, u.cfg.RetrievalTimeout)
	defer cancel()

	began := u.now()
	results, err := u.retriever.Search(ctx, retrieval.SearchRequest{
		Query:      st.query.Text,
		Filter:     st.query.Filter,
		MaxResults: st.query.MaxResults,
		Alpha:      st.input.Alpha,
	})
	st.retrieval = u.now().Sub(began)
	metrics.ObserveStage("retrieve", st.retrieval.Seconds())
	if err != nil {
		if domain.KindOf(err) == "" {
			err = domain.NewError(domain.KindRetrieval, "pipeline.retrieve", err)
		}
		return st, err
	}
	st.results = results
	return st, nil
}

func (u *answerWithRAGUsecase) formatContext(st pipelineState) pipelineState {
	st.contextMD = FormatContext(st.results)
	return st
}

func (u *answerWithRAGUsecase) generate(ctx context.Context, st pipelineState) (pipelineState, error) {
	ctx, cancel := context.WithTimeout(ctx, u.cfg.GenerationTimeout)
	defer cancel()

	began := u.now()
	out, err := u.generator.Generate(ctx, GenerationInput{
		SystemPrompt: TravelAssistantPrompt,
		Context:      st.contextMD,
		Query:        st.query.Text,
		History:      st.query.History,
	})
	st.generation = u.now().Sub(began)
	st.attempts = out.Attempts
	metrics.ObserveStage("generate", st.generation.Seconds())
	if err != nil {
		return st, err
	}
	st.answer = out.Text
	return st, nil
}

func (u *answerWithRAGUsecase) assemble(st pipelineState) *AnswerWithRAGOutput {
	out := u.base(st, OutcomeAnswered)
	out.Answer = st.answer
	out.ConfidenceScore = retrieval.Confidence(st.results)
	out.RetrievalCount = len(st.results)
	if st.input.IncludeSources {
		out.Sources = st.results
	}
	return out
}

func (u *answerWithRAGUsecase) noResults(st pipelineState) *AnswerWithRAGOutput {
	out := u.base(st, OutcomeNoResults)
	out.Answer = NoResultsAnswer
	return out
}

func (u *answerWithRAGUsecase) knowledgeGap(st pipelineState, msg string) *AnswerWithRAGOutput {
	out := u.base(st, OutcomeKnowledgeGap)
	out.Answer = msg
	out.ConfidenceScore = st.results[0].Score
	out.RetrievalCount = len(st.results)
	out.Sources = st.results[:min(gapEvidenceLimit, len(st.results))]

	u.logger.Info("rag_knowledge_gap_detected",
		slog.String("request_id", st.requestID.String()),
		slog.Float64("top_score", st.results[0].Score),
		slog.String("top_source_country", st.results[0].Document.SourceCountry))
	return out
}

func (u *answerWithRAGUsecase) degraded(st pipelineState, err error) *AnswerWithRAGOutput {
	out := u.base(st, OutcomeDegraded)
	out.Answer = DegradedAnswer
	out.RetrievalCount = len(st.results)
	out.Metadata.Error = err.Error()

	u.logger.Error("rag_answer_degraded",
		slog.String("request_id", st.requestID.String()),
		slog.String("error_kind", string(domain.KindOf(err))),
		slog.String("error", err.Error()),
		slog.Int("retrieval_count", len(st.results)))
	return out
}

// base fills the fields every branch shares. Score statistics describe the
// retrieved set even when the branch does not return it.
func (u *answerWithRAGUsecase) base(st pipelineState, outcome Outcome) *AnswerWithRAGOutput {
	var top float64
	if len(st.results) > 0 {
		top = st.results[0].Score
	}
	return &AnswerWithRAGOutput{
		RequestID: st.requestID,
		Query:     st.query.Text,
		Sources:   []domain.SearchResult{},
		Outcome:   outcome,
		Metadata: AnswerMetadata{
			RetrievalDuration:  st.retrieval.Seconds(),
			GenerationDuration: st.generation.Seconds(),
			TopScore:           top,
			AvgScore:           retrieval.AverageScore(st.results),
			RequestID:          st.requestID.String(),
			Route:              RouteRAG,
			Outcome:            outcome.String(),
			Model:              u.generator.Model(),
			Attempts:           st.attempts,
		},
	}
}

func (u *answerWithRAGUsecase) finish(out *AnswerWithRAGOutput) *AnswerWithRAGOutput {
	out.ProcessingTime = out.Metadata.RetrievalDuration + out.Metadata.GenerationDuration
	metrics.RecordRequest(RouteRAG, out.Outcome.String())

	u.logger.Info("rag_answer_completed",
		slog.String("request_id", out.RequestID.String()),
		slog.String("outcome", out.Outcome.String()),
		slog.Int("retrieval_count", out.RetrievalCount),
		slog.Float64("confidence", out.ConfidenceScore),
		slog.Float64("processing_time", out.ProcessingTime))
	return out
}
