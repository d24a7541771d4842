package usecase

import (
	"context"
	"log/slog"
	"strings"

	"travel-rag/internal/domain"
	"travel-rag/internal/infra/metrics"

	"github.com/google/uuid"
)

// AssistantUsecase is the conversational entry point: it routes each turn
// either to small talk or to the RAG pipeline.
type AssistantUsecase interface {
	Execute(ctx context.Context, input AnswerWithRAGInput) (*AnswerWithRAGOutput, error)
	Stream(ctx context.Context, input AnswerWithRAGInput) <-chan StreamEvent
}

type assistantUsecase struct {
	router *IntentRouter
	rag    AnswerWithRAGUsecase
	logger *slog.Logger
}

func NewAssistantUsecase(router *IntentRouter, rag AnswerWithRAGUsecase, logger *slog.Logger) AssistantUsecase {
	return &assistantUsecase{router: router, rag: rag, logger: logger}
}

func (u *assistantUsecase) Execute(ctx context.Context, input AnswerWithRAGInput) (*AnswerWithRAGOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, domain.NewError(domain.KindValidation, "assistant.execute", errEmptyQuery)
	}
	if u.router.Classify(input.Query) == IntentSmallTalk {
		return u.smallTalk(input), nil
	}
	return u.rag.Execute(ctx, input)
}

func (u *assistantUsecase) Stream(ctx context.Context, input AnswerWithRAGInput) <-chan StreamEvent {
	if strings.TrimSpace(input.Query) == "" || u.router.Classify(input.Query) != IntentSmallTalk {
		return u.rag.Stream(ctx, input)
	}

	events := make(chan StreamEvent, 1)
	events <- StreamEvent{Kind: StreamEventKindDone, Payload: u.smallTalk(input)}
	close(events)
	return events
}

func (u *assistantUsecase) smallTalk(input AnswerWithRAGInput) *AnswerWithRAGOutput {
	id := uuid.New()
	metrics.RecordRequest(RouteSmallTalk, OutcomeSmallTalk.String())
	u.logger.Info("small_talk_answered", slog.String("request_id", id.String()))

	return &AnswerWithRAGOutput{
		RequestID:       id,
		Query:           strings.TrimSpace(input.Query),
		Answer:          u.router.SmallTalkReply(input.Query),
		Sources:         []domain.SearchResult{},
		ConfidenceScore: 1.0,
		Outcome:         OutcomeSmallTalk,
		Metadata: AnswerMetadata{
			RequestID: id.String(),
			Route:     RouteSmallTalk,
			Outcome:   OutcomeSmallTalk.String(),
		},
	}
}
