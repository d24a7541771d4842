package usecase

import (
	"context"
	"log/slog"
	"strings"

	"travel-rag/internal/domain"
	"travel-rag/internal/infra/metrics"
	"travel-rag/internal/usecase/retrieval"
)

// Stream runs the same pipeline as Execute but yields the answer as deltas.
// Early exits arrive as a single fallback event; failures as an error event.
func (u *answerWithRAGUsecase) Stream(ctx context.Context, input AnswerWithRAGInput) <-chan StreamEvent {
	events := make(chan StreamEvent, 4)
	go func() {
		defer close(events)

		st, err := u.start(input)
		if err != nil {
			u.sendStreamEvent(ctx, events, StreamEvent{Kind: StreamEventKindError, Payload: err.Error()})
			return
		}

		st, err = u.retrieve(ctx, st)
		if err != nil {
			u.finish(u.degraded(st, err))
			u.sendStreamEvent(ctx, events, StreamEvent{Kind: StreamEventKindError, Payload: DegradedAnswer})
			return
		}
		if len(st.results) == 0 {
			u.sendStreamEvent(ctx, events, StreamEvent{Kind: StreamEventKindFallback, Payload: u.finish(u.noResults(st))})
			return
		}
		if msg, ok := u.gaps.Detect(st.query.Text, st.results); ok {
			u.sendStreamEvent(ctx, events, StreamEvent{Kind: StreamEventKindFallback, Payload: u.finish(u.knowledgeGap(st, msg))})
			return
		}

		meta := StreamMeta{
			RequestID:       st.requestID,
			Sources:         []domain.SearchResult{},
			ConfidenceScore: retrieval.Confidence(st.results),
		}
		if input.IncludeSources {
			meta.Sources = st.results
		}
		if !u.sendStreamEvent(ctx, events, StreamEvent{Kind: StreamEventKindMeta, Payload: meta}) {
			return
		}

		st = u.formatContext(st)

		genCtx, cancel := context.WithTimeout(ctx, u.cfg.GenerationTimeout)
		defer cancel()

		began := u.now()
		deltas, errs, err := u.generator.Stream(genCtx, GenerationInput{
			SystemPrompt: TravelAssistantPrompt,
			Context:      st.contextMD,
			Query:        st.query.Text,
			History:      st.query.History,
		})
		if err != nil {
			u.finish(u.degraded(st, err))
			u.sendStreamEvent(ctx, events, StreamEvent{Kind: StreamEventKindError, Payload: DegradedAnswer})
			return
		}

		var builder strings.Builder
		for deltas != nil || errs != nil {
			select {
			case <-ctx.Done():
				u.logger.Info("rag_stream_client_disconnected", slog.String("request_id", st.requestID.String()))
				return
			case delta, ok := <-deltas:
				if !ok {
					deltas = nil
					continue
				}
				builder.WriteString(delta)
				if !u.sendStreamEvent(ctx, events, StreamEvent{Kind: StreamEventKindDelta, Payload: delta}) {
					return
				}
			case streamErr, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				if streamErr != nil {
					st.generation = u.now().Sub(began)
					u.finish(u.degraded(st, streamErr))
					u.sendStreamEvent(ctx, events, StreamEvent{Kind: StreamEventKindError, Payload: DegradedAnswer})
					return
				}
			}
		}

		st.generation = u.now().Sub(began)
		metrics.ObserveStage("generate_stream", st.generation.Seconds())

		st.answer = strings.TrimSpace(builder.String())
		if st.answer == "" {
			u.finish(u.degraded(st, domain.ErrEmptyGeneration))
			u.sendStreamEvent(ctx, events, StreamEvent{Kind: StreamEventKindError, Payload: DegradedAnswer})
			return
		}

		u.sendStreamEvent(ctx, events, StreamEvent{Kind: StreamEventKindDone, Payload: u.finish(u.assemble(st))})
	}()

	return events
}

func (u *answerWithRAGUsecase) sendStreamEvent(ctx context.Context, events chan<- StreamEvent, event StreamEvent) bool {
	select {
	case <-ctx.Done():
		return false
	case events <- event:
		return true
	}
}
