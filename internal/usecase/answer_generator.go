package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"travel-rag/internal/domain"
)

// GenerationInput is everything the generator needs to answer one question.
type GenerationInput struct {
	SystemPrompt string
	Context      string
	Query        string
	History      []domain.ChatTurn
}

// GenerationOutput is a completed answer.
type GenerationOutput struct {
	Text     string
	Model    string
	Attempts int
}

// AnswerGenerator turns a formatted context and question into an answer.
type AnswerGenerator interface {
	Generate(ctx context.Context, input GenerationInput) (GenerationOutput, error)
	// Stream yields text deltas. The error channel carries at most one error.
	Stream(ctx context.Context, input GenerationInput) (<-chan string, <-chan error, error)
	Model() string
}

type llmAnswerGenerator struct {
	llm       domain.LLMClient
	builder   PromptBuilder
	retry     RetryPolicy
	maxTokens int
	logger    *slog.Logger
}

// NewAnswerGenerator wraps an LLM client with prompt building and retries.
func NewAnswerGenerator(llm domain.LLMClient, builder PromptBuilder, retry RetryPolicy, maxTokens int, logger *slog.Logger) AnswerGenerator {
	return &llmAnswerGenerator{
		llm:       llm,
		builder:   builder,
		retry:     retry,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

func (g *llmAnswerGenerator) Model() string {
	return g.llm.Version()
}

func (g *llmAnswerGenerator) Generate(ctx context.Context, input GenerationInput) (GenerationOutput, error) {
	prompt, err := g.builder.Build(PromptInput(input))
	if err != nil {
		return GenerationOutput{}, domain.NewError(domain.KindGeneration, "generator.build_prompt", err)
	}

	var text string
	attempts := 0
	err = g.retry.Do(ctx, g.logger, "llm.generate", func(ctx context.Context) error {
		attempts++
		resp, err := g.llm.Generate(ctx, prompt, g.maxTokens)
		if err != nil {
			return wrapGeneration("generator.generate", err)
		}
		if resp == nil || strings.TrimSpace(resp.Text) == "" {
			return domain.ErrEmptyGeneration
		}
		text = strings.TrimSpace(resp.Text)
		return nil
	})
	if err != nil {
		return GenerationOutput{Attempts: attempts, Model: g.Model()}, err
	}

	g.logger.Debug("llm_generation_completed",
		slog.Int("prompt_length", len(prompt)),
		slog.Int("answer_length", len(text)),
		slog.Int("attempts", attempts))

	return GenerationOutput{Text: text, Model: g.Model(), Attempts: attempts}, nil
}

func (g *llmAnswerGenerator) Stream(ctx context.Context, input GenerationInput) (<-chan string, <-chan error, error) {
	prompt, err := g.builder.Build(PromptInput(input))
	if err != nil {
		return nil, nil, domain.NewError(domain.KindGeneration, "generator.build_prompt", err)
	}

	chunkCh, errCh, err := g.llm.GenerateStream(ctx, prompt, g.maxTokens)
	if err != nil {
		return nil, nil, wrapGeneration("generator.stream_setup", err)
	}

	out := make(chan string)
	errOut := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errOut)

		chunks, errs := chunkCh, errCh
		for chunks != nil || errs != nil {
			select {
			case <-ctx.Done():
				errOut <- ctx.Err()
				return
			case chunk, ok := <-chunks:
				if !ok {
					chunks = nil
					continue
				}
				if chunk.Text != "" {
					select {
					case out <- chunk.Text:
					case <-ctx.Done():
						errOut <- ctx.Err()
						return
					}
				}
				if chunk.Done {
					return
				}
			case streamErr, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				if streamErr != nil {
					errOut <- wrapGeneration("generator.stream", streamErr)
					return
				}
			}
		}
	}()

	return out, errOut, nil
}

// wrapGeneration keeps an existing domain kind and labels anything else as a
// generation failure.
func wrapGeneration(op string, err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	return domain.NewError(domain.KindGeneration, op, fmt.Errorf("llm call failed: %w", err))
}
