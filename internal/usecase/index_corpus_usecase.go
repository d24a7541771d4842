package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"travel-rag/internal/domain"
	"travel-rag/internal/infra/metrics"

	"golang.org/x/sync/errgroup"
)

// CacheInvalidator is implemented by anything that caches retrieval state.
type CacheInvalidator interface {
	Invalidate()
}

// IndexReport summarises one indexing run.
type IndexReport struct {
	Indexed   int
	Failed    int
	Skipped   int
	Documents []domain.Document
	Duration  time.Duration
}

// IndexCorpusUsecase embeds documents and upserts them into the vector index.
type IndexCorpusUsecase interface {
	Execute(ctx context.Context, docs []domain.Document) (IndexReport, error)
}

type indexCorpusUsecase struct {
	encoder     domain.VectorEncoder
	index       domain.VectorIndex
	invalidator CacheInvalidator
	batchSize   int
	concurrency int
	logger      *slog.Logger
}

// NewIndexCorpusUsecase wires the indexer. invalidator may be nil.
func NewIndexCorpusUsecase(
	encoder domain.VectorEncoder,
	index domain.VectorIndex,
	invalidator CacheInvalidator,
	batchSize, concurrency int,
	logger *slog.Logger,
) IndexCorpusUsecase {
	if batchSize <= 0 {
		batchSize = 8
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &indexCorpusUsecase{
		encoder:     encoder,
		index:       index,
		invalidator: invalidator,
		batchSize:   batchSize,
		concurrency: concurrency,
		logger:      logger,
	}
}

type batchOutcome struct {
	docs []domain.Document
	err  error
}

// Execute indexes docs in concurrent batches. A failed batch marks its
// documents failed without stopping the others; the returned error reports
// how many failed. Only ctx cancellation aborts the run.
func (u *indexCorpusUsecase) Execute(ctx context.Context, docs []domain.Document) (IndexReport, error) {
	start := time.Now()
	report := IndexReport{}

	if err := u.index.EnsureCollection(ctx, u.encoder.Dimension()); err != nil {
		return report, fmt.Errorf("ensure collection: %w", err)
	}

	var pending []domain.Document
	for _, doc := range docs {
		if err := doc.Validate(); err != nil {
			u.logger.Warn("document_rejected", slog.String("document_id", doc.ID), slog.String("error", err.Error()))
			report.Documents = append(report.Documents, markFailed(doc))
			report.Failed++
			metrics.RecordIndexed(domain.StatusFailed.String())
			continue
		}
		processing, err := doc.WithStatus(domain.StatusProcessing)
		if err != nil {
			u.logger.Info("document_skipped", slog.String("document_id", doc.ID), slog.String("status", doc.Status.String()))
			report.Documents = append(report.Documents, doc)
			report.Skipped++
			continue
		}
		pending = append(pending, processing)
	}

	batches := chunkDocuments(pending, u.batchSize)
	outcomes := make([]batchOutcome, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)
	for i, batch := range batches {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = batchOutcome{docs: batch, err: u.indexBatch(gctx, batch)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, fmt.Errorf("indexing cancelled: %w", err)
	}

	for i, out := range outcomes {
		for _, doc := range out.docs {
			if out.err != nil {
				report.Documents = append(report.Documents, markFailed(doc))
				report.Failed++
				metrics.RecordIndexed(domain.StatusFailed.String())
				continue
			}
			indexed, _ := doc.WithStatus(domain.StatusIndexed)
			report.Documents = append(report.Documents, indexed)
			report.Indexed++
			metrics.RecordIndexed(domain.StatusIndexed.String())
		}
		if out.err != nil {
			u.logger.Error("index_batch_failed", slog.Int("batch", i), slog.Int("size", len(out.docs)), slog.String("error", out.err.Error()))
		}
	}

	if report.Indexed > 0 && u.invalidator != nil {
		u.invalidator.Invalidate()
	}

	report.Duration = time.Since(start)
	u.logger.Info("corpus_indexed",
		slog.Int("indexed", report.Indexed),
		slog.Int("failed", report.Failed),
		slog.Int("skipped", report.Skipped),
		slog.Int64("duration_ms", report.Duration.Milliseconds()))

	if report.Failed > 0 {
		return report, fmt.Errorf("%d of %d documents failed to index", report.Failed, len(docs))
	}
	return report, nil
}

func (u *indexCorpusUsecase) indexBatch(ctx context.Context, batch []domain.Document) error {
	texts := make([]string, len(batch))
	for i, doc := range batch {
		texts[i] = doc.EmbeddingText()
	}

	vectors, err := u.encoder.Encode(ctx, texts)
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}
	if len(vectors) != len(batch) {
		return fmt.Errorf("expected %d embeddings, got %d", len(batch), len(vectors))
	}

	items := make([]domain.IndexedDocument, len(batch))
	for i, doc := range batch {
		indexed, err := doc.WithStatus(domain.StatusIndexed)
		if err != nil {
			return err
		}
		items[i] = domain.IndexedDocument{Document: indexed, Embedding: vectors[i]}
	}

	if err := u.index.Upsert(ctx, items); err != nil {
		return fmt.Errorf("upsert batch: %w", err)
	}
	return nil
}

func markFailed(doc domain.Document) domain.Document {
	failed, err := doc.WithStatus(domain.StatusFailed)
	if err != nil {
		return doc
	}
	return failed
}

func chunkDocuments(docs []domain.Document, size int) [][]domain.Document {
	var batches [][]domain.Document
	for start := 0; start < len(docs); start += size {
		end := min(start+size, len(docs))
		batches = append(batches, docs[start:end])
	}
	return batches
}
