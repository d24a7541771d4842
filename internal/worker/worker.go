package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"travel-rag/internal/domain"
	"travel-rag/internal/infra/logger"
	"travel-rag/internal/usecase"
)

const (
	defaultPollInterval = 500 * time.Millisecond
	jobTimeout          = 5 * time.Minute
	initialBackoff      = 1 * time.Second
	maxBackoff          = 5 * time.Minute
)

// DocumentSource resolves a job's document ids. An empty list means every
// document.
type DocumentSource func(ids []string) []domain.Document

// notifier is implemented by job repositories that can wake the worker.
type notifier interface {
	Notify() <-chan struct{}
}

// JobWorker drains re-index jobs one at a time.
type JobWorker struct {
	jobRepo  domain.IndexJobRepository
	indexer  usecase.IndexCorpusUsecase
	docs     DocumentSource
	logger   *slog.Logger
	stopChan  chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
	backoff   time.Duration
}

func NewJobWorker(
	jobRepo domain.IndexJobRepository,
	indexer usecase.IndexCorpusUsecase,
	docs DocumentSource,
	logger *slog.Logger,
) *JobWorker {
	return &JobWorker{
		jobRepo:  jobRepo,
		indexer:  indexer,
		docs:     docs,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the job loop. Only the first call has an effect, and a
// worker that was already stopped never starts.
func (w *JobWorker) Start() {
	w.startOnce.Do(func() {
		w.logger.Info("index_worker_starting")
		go w.run()
	})
}

// Stop signals the worker and waits for the current job to finish.
func (w *JobWorker) Stop() {
	w.stopOnce.Do(func() {
		w.logger.Info("index_worker_stopping")
		close(w.stopChan)
	})
	// Never started: nothing will close done.
	w.startOnce.Do(func() { close(w.done) })
	<-w.done
}

func (w *JobWorker) run() {
	defer close(w.done)

	var wake <-chan struct{}
	if n, ok := w.jobRepo.(notifier); ok {
		wake = n.Notify()
	}

	timer := time.NewTimer(defaultPollInterval)
	defer timer.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-wake:
			if w.backoff > 0 {
				continue
			}
		case <-timer.C:
		}

		w.processNextJob()

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		if w.backoff > 0 {
			timer.Reset(w.backoff)
		} else {
			timer.Reset(defaultPollInterval)
		}
	}
}

func (w *JobWorker) processNextJob() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	job, err := w.jobRepo.AcquireNextJob(ctx)
	if err != nil {
		w.logger.Error("index_job_acquire_failed", slog.String("error", err.Error()))
		return
	}
	if job == nil {
		return
	}

	ctx = logger.WithJobID(ctx, job.ID.String())
	w.logger.InfoContext(ctx, "index_job_processing",
		slog.Int("requested_documents", len(job.DocumentIDs)))

	processErr := w.process(ctx, job)

	status := domain.JobStatusCompleted
	var errMsg *string
	if processErr != nil {
		status = domain.JobStatusFailed
		msg := processErr.Error()
		errMsg = &msg
		w.backoff = w.nextBackoff(w.backoff)
		w.logger.WarnContext(ctx, "index_worker_backing_off",
			slog.Duration("backoff", w.backoff),
			slog.String("error", msg))
	} else {
		w.backoff = 0
		w.logger.InfoContext(ctx, "index_job_completed")
	}

	if err := w.jobRepo.UpdateStatus(ctx, job.ID, status, errMsg); err != nil {
		w.logger.ErrorContext(ctx, "index_job_status_update_failed", slog.String("error", err.Error()))
	}
}

func (w *JobWorker) process(ctx context.Context, job *domain.IndexJob) error {
	docs := w.docs(job.DocumentIDs)
	if len(docs) == 0 {
		return errors.New("job matched no documents")
	}
	report, err := w.indexer.Execute(ctx, docs)
	if err != nil {
		return fmt.Errorf("indexed %d, failed %d: %w", report.Indexed, report.Failed, err)
	}
	return nil
}

func (w *JobWorker) nextBackoff(current time.Duration) time.Duration {
	if current == 0 {
		return initialBackoff
	}
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}
