package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a queued indexing job.
type JobStatus string

const (
	JobStatusNew        JobStatus = "new"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// IndexJob asks the worker to (re)index corpus documents.
// An empty DocumentIDs means the whole corpus.
type IndexJob struct {
	ID           uuid.UUID
	DocumentIDs  []string
	Status       JobStatus
	ErrorMessage *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IndexJobRepository queues indexing jobs for the background worker.
type IndexJobRepository interface {
	Enqueue(ctx context.Context, job *IndexJob) error

	// AcquireNextJob atomically moves the oldest new job to processing.
	// Returns nil, nil when the queue is empty.
	AcquireNextJob(ctx context.Context) (*IndexJob, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status JobStatus, errorMessage *string) error

	// Get returns nil, nil when the job does not exist.
	Get(ctx context.Context, id uuid.UUID) (*IndexJob, error)
}

// TransactionManager defines the interface for handling database transactions.
type TransactionManager interface {
	// RunInTx executes the given function within a transaction.
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
