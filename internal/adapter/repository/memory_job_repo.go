package repository

import (
	"context"
	"sync"
	"time"

	"travel-rag/internal/domain"

	"github.com/google/uuid"
)

// MemoryJobRepository is an in-process job queue for the memory and qdrant
// backends, which have no database to hold jobs.
type MemoryJobRepository struct {
	mu     sync.Mutex
	jobs   map[uuid.UUID]*domain.IndexJob
	order  []uuid.UUID
	notify chan struct{}
	now    func() time.Time
}

func NewMemoryJobRepository() *MemoryJobRepository {
	return &MemoryJobRepository{
		jobs:   make(map[uuid.UUID]*domain.IndexJob),
		notify: make(chan struct{}, 1),
		now:    time.Now,
	}
}

// Notify fires after each Enqueue so a worker can skip its poll interval.
func (r *MemoryJobRepository) Notify() <-chan struct{} {
	return r.notify
}

func (r *MemoryJobRepository) Enqueue(_ context.Context, job *domain.IndexJob) error {
	r.mu.Lock()
	stored := copyJob(job)
	r.jobs[job.ID] = stored
	r.order = append(r.order, job.ID)
	r.mu.Unlock()

	select {
	case r.notify <- struct{}{}:
	default:
	}
	return nil
}

func (r *MemoryJobRepository) AcquireNextJob(_ context.Context) (*domain.IndexJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		job := r.jobs[id]
		if job.Status != domain.JobStatusNew {
			continue
		}
		job.Status = domain.JobStatusProcessing
		job.UpdatedAt = r.now()
		return copyJob(job), nil
	}
	return nil, nil
}

func (r *MemoryJobRepository) UpdateStatus(_ context.Context, id uuid.UUID, status domain.JobStatus, errorMessage *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil
	}
	job.Status = status
	job.ErrorMessage = errorMessage
	job.UpdatedAt = r.now()
	return nil
}

func (r *MemoryJobRepository) Get(_ context.Context, id uuid.UUID) (*domain.IndexJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, nil
	}
	return copyJob(job), nil
}

func copyJob(job *domain.IndexJob) *domain.IndexJob {
	out := *job
	out.DocumentIDs = append([]string(nil), job.DocumentIDs...)
	if job.ErrorMessage != nil {
		msg := *job.ErrorMessage
		out.ErrorMessage = &msg
	}
	return &out
}

var _ domain.IndexJobRepository = (*MemoryJobRepository)(nil)
