package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"travel-rag/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type IndexJobRepository struct {
	db *pgxpool.Pool
}

func NewIndexJobRepository(db *pgxpool.Pool) *IndexJobRepository {
	return &IndexJobRepository{db: db}
}

// EnsureSchema creates the job table when it is missing.
func (r *IndexJobRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS travel_index_jobs (
			id            uuid PRIMARY KEY,
			document_ids  text[] NOT NULL DEFAULT '{}',
			status        text NOT NULL,
			error_message text,
			created_at    timestamptz NOT NULL,
			updated_at    timestamptz NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to create travel_index_jobs: %w", err)
	}
	return nil
}

func (r *IndexJobRepository) Enqueue(ctx context.Context, job *domain.IndexJob) error {
	ids := job.DocumentIDs
	if ids == nil {
		ids = []string{}
	}
	_, err := Executor(ctx, r.db).Exec(ctx, `
		INSERT INTO travel_index_jobs (id, document_ids, status, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		job.ID, ids, string(job.Status), job.ErrorMessage, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}

// AcquireNextJob claims the oldest new job with SKIP LOCKED so several
// workers can share the table.
func (r *IndexJobRepository) AcquireNextJob(ctx context.Context) (*domain.IndexJob, error) {
	const query = `
		WITH next_job AS (
			SELECT id
			FROM travel_index_jobs
			WHERE status = 'new'
			ORDER BY created_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE travel_index_jobs
		SET status = 'processing', updated_at = $1
		FROM next_job
		WHERE travel_index_jobs.id = next_job.id
		RETURNING travel_index_jobs.id, travel_index_jobs.document_ids, travel_index_jobs.status,
			travel_index_jobs.error_message, travel_index_jobs.created_at, travel_index_jobs.updated_at`

	job, err := scanJob(Executor(ctx, r.db).QueryRow(ctx, query, time.Now()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to acquire next job: %w", err)
	}
	return job, nil
}

func (r *IndexJobRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.JobStatus, errorMessage *string) error {
	_, err := Executor(ctx, r.db).Exec(ctx, `
		UPDATE travel_index_jobs
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4`,
		string(status), errorMessage, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return nil
}

func (r *IndexJobRepository) Get(ctx context.Context, id uuid.UUID) (*domain.IndexJob, error) {
	job, err := scanJob(Executor(ctx, r.db).QueryRow(ctx, `
		SELECT id, document_ids, status, error_message, created_at, updated_at
		FROM travel_index_jobs
		WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

func scanJob(row pgx.Row) (*domain.IndexJob, error) {
	var job domain.IndexJob
	var status string
	if err := row.Scan(&job.ID, &job.DocumentIDs, &status, &job.ErrorMessage, &job.CreatedAt, &job.UpdatedAt); err != nil {
		return nil, err
	}
	job.Status = domain.JobStatus(status)
	return &job, nil
}

var _ domain.IndexJobRepository = (*IndexJobRepository)(nil)
