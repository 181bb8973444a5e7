package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oraculo-ai/oraculo/internal/domain"
)

// IngestJobRepository persists queued document ingestions.
type IngestJobRepository struct {
	db dbtx
}

func NewIngestJobRepository(pool *pgxpool.Pool) *IngestJobRepository {
	return &IngestJobRepository{db: pool}
}

func (r *IngestJobRepository) Create(ctx context.Context, job *domain.IngestJob) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO ingest_jobs (id, storage_key, source, filename, status, chunk_count, failed_chunks, retries, error, created_at, processed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		job.ID, job.StorageKey, nullableString(job.Source), nullableString(job.Filename),
		job.Status, job.ChunkCount, job.FailedChunks, job.Retries, nullableString(job.Error),
		job.CreatedAt, job.ProcessedAt,
	)
	if err != nil {
		return storageErr(err)
	}
	return nil
}

func (r *IngestJobRepository) GetByID(ctx context.Context, id string) (*domain.IngestJob, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, storage_key, source, filename, status, chunk_count, failed_chunks, retries, error, created_at, processed_at
		 FROM ingest_jobs WHERE id = $1`,
		id,
	)
	job, err := scanIngestJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIngestJobNotFound
		}
		return nil, storageErr(err)
	}
	return job, nil
}

// ClaimPending atomically claims up to limit pending jobs and flips them to
// processing, so concurrent workers never pick up the same job.
func (r *IngestJobRepository) ClaimPending(ctx context.Context, limit int) ([]*domain.IngestJob, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.Query(ctx,
		`WITH cte AS (
			 SELECT id
			 FROM ingest_jobs
			 WHERE status = $1
			 ORDER BY created_at ASC
			 FOR UPDATE SKIP LOCKED
			 LIMIT $2
		 )
		 UPDATE ingest_jobs
		 SET status = $3,
		     error = NULL,
		     processed_at = NULL
		 FROM cte
		 WHERE ingest_jobs.id = cte.id
		 RETURNING ingest_jobs.id, ingest_jobs.storage_key, ingest_jobs.source, ingest_jobs.filename,
		           ingest_jobs.status, ingest_jobs.chunk_count, ingest_jobs.failed_chunks,
		           ingest_jobs.retries, ingest_jobs.error, ingest_jobs.created_at, ingest_jobs.processed_at`,
		domain.IngestJobStatusPending, limit, domain.IngestJobStatusProcessing,
	)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var jobs []*domain.IngestJob
	for rows.Next() {
		job, err := scanIngestJob(rows)
		if err != nil {
			return nil, storageErr(err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return jobs, nil
}

// RecordResult marks a job completed/failed with its chunk accounting.
func (r *IngestJobRepository) RecordResult(ctx context.Context, id string, status domain.IngestJobStatus, chunkCount, failedChunks int, errMsg string) error {
	if !domain.ValidIngestJobStatus(status) {
		return domain.ErrInvalidIngestStatus
	}

	var processedAt *time.Time
	if status == domain.IngestJobStatusCompleted || status == domain.IngestJobStatusFailed {
		now := time.Now().UTC()
		processedAt = &now
	}

	cmdTag, err := r.db.Exec(ctx,
		`UPDATE ingest_jobs
		 SET status = $1, chunk_count = $2, failed_chunks = $3, error = $4, processed_at = $5
		 WHERE id = $6`,
		status, chunkCount, failedChunks, nullableString(errMsg), processedAt, id,
	)
	if err != nil {
		return storageErr(err)
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrIngestJobNotFound
	}
	return nil
}

func (r *IngestJobRepository) IncrementRetries(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE ingest_jobs SET retries = retries + 1 WHERE id = $1`,
		id,
	)
	if err != nil {
		return storageErr(err)
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrIngestJobNotFound
	}
	return nil
}

func scanIngestJob(row pgx.Row) (*domain.IngestJob, error) {
	var job domain.IngestJob
	var source, filename, errMsg pgtype.Text
	err := row.Scan(&job.ID, &job.StorageKey, &source, &filename, &job.Status,
		&job.ChunkCount, &job.FailedChunks, &job.Retries, &errMsg, &job.CreatedAt, &job.ProcessedAt)
	if err != nil {
		return nil, err
	}
	if source.Valid {
		job.Source = source.String
	}
	if filename.Valid {
		job.Filename = filename.String
	}
	if errMsg.Valid {
		job.Error = errMsg.String
	}
	return &job, nil
}
