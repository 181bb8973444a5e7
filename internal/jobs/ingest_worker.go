package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/oraculo-ai/oraculo/internal/domain"
	"github.com/oraculo-ai/oraculo/internal/service"
)

const (
	// MaxRetries is the maximum number of retries for a failed job
	MaxRetries = 3

	claimBatchSize = 10
)

// IngestJobRepository defines the interface for ingest job persistence
type IngestJobRepository interface {
	// ClaimPending claims up to limit pending jobs for processing
	ClaimPending(ctx context.Context, limit int) ([]*domain.IngestJob, error)

	// RecordResult records the terminal status and chunk accounting of a job
	RecordResult(ctx context.Context, id string, status domain.IngestJobStatus, chunkCount, failedChunks int, errMsg string) error

	// IncrementRetries increments the retry count for a job
	IncrementRetries(ctx context.Context, id string) error
}

// ObjectStore fetches uploaded documents by their storage key
type ObjectStore interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
}

// Ingestor turns a raw document into stored chunks
type Ingestor interface {
	Ingest(ctx context.Context, data []byte, filename, source string, metadata map[string]string) (*service.IngestResult, error)
}

// IngestWorker processes queued document ingestions
type IngestWorker struct {
	repo     IngestJobRepository
	store    ObjectStore
	ingestor Ingestor
}

// NewIngestWorker creates a new IngestWorker instance
func NewIngestWorker(repo IngestJobRepository, store ObjectStore, ingestor Ingestor) *IngestWorker {
	return &IngestWorker{
		repo:     repo,
		store:    store,
		ingestor: ingestor,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *IngestWorker) ProcessJobs(ctx context.Context) error {
	jobs, err := w.repo.ClaimPending(ctx, claimBatchSize)
	if err != nil {
		return fmt.Errorf("failed to claim pending jobs: %w", err)
	}

	if len(jobs) == 0 {
		return nil
	}

	log.Printf("Processing %d pending ingest jobs", len(jobs))

	for _, job := range jobs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := w.processJob(ctx, job); err != nil {
			log.Printf("Error processing job %s: %v", job.ID, err)
		}
	}

	return nil
}

func (w *IngestWorker) processJob(ctx context.Context, job *domain.IngestJob) error {
	log.Printf("Processing job %s for document %s", job.ID, job.StorageKey)

	data, err := w.store.GetObject(ctx, job.StorageKey)
	if err != nil {
		return w.handleJobFailure(ctx, job, err)
	}

	result, err := w.ingestor.Ingest(ctx, data, job.Filename, job.Source, map[string]string{"job_id": job.ID})
	if err != nil {
		return w.handleJobFailure(ctx, job, err)
	}

	if err := w.repo.RecordResult(ctx, job.ID, domain.IngestJobStatusCompleted, result.ChunkCount, result.FailedChunks, ""); err != nil {
		return fmt.Errorf("failed to record job completion: %w", err)
	}

	log.Printf("Job %s completed: %d chunks stored, %d failed", job.ID, result.ChunkCount, result.FailedChunks)
	return nil
}

// handleJobFailure handles a failed job with retry logic. Validation failures
// such as an unsupported document are permanent and fail the job immediately.
func (w *IngestWorker) handleJobFailure(ctx context.Context, job *domain.IngestJob, jobErr error) error {
	log.Printf("Job %s failed: %v", job.ID, jobErr)

	var domainErr *domain.DomainError
	if errors.As(jobErr, &domainErr) && domainErr.Code == domain.ErrCodeValidation {
		if err := w.repo.RecordResult(ctx, job.ID, domain.IngestJobStatusFailed, 0, 0, jobErr.Error()); err != nil {
			return fmt.Errorf("failed to record job failure: %w", err)
		}
		return nil
	}

	if err := w.repo.IncrementRetries(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to increment retries: %w", err)
	}

	if job.Retries+1 >= MaxRetries {
		log.Printf("Job %s exceeded max retries (%d), marking as failed", job.ID, MaxRetries)
		errMsg := fmt.Sprintf("max retries exceeded: %v", jobErr)
		if err := w.repo.RecordResult(ctx, job.ID, domain.IngestJobStatusFailed, 0, 0, errMsg); err != nil {
			return fmt.Errorf("failed to record job failure: %w", err)
		}
		return nil
	}

	// Reset to pending for retry
	log.Printf("Job %s will be retried (attempt %d/%d)", job.ID, job.Retries+1, MaxRetries)
	errMsg := fmt.Sprintf("retry %d: %v", job.Retries+1, jobErr)
	if err := w.repo.RecordResult(ctx, job.ID, domain.IngestJobStatusPending, 0, 0, errMsg); err != nil {
		return fmt.Errorf("failed to reset job status to pending: %w", err)
	}

	return nil
}
