//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oraculo-ai/oraculo/internal/domain"
	"github.com/oraculo-ai/oraculo/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJob() *domain.IngestJob {
	return &domain.IngestJob{
		ID:         uuid.NewString(),
		StorageKey: "documents/" + uuid.NewString(),
		Source:     "Focus",
		Filename:   "relatorio_focus.pdf",
		Status:     domain.IngestJobStatusPending,
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestIngestJobRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewIngestJobRepository(pool)

	job := newTestJob()
	require.NoError(t, repo.Create(ctx, job))

	got, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StorageKey, got.StorageKey)
	assert.Equal(t, "Focus", got.Source)
	assert.Equal(t, domain.IngestJobStatusPending, got.Status)
	assert.Nil(t, got.ProcessedAt)
}

func TestIngestJobRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewIngestJobRepository(pool)

	_, err := repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrIngestJobNotFound)
}

func TestIngestJobRepository_ClaimPending(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewIngestJobRepository(pool)

	job := newTestJob()
	require.NoError(t, repo.Create(ctx, job))

	claimed, err := repo.ClaimPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, domain.IngestJobStatusProcessing, claimed[0].Status)

	// A second claim sees nothing pending.
	again, err := repo.ClaimPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestIngestJobRepository_RecordResult(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewIngestJobRepository(pool)

	job := newTestJob()
	require.NoError(t, repo.Create(ctx, job))

	require.NoError(t, repo.RecordResult(ctx, job.ID, domain.IngestJobStatusCompleted, 12, 1, ""))

	got, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IngestJobStatusCompleted, got.Status)
	assert.Equal(t, 12, got.ChunkCount)
	assert.Equal(t, 1, got.FailedChunks)
	assert.NotNil(t, got.ProcessedAt)

	assert.ErrorIs(t,
		repo.RecordResult(ctx, uuid.NewString(), domain.IngestJobStatusFailed, 0, 0, "boom"),
		domain.ErrIngestJobNotFound)

	assert.ErrorIs(t,
		repo.RecordResult(ctx, job.ID, domain.IngestJobStatus("queued"), 0, 0, ""),
		domain.ErrInvalidIngestStatus)
}

func TestIngestJobRepository_IncrementRetries(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewIngestJobRepository(pool)

	job := newTestJob()
	require.NoError(t, repo.Create(ctx, job))

	require.NoError(t, repo.IncrementRetries(ctx, job.ID))
	require.NoError(t, repo.IncrementRetries(ctx, job.ID))

	got, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Retries)
}
