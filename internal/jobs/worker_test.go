package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/oraculo-ai/oraculo/internal/domain"
	"github.com/oraculo-ai/oraculo/internal/service"
)

// MockJobProcessor is a mock implementation of JobProcessor
type MockJobProcessor struct {
	mock.Mock
}

func (m *MockJobProcessor) ProcessJobs(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockIngestJobRepository is a mock implementation of IngestJobRepository
type MockIngestJobRepository struct {
	mock.Mock
}

func (m *MockIngestJobRepository) ClaimPending(ctx context.Context, limit int) ([]*domain.IngestJob, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.IngestJob), args.Error(1)
}

func (m *MockIngestJobRepository) RecordResult(ctx context.Context, id string, status domain.IngestJobStatus, chunkCount, failedChunks int, errMsg string) error {
	args := m.Called(ctx, id, status, chunkCount, failedChunks, errMsg)
	return args.Error(0)
}

func (m *MockIngestJobRepository) IncrementRetries(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockObjectStore is a mock implementation of ObjectStore
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockIngestor is a mock implementation of Ingestor
type MockIngestor struct {
	mock.Mock
}

func (m *MockIngestor) Ingest(ctx context.Context, data []byte, filename, source string, metadata map[string]string) (*service.IngestResult, error) {
	args := m.Called(ctx, data, filename, source, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IngestResult), args.Error(1)
}

// TestWorker_StartStop tests the worker start and stop functionality
func TestWorker_StartStop(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	// Let it run for a bit
	time.Sleep(250 * time.Millisecond)

	worker.Stop()
	wg.Wait()

	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

// TestWorker_ContextCancellation tests worker stops on context cancellation
func TestWorker_ContextCancellation(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(150 * time.Millisecond)

	cancel()
	wg.Wait()

	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

func pendingJob(id string, retries int) *domain.IngestJob {
	return &domain.IngestJob{
		ID:         id,
		StorageKey: "documents/" + id,
		Filename:   "relatorio.pdf",
		Source:     "Focus",
		Status:     domain.IngestJobStatusProcessing,
		Retries:    retries,
	}
}

// TestIngestWorker_ProcessJobs_NoPendingJobs tests when there are no pending jobs
func TestIngestWorker_ProcessJobs_NoPendingJobs(t *testing.T) {
	mockRepo := new(MockIngestJobRepository)
	mockStore := new(MockObjectStore)
	mockIngestor := new(MockIngestor)

	mockRepo.On("ClaimPending", mock.Anything, claimBatchSize).Return([]*domain.IngestJob{}, nil)

	worker := NewIngestWorker(mockRepo, mockStore, mockIngestor)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockStore.AssertNotCalled(t, "GetObject", mock.Anything, mock.Anything)
}

// TestIngestWorker_ProcessJobs_Success tests successful job processing
func TestIngestWorker_ProcessJobs_Success(t *testing.T) {
	mockRepo := new(MockIngestJobRepository)
	mockStore := new(MockObjectStore)
	mockIngestor := new(MockIngestor)

	job := pendingJob("job-1", 0)
	data := []byte("conteúdo do relatório")

	mockRepo.On("ClaimPending", mock.Anything, claimBatchSize).Return([]*domain.IngestJob{job}, nil)
	mockStore.On("GetObject", mock.Anything, "documents/job-1").Return(data, nil)
	mockIngestor.On("Ingest", mock.Anything, data, "relatorio.pdf", "Focus", map[string]string{"job_id": "job-1"}).
		Return(&service.IngestResult{ChunkCount: 4, FailedChunks: 1}, nil)
	mockRepo.On("RecordResult", mock.Anything, "job-1", domain.IngestJobStatusCompleted, 4, 1, "").Return(nil)

	worker := NewIngestWorker(mockRepo, mockStore, mockIngestor)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockStore.AssertExpectations(t)
	mockIngestor.AssertExpectations(t)
}

// TestIngestWorker_ProcessJobs_FailureWithRetry tests job failure with retry
func TestIngestWorker_ProcessJobs_FailureWithRetry(t *testing.T) {
	mockRepo := new(MockIngestJobRepository)
	mockStore := new(MockObjectStore)
	mockIngestor := new(MockIngestor)

	job := pendingJob("job-1", 0)

	mockRepo.On("ClaimPending", mock.Anything, claimBatchSize).Return([]*domain.IngestJob{job}, nil)
	mockStore.On("GetObject", mock.Anything, "documents/job-1").Return(nil, errors.New("object missing"))
	mockRepo.On("IncrementRetries", mock.Anything, "job-1").Return(nil)
	mockRepo.On("RecordResult", mock.Anything, "job-1", domain.IngestJobStatusPending, 0, 0, mock.MatchedBy(func(msg string) bool {
		return msg != ""
	})).Return(nil)

	worker := NewIngestWorker(mockRepo, mockStore, mockIngestor)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockIngestor.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestIngestWorker_ProcessJobs_UnsupportedDocument tests that a malformed
// document fails the job immediately without retrying
func TestIngestWorker_ProcessJobs_UnsupportedDocument(t *testing.T) {
	mockRepo := new(MockIngestJobRepository)
	mockStore := new(MockObjectStore)
	mockIngestor := new(MockIngestor)

	job := pendingJob("job-1", 0)
	data := []byte("not a pdf")

	mockRepo.On("ClaimPending", mock.Anything, claimBatchSize).Return([]*domain.IngestJob{job}, nil)
	mockStore.On("GetObject", mock.Anything, "documents/job-1").Return(data, nil)
	mockIngestor.On("Ingest", mock.Anything, data, "relatorio.pdf", "Focus", mock.Anything).
		Return(nil, domain.ErrUnsupportedDocument)
	mockRepo.On("RecordResult", mock.Anything, "job-1", domain.IngestJobStatusFailed, 0, 0, mock.MatchedBy(func(msg string) bool {
		return msg != ""
	})).Return(nil)

	worker := NewIngestWorker(mockRepo, mockStore, mockIngestor)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockRepo.AssertNotCalled(t, "IncrementRetries", mock.Anything, mock.Anything)
}

// TestIngestWorker_ProcessJobs_MaxRetriesExceeded tests job failure after max retries
func TestIngestWorker_ProcessJobs_MaxRetriesExceeded(t *testing.T) {
	mockRepo := new(MockIngestJobRepository)
	mockStore := new(MockObjectStore)
	mockIngestor := new(MockIngestor)

	job := pendingJob("job-1", 2) // Already retried twice
	data := []byte("corrompido")

	mockRepo.On("ClaimPending", mock.Anything, claimBatchSize).Return([]*domain.IngestJob{job}, nil)
	mockStore.On("GetObject", mock.Anything, "documents/job-1").Return(data, nil)
	mockIngestor.On("Ingest", mock.Anything, data, "relatorio.pdf", "Focus", mock.Anything).
		Return(nil, errors.New("unsupported document"))
	mockRepo.On("IncrementRetries", mock.Anything, "job-1").Return(nil)
	mockRepo.On("RecordResult", mock.Anything, "job-1", domain.IngestJobStatusFailed, 0, 0, mock.MatchedBy(func(msg string) bool {
		return msg != ""
	})).Return(nil)

	worker := NewIngestWorker(mockRepo, mockStore, mockIngestor)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

// TestIngestWorker_ProcessJobs_MultipleJobs tests processing multiple jobs
func TestIngestWorker_ProcessJobs_MultipleJobs(t *testing.T) {
	mockRepo := new(MockIngestJobRepository)
	mockStore := new(MockObjectStore)
	mockIngestor := new(MockIngestor)

	jobs := []*domain.IngestJob{pendingJob("job-1", 0), pendingJob("job-2", 0)}

	mockRepo.On("ClaimPending", mock.Anything, claimBatchSize).Return(jobs, nil)
	mockStore.On("GetObject", mock.Anything, mock.Anything).Return([]byte("doc"), nil)
	mockIngestor.On("Ingest", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&service.IngestResult{ChunkCount: 1}, nil)
	mockRepo.On("RecordResult", mock.Anything, mock.Anything, domain.IngestJobStatusCompleted, 1, 0, "").Return(nil)

	worker := NewIngestWorker(mockRepo, mockStore, mockIngestor)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockStore.AssertNumberOfCalls(t, "GetObject", 2)
}

// TestIngestWorker_ProcessJobs_ClaimFailure tests claim errors are propagated
func TestIngestWorker_ProcessJobs_ClaimFailure(t *testing.T) {
	mockRepo := new(MockIngestJobRepository)

	mockRepo.On("ClaimPending", mock.Anything, claimBatchSize).Return(nil, errors.New("db down"))

	worker := NewIngestWorker(mockRepo, new(MockObjectStore), new(MockIngestor))
	err := worker.ProcessJobs(context.Background())

	assert.Error(t, err)
}
