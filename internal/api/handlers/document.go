package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/oraculo-ai/oraculo/internal/api"
	"github.com/oraculo-ai/oraculo/internal/domain"
)

const maxUploadBytes = 20 * 1024 * 1024

type IngestJobStore interface {
	Create(ctx context.Context, job *domain.IngestJob) error
	GetByID(ctx context.Context, id string) (*domain.IngestJob, error)
}

type DocumentStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
}

type DocumentHandler struct {
	jobs  IngestJobStore
	store DocumentStore
}

func NewDocumentHandler(jobs IngestJobStore, store DocumentStore) *DocumentHandler {
	return &DocumentHandler{jobs: jobs, store: store}
}

type IngestJobResponse struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Source       string `json:"source,omitempty"`
	Filename     string `json:"filename,omitempty"`
	ChunkCount   int    `json:"chunk_count"`
	FailedChunks int    `json:"failed_chunks"`
	Error        string `json:"error,omitempty"`
	CreatedAt    string `json:"created_at"`
	ProcessedAt  string `json:"processed_at,omitempty"`
}

func jobToResponse(job *domain.IngestJob) *IngestJobResponse {
	resp := &IngestJobResponse{
		ID:           job.ID,
		Status:       string(job.Status),
		Source:       job.Source,
		Filename:     job.Filename,
		ChunkCount:   job.ChunkCount,
		FailedChunks: job.FailedChunks,
		Error:        job.Error,
		CreatedAt:    job.CreatedAt.UTC().Format(time.RFC3339),
	}
	if job.ProcessedAt != nil {
		resp.ProcessedAt = job.ProcessedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// Upload handles POST /documents. The document lands in object storage and a
// pending ingest job is queued for the background worker; the response carries
// the job id to poll.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read file")
		return
	}
	if len(data) == 0 {
		api.Error(w, http.StatusBadRequest, "file is empty")
		return
	}
	if len(data) > maxUploadBytes {
		api.Error(w, http.StatusRequestEntityTooLarge, "file exceeds upload limit")
		return
	}

	job := &domain.IngestJob{
		ID:         uuid.NewString(),
		StorageKey: "documents/" + uuid.NewString(),
		Source:     r.FormValue("source"),
		Filename:   header.Filename,
		Status:     domain.IngestJobStatusPending,
		CreatedAt:  time.Now().UTC(),
	}

	contentType := header.Header.Get("Content-Type")
	if err := h.store.PutObject(r.Context(), job.StorageKey, data, contentType); err != nil {
		api.HandleError(w, domain.NewDomainErrorWithCause(domain.ErrCodeUnavailable, "document storage unavailable", err))
		return
	}

	if err := h.jobs.Create(r.Context(), job); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusAccepted, jobToResponse(job))
}

// Status handles GET /documents/{id} with the ingest job state.
func (h *DocumentHandler) Status(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "document id is required")
		return
	}

	job, err := h.jobs.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, jobToResponse(job))
}
