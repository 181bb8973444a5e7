package domain

import "time"

// IngestJobStatus tracks the lifecycle of an asynchronous document ingestion.
type IngestJobStatus string

const (
	IngestJobStatusPending    IngestJobStatus = "pending"
	IngestJobStatusProcessing IngestJobStatus = "processing"
	IngestJobStatusCompleted  IngestJobStatus = "completed"
	IngestJobStatusFailed     IngestJobStatus = "failed"
)

// ValidIngestJobStatus reports whether s is a known status.
func ValidIngestJobStatus(s IngestJobStatus) bool {
	switch s {
	case IngestJobStatusPending, IngestJobStatusProcessing, IngestJobStatusCompleted, IngestJobStatusFailed:
		return true
	default:
		return false
	}
}

// IngestJob is one queued document ingestion. The uploaded bytes live in
// object storage under StorageKey until the worker picks the job up.
type IngestJob struct {
	ID           string
	StorageKey   string
	Source       string
	Filename     string
	Status       IngestJobStatus
	ChunkCount   int
	FailedChunks int
	Retries      int
	Error        string
	CreatedAt    time.Time
	ProcessedAt  *time.Time
}
