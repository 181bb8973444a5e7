package domain

import "time"

// EmbeddingDimensions is the fixed dimensionality of stored chunk embeddings
// (text-embedding-ada-002).
const EmbeddingDimensions = 1536

// DocumentChunk is a contiguous span of extracted document text paired with
// its embedding vector. Chunks are insert-only; there is no update path.
type DocumentChunk struct {
	ID        string
	Content   string
	Embedding []float32
	Metadata  map[string]string
	Source    string
	CreatedAt time.Time
}

// RetrievedChunk is a chunk returned by similarity search together with its
// relevance score.
type RetrievedChunk struct {
	Content  string
	Score    float32
	Metadata map[string]string
	Source   string
}
