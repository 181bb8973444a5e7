package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oraculo-ai/oraculo/internal/domain"
	"github.com/pgvector/pgvector-go"
)

// ChunkRepository handles persistence of document chunk embeddings.
// Chunks are insert-only; the retriever side only reads.
type ChunkRepository struct {
	db dbtx
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: pool}
}

// Insert stores one chunk with its embedding and metadata.
func (r *ChunkRepository) Insert(ctx context.Context, chunk *domain.DocumentChunk) error {
	if chunk.ID == "" {
		chunk.ID = uuid.NewString()
	}
	if chunk.CreatedAt.IsZero() {
		chunk.CreatedAt = time.Now().UTC()
	}
	metadata := chunk.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO document_chunks (id, content, embedding, metadata, source, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		chunk.ID,
		chunk.Content,
		pgvector.NewVector(chunk.Embedding),
		metadata,
		nullableString(chunk.Source),
		chunk.CreatedAt,
	)
	if err != nil {
		return storageErr(err)
	}
	return nil
}

// SearchByEmbedding returns at most limit chunks ordered by descending
// similarity. Ties keep the store-provided order; no client-side re-sort.
func (r *ChunkRepository) SearchByEmbedding(ctx context.Context, embedding []float32, limit int) ([]domain.RetrievedChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	vec := pgvector.NewVector(embedding)

	rows, err := r.db.Query(ctx,
		`SELECT content, metadata, source, 1.0 / (1.0 + (embedding <=> $1)) AS score
		 FROM document_chunks
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		vec, limit,
	)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	results := make([]domain.RetrievedChunk, 0, limit)
	for rows.Next() {
		var chunk domain.RetrievedChunk
		var source *string
		if err := rows.Scan(&chunk.Content, &chunk.Metadata, &source, &chunk.Score); err != nil {
			return nil, storageErr(err)
		}
		if source != nil {
			chunk.Source = *source
		}
		results = append(results, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return results, nil
}

// Count reports the number of stored chunks. Used by the startup preload to
// avoid reseeding a populated store.
func (r *ChunkRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM document_chunks`).Scan(&count); err != nil {
		return 0, storageErr(err)
	}
	return count, nil
}
