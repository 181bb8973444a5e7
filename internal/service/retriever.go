package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/oraculo-ai/oraculo/internal/domain"
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// ChunkSearchRepository defines the repository interface for similarity search
type ChunkSearchRepository interface {
	SearchByEmbedding(ctx context.Context, embedding []float32, topK int) ([]domain.RetrievedChunk, error)
}

// Retriever answers free-text queries against the document chunk store.
type Retriever struct {
	client EmbeddingClient
	repo   ChunkSearchRepository
	topK   int
}

const defaultTopK = 5

func NewRetriever(client EmbeddingClient, repo ChunkSearchRepository, topK int) *Retriever {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &Retriever{client: client, repo: repo, topK: topK}
}

// Retrieve embeds the query and returns the most similar chunks, nearest
// first. Upstream failures surface as ErrRetrievalUnavailable so callers can
// degrade instead of failing the whole request.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]domain.RetrievedChunk, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	embedding, err := r.client.GenerateEmbedding(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: embedding query: %v", domain.ErrRetrievalUnavailable, err)
	}

	chunks, err := r.repo.SearchByEmbedding(ctx, embedding, r.topK)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: searching chunks: %v", domain.ErrRetrievalUnavailable, err)
	}

	return chunks, nil
}
