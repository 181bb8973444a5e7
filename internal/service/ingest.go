package service

import (
	"context"
	"fmt"
	"log"
	"maps"

	"github.com/oraculo-ai/oraculo/internal/domain"
	"github.com/oraculo-ai/oraculo/internal/parsing"
)

// ChunkInsertRepository defines the repository interface for storing chunks
type ChunkInsertRepository interface {
	Insert(ctx context.Context, chunk *domain.DocumentChunk) error
	Count(ctx context.Context) (int64, error)
}

// IngestService turns uploaded documents into embedded chunks.
type IngestService struct {
	client EmbeddingClient
	chunks ChunkInsertRepository
	cfg    ChunkConfig
}

// IngestResult reports how many chunks were stored and how many were skipped
// after embedding or insert failures.
type IngestResult struct {
	ChunkCount   int
	FailedChunks int
}

func NewIngestService(client EmbeddingClient, chunks ChunkInsertRepository, cfg ChunkConfig) *IngestService {
	if cfg.MaxChars <= 0 {
		cfg = DefaultChunkConfig()
	}
	return &IngestService{client: client, chunks: chunks, cfg: cfg}
}

// Ingest extracts text from the document, chunks it, and stores one embedded
// chunk per piece. Individual chunk failures are counted and skipped; the
// whole ingest fails only when extraction fails, the context is cancelled, or
// no chunk could be stored at all.
func (s *IngestService) Ingest(ctx context.Context, data []byte, filename, source string, metadata map[string]string) (*IngestResult, error) {
	text, err := parsing.ExtractText(data, filename)
	if err != nil {
		return nil, err
	}

	pieces := chunkText(text, s.cfg)
	if len(pieces) == 0 {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "document contains no extractable text")
	}

	result := &IngestResult{}
	for _, piece := range pieces {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		embedding, err := s.client.GenerateEmbedding(ctx, piece)
		if err != nil {
			log.Printf("ingest: embedding chunk from %s failed: %v", filename, err)
			result.FailedChunks++
			continue
		}

		md := maps.Clone(metadata)
		if md == nil {
			md = map[string]string{}
		}
		if source != "" {
			md["source"] = source
		}

		chunk := &domain.DocumentChunk{
			Content:   piece,
			Embedding: embedding,
			Metadata:  md,
			Source:    source,
		}
		if err := s.chunks.Insert(ctx, chunk); err != nil {
			log.Printf("ingest: storing chunk from %s failed: %v", filename, err)
			result.FailedChunks++
			continue
		}
		result.ChunkCount++
	}

	if result.ChunkCount == 0 {
		return result, fmt.Errorf("%w: all %d chunks failed", domain.ErrStorageUnavailable, result.FailedChunks)
	}
	return result, nil
}

// exampleDocuments seed the knowledge base so retrieval answers something
// useful before any real report is uploaded.
var exampleDocuments = []domain.DocumentChunk{
	{
		Content:  "Relatório Focus projeta inflação de 3.9% para 2024.",
		Metadata: map[string]string{"source": "Focus"},
		Source:   "Focus",
	},
	{
		Content:  "Ata do COPOM registra manutenção da taxa Selic em 13.75%.",
		Metadata: map[string]string{"source": "COPOM"},
		Source:   "COPOM",
	},
}

// PreloadExamples stores the example documents on first startup. A non-empty
// chunk store is left alone.
func (s *IngestService) PreloadExamples(ctx context.Context) error {
	count, err := s.chunks.Count(ctx)
	if err != nil {
		return fmt.Errorf("checking chunk count: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, doc := range exampleDocuments {
		embedding, err := s.client.GenerateEmbedding(ctx, doc.Content)
		if err != nil {
			return fmt.Errorf("embedding example document: %w", err)
		}
		chunk := doc
		chunk.Embedding = embedding
		if err := s.chunks.Insert(ctx, &chunk); err != nil {
			return fmt.Errorf("storing example document: %w", err)
		}
	}
	return nil
}
