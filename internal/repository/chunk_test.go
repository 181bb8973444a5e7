//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/oraculo-ai/oraculo/internal/domain"
	"github.com/oraculo-ai/oraculo/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEmbedding(seed float32) []float32 {
	emb := make([]float32, domain.EmbeddingDimensions)
	for i := range emb {
		emb[i] = seed
	}
	emb[0] = 1
	return emb
}

func TestChunkRepository_InsertAndSearch(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewChunkRepository(pool)

	chunks := []*domain.DocumentChunk{
		{
			Content:   "Relatório Focus projeta inflação de 3.9% para 2024.",
			Embedding: testEmbedding(0.1),
			Metadata:  map[string]string{"source": "Focus"},
			Source:    "Focus",
		},
		{
			Content:   "Ata do COPOM registra manutenção da taxa Selic em 13.75%.",
			Embedding: testEmbedding(0.9),
			Metadata:  map[string]string{"source": "COPOM"},
			Source:    "COPOM",
		},
		{
			Content:   "Projeção do câmbio em 5.10 reais por dólar.",
			Embedding: testEmbedding(0.5),
			Metadata:  map[string]string{"source": "Focus"},
			Source:    "Focus",
		},
	}
	for _, c := range chunks {
		require.NoError(t, repo.Insert(ctx, c))
	}

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	results, err := repo.SearchByEmbedding(ctx, testEmbedding(0.9), 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Results come back by descending similarity, nearest first.
	assert.Equal(t, "Ata do COPOM registra manutenção da taxa Selic em 13.75%.", results[0].Content)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
	assert.Equal(t, "COPOM", results[0].Source)
	assert.Equal(t, map[string]string{"source": "COPOM"}, results[0].Metadata)
}

func TestChunkRepository_SearchTopKBound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewChunkRepository(pool)

	require.NoError(t, repo.Insert(ctx, &domain.DocumentChunk{
		Content:   "único chunk",
		Embedding: testEmbedding(0.2),
	}))

	results, err := repo.SearchByEmbedding(ctx, testEmbedding(0.2), 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}
