package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/oraculo-ai/oraculo/internal/config"
	"github.com/oraculo-ai/oraculo/internal/openai"
	"github.com/oraculo-ai/oraculo/internal/repository"
	"github.com/oraculo-ai/oraculo/internal/service"
)

// IngestCmd returns the ingest command for loading a document synchronously,
// bypassing the upload queue. Useful for seeding a fresh knowledge base.
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Ingest a document into the knowledge base",
		Long:  "Extract, chunk, and embed a PDF or text document directly into the vector store",
		Args:  cobra.ExactArgs(1),
		RunE:  runIngest,
	}

	cmd.Flags().String("source", "", "Source label stored with every chunk (e.g. Focus, COPOM)")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.HasOpenAI() {
		return fmt.Errorf("ORACULO_OPENAI_API_KEY is required to generate embeddings")
	}

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	chunkCfg := service.DefaultChunkConfig()
	chunkCfg.MaxChars = cfg.ChunkMaxChars
	chunkCfg.Overlap = cfg.ChunkOverlap

	openaiClient := openai.NewClientWithConfig(openai.Config{
		APIKey:    cfg.OpenAIAPIKey,
		ChatModel: cfg.OpenAIModel,
	})
	ingestSvc := service.NewIngestService(openaiClient, repository.NewChunkRepository(pool), chunkCfg)

	source, _ := cmd.Flags().GetString("source")

	result, err := ingestSvc.Ingest(ctx, data, filepath.Base(path), source, nil)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	fmt.Printf("Ingested %s: %d chunks stored", path, result.ChunkCount)
	if result.FailedChunks > 0 {
		fmt.Printf(", %d failed", result.FailedChunks)
	}
	fmt.Println()
	return nil
}
