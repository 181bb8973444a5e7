package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/oraculo-ai/oraculo/internal/agent"
	"github.com/oraculo-ai/oraculo/internal/api/handlers"
	"github.com/oraculo-ai/oraculo/internal/config"
	"github.com/oraculo-ai/oraculo/internal/jobs"
	"github.com/oraculo-ai/oraculo/internal/openai"
	"github.com/oraculo-ai/oraculo/internal/repository"
	"github.com/oraculo-ai/oraculo/internal/server"
	"github.com/oraculo-ai/oraculo/internal/service"
	"github.com/oraculo-ai/oraculo/internal/storage"
	"github.com/oraculo-ai/oraculo/internal/telemetry"
	"github.com/oraculo-ai/oraculo/internal/tools"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the oraculo API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := validateServeConfig(cfg); err != nil {
		return err
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := config.Environment()

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	sessionRepo := repository.NewSessionRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool)
	ingestJobRepo := repository.NewIngestJobRepository(pool)

	openaiClient := openai.NewClientWithConfig(openai.Config{
		APIKey:    cfg.OpenAIAPIKey,
		ChatModel: cfg.OpenAIModel,
	})

	chunkCfg := service.DefaultChunkConfig()
	chunkCfg.MaxChars = cfg.ChunkMaxChars
	chunkCfg.Overlap = cfg.ChunkOverlap

	retriever := service.NewRetriever(openaiClient, chunkRepo, cfg.RetrievalTopK)
	ingestSvc := service.NewIngestService(openaiClient, chunkRepo, chunkCfg)

	toolset := []tools.Tool{tools.NewKnowledgeSearch(retriever)}
	if cfg.HasTavily() {
		toolset = append(toolset, tools.NewWebSearch(cfg.TavilyAPIKey))
	} else {
		log.Println("web search disabled: ORACULO_TAVILY_API_KEY not set")
	}
	if cfg.HasAlphaVantage() {
		toolset = append(toolset, tools.NewMarketData(cfg.AlphaVantageKey))
	} else {
		log.Println("market data disabled: ORACULO_ALPHA_VANTAGE_API_KEY not set")
	}

	conversationAgent := agent.New(openaiClient, toolset)
	chatSvc := service.NewChatService(sessionRepo, conversationAgent)

	var documentHandler *handlers.DocumentHandler
	var ingestWorker *jobs.Worker
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)

		documentHandler = handlers.NewDocumentHandler(ingestJobRepo, s3Client)

		ingestProcessor := jobs.NewIngestWorker(ingestJobRepo, s3Client, ingestSvc)
		ingestWorker = jobs.NewWorker(ingestProcessor, 10*time.Second)
		go ingestWorker.Start(ctx)
		log.Println("ingest worker started")
	} else {
		log.Println("document uploads disabled: S3 storage not configured")
	}

	preloadCtx, cancelPreload := context.WithTimeout(ctx, 30*time.Second)
	if err := ingestSvc.PreloadExamples(preloadCtx); err != nil {
		log.Printf("failed to preload example documents: %v", err)
	}
	cancelPreload()

	router := server.NewRouter(server.RouterConfig{
		APIToken:        cfg.APIToken,
		DB:              pool,
		ChatHandler:     handlers.NewChatHandler(chatSvc),
		SessionHandler:  handlers.NewSessionHandler(sessionRepo),
		DocumentHandler: documentHandler,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if ingestWorker != nil {
		ingestWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// validateServeConfig rejects configurations the server cannot run with.
func validateServeConfig(cfg *config.Config) error {
	if cfg.APIToken == "" {
		return fmt.Errorf("ORACULO_API_TOKEN is required to serve the API")
	}
	if !cfg.HasOpenAI() {
		return fmt.Errorf("ORACULO_OPENAI_API_KEY is required to run the agent")
	}
	return nil
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
