package main

import (
	"context"
	"flag"
	"log"

	"quizbot/internal/adapter"
	"quizbot/internal/adapter/embedding"
	"quizbot/internal/cache"
	"quizbot/internal/config"
	"quizbot/internal/domain"
	"quizbot/internal/ingest"
	"quizbot/internal/logger"
	"quizbot/internal/repository"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

func main() {
	reset := flag.Bool("reset", false, "delete the namespace's existing chunks before re-ingesting")
	namespace := flag.String("namespace", "notes", "namespace to ingest into: notes (PDFs) or code")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	var embeddingService domain.EmbeddingService
	switch cfg.Embedding.Source {
	case "ollama":
		embeddingService, err = embedding.NewOllamaEmbeddingService(cfg.Embedding.Ollama.ServerURL, cfg.Embedding.Ollama.Model)
	case "openai":
		redisClient, redisErr := cache.NewRedisClient(cfg.Redis)
		if redisErr != nil {
			appLogger.Fatal("Failed to connect to Redis", zap.Error(redisErr))
		}
		embeddingService, err = embedding.NewOpenAIEmbeddingService(
			cfg.Embedding.OpenAI.APIKey, cfg.Embedding.OpenAI.Model, adapter.NewRedisCacheAdapter(redisClient))
	default:
		appLogger.Fatal("Unsupported embedding source", zap.String("source", cfg.Embedding.Source))
	}
	if err != nil {
		appLogger.Fatal("Failed to create embedding service", zap.Error(err))
	}

	db, err := sqlx.Connect("sqlite3", cfg.Store.Path)
	if err != nil {
		appLogger.Fatal("Failed to open vector store database", zap.Error(err))
	}
	defer db.Close()

	store, err := repository.NewSQLiteVectorStore(db, embeddingService)
	if err != nil {
		appLogger.Fatal("Failed to initialize vector store", zap.Error(err))
	}

	ctx := context.Background()
	loader := ingest.NewLoader()

	var results []domain.LoadResult
	switch *namespace {
	case "notes":
		results, err = loader.LoadPDFs(ctx, cfg.Ingest.DataDir)
	case "code":
		results, err = loader.LoadCode(ctx, cfg.Ingest.CodeDir)
	default:
		appLogger.Fatal("Unknown namespace", zap.String("namespace", *namespace))
	}
	if err != nil {
		appLogger.Fatal("Loading documents failed", zap.Error(err))
	}

	chunker := ingest.NewChunker(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	ingestor := ingest.NewIngestor(store, chunker, cfg.Ingest.BatchSize, cfg.Ingest.MaxRetries, cfg.Ingest.RetryDelay)

	report, err := ingestor.Run(ctx, *namespace, results, *reset)
	if err != nil {
		appLogger.Fatal("Ingestion failed", zap.Error(err))
	}

	appLogger.Info("Ingestion complete",
		zap.String("namespace", *namespace),
		zap.Int("loaded", report.Loaded),
		zap.Int("skipped", report.Skipped),
		zap.Int("chunks", report.Chunks),
		zap.Int("new", report.New),
		zap.Int("batches", report.Batches),
		zap.Duration("duration", report.Duration))
}
