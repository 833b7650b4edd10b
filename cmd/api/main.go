package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"quizbot/internal/adapter"
	"quizbot/internal/adapter/embedding"
	"quizbot/internal/adapter/llm"
	"quizbot/internal/cache"
	"quizbot/internal/config"
	"quizbot/internal/domain"
	"quizbot/internal/handler"
	"quizbot/internal/logger"
	"quizbot/internal/middleware"
	"quizbot/internal/repository"
	"quizbot/internal/retrieval"
	"quizbot/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// requestLogger is a middleware that logs HTTP requests
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()
		method := c.Method()

		err := c.Next()

		logger.Get().Info("HTTP Request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("duration", time.Since(start)),
			zap.String("ip", c.IP()),
		)

		return err
	}
}

func newEmbeddingService(cfg *config.Config, cacheAdapter domain.Cache) (domain.EmbeddingService, error) {
	switch cfg.Embedding.Source {
	case "ollama":
		return embedding.NewOllamaEmbeddingService(cfg.Embedding.Ollama.ServerURL, cfg.Embedding.Ollama.Model)
	case "openai":
		return embedding.NewOpenAIEmbeddingService(cfg.Embedding.OpenAI.APIKey, cfg.Embedding.OpenAI.Model, cacheAdapter)
	default:
		return nil, fmt.Errorf("unsupported embedding source: %s", cfg.Embedding.Source)
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	// Redis holds quiz sessions, chat history and the embedding cache.
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	cacheAdapter := adapter.NewRedisCacheAdapter(redisClient)
	appLogger.Info("Connected to Redis", zap.String("address", cfg.Redis.Address))

	embeddingService, err := newEmbeddingService(cfg, cacheAdapter)
	if err != nil {
		appLogger.Fatal("Failed to create embedding service", zap.Error(err))
	}
	appLogger.Info("Embedding service initialized", zap.String("source", cfg.Embedding.Source))

	llmClient, err := llm.NewOllamaClient(cfg.LLM.ServerURL, cfg.LLM.Model, cfg.LLM.Timeout)
	if err != nil {
		appLogger.Fatal("Failed to create LLM client", zap.Error(err))
	}
	appLogger.Info("LLM client initialized",
		zap.String("server", cfg.LLM.ServerURL),
		zap.String("model", cfg.LLM.Model))

	db, err := sqlx.Connect("sqlite3", cfg.Store.Path)
	if err != nil {
		appLogger.Fatal("Failed to open vector store database", zap.Error(err))
	}
	defer db.Close()

	vectorStore, err := repository.NewSQLiteVectorStore(db, embeddingService)
	if err != nil {
		appLogger.Fatal("Failed to initialize vector store", zap.Error(err))
	}
	appLogger.Info("Vector store ready", zap.String("path", cfg.Store.Path))

	noteBuilder := retrieval.NewContextBuilder(cfg.Retrieval.PerDocCharLimit, retrieval.SectionSeparator)
	codeBuilder := retrieval.NewContextBuilder(cfg.Retrieval.PerDocCharLimit, retrieval.DefaultSeparator)

	quizService := service.NewQuizService(llmClient, vectorStore, cacheAdapter, noteBuilder, cfg.Retrieval.TopK)
	askService := service.NewAskService(llmClient, vectorStore, cacheAdapter,
		noteBuilder, codeBuilder, cfg.Retrieval.TopK, cfg.Retrieval.CodeTopK, cfg.Ingest.CodeDir)

	quizHandler := handler.NewQuizHandler(quizService)
	askHandler := handler.NewAskHandler(askService)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(requestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
		MaxAge:       300,
	}))
	app.Use(recover.New())

	api := app.Group("/api")
	api.Post("/quiz", quizHandler.GenerateQuiz)
	api.Get("/quiz/:id", quizHandler.GetQuiz)
	api.Put("/quiz/:id/answers", quizHandler.RecordAnswer)
	api.Post("/quiz/:id/submit", quizHandler.SubmitQuiz)
	api.Post("/quiz/:id/evaluate", quizHandler.EvaluateQuiz)
	api.Get("/topics", quizHandler.GetTopics)
	api.Post("/ask", askHandler.Ask)
	api.Get("/ask/history", askHandler.GetHistory)
	api.Post("/code/ask", askHandler.AskCode)

	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
