package embedding

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"time"

	"quizbot/internal/cache"
	"quizbot/internal/domain"
	"quizbot/internal/logger"

	"github.com/tmc/langchaingo/embeddings"
	openaiLLM "github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// embeddingCacheTTL bounds how long a cached embedding stays valid.
const embeddingCacheTTL = 168 * time.Hour

// OpenAIEmbeddingService implements domain.EmbeddingService using OpenAI.
// Generated embeddings are cached by content hash; concurrent requests for
// the same text are collapsed through singleflight so the paid API is hit
// at most once per text.
type OpenAIEmbeddingService struct {
	embedder embeddings.Embedder
	cache    domain.Cache
	sfGroup  singleflight.Group
}

// NewOpenAIEmbeddingService creates a new OpenAIEmbeddingService.
func NewOpenAIEmbeddingService(apiKey, modelName string, cacheClient domain.Cache) (*OpenAIEmbeddingService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key cannot be empty")
	}
	if modelName == "" {
		modelName = "text-embedding-3-small"
	}
	if cacheClient == nil {
		return nil, fmt.Errorf("cache instance cannot be nil for OpenAIEmbeddingService")
	}

	llm, err := openaiLLM.New(
		openaiLLM.WithToken(apiKey),
		openaiLLM.WithModel(modelName),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client for embedder: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder from openai client: %w", err)
	}

	return &OpenAIEmbeddingService{embedder: embedder, cache: cacheClient}, nil
}

// Generate creates an embedding for the given text, serving from cache when possible.
func (s *OpenAIEmbeddingService) Generate(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("input text cannot be empty for embedding")
	}

	cacheKey := cache.GenerateCacheKey("embedding", "openai", hashString(text))

	if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
		var embedding []float32
		if decErr := gob.NewDecoder(bytes.NewReader([]byte(cached))).Decode(&embedding); decErr == nil {
			return embedding, nil
		}
		logger.Get().Warn("Discarding undecodable cached embedding", zap.String("cacheKey", cacheKey))
	} else if err != domain.ErrCacheMiss {
		logger.Get().Warn("Embedding cache read failed", zap.Error(err), zap.String("cacheKey", cacheKey))
	}

	res, err, _ := s.sfGroup.Do(cacheKey, func() (interface{}, error) {
		embedding, fetchErr := s.embedder.EmbedQuery(ctx, text)
		if fetchErr != nil {
			return nil, fmt.Errorf("failed to generate embedding using OpenAI: %w", fetchErr)
		}
		if embedding == nil {
			return nil, fmt.Errorf("received nil embedding from OpenAI without error")
		}

		var buf bytes.Buffer
		if encErr := gob.NewEncoder(&buf).Encode(embedding); encErr != nil {
			// Caching is best effort; the embedding itself is still good.
			return embedding, nil
		}
		if setErr := s.cache.Set(ctx, cacheKey, buf.String(), embeddingCacheTTL); setErr != nil {
			logger.Get().Warn("Failed to cache embedding", zap.Error(setErr), zap.String("cacheKey", cacheKey))
		}
		return embedding, nil
	})
	if err != nil {
		return nil, err
	}

	embedding, ok := res.([]float32)
	if !ok {
		return nil, fmt.Errorf("unexpected type from singleflight for openai embedding: %T", res)
	}
	return embedding, nil
}

var _ domain.EmbeddingService = (*OpenAIEmbeddingService)(nil)
