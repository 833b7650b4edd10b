package service

import (
	"context"
	"sync"
	"time"

	"quizbot/internal/domain"

	"github.com/stretchr/testify/mock"
)

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) Invoke(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

type mockVectorStore struct {
	mock.Mock
}

func (m *mockVectorStore) ExistingIDs(ctx context.Context, namespace string) (map[string]bool, error) {
	args := m.Called(ctx, namespace)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

func (m *mockVectorStore) AddBatch(ctx context.Context, chunks []domain.Chunk) error {
	args := m.Called(ctx, chunks)
	return args.Error(0)
}

func (m *mockVectorStore) DeleteNamespace(ctx context.Context, namespace string) error {
	args := m.Called(ctx, namespace)
	return args.Error(0)
}

func (m *mockVectorStore) Search(ctx context.Context, query string, k int) ([]domain.ScoredDocument, error) {
	args := m.Called(ctx, query, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ScoredDocument), args.Error(1)
}

// memoryCache is an in-memory domain.Cache good enough for service tests.
type memoryCache struct {
	mu    sync.Mutex
	data  map[string]string
	lists map[string][]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		data:  make(map[string]string),
		lists: make(map[string][]string),
	}
}

func (c *memoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if val, ok := c.data[key]; ok {
		return val, nil
	}
	return "", domain.ErrCacheMiss
}

func (c *memoryCache) Set(_ context.Context, key string, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memoryCache) Ping(context.Context) error { return nil }

func (c *memoryCache) LPush(_ context.Context, key string, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists[key] = append([]string{value}, c.lists[key]...)
	return nil
}

func (c *memoryCache) LRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list := c.lists[key]
	if start < 0 || start >= int64(len(list)) {
		return nil, nil
	}
	end := stop
	if end < 0 || end >= int64(len(list)) {
		end = int64(len(list)) - 1
	}
	return list[start : end+1], nil
}

func searchHits(contents ...string) []domain.ScoredDocument {
	docs := make([]domain.ScoredDocument, 0, len(contents))
	for i, content := range contents {
		docs = append(docs, domain.ScoredDocument{
			Document: domain.Document{Source: "notes.pdf", Content: content, Category: "notes"},
			Score:    1.0 - float64(i)*0.1,
		})
	}
	return docs
}
