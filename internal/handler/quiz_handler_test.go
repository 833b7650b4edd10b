package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"quizbot/internal/domain"
	"quizbot/internal/dto"
	"quizbot/internal/middleware"
	"quizbot/internal/retrieval"
	"quizbot/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
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
	return m.Called(ctx, chunks).Error(0)
}

func (m *mockVectorStore) DeleteNamespace(ctx context.Context, namespace string) error {
	return m.Called(ctx, namespace).Error(0)
}

func (m *mockVectorStore) Search(ctx context.Context, query string, k int) ([]domain.ScoredDocument, error) {
	args := m.Called(ctx, query, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ScoredDocument), args.Error(1)
}

type memoryCache struct {
	mu    sync.Mutex
	data  map[string]string
	lists map[string][]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string]string), lists: make(map[string][]string)}
}

func (c *memoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if val, ok := c.data[key]; ok {
		return val, nil
	}
	return "", domain.ErrCacheMiss
}

func (c *memoryCache) Set(_ context.Context, key, value string, _ time.Duration) error {
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

func (c *memoryCache) LPush(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists[key] = append([]string{value}, c.lists[key]...)
	return nil
}

func (c *memoryCache) LRange(_ context.Context, key string, _, _ int64) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lists[key], nil
}

const quizText = `Question 1: What does RSA rely on?
A) Factoring
B) Lattices
C) Hashing
D) XOR`

func setupQuizApp(llm *mockLLM, store *mockVectorStore) *fiber.App {
	builder := retrieval.NewContextBuilder(2000, retrieval.SectionSeparator)
	quizService := service.NewQuizService(llm, store, newMemoryCache(), builder, 7)
	h := NewQuizHandler(quizService)

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	api := app.Group("/api")
	api.Post("/quiz", h.GenerateQuiz)
	api.Get("/quiz/:id", h.GetQuiz)
	api.Put("/quiz/:id/answers", h.RecordAnswer)
	api.Post("/quiz/:id/submit", h.SubmitQuiz)
	api.Post("/quiz/:id/evaluate", h.EvaluateQuiz)
	api.Get("/topics", h.GetTopics)
	return app
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeSession(t *testing.T, resp *http.Response) dto.QuizSessionResponse {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var view dto.QuizSessionResponse
	require.NoError(t, json.Unmarshal(body, &view))
	return view
}

func hits() []domain.ScoredDocument {
	return []domain.ScoredDocument{
		{Document: domain.Document{Source: "notes.pdf", Content: "RSA notes"}, Score: 0.9},
	}
}

func TestQuizHandler_GenerateQuiz(t *testing.T) {
	llm := new(mockLLM)
	store := new(mockVectorStore)
	app := setupQuizApp(llm, store)

	store.On("Search", mock.Anything, mock.Anything, 7).Return(hits(), nil)
	llm.On("Invoke", mock.Anything, mock.Anything).Return(quizText, nil)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/quiz",
		dto.GenerateQuizRequest{Type: "mcq", Topic: "RSA", NumQuestions: 1}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	view := decodeSession(t, resp)
	assert.NotEmpty(t, view.ID)
	assert.Equal(t, "generated", view.Phase)
	require.Len(t, view.Questions, 1)
	assert.Len(t, view.Questions[0].Options, 4)
}

func TestQuizHandler_GenerateQuiz_MissingType(t *testing.T) {
	app := setupQuizApp(new(mockLLM), new(mockVectorStore))

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/quiz", dto.GenerateQuizRequest{}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQuizHandler_GenerateQuiz_NoRelevantContent(t *testing.T) {
	llm := new(mockLLM)
	store := new(mockVectorStore)
	app := setupQuizApp(llm, store)

	store.On("Search", mock.Anything, mock.Anything, 7).Return([]domain.ScoredDocument{}, nil)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/quiz",
		dto.GenerateQuizRequest{Type: "mcq", Topic: "RSA"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestQuizHandler_GetQuiz_NotFound(t *testing.T) {
	app := setupQuizApp(new(mockLLM), new(mockVectorStore))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/quiz/01MISSING", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestQuizHandler_FullLifecycle(t *testing.T) {
	llm := new(mockLLM)
	store := new(mockVectorStore)
	app := setupQuizApp(llm, store)

	store.On("Search", mock.Anything, mock.Anything, 7).Return(hits(), nil)
	llm.On("Invoke", mock.Anything, mock.Anything).Return(quizText, nil).Once()

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/quiz",
		dto.GenerateQuizRequest{Type: "mcq", Topic: "RSA", NumQuestions: 1}))
	require.NoError(t, err)
	session := decodeSession(t, resp)

	// Record a wrong answer.
	resp, err = app.Test(jsonRequest(http.MethodPut, "/api/quiz/"+session.ID+"/answers",
		dto.RecordAnswerRequest{Index: 0, Label: "B"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/quiz/"+session.ID+"/submit", nil))
	require.NoError(t, err)
	assert.Equal(t, "submitted", decodeSession(t, resp).Phase)

	llm.On("Invoke", mock.Anything, mock.Anything).
		Return("Question 1: Correct Answer: [A], Explanation: RSA factors integers.", nil).Once()

	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/quiz/"+session.ID+"/evaluate", nil))
	require.NoError(t, err)
	evaluated := decodeSession(t, resp)

	assert.Equal(t, "evaluated", evaluated.Phase)
	require.NotNil(t, evaluated.Score)
	assert.Equal(t, 0, evaluated.Score.Correct)

	// Option states: A correct, B wrong user pick, others neutral.
	states := map[string]string{}
	for _, opt := range evaluated.Questions[0].Options {
		states[opt.Label] = opt.State
	}
	assert.Equal(t, "correct", states["A"])
	assert.Equal(t, "wrong", states["B"])
	assert.Equal(t, "neutral", states["C"])

	// Answering after submission is rejected.
	resp, err = app.Test(jsonRequest(http.MethodPut, "/api/quiz/"+session.ID+"/answers",
		dto.RecordAnswerRequest{Index: 0, Label: "A"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQuizHandler_GetTopics(t *testing.T) {
	app := setupQuizApp(new(mockLLM), new(mockVectorStore))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/topics", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var topics dto.TopicsResponse
	require.NoError(t, json.Unmarshal(body, &topics))
	assert.Contains(t, topics.Topics, "RSA")
}
