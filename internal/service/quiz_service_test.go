package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"quizbot/internal/domain"
	"quizbot/internal/retrieval"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const mcqQuizText = `Question 1: What does RSA rely on?
A) Factoring large integers
B) Discrete logarithms
C) Lattices
D) Hash collisions

Question 2: Which mode provides authenticated encryption?
A) ECB
B) CBC
C) GCM
D) CTR`

const tfQuizText = `Question 1: TLS 1.0 is vulnerable to the Lucky 13 attack.
Question 2: HMAC requires a collision-resistant hash to be secure.`

func newQuizService(llm *mockLLM, store *mockVectorStore, cacheClient domain.Cache) *QuizService {
	builder := retrieval.NewContextBuilder(2000, retrieval.SectionSeparator)
	return NewQuizService(llm, store, cacheClient, builder, 7)
}

func TestQuizService_Generate_MCQ(t *testing.T) {
	llm := new(mockLLM)
	store := new(mockVectorStore)
	svc := newQuizService(llm, store, newMemoryCache())

	store.On("Search", mock.Anything, mock.Anything, 7).Return(searchHits("RSA notes", "AES notes"), nil)
	llm.On("Invoke", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "RSA notes") && strings.Contains(p, "on the topic: RSA")
	})).Return(mcqQuizText, nil)

	session, err := svc.Generate(context.Background(), domain.QuizTypeMCQ, "RSA", 2)
	require.NoError(t, err)

	assert.Equal(t, domain.PhaseGenerated, session.Phase)
	assert.Equal(t, domain.QuizTypeMCQ, session.Type)
	assert.Equal(t, "RSA", session.Topic)
	require.Len(t, session.Questions, 2)
	assert.Equal(t, "What does RSA rely on?", session.Questions[0].Text)
	assert.Len(t, session.Questions[0].Options, 4)
	assert.NotEmpty(t, session.ID)

	// Session is persisted and can be re-read.
	loaded, err := svc.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, loaded.ID)
	store.AssertExpectations(t)
	llm.AssertExpectations(t)
}

func TestQuizService_Generate_RandomTopics(t *testing.T) {
	llm := new(mockLLM)
	store := new(mockVectorStore)
	svc := newQuizService(llm, store, newMemoryCache())

	store.On("Search", mock.Anything, mock.MatchedBy(func(q string) bool {
		return strings.HasPrefix(q, "Give me information about ")
	}), 7).Return(searchHits("notes"), nil)
	llm.On("Invoke", mock.Anything, mock.Anything).Return(tfQuizText, nil)

	session, err := svc.Generate(context.Background(), domain.QuizTypeTF, "", 2)
	require.NoError(t, err)

	// Two random topics joined with ", ".
	assert.Len(t, strings.Split(session.Topic, ", "), 2)
}

func TestQuizService_Generate_NoRelevantContent(t *testing.T) {
	llm := new(mockLLM)
	store := new(mockVectorStore)
	svc := newQuizService(llm, store, newMemoryCache())

	store.On("Search", mock.Anything, mock.Anything, 7).Return([]domain.ScoredDocument{}, nil)

	_, err := svc.Generate(context.Background(), domain.QuizTypeMCQ, "RSA", 2)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeNoRelevantContent, domainErr.Code)
	llm.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything)
}

func TestQuizService_Generate_ZeroScoresFilteredOut(t *testing.T) {
	llm := new(mockLLM)
	store := new(mockVectorStore)
	svc := newQuizService(llm, store, newMemoryCache())

	hits := []domain.ScoredDocument{
		{Document: domain.Document{Source: "a", Content: "x"}, Score: 0},
	}
	store.On("Search", mock.Anything, mock.Anything, 7).Return(hits, nil)

	_, err := svc.Generate(context.Background(), domain.QuizTypeMCQ, "RSA", 2)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeNoRelevantContent, domainErr.Code)
}

func TestQuizService_Generate_UnknownType(t *testing.T) {
	llm := new(mockLLM)
	store := new(mockVectorStore)
	svc := newQuizService(llm, store, newMemoryCache())

	store.On("Search", mock.Anything, mock.Anything, 7).Return(searchHits("notes"), nil)

	_, err := svc.Generate(context.Background(), domain.QuizType("essay"), "RSA", 2)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeInvalidInput, domainErr.Code)
}

func TestQuizService_Generate_FewerQuestionsThanRequested(t *testing.T) {
	llm := new(mockLLM)
	store := new(mockVectorStore)
	svc := newQuizService(llm, store, newMemoryCache())

	store.On("Search", mock.Anything, mock.Anything, 7).Return(searchHits("notes"), nil)
	llm.On("Invoke", mock.Anything, mock.Anything).Return(mcqQuizText, nil)

	// Ask for five, model delivered two: not an error.
	session, err := svc.Generate(context.Background(), domain.QuizTypeMCQ, "RSA", 5)
	require.NoError(t, err)
	assert.Len(t, session.Questions, 2)
}

func TestQuizService_GetSession_NotFound(t *testing.T) {
	svc := newQuizService(new(mockLLM), new(mockVectorStore), newMemoryCache())

	_, err := svc.GetSession(context.Background(), "01MISSING")

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeSessionNotFound, domainErr.Code)
}

func TestQuizService_FullLifecycle_MCQ(t *testing.T) {
	llm := new(mockLLM)
	store := new(mockVectorStore)
	svc := newQuizService(llm, store, newMemoryCache())
	ctx := context.Background()

	store.On("Search", mock.Anything, mock.Anything, 7).Return(searchHits("notes"), nil)
	llm.On("Invoke", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "generate 2 multiple-choice questions")
	})).Return(mcqQuizText, nil).Once()

	session, err := svc.Generate(ctx, domain.QuizTypeMCQ, "RSA", 2)
	require.NoError(t, err)

	_, err = svc.RecordAnswer(ctx, session.ID, 0, "A")
	require.NoError(t, err)
	_, err = svc.RecordAnswer(ctx, session.ID, 1, "B")
	require.NoError(t, err)

	submitted, err := svc.Submit(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseSubmitted, submitted.Phase)

	// Evaluation lines sit at raw line indices 0 and 1, matching question indices.
	evalText := "Question 1: Correct Answer: [A], Explanation: RSA factors integers.\n" +
		"Question 2: Correct Answer: [C], Explanation: GCM authenticates."
	llm.On("Invoke", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "1. A") && strings.Contains(p, "2. B")
	})).Return(evalText, nil).Once()

	evaluated, err := svc.Evaluate(ctx, session.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.PhaseEvaluated, evaluated.Phase)
	assert.Equal(t, map[int]string{0: "A", 1: "C"}, evaluated.CorrectAnswers)
	assert.Equal(t, "RSA factors integers.", evaluated.Explanations[0])
	require.NotNil(t, evaluated.Score)
	assert.Equal(t, 1, evaluated.Score.Correct)
	assert.Equal(t, 50.0, evaluated.Score.Percentage)
	llm.AssertExpectations(t)
}

func TestQuizService_Evaluate_ExpandsTFLabels(t *testing.T) {
	llm := new(mockLLM)
	store := new(mockVectorStore)
	svc := newQuizService(llm, store, newMemoryCache())
	ctx := context.Background()

	store.On("Search", mock.Anything, mock.Anything, 7).Return(searchHits("notes"), nil)
	llm.On("Invoke", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "true/false")
	})).Return(tfQuizText, nil).Once()

	session, err := svc.Generate(ctx, domain.QuizTypeTF, "TLS", 2)
	require.NoError(t, err)

	_, err = svc.RecordAnswer(ctx, session.ID, 0, "True")
	require.NoError(t, err)
	_, err = svc.RecordAnswer(ctx, session.ID, 1, "True")
	require.NoError(t, err)
	_, err = svc.Submit(ctx, session.ID)
	require.NoError(t, err)

	evalText := "Question 1: Correct Answer: [T], Explanation: Lucky 13 targets TLS 1.0.\n" +
		"Question 2: Correct Answer: [F], Explanation: HMAC survives collisions."
	llm.On("Invoke", mock.Anything, mock.Anything).Return(evalText, nil).Once()

	evaluated, err := svc.Evaluate(ctx, session.ID)
	require.NoError(t, err)

	// 'T'/'F' widened to the TF option labels so equality scoring works.
	assert.Equal(t, map[int]string{0: "True", 1: "False"}, evaluated.CorrectAnswers)
	assert.Equal(t, 1, evaluated.Score.Correct)
}

func TestQuizService_Evaluate_RequiresSubmission(t *testing.T) {
	llm := new(mockLLM)
	store := new(mockVectorStore)
	svc := newQuizService(llm, store, newMemoryCache())
	ctx := context.Background()

	store.On("Search", mock.Anything, mock.Anything, 7).Return(searchHits("notes"), nil)
	llm.On("Invoke", mock.Anything, mock.Anything).Return(mcqQuizText, nil).Once()

	session, err := svc.Generate(ctx, domain.QuizTypeMCQ, "RSA", 2)
	require.NoError(t, err)

	_, err = svc.Evaluate(ctx, session.ID)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeInvalidTransition, domainErr.Code)
}

func TestQuizService_Evaluate_LLMFailureKeepsSessionSubmitted(t *testing.T) {
	llm := new(mockLLM)
	store := new(mockVectorStore)
	svc := newQuizService(llm, store, newMemoryCache())
	ctx := context.Background()

	store.On("Search", mock.Anything, mock.Anything, 7).Return(searchHits("notes"), nil)
	llm.On("Invoke", mock.Anything, mock.Anything).Return(mcqQuizText, nil).Once()

	session, err := svc.Generate(ctx, domain.QuizTypeMCQ, "RSA", 2)
	require.NoError(t, err)
	_, err = svc.Submit(ctx, session.ID)
	require.NoError(t, err)

	llm.On("Invoke", mock.Anything, mock.Anything).Return("", errors.New("ollama down")).Once()

	_, err = svc.Evaluate(ctx, session.ID)
	require.Error(t, err)

	// Retry is possible: the session never left Submitted.
	reloaded, err := svc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseSubmitted, reloaded.Phase)
}

func TestQuizService_TopicList(t *testing.T) {
	svc := newQuizService(new(mockLLM), new(mockVectorStore), newMemoryCache())
	topics := svc.TopicList()
	assert.NotEmpty(t, topics)
	assert.Contains(t, topics, "RSA")
}

func TestExpandTFLabels(t *testing.T) {
	got := expandTFLabels(map[int]string{0: "T", 1: "F", 2: "A"})
	assert.Equal(t, map[int]string{0: "True", 1: "False", 2: "A"}, got)
}
