package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"quizbot/internal/cache"
	"quizbot/internal/domain"
	"quizbot/internal/logger"
	"quizbot/internal/prompt"
	"quizbot/internal/quiztext"
	"quizbot/internal/retrieval"
	"quizbot/internal/util"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Topics is the fixed study-topic catalogue quizzes are generated from.
var Topics = []string{
	"OSI architecture", "Symmetric Encryption", "Rijndael", "Entropy",
	"Pseudorandom Number Generator", "Block and Stream Ciphers", "RC4 Stream Cipher",
	"Public-Key Cryptography", "RSA", "Homomorphic encryption",
	"Message authentication", "Hash functions", "Secure Hash Function",
	"Length Extension Attacks", "Message Authentication Code", "HMAC",
	"Authenticated Encryption", "TLS 1.0 Lucky 13 Attack", "Digital Signatures",
	"Hybrid Encryption", "Symmetric key distribution", "Diffie-Hellman Key Exchange",
}

const (
	// randomTopicCount is how many topics a random quiz mixes.
	randomTopicCount = 2

	// DefaultNumQuestions is used when a request does not say how many.
	DefaultNumQuestions = 5

	// sessionTTL bounds how long an abandoned session stays in Redis.
	sessionTTL = 24 * time.Hour
)

// QuizService owns the quiz lifecycle: generation, answering, submission and
// evaluation. Sessions are persisted in the cache as JSON keyed by ULID, so
// the service itself is stateless.
type QuizService struct {
	llm     domain.LLMClient
	store   domain.VectorStore
	cache   domain.Cache
	builder *retrieval.ContextBuilder
	topK    int
}

func NewQuizService(llm domain.LLMClient, store domain.VectorStore, cacheClient domain.Cache, builder *retrieval.ContextBuilder, topK int) *QuizService {
	return &QuizService{
		llm:     llm,
		store:   store,
		cache:   cacheClient,
		builder: builder,
		topK:    topK,
	}
}

// TopicList returns the topic catalogue.
func (s *QuizService) TopicList() []string {
	return Topics
}

// Generate retrieves context for the topic (or a random topic pair when topic
// is empty), prompts the model and parses the result into a new Generated
// session. Fewer questions than requested is not an error; zero relevant
// documents is.
func (s *QuizService) Generate(ctx context.Context, quizType domain.QuizType, topic string, numQuestions int) (*domain.QuizSession, error) {
	if numQuestions <= 0 {
		numQuestions = DefaultNumQuestions
	}

	topics := []string{topic}
	if topic == "" {
		topics = lo.Samples(Topics, randomTopicCount)
	}
	query := fmt.Sprintf("Give me information about %s", strings.Join(topics, ", "))

	docs, err := s.store.Search(ctx, query, s.topK)
	if err != nil {
		return nil, err
	}
	docs = lo.Filter(docs, func(d domain.ScoredDocument, _ int) bool { return d.Score > 0 })
	if len(docs) == 0 {
		return nil, domain.NewNoRelevantContentError(query)
	}

	contextText := s.builder.Build(docs)
	topicText := prompt.TopicText(topics)

	var promptText string
	switch quizType {
	case domain.QuizTypeMCQ:
		promptText = prompt.MCQ(contextText, topicText, numQuestions)
	case domain.QuizTypeTF:
		promptText = prompt.TF(contextText, topicText, numQuestions)
	default:
		return nil, domain.NewInvalidInputError(fmt.Sprintf("unknown quiz type: %s", quizType))
	}

	rawText, err := s.llm.Invoke(ctx, promptText)
	if err != nil {
		return nil, err
	}

	var questions []domain.Question
	switch quizType {
	case domain.QuizTypeMCQ:
		questions = quiztext.ParseMCQ(rawText)
	case domain.QuizTypeTF:
		questions = quiztext.ParseTF(rawText)
	}

	if len(questions) < numQuestions {
		logger.Get().Warn("Parsed fewer questions than requested",
			zap.Int("requested", numQuestions),
			zap.Int("parsed", len(questions)))
	}

	session := domain.NewQuizSession(
		util.NewULID(), quizType, strings.Join(topics, ", "), questions, contextText, rawText)

	if err := s.saveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// GetSession loads one session by ID.
func (s *QuizService) GetSession(ctx context.Context, sessionID string) (*domain.QuizSession, error) {
	data, err := s.cache.Get(ctx, cache.SessionKey(sessionID))
	if err != nil {
		if err == domain.ErrCacheMiss {
			return nil, domain.NewSessionNotFoundError(sessionID)
		}
		return nil, domain.NewStorageError("failed to load session", err)
	}

	var session domain.QuizSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, domain.NewStorageError("failed to decode session", err)
	}
	return &session, nil
}

// RecordAnswer stores the user's label for one question of a Generated session.
func (s *QuizService) RecordAnswer(ctx context.Context, sessionID string, index int, label string) (*domain.QuizSession, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.RecordAnswer(index, label); err != nil {
		return nil, err
	}
	if err := s.saveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Submit freezes the session's answers.
func (s *QuizService) Submit(ctx context.Context, sessionID string) (*domain.QuizSession, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.Submit(); err != nil {
		return nil, err
	}
	if err := s.saveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Evaluate asks the model to grade a submitted session, extracts the asserted
// correct answers exactly once and moves the session to its terminal phase.
// If the LLM call fails the session stays Submitted and can be retried.
func (s *QuizService) Evaluate(ctx context.Context, sessionID string) (*domain.QuizSession, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Phase != domain.PhaseSubmitted {
		return nil, domain.NewInvalidTransitionError(session.Phase, "evaluate")
	}

	lines := make([]string, 0, len(session.Questions))
	for i := range session.Questions {
		label, ok := session.Answers[i]
		if !ok {
			label = domain.NoAnswer
		}
		lines = append(lines, prompt.UserAnswerLine(i+1, label))
	}

	evalText, err := s.llm.Invoke(ctx, prompt.Evaluation(session.RawQuizText, strings.Join(lines, "\n")))
	if err != nil {
		return nil, err
	}

	correct := quiztext.ExtractCorrectAnswers(evalText)
	explanations := quiztext.ExtractExplanations(evalText)

	if session.Type == domain.QuizTypeTF {
		correct = expandTFLabels(correct)
	}

	score := quiztext.ScoreAnswers(session.Questions, session.Answers, correct)
	if err := session.ApplyEvaluation(correct, explanations, score); err != nil {
		return nil, err
	}
	if err := s.saveSession(ctx, session); err != nil {
		return nil, err
	}

	logger.Get().Info("Quiz evaluated",
		zap.String("session_id", session.ID),
		zap.Int("correct", score.Correct),
		zap.Int("total", score.Total))
	return session, nil
}

// expandTFLabels widens the single-character labels the extractor yields to
// the True/False option labels TF questions carry, so exact-equality scoring
// lines up.
func expandTFLabels(correct map[int]string) map[int]string {
	expanded := make(map[int]string, len(correct))
	for idx, label := range correct {
		switch label {
		case "T":
			expanded[idx] = "True"
		case "F":
			expanded[idx] = "False"
		default:
			expanded[idx] = label
		}
	}
	return expanded
}

func (s *QuizService) saveSession(ctx context.Context, session *domain.QuizSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return domain.NewStorageError("failed to encode session", err)
	}
	if err := s.cache.Set(ctx, cache.SessionKey(session.ID), string(data), sessionTTL); err != nil {
		return domain.NewStorageError("failed to save session", err)
	}
	return nil
}
