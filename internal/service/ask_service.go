package service

import (
	"context"
	"encoding/json"
	"time"

	"quizbot/internal/cache"
	"quizbot/internal/domain"
	"quizbot/internal/ingest"
	"quizbot/internal/logger"
	"quizbot/internal/prompt"
	"quizbot/internal/retrieval"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// chatHistoryLimit bounds how many past exchanges are returned.
const chatHistoryLimit = 50

// RankedFile is one code file the assistant judged relevant, with its
// keyword-relevance score.
type RankedFile struct {
	Path  string  `json:"path"`
	Score float64 `json:"score"`
}

// AskService answers open-ended questions from the ingested study materials
// and questions about a codebase loaded fresh per request.
type AskService struct {
	llm         domain.LLMClient
	store       domain.VectorStore
	cache       domain.Cache
	loader      *ingest.Loader
	scorer      *retrieval.KeywordScorer
	noteBuilder *retrieval.ContextBuilder
	codeBuilder *retrieval.ContextBuilder
	topK        int
	codeTopK    int
	codeRoot    string
}

func NewAskService(llm domain.LLMClient, store domain.VectorStore, cacheClient domain.Cache,
	noteBuilder, codeBuilder *retrieval.ContextBuilder, topK, codeTopK int, codeRoot string) *AskService {
	return &AskService{
		llm:         llm,
		store:       store,
		cache:       cacheClient,
		loader:      ingest.NewLoader(),
		scorer:      retrieval.NewKeywordScorer(),
		noteBuilder: noteBuilder,
		codeBuilder: codeBuilder,
		topK:        topK,
		codeTopK:    codeTopK,
		codeRoot:    codeRoot,
	}
}

// Ask answers one open-ended question from the vector store and appends the
// exchange to the chat history.
func (s *AskService) Ask(ctx context.Context, question string) (string, error) {
	if question == "" {
		return "", domain.NewInvalidInputError("question cannot be empty")
	}

	docs, err := s.store.Search(ctx, question, s.topK)
	if err != nil {
		return "", err
	}
	docs = lo.Filter(docs, func(d domain.ScoredDocument, _ int) bool { return d.Score > 0 })
	if len(docs) == 0 {
		return "", domain.NewNoRelevantContentError(question)
	}

	answer, err := s.llm.Invoke(ctx, prompt.OpenEnded(s.noteBuilder.Build(docs), question))
	if err != nil {
		return "", err
	}

	s.appendHistory(ctx, "notes", question, answer)
	return answer, nil
}

// AskCode answers a question about the configured code root. Files are loaded
// fresh per request, ranked by keyword relevance, and the top files are
// returned alongside the answer.
func (s *AskService) AskCode(ctx context.Context, question string) (string, []RankedFile, error) {
	if question == "" {
		return "", nil, domain.NewInvalidInputError("question cannot be empty")
	}

	results, err := s.loader.LoadCode(ctx, s.codeRoot)
	if err != nil {
		return "", nil, err
	}

	ranked := s.scorer.Rank(question, ingest.LoadedDocuments(results), s.codeTopK)
	if len(ranked) == 0 {
		return "", nil, domain.NewNoRelevantContentError(question)
	}

	answer, err := s.llm.Invoke(ctx, prompt.CodeAssistant(s.codeBuilder.BuildLabeled(ranked), question))
	if err != nil {
		return "", nil, err
	}

	files := lo.Map(ranked, func(d domain.ScoredDocument, _ int) RankedFile {
		return RankedFile{Path: d.Document.Source, Score: d.Score}
	})
	return answer, files, nil
}

// History returns the most recent chat exchanges, newest first.
func (s *AskService) History(ctx context.Context, mode string) ([]domain.ChatEntry, error) {
	raw, err := s.cache.LRange(ctx, cache.ChatHistoryKey(mode), 0, chatHistoryLimit-1)
	if err != nil {
		return nil, domain.NewStorageError("failed to load chat history", err)
	}

	entries := make([]domain.ChatEntry, 0, len(raw))
	for _, item := range raw {
		var entry domain.ChatEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			logger.Get().Warn("Dropping undecodable chat history entry", zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// appendHistory is best effort: a history write failure never fails the request.
func (s *AskService) appendHistory(ctx context.Context, mode, question, answer string) {
	entry := domain.ChatEntry{Question: question, Answer: answer, AskedAt: time.Now()}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := s.cache.LPush(ctx, cache.ChatHistoryKey(mode), string(data)); err != nil {
		logger.Get().Warn("Failed to append chat history", zap.Error(err))
	}
}
