package retrieval

import (
	"sort"
	"strings"

	"quizbot/internal/domain"
)

// PathMentionBonus is added once when the query mentions any path segment of
// the document's source, regardless of how many segments match.
const PathMentionBonus = 10

// minTokenLen filters out short query tokens that would match everywhere.
const minTokenLen = 3

// KeywordScorer ranks documents against a free-text query using substring
// counting. It is the fallback retrieval source when the vector store is
// bypassed or supplemented; its output shape matches VectorStore.Search.
type KeywordScorer struct{}

func NewKeywordScorer() *KeywordScorer {
	return &KeywordScorer{}
}

// Score sums, over whitespace-separated query tokens longer than three
// characters, the case-insensitive non-overlapping occurrence count of the
// token in the document content, plus PathMentionBonus if any "/"-delimited
// segment of the document source appears in the lowercased query.
func (s *KeywordScorer) Score(query string, doc domain.Document) int {
	queryLower := strings.ToLower(query)
	contentLower := strings.ToLower(doc.Content)

	score := 0
	for _, word := range strings.Fields(queryLower) {
		if len(word) <= minTokenLen {
			continue
		}
		score += strings.Count(contentLower, word)
	}

	for _, part := range strings.Split(strings.ToLower(doc.Source), "/") {
		if part != "" && strings.Contains(queryLower, part) {
			score += PathMentionBonus
			break
		}
	}

	return score
}

// Rank scores every document, drops zero scores, sorts descending and returns
// the first k. The sort is stable: equal scores preserve input order, so
// ranking output is reproducible.
func (s *KeywordScorer) Rank(query string, docs []domain.Document, k int) []domain.ScoredDocument {
	scored := make([]domain.ScoredDocument, 0, len(docs))
	for _, doc := range docs {
		if sc := s.Score(query, doc); sc > 0 {
			scored = append(scored, domain.ScoredDocument{Document: doc, Score: float64(sc)})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k >= 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored
}
