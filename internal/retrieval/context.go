package retrieval

import (
	"fmt"
	"strings"

	"quizbot/internal/domain"
)

const (
	// DefaultSeparator joins plain document contexts.
	DefaultSeparator = "\n\n"
	// SectionSeparator joins contexts in the quiz and Q&A paths.
	SectionSeparator = "\n\n---\n\n"
	// TruncationMarker is appended whenever a document was cut.
	TruncationMarker = "..."
)

// ContextBuilder turns an already-ranked document list into the bounded
// context string passed to the language model. It never retrieves; the ranked
// list may come from the vector store or from the keyword scorer, and the
// construction is identical either way.
type ContextBuilder struct {
	PerDocCharLimit int
	Separator       string
}

func NewContextBuilder(perDocCharLimit int, separator string) *ContextBuilder {
	if separator == "" {
		separator = DefaultSeparator
	}
	return &ContextBuilder{
		PerDocCharLimit: perDocCharLimit,
		Separator:       separator,
	}
}

// Build truncates each document to the per-document character limit,
// appending the truncation marker when content was cut, and joins the pieces
// with the configured separator.
func (b *ContextBuilder) Build(docs []domain.ScoredDocument) string {
	parts := make([]string, 0, len(docs))
	for _, sd := range docs {
		parts = append(parts, truncate(sd.Document.Content, b.PerDocCharLimit))
	}
	return strings.Join(parts, b.Separator)
}

// BuildLabeled is the code-assistant variant: each document is prefixed with
// its source path and wrapped in a fenced block.
func (b *ContextBuilder) BuildLabeled(docs []domain.ScoredDocument) string {
	parts := make([]string, 0, len(docs))
	for _, sd := range docs {
		parts = append(parts, fmt.Sprintf("File: %s\n```\n%s\n```",
			sd.Document.Source, truncate(sd.Document.Content, b.PerDocCharLimit)))
	}
	return strings.Join(parts, b.Separator)
}

func truncate(content string, limit int) string {
	if limit <= 0 || len(content) <= limit {
		return content
	}
	return content[:limit] + TruncationMarker
}
