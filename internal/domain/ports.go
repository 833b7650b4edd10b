package domain

import "context"

// LLMClient defines the narrow contract to the language model: one prompt in,
// one free-text completion out. No streaming is required by the core.
type LLMClient interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// EmbeddingService defines the interface for generating text embeddings.
type EmbeddingService interface {
	Generate(ctx context.Context, text string) ([]float32, error)
}

// VectorStore is the persisted chunk index. Implementations own the
// embedding of queries; callers treat results as an ordered ranked list
// interchangeable with the keyword scorer's output.
type VectorStore interface {
	// ExistingIDs returns the chunk IDs already persisted for a namespace,
	// used for de-duplication on re-ingest.
	ExistingIDs(ctx context.Context, namespace string) (map[string]bool, error)

	// AddBatch persists one bounded batch of chunks.
	AddBatch(ctx context.Context, chunks []Chunk) error

	// DeleteNamespace removes every chunk of a namespace (reset before re-ingest).
	DeleteNamespace(ctx context.Context, namespace string) error

	// Search returns the k most similar documents for the query, best first.
	Search(ctx context.Context, query string, k int) ([]ScoredDocument, error)
}
