package domain

// Document is a loaded text document identified by its logical source path.
// Immutable once loaded; scoped to one retrieval request or one ingestion batch.
type Document struct {
	Source   string
	Content  string
	FileType string
	Category string
}

// ScoredDocument pairs a document with its relevance score for one query.
// Scores are recomputed per query, never cached.
type ScoredDocument struct {
	Document Document
	Score    float64
}

// Chunk is a bounded-size slice of a source document prepared for indexing.
// ID follows the persisted contract "<namespace>:<source>:<seq>", where seq
// resets to 0 whenever source changes from the previous chunk.
type Chunk struct {
	ID        string
	Namespace string
	Source    string
	Content   string
	Embedding []float32
}

// LoadResult reports the outcome of loading one file during ingestion.
// Skipped files are observable to callers instead of silently dropped.
type LoadResult struct {
	Source     string
	Skipped    bool
	SkipReason string
	Document   Document
}
