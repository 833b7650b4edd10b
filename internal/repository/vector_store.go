package repository

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"quizbot/internal/domain"
	"quizbot/internal/util"

	"github.com/jmoiron/sqlx"
)

const createChunksTable = `
CREATE TABLE IF NOT EXISTS chunks (
	id         TEXT PRIMARY KEY,
	namespace  TEXT NOT NULL,
	source     TEXT NOT NULL,
	content    TEXT NOT NULL,
	embedding  BLOB NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_namespace ON chunks (namespace);
`

// chunkRow is the database model for one persisted chunk.
type chunkRow struct {
	ID        string    `db:"id"`
	Namespace string    `db:"namespace"`
	Source    string    `db:"source"`
	Content   string    `db:"content"`
	Embedding []byte    `db:"embedding"`
	CreatedAt time.Time `db:"created_at"`
}

// SQLiteVectorStore implements domain.VectorStore on a SQLite database.
// Similarity search is brute-force cosine over the stored embeddings, which
// is plenty for a personal study corpus.
type SQLiteVectorStore struct {
	db       *sqlx.DB
	embedder domain.EmbeddingService
}

// NewSQLiteVectorStore creates the store and ensures its schema exists.
func NewSQLiteVectorStore(db *sqlx.DB, embedder domain.EmbeddingService) (*SQLiteVectorStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder cannot be nil")
	}
	if _, err := db.Exec(createChunksTable); err != nil {
		return nil, domain.NewStorageError("failed to create chunks schema", err)
	}
	return &SQLiteVectorStore{db: db, embedder: embedder}, nil
}

// ExistingIDs returns the set of chunk IDs already persisted for a namespace.
func (s *SQLiteVectorStore) ExistingIDs(ctx context.Context, namespace string) (map[string]bool, error) {
	var ids []string
	query := `SELECT id FROM chunks WHERE namespace = ?`
	if err := s.db.SelectContext(ctx, &ids, query, namespace); err != nil {
		return nil, domain.NewStorageError("failed to list existing chunk IDs", err)
	}

	existing := make(map[string]bool, len(ids))
	for _, id := range ids {
		existing[id] = true
	}
	return existing, nil
}

// AddBatch embeds and persists one batch of chunks atomically. Re-inserting
// an existing ID overwrites it, so retried batches stay idempotent.
func (s *SQLiteVectorStore) AddBatch(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	rows := make([]chunkRow, 0, len(chunks))
	for _, chunk := range chunks {
		embedding := chunk.Embedding
		if len(embedding) == 0 {
			generated, err := s.embedder.Generate(ctx, chunk.Content)
			if err != nil {
				return domain.NewStorageError(fmt.Sprintf("failed to embed chunk %s", chunk.ID), err)
			}
			embedding = generated
		}
		blob, err := encodeVector(embedding)
		if err != nil {
			return domain.NewStorageError(fmt.Sprintf("failed to encode embedding for chunk %s", chunk.ID), err)
		}
		rows = append(rows, chunkRow{
			ID:        chunk.ID,
			Namespace: chunk.Namespace,
			Source:    chunk.Source,
			Content:   chunk.Content,
			Embedding: blob,
			CreatedAt: time.Now(),
		})
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.NewStorageError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	query := `INSERT OR REPLACE INTO chunks (id, namespace, source, content, embedding, created_at)
	          VALUES (:id, :namespace, :source, :content, :embedding, :created_at)`
	for _, row := range rows {
		if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
			return domain.NewStorageError(fmt.Sprintf("failed to insert chunk %s", row.ID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.NewStorageError("failed to commit batch", err)
	}
	return nil
}

// DeleteNamespace removes every chunk of a namespace.
func (s *SQLiteVectorStore) DeleteNamespace(ctx context.Context, namespace string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE namespace = ?`, namespace); err != nil {
		return domain.NewStorageError(fmt.Sprintf("failed to delete namespace %s", namespace), err)
	}
	return nil
}

// Search embeds the query and returns the k most similar chunks as documents,
// best first. The chunk's namespace doubles as the document category.
func (s *SQLiteVectorStore) Search(ctx context.Context, query string, k int) ([]domain.ScoredDocument, error) {
	queryVec, err := s.embedder.Generate(ctx, query)
	if err != nil {
		return nil, domain.NewStorageError("failed to embed search query", err)
	}

	var rows []chunkRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, namespace, source, content, embedding, created_at FROM chunks`); err != nil {
		return nil, domain.NewStorageError("failed to load chunks for search", err)
	}

	scored := make([]domain.ScoredDocument, 0, len(rows))
	for _, row := range rows {
		vec, decErr := decodeVector(row.Embedding)
		if decErr != nil {
			return nil, domain.NewStorageError(fmt.Sprintf("corrupt embedding for chunk %s", row.ID), decErr)
		}
		score, simErr := util.CosineSimilarity(queryVec, vec)
		if simErr != nil {
			return nil, domain.NewStorageError(fmt.Sprintf("failed to score chunk %s", row.ID), simErr)
		}
		scored = append(scored, domain.ScoredDocument{
			Document: domain.Document{
				Source:   row.Source,
				Content:  row.Content,
				FileType: strings.ToLower(filepath.Ext(row.Source)),
				Category: row.Namespace,
			},
			Score: score,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if k > 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// encodeVector serializes an embedding for BLOB storage.
func encodeVector(vec []float32) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(vec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeVector deserializes an embedding read back from storage.
func decodeVector(blob []byte) ([]float32, error) {
	var vec []float32
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&vec); err != nil {
		return nil, err
	}
	return vec, nil
}
