package ingest

import (
	"fmt"

	"quizbot/internal/domain"

	"github.com/tmc/langchaingo/textsplitter"
)

// Chunker splits documents into bounded chunks and assigns the persisted
// chunk IDs the store's de-duplication depends on.
type Chunker struct {
	splitter textsplitter.RecursiveCharacter
}

func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	return &Chunker{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		),
	}
}

// Split chunks every document and labels each chunk with an ID of the form
// "<namespace>:<source>:<seq>". The sequence index resets to 0 whenever the
// source path changes from the previous chunk and increments otherwise; this
// format is a persisted contract and must not change.
func (c *Chunker) Split(namespace string, docs []domain.Document) ([]domain.Chunk, error) {
	var chunks []domain.Chunk

	lastSource := ""
	seq := 0
	for _, doc := range docs {
		pieces, err := c.splitter.SplitText(doc.Content)
		if err != nil {
			return nil, domain.NewIngestionError(fmt.Sprintf("failed to split %s", doc.Source), err)
		}
		for _, piece := range pieces {
			if doc.Source == lastSource {
				seq++
			} else {
				seq = 0
				lastSource = doc.Source
			}
			chunks = append(chunks, domain.Chunk{
				ID:        fmt.Sprintf("%s:%s:%d", namespace, doc.Source, seq),
				Namespace: namespace,
				Source:    doc.Source,
				Content:   piece,
			})
		}
	}

	return chunks, nil
}
