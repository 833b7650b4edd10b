package ingest

import (
	"context"
	"fmt"
	"time"

	"quizbot/internal/domain"
	"quizbot/internal/logger"

	"go.uber.org/zap"
)

// interBatchPause spaces out batches so the embedding service is not
// overwhelmed during large ingestion runs.
const interBatchPause = 500 * time.Millisecond

// Report summarizes one ingestion run.
type Report struct {
	Loaded   int
	Skipped  int
	Chunks   int
	New      int
	Batches  int
	Duration time.Duration
}

// Ingestor drives the full pipeline: split, de-duplicate against the store,
// and insert in bounded batches with per-batch retry. A batch that still
// fails after the final attempt aborts the run; batches already committed
// stay persisted.
type Ingestor struct {
	store      domain.VectorStore
	chunker    *Chunker
	batchSize  int
	maxRetries int
	retryDelay time.Duration
}

func NewIngestor(store domain.VectorStore, chunker *Chunker, batchSize, maxRetries int, retryDelay time.Duration) *Ingestor {
	if batchSize <= 0 {
		batchSize = 10
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Ingestor{
		store:      store,
		chunker:    chunker,
		batchSize:  batchSize,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}
}

// Run ingests the loaded documents into the given namespace. With reset set,
// the namespace's existing chunks are deleted first.
func (in *Ingestor) Run(ctx context.Context, namespace string, results []domain.LoadResult, reset bool) (*Report, error) {
	start := time.Now()
	log := logger.Get()

	report := &Report{}
	for _, r := range results {
		if r.Skipped {
			report.Skipped++
			log.Info("Skipped during load",
				zap.String("source", r.Source),
				zap.String("reason", r.SkipReason))
		} else {
			report.Loaded++
		}
	}

	if reset {
		log.Info("Resetting namespace before re-ingest", zap.String("namespace", namespace))
		if err := in.store.DeleteNamespace(ctx, namespace); err != nil {
			return nil, domain.NewIngestionError("failed to reset namespace", err)
		}
	}

	chunks, err := in.chunker.Split(namespace, LoadedDocuments(results))
	if err != nil {
		return nil, err
	}
	report.Chunks = len(chunks)

	existing, err := in.store.ExistingIDs(ctx, namespace)
	if err != nil {
		return nil, domain.NewIngestionError("failed to list existing chunk IDs", err)
	}

	newChunks := make([]domain.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		if !existing[chunk.ID] {
			newChunks = append(newChunks, chunk)
		}
	}
	report.New = len(newChunks)

	if len(newChunks) == 0 {
		log.Info("No new chunks to ingest", zap.String("namespace", namespace))
		report.Duration = time.Since(start)
		return report, nil
	}

	totalBatches := (len(newChunks)-1)/in.batchSize + 1
	for i := 0; i < len(newChunks); i += in.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, domain.NewIngestionError("ingestion cancelled", err)
		}

		end := i + in.batchSize
		if end > len(newChunks) {
			end = len(newChunks)
		}
		batch := newChunks[i:end]
		batchNum := i/in.batchSize + 1

		log.Info("Ingesting batch",
			zap.Int("batch", batchNum),
			zap.Int("total_batches", totalBatches),
			zap.Int("size", len(batch)))

		if err := in.addBatchWithRetry(ctx, batch, batchNum); err != nil {
			return nil, err
		}
		report.Batches++

		if end < len(newChunks) {
			time.Sleep(interBatchPause)
		}
	}

	report.Duration = time.Since(start)
	log.Info("Ingestion finished",
		zap.String("namespace", namespace),
		zap.Int("loaded", report.Loaded),
		zap.Int("skipped", report.Skipped),
		zap.Int("chunks", report.Chunks),
		zap.Int("new", report.New),
		zap.Duration("duration", report.Duration))
	return report, nil
}

// addBatchWithRetry inserts one batch, retrying up to maxRetries attempts
// with a fixed delay between them. A batch is never re-run once it succeeds.
func (in *Ingestor) addBatchWithRetry(ctx context.Context, batch []domain.Chunk, batchNum int) error {
	var lastErr error
	for attempt := 1; attempt <= in.maxRetries; attempt++ {
		lastErr = in.store.AddBatch(ctx, batch)
		if lastErr == nil {
			return nil
		}
		logger.Get().Warn("Batch insert failed",
			zap.Int("batch", batchNum),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", in.maxRetries),
			zap.Error(lastErr))
		if attempt < in.maxRetries {
			time.Sleep(in.retryDelay)
		}
	}
	return domain.NewIngestionError(
		fmt.Sprintf("batch %d failed after %d attempts", batchNum, in.maxRetries), lastErr)
}
