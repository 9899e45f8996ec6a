package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/siherrmann/techrag/helper"
	"github.com/siherrmann/techrag/model"
	"golang.org/x/time/rate"
)

// ChunkStore persists a batch of embedded chunks as one unit of work
type ChunkStore interface {
	InsertChunks(ctx context.Context, chunks []*model.Chunk) error
}

// BatchOptions configures the BatchEmbedder
type BatchOptions struct {
	BatchSize         int
	BatchDelay        time.Duration // Cooldown between two batches
	RequestsPerSecond float64       // Optional pacing of single embedding calls, 0 disables it
	Dimension         int           // Expected embedding dimension, 0 skips the check
}

// BatchOptionsFromConfig takes the batch settings from a rag configuration.
func BatchOptionsFromConfig(config helper.RagConfiguration) BatchOptions {
	return BatchOptions{
		BatchSize:         config.BatchSize,
		BatchDelay:        config.BatchDelay,
		RequestsPerSecond: config.RequestsPerSecond,
		Dimension:         config.EmbeddingDim,
	}
}

// BatchEmbedder embeds chunks in fixed size batches and stores every batch in one write.
// A chunk whose embedding fails is dropped, a failed write aborts the run.
type BatchEmbedder struct {
	embed   EmbedFunc
	store   ChunkStore
	options BatchOptions
	limiter *rate.Limiter
	log     *slog.Logger
}

// NewBatchEmbedder creates a batch embedder writing to store.
func NewBatchEmbedder(embed EmbedFunc, store ChunkStore, options BatchOptions, logger *slog.Logger) (*BatchEmbedder, error) {
	if embed == nil {
		return nil, ErrNoEmbedder
	}
	if store == nil {
		return nil, helper.NewError("batch embedder validation", fmt.Errorf("chunk store is nil"))
	}
	if options.BatchSize <= 0 {
		return nil, helper.NewError("batch embedder validation", fmt.Errorf("batch size must be positive, got %d", options.BatchSize))
	}
	if logger == nil {
		logger = slog.Default()
	}

	b := &BatchEmbedder{
		embed:   embed,
		store:   store,
		options: options,
		log:     logger,
	}
	if options.RequestsPerSecond > 0 {
		burst := max(1, int(options.RequestsPerSecond))
		b.limiter = rate.NewLimiter(rate.Limit(options.RequestsPerSecond), burst)
	}

	return b, nil
}

// Embed generates the embedding of a single chunk.
func (b *BatchEmbedder) Embed(ctx context.Context, chunk *model.Chunk) ([]float32, error) {
	embedding, err := b.embed(ctx, chunk.Content)
	if err != nil {
		b.log.Warn(
			"Embedding failed",
			slog.String("chunk_id", chunk.ID.String()),
			slog.String("chunk_type", string(chunk.Type)),
			slog.String("document_rid", chunk.DocumentRID.String()),
			slog.Any("error", err),
		)
		return nil, helper.NewError(fmt.Sprintf("embed chunk %s", chunk.ID), err)
	}

	if b.options.Dimension > 0 && len(embedding) != b.options.Dimension {
		err := fmt.Errorf("%w: got %d dimensions, expected %d", ErrDimensionMismatch, len(embedding), b.options.Dimension)
		b.log.Warn(
			"Embedding has wrong dimension",
			slog.String("chunk_id", chunk.ID.String()),
			slog.String("document_rid", chunk.DocumentRID.String()),
			slog.Any("error", err),
		)
		return nil, helper.NewError(fmt.Sprintf("embed chunk %s", chunk.ID), err)
	}

	return embedding, nil
}

// ProcessAndStore embeds and persists all chunks and returns how many were stored.
// Cancelling ctx stops new batches and requests, requests already sent are awaited.
// A single failing chunk is dropped, a dimension mismatch stops processing with ErrDimensionMismatch.
func (b *BatchEmbedder) ProcessAndStore(ctx context.Context, chunks []*model.Chunk) (int, error) {
	persisted := 0
	batches := (len(chunks) + b.options.BatchSize - 1) / b.options.BatchSize

	for i := range batches {
		if i > 0 && b.options.BatchDelay > 0 {
			select {
			case <-ctx.Done():
				return persisted, helper.NewError("process batches", ctx.Err())
			case <-time.After(b.options.BatchDelay):
			}
		}
		if err := ctx.Err(); err != nil {
			return persisted, helper.NewError("process batches", err)
		}

		start := i * b.options.BatchSize
		end := min(start+b.options.BatchSize, len(chunks))

		embedded, err := b.embedBatch(ctx, chunks[start:end])
		if err != nil {
			return persisted, helper.NewError(fmt.Sprintf("embed batch %d/%d", i+1, batches), err)
		}
		if len(embedded) > 0 {
			// The write of a completed batch is not interrupted by cancellation.
			err := b.store.InsertChunks(context.WithoutCancel(ctx), embedded)
			if err != nil {
				return persisted, helper.NewError(fmt.Sprintf("store batch %d/%d", i+1, batches), err)
			}
			persisted += len(embedded)
		}

		b.log.Info(
			"Processed batch",
			slog.Int("batch", i+1),
			slog.Int("batches", batches),
			slog.Int("embedded", len(embedded)),
			slog.Int("dropped", end-start-len(embedded)),
			slog.Int("persisted", persisted),
		)
	}

	return persisted, nil
}

// embedBatch embeds all chunks concurrently and returns the successful ones in input order.
// The error is only set for a dimension mismatch, other failures drop the chunk.
func (b *BatchEmbedder) embedBatch(ctx context.Context, batch []*model.Chunk) ([]*model.Chunk, error) {
	ok := make([]bool, len(batch))
	errs := make([]error, len(batch))

	var wg sync.WaitGroup
	for i, chunk := range batch {
		if b.limiter != nil {
			if err := b.limiter.Wait(ctx); err != nil {
				b.log.Warn("Stopped issuing embedding requests", slog.Any("error", err))
				break
			}
		} else if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()

			embedding, err := b.Embed(context.WithoutCancel(ctx), chunk)
			if err != nil {
				errs[i] = err
				return
			}
			chunk.Embedding = embedding
			ok[i] = true
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if errors.Is(err, ErrDimensionMismatch) {
			return nil, err
		}
	}

	embedded := make([]*model.Chunk, 0, len(batch))
	for i, chunk := range batch {
		if ok[i] {
			embedded = append(embedded, chunk)
		}
	}
	return embedded, nil
}
