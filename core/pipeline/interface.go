package pipeline

import (
	"context"
	"errors"

	"github.com/siherrmann/techrag/helper"
	"github.com/siherrmann/techrag/model"
)

var (
	// ErrNoEmbedder is returned when a pipeline is used without an embedding function.
	ErrNoEmbedder = errors.New("no embedder configured")
	// ErrDimensionMismatch is returned when an embedding does not have the dimension of the store.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// ChunkFunc splits a document into chunks.
// It returns the metadata the chunks were built with.
type ChunkFunc func(doc *model.Document) (*model.DocumentMetadata, []*model.Chunk)

// EmbedFunc is a function that generates embeddings for text
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// Pipeline combines chunking and embedding functions
type Pipeline struct {
	Chunker  ChunkFunc
	Embedder EmbedFunc
}

// NewPipeline creates a new processing pipeline
func NewPipeline(chunker ChunkFunc, embedder EmbedFunc) *Pipeline {
	return &Pipeline{
		Chunker:  chunker,
		Embedder: embedder,
	}
}

// Process chunks a single document and embeds every chunk in order.
// Unlike the BatchEmbedder it fails on the first embedding error.
func (p *Pipeline) Process(ctx context.Context, doc *model.Document) ([]*model.Chunk, error) {
	if p.Embedder == nil {
		return nil, ErrNoEmbedder
	}

	_, chunks := p.Chunker(doc)
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		embedding, err := p.Embedder(ctx, chunk.Content)
		if err != nil {
			return nil, helper.NewError("embed "+string(chunk.Type)+" chunk", err)
		}
		chunk.Embedding = embedding
	}

	return chunks, nil
}
