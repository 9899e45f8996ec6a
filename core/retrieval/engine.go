package retrieval

import (
	"context"
	"fmt"

	"github.com/siherrmann/techrag/helper"
	"github.com/siherrmann/techrag/model"
)

// Store is the vector store contract the engine searches.
// It is implemented by database.ChunksDBHandler.
type Store interface {
	SelectChunksBySimilarity(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*model.SearchResult, error)
	SelectChunksByHybrid(
		ctx context.Context,
		embedding []float32,
		query string,
		categories []string,
		tags []string,
		vectorWeight float64,
		lexicalWeight float64,
		limit int,
		minScore float64,
	) ([]*model.SearchResult, error)
}

// QueryConfig holds the resolved parameters of one retrieval
type QueryConfig struct {
	Query      string
	Categories []string
	Tags       []string

	Limit         int
	MinSimilarity float64 // Similarity threshold, or minimum combined score for hybrid search

	VectorWeight  float64
	LexicalWeight float64
}

// Engine runs similarity and hybrid searches against a store
type Engine struct {
	store Store
}

// NewEngine creates a new retrieval engine
func NewEngine(store Store) *Engine {
	return &Engine{
		store: store,
	}
}

// VectorRetrieve performs pure vector similarity search
func (e *Engine) VectorRetrieve(ctx context.Context, embedding []float32, config *QueryConfig) ([]*model.SearchResult, error) {
	if config == nil || config.Limit <= 0 {
		return nil, helper.NewError("vector retrieve", fmt.Errorf("limit must be positive"))
	}

	results, err := e.store.SelectChunksBySimilarity(ctx, embedding, config.Limit, config.MinSimilarity)
	if err != nil {
		return nil, helper.NewError("vector retrieve", err)
	}

	for _, result := range results {
		result.RetrievalMethod = model.RetrievalMethodVector
	}

	return results, nil
}

// HybridRetrieve combines vector similarity with category, tag and full-text matching
func (e *Engine) HybridRetrieve(ctx context.Context, embedding []float32, config *QueryConfig) ([]*model.SearchResult, error) {
	if config == nil || config.Limit <= 0 {
		return nil, helper.NewError("hybrid retrieve", fmt.Errorf("limit must be positive"))
	}

	results, err := e.store.SelectChunksByHybrid(
		ctx,
		embedding,
		config.Query,
		config.Categories,
		config.Tags,
		config.VectorWeight,
		config.LexicalWeight,
		config.Limit,
		config.MinSimilarity,
	)
	if err != nil {
		return nil, helper.NewError("hybrid retrieve", err)
	}

	for _, result := range results {
		result.RetrievalMethod = model.RetrievalMethodHybrid
	}

	return results, nil
}
