package retrieval

import (
	"context"
	"sort"

	"github.com/siherrmann/techrag/model"
)

// Strategy defines a retrieval strategy
type Strategy interface {
	Method() model.RetrievalMethod
	Retrieve(ctx context.Context, embedding []float32, config *QueryConfig) ([]*model.SearchResult, error)
}

// SimilarityStrategy performs pure vector similarity search
type SimilarityStrategy struct {
	engine *Engine
}

// NewSimilarityStrategy creates a new similarity strategy
func NewSimilarityStrategy(engine *Engine) *SimilarityStrategy {
	return &SimilarityStrategy{engine: engine}
}

func (s *SimilarityStrategy) Method() model.RetrievalMethod {
	return model.RetrievalMethodVector
}

// Retrieve performs similarity retrieval
func (s *SimilarityStrategy) Retrieve(ctx context.Context, embedding []float32, config *QueryConfig) ([]*model.SearchResult, error) {
	results, err := s.engine.VectorRetrieve(ctx, embedding, config)
	if err != nil {
		return nil, err
	}

	sortResults(results)

	return results, nil
}

// HybridStrategy combines vector and lexical signals with configurable weights
type HybridStrategy struct {
	engine *Engine
}

// NewHybridStrategy creates a new hybrid strategy
func NewHybridStrategy(engine *Engine) *HybridStrategy {
	return &HybridStrategy{engine: engine}
}

func (s *HybridStrategy) Method() model.RetrievalMethod {
	return model.RetrievalMethodHybrid
}

// Retrieve performs hybrid retrieval with weighted combination
func (s *HybridStrategy) Retrieve(ctx context.Context, embedding []float32, config *QueryConfig) ([]*model.SearchResult, error) {
	results, err := s.engine.HybridRetrieve(ctx, embedding, config)
	if err != nil {
		return nil, err
	}

	sortResults(results)

	// Limit to top-k
	if len(results) > config.Limit {
		results = results[:config.Limit]
	}

	return results, nil
}

// sortResults orders by descending score, then by chunk priority and id
// so equal scores always come back in the same order.
func sortResults(results []*model.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Chunk.Priority != results[j].Chunk.Priority {
			return results[i].Chunk.Priority < results[j].Chunk.Priority
		}
		return results[i].Chunk.ID.String() < results[j].Chunk.ID.String()
	})
}
