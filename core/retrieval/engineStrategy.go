package retrieval

import (
	"github.com/siherrmann/techrag/helper"
	"github.com/siherrmann/techrag/model"
)

// MethodFor returns the retrieval method a request is answered with.
// Any category or tag filter selects hybrid search.
func MethodFor(request *model.SearchRequest) model.RetrievalMethod {
	if request.HasFilters() {
		return model.RetrievalMethodHybrid
	}
	return model.RetrievalMethodVector
}

// StrategyFor returns the strategy matching the request.
func (e *Engine) StrategyFor(request *model.SearchRequest) Strategy {
	if MethodFor(request) == model.RetrievalMethodHybrid {
		return NewHybridStrategy(e)
	}
	return NewSimilarityStrategy(e)
}

// NewQueryConfig resolves the request against the configured defaults.
// Hybrid search only applies a minimum combined score when the request sets one,
// since the similarity threshold is not on the same scale as the combined score.
func NewQueryConfig(query string, request *model.SearchRequest, defaults helper.RagConfiguration) *QueryConfig {
	config := &QueryConfig{
		Query:         query,
		Limit:         defaults.SearchLimit,
		MinSimilarity: defaults.MinSimilarity,
		VectorWeight:  defaults.VectorWeight,
		LexicalWeight: defaults.LexicalWeight,
	}
	if request == nil {
		return config
	}

	if request.Limit > 0 {
		config.Limit = request.Limit
	}
	if request.VectorWeight > 0 {
		config.VectorWeight = request.VectorWeight
	}
	if request.LexicalWeight > 0 {
		config.LexicalWeight = request.LexicalWeight
	}

	if request.HasFilters() {
		config.Categories = request.NormalizedCategories()
		config.Tags = request.NormalizedTags()
		config.MinSimilarity = 0
	}
	if request.MinSimilarity != nil {
		config.MinSimilarity = *request.MinSimilarity
	}

	return config
}
