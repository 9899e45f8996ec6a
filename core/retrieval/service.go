package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/siherrmann/techrag/core/pipeline"
	"github.com/siherrmann/techrag/helper"
	"github.com/siherrmann/techrag/model"
)

var (
	// ErrDimensionMismatch is returned when the query embedding does not match the corpus dimension.
	ErrDimensionMismatch = pipeline.ErrDimensionMismatch
	// ErrEmptyQuery is returned for a blank query.
	ErrEmptyQuery = errors.New("query is empty")
)

// Service maps natural-language queries to ranked search results
type Service struct {
	engine    *Engine
	embed     pipeline.EmbedFunc
	dimension int
	defaults  helper.RagConfiguration
	log       *slog.Logger
}

// NewService creates a retrieval service. The embed function must be the one used at
// ingestion, dimension is the corpus embedding dimension.
func NewService(store Store, embed pipeline.EmbedFunc, dimension int, defaults helper.RagConfiguration, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, helper.NewError("retrieval service validation", fmt.Errorf("store is nil"))
	}
	if embed == nil {
		return nil, pipeline.ErrNoEmbedder
	}
	if dimension <= 0 {
		return nil, helper.NewError("retrieval service validation", fmt.Errorf("dimension must be positive, got %d", dimension))
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		engine:    NewEngine(store),
		embed:     embed,
		dimension: dimension,
		defaults:  defaults,
		log:       logger,
	}, nil
}

// Search embeds the query and runs hybrid search when the request filters by category
// or tag, plain similarity search otherwise. No result above the threshold is not an error.
func (s *Service) Search(ctx context.Context, query string, request *model.SearchRequest) ([]*model.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, helper.NewError("search", ErrEmptyQuery)
	}

	start := time.Now()

	embedding, err := s.embed(ctx, query)
	if err != nil {
		return nil, helper.NewError("embed query", err)
	}
	if len(embedding) != s.dimension {
		return nil, helper.NewError("search", fmt.Errorf("%w: query has %d dimensions, corpus has %d", ErrDimensionMismatch, len(embedding), s.dimension))
	}

	config := NewQueryConfig(query, request, s.defaults)
	strategy := s.engine.StrategyFor(request)

	results, err := strategy.Retrieve(ctx, embedding, config)
	if err != nil {
		return nil, helper.NewError("search", err)
	}

	s.log.Debug(
		"Search completed",
		"method", strategy.Method(),
		"results", len(results),
		"limit", config.Limit,
		"min_similarity", config.MinSimilarity,
		"elapsed", time.Since(start),
	)

	return results, nil
}

// Dimension returns the embedding dimension queries must have.
func (s *Service) Dimension() int {
	return s.dimension
}
