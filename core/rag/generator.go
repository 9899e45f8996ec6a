package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/siherrmann/techrag/core/provider"
	"github.com/siherrmann/techrag/core/retrieval"
	"github.com/siherrmann/techrag/helper"
	"github.com/siherrmann/techrag/model"
)

// ErrEmptyQuestion is returned for a blank question.
var ErrEmptyQuestion = errors.New("question is empty")

// Searcher returns ranked results for a query, implemented by retrieval.Service
type Searcher interface {
	Search(ctx context.Context, query string, request *model.SearchRequest) ([]*model.SearchResult, error)
}

// AugmentedGenerator answers questions from retrieved context
type AugmentedGenerator struct {
	searcher  Searcher
	builder   *ContextBuilder
	generator provider.Generator
	log       *slog.Logger
}

// NewAugmentedGenerator creates an augmented generator
func NewAugmentedGenerator(searcher Searcher, builder *ContextBuilder, generator provider.Generator, logger *slog.Logger) (*AugmentedGenerator, error) {
	if searcher == nil {
		return nil, helper.NewError("augmented generator validation", fmt.Errorf("searcher is nil"))
	}
	if generator == nil {
		return nil, helper.NewError("augmented generator validation", fmt.Errorf("generator is nil"))
	}
	if builder == nil {
		builder = NewContextBuilder(0, 0)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &AugmentedGenerator{
		searcher:  searcher,
		builder:   builder,
		generator: generator,
		log:       logger,
	}, nil
}

// Answer retrieves context for the question and generates an answer with its sources.
// Without any search result the generator is not called.
func (g *AugmentedGenerator) Answer(ctx context.Context, question string, request *model.SearchRequest) (*model.RagResponse, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, helper.NewError("answer", ErrEmptyQuestion)
	}

	start := time.Now()
	method := retrieval.MethodFor(request)

	results, err := g.searcher.Search(ctx, question, request)
	if err != nil {
		return nil, helper.NewError("retrieve context", err)
	}

	if len(results) == 0 {
		g.log.Info("No relevant context found", "question", question, "method", method)
		return &model.RagResponse{
			Answer:          NoInformationAnswer,
			Sources:         []*model.SearchResult{},
			Elapsed:         time.Since(start),
			RetrievalMethod: method,
		}, nil
	}

	contextText := g.builder.Build(results)
	prompt := BuildPrompt(question, contextText, Technologies(results))

	completion, err := g.generator.Generate(ctx, []provider.Message{
		{Role: provider.RoleSystem, Content: SystemPrompt},
		{Role: provider.RoleUser, Content: prompt},
	})
	if err != nil {
		return nil, helper.NewError("generate answer", err)
	}

	response := &model.RagResponse{
		Answer:          completion.Text,
		Sources:         results,
		Elapsed:         time.Since(start),
		Model:           completion.Model,
		RetrievalMethod: method,
	}

	g.log.Info(
		"Answered question",
		"sources", len(results),
		"context_tokens", g.builder.EstimateTokens(contextText),
		"model", response.Model,
		"elapsed", response.Elapsed,
	)

	return response, nil
}
