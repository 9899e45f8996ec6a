package retrieval

import (
	"context"
	"errors"
	"sync"

	"github.com/siherrmann/techrag/model"
)

const testDim = 3

// storeCall records the arguments of one store search
type storeCall struct {
	method        model.RetrievalMethod
	embedding     []float32
	query         string
	categories    []string
	tags          []string
	vectorWeight  float64
	lexicalWeight float64
	limit         int
	threshold     float64
}

// fakeStore returns fixed results and records every call
type fakeStore struct {
	mu      sync.Mutex
	results []*model.SearchResult
	err     error
	calls   []storeCall
}

func (f *fakeStore) SelectChunksBySimilarity(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*model.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, storeCall{
		method:    model.RetrievalMethodVector,
		embedding: embedding,
		limit:     limit,
		threshold: threshold,
	})
	if f.err != nil {
		return nil, f.err
	}

	var results []*model.SearchResult
	for _, r := range f.results {
		if r.SimilarityScore >= threshold && len(results) < limit {
			copied := *r
			results = append(results, &copied)
		}
	}
	return results, nil
}

func (f *fakeStore) SelectChunksByHybrid(
	ctx context.Context,
	embedding []float32,
	query string,
	categories []string,
	tags []string,
	vectorWeight float64,
	lexicalWeight float64,
	limit int,
	minScore float64,
) ([]*model.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, storeCall{
		method:        model.RetrievalMethodHybrid,
		embedding:     embedding,
		query:         query,
		categories:    categories,
		tags:          tags,
		vectorWeight:  vectorWeight,
		lexicalWeight: lexicalWeight,
		limit:         limit,
		threshold:     minScore,
	})
	if f.err != nil {
		return nil, f.err
	}

	var results []*model.SearchResult
	for _, r := range f.results {
		copied := *r
		copied.Score = vectorWeight*r.SimilarityScore + lexicalWeight*r.LexicalScore
		if copied.Score >= minScore {
			results = append(results, &copied)
		}
	}
	return results, nil
}

func (f *fakeStore) lastCall() storeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func newResult(content string, priority int, similarity float64, lexical float64) *model.SearchResult {
	chunk := model.NewChunk(model.DocumentRID(content+".md"), 0, model.ChunkTypeContent, content, nil)
	chunk.Priority = priority
	return &model.SearchResult{
		Chunk:           chunk,
		Score:           similarity,
		SimilarityScore: similarity,
		LexicalScore:    lexical,
	}
}

func fixedEmbed(embedding []float32) func(ctx context.Context, text string) ([]float32, error) {
	return func(ctx context.Context, text string) ([]float32, error) {
		return embedding, nil
	}
}

func failingEmbed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("provider unavailable")
}
