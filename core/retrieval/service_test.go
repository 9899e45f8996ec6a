package retrieval

import (
	"context"
	"testing"

	"github.com/siherrmann/techrag/core/pipeline"
	"github.com/siherrmann/techrag/helper"
	"github.com/siherrmann/techrag/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewService(t *testing.T) {
	defaults := helper.DefaultRagConfiguration()

	t.Run("Valid call NewService", func(t *testing.T) {
		service, err := NewService(&fakeStore{}, fixedEmbed([]float32{1, 0, 0}), testDim, defaults, nil)
		assert.NoError(t, err, "Expected NewService to not return an error")
		assert.Equal(t, testDim, service.Dimension())
	})

	t.Run("Invalid call NewService without embedder", func(t *testing.T) {
		_, err := NewService(&fakeStore{}, nil, testDim, defaults, nil)
		assert.ErrorIs(t, err, pipeline.ErrNoEmbedder)
	})

	t.Run("Invalid call NewService without store", func(t *testing.T) {
		_, err := NewService(nil, fixedEmbed([]float32{1, 0, 0}), testDim, defaults, nil)
		assert.Error(t, err, "Expected NewService to return an error")
	})

	t.Run("Invalid call NewService with zero dimension", func(t *testing.T) {
		_, err := NewService(&fakeStore{}, fixedEmbed([]float32{1, 0, 0}), 0, defaults, nil)
		assert.Error(t, err, "Expected NewService to return an error")
	})
}

func TestServiceSearch(t *testing.T) {
	ctx := context.Background()
	defaults := helper.DefaultRagConfiguration()

	t.Run("Plain search returns results above default threshold", func(t *testing.T) {
		store := &fakeStore{results: []*model.SearchResult{
			newResult("memoize", 2, 0.75, 0),
			newResult("lru cache", 2, 0.92, 0),
			newResult("tcp", 2, 0.3, 0),
		}}
		service, err := NewService(store, fixedEmbed([]float32{1, 0, 0}), testDim, defaults, nil)
		require.NoError(t, err)

		results, err := service.Search(ctx, "how to cache results", nil)
		assert.NoError(t, err, "Expected Search to not return an error")
		require.Len(t, results, 2)
		assert.Equal(t, "lru cache", results[0].Chunk.Content)
		assert.Equal(t, "memoize", results[1].Chunk.Content)

		call := store.lastCall()
		assert.Equal(t, model.RetrievalMethodVector, call.method, "Expected similarity search without filters")
		assert.Equal(t, 10, call.limit)
		assert.Equal(t, 0.7, call.threshold)
	})

	t.Run("Filtered search uses hybrid", func(t *testing.T) {
		store := &fakeStore{results: []*model.SearchResult{newResult("wal", 2, 0.6, 1)}}
		service, err := NewService(store, fixedEmbed([]float32{1, 0, 0}), testDim, defaults, nil)
		require.NoError(t, err)

		results, err := service.Search(ctx, "write ahead log", &model.SearchRequest{Categories: []string{"storage"}})
		assert.NoError(t, err, "Expected Search to not return an error")
		require.Len(t, results, 1)
		assert.Equal(t, model.RetrievalMethodHybrid, results[0].RetrievalMethod)

		call := store.lastCall()
		assert.Equal(t, model.RetrievalMethodHybrid, call.method, "Expected hybrid search with filters")
		assert.Equal(t, "write ahead log", call.query)
		assert.Equal(t, []string{"storage"}, call.categories)
	})

	t.Run("No results is not an error", func(t *testing.T) {
		service, err := NewService(&fakeStore{}, fixedEmbed([]float32{1, 0, 0}), testDim, defaults, nil)
		require.NoError(t, err)

		results, err := service.Search(ctx, "unknown topic", nil)
		assert.NoError(t, err, "Expected empty result to not be an error")
		assert.Empty(t, results)
	})

	t.Run("Dimension mismatch fails before searching", func(t *testing.T) {
		store := &fakeStore{}
		service, err := NewService(store, fixedEmbed([]float32{1, 0}), testDim, defaults, nil)
		require.NoError(t, err)

		_, err = service.Search(ctx, "cache", nil)
		assert.ErrorIs(t, err, ErrDimensionMismatch)
		assert.Empty(t, store.calls, "Expected no store call on mismatch")
	})

	t.Run("Embedding failure propagates", func(t *testing.T) {
		service, err := NewService(&fakeStore{}, failingEmbed, testDim, defaults, nil)
		require.NoError(t, err)

		_, err = service.Search(ctx, "cache", nil)
		assert.ErrorContains(t, err, "provider unavailable")
	})

	t.Run("Blank query", func(t *testing.T) {
		service, err := NewService(&fakeStore{}, fixedEmbed([]float32{1, 0, 0}), testDim, defaults, nil)
		require.NoError(t, err)

		_, err = service.Search(ctx, "  ", nil)
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})
}
