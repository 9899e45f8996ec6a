package rag

import (
	"strings"
	"testing"

	"github.com/siherrmann/techrag/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResult(title string, content string, score float64) *model.SearchResult {
	metadata := &model.DocumentMetadata{
		Title:        title,
		Category:     "storage",
		Tags:         []string{"cache", "redis"},
		Technologies: []string{"Redis"},
	}
	chunk := model.NewChunk(model.DocumentRID(title+".md"), 0, model.ChunkTypeContent, content, metadata)
	return &model.SearchResult{
		Chunk:           chunk,
		Score:           score,
		SimilarityScore: score,
	}
}

func TestContextBuilderBuild(t *testing.T) {
	t.Run("All results fit in descending score order", func(t *testing.T) {
		builder := NewContextBuilder(1000, 4)
		out := builder.Build([]*model.SearchResult{
			newResult("Low", "second content", 0.71),
			newResult("High", "first content", 0.93),
		})

		assert.Contains(t, out, "[Source 1] High")
		assert.Contains(t, out, "[Source 2] Low")
		assert.Less(t, strings.Index(out, "first content"), strings.Index(out, "second content"), "Expected higher score first")
		assert.Contains(t, out, "Category: storage")
		assert.Contains(t, out, "Tags: cache, redis")
		assert.Contains(t, out, "Relevance: 0.93")
		assert.NotContains(t, out, TruncationMarker)
	})

	t.Run("Overflowing result is truncated with marker", func(t *testing.T) {
		builder := NewContextBuilder(80, 4)
		out := builder.Build([]*model.SearchResult{
			newResult("First", strings.Repeat("a", 50), 0.9),
			newResult("Second", strings.Repeat("b", 500), 0.8),
			newResult("Third", "never included", 0.7),
		})

		assert.LessOrEqual(t, builder.EstimateTokens(out), builder.Budget, "Expected output within budget")
		assert.True(t, strings.HasSuffix(out, TruncationMarker), "Expected truncated block to end with the marker")
		assert.Contains(t, out, "[Source 2] Second")
		assert.NotContains(t, out, "never included")
	})

	t.Run("Budget never exceeded", func(t *testing.T) {
		for _, budget := range []int{1, 10, 25, 50, 100, 250} {
			builder := NewContextBuilder(budget, 4)
			results := make([]*model.SearchResult, 0, 10)
			for i := range 10 {
				results = append(results, newResult("Doc", strings.Repeat("x", 40*(i+1)), 1-float64(i)/10))
			}
			out := builder.Build(results)
			assert.LessOrEqual(t, builder.EstimateTokens(out), budget, "Expected output within budget %d", budget)
		}
	})

	t.Run("No budget left for a block stops without marker", func(t *testing.T) {
		builder := NewContextBuilder(1, 4)
		out := builder.Build([]*model.SearchResult{newResult("Only", "content", 0.9)})
		assert.Empty(t, out, "Expected nothing when even the header does not fit")
	})

	t.Run("Empty results", func(t *testing.T) {
		builder := NewContextBuilder(100, 4)
		assert.Empty(t, builder.Build(nil))
	})

	t.Run("Code chunk shows language", func(t *testing.T) {
		builder := NewContextBuilder(100, 4)
		result := newResult("Code", "fmt.Println(1)", 0.9)
		result.Chunk.Type = model.ChunkTypeCode
		result.Chunk.Language = "go"
		out := builder.Build([]*model.SearchResult{result})
		assert.Contains(t, out, "Type: code (go)")
	})
}

func TestContextBuilderEstimateTokens(t *testing.T) {
	builder := NewContextBuilder(0, 0)
	require.Equal(t, 8000, builder.Budget, "Expected default budget")
	require.Equal(t, 4, builder.CharsPerToken, "Expected default ratio")

	assert.Equal(t, 0, builder.EstimateTokens(""))
	assert.Equal(t, 1, builder.EstimateTokens("abc"))
	assert.Equal(t, 2, builder.EstimateTokens("abcde"))
	assert.Equal(t, 1, builder.EstimateTokens("äöüß"), "Expected runes to be counted, not bytes")
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "ab", truncateRunes("abcdef", 2))
	assert.Equal(t, "äö", truncateRunes("äöü", 2))
	assert.Equal(t, "abc", truncateRunes("abc", 10))
	assert.Equal(t, "", truncateRunes("abc", 0))
}
