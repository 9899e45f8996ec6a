package rag

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/siherrmann/techrag/model"
)

// TruncationMarker ends a block whose content was cut to fit the budget.
const TruncationMarker = "\n[...truncated]"

const blockSeparator = "\n\n"

// ContextBuilder assembles ranked results into a context block of bounded size.
// Sizes are estimated with a fixed characters per token ratio.
type ContextBuilder struct {
	Budget        int // In estimated tokens
	CharsPerToken int
}

// NewContextBuilder creates a context builder, non-positive values use the defaults.
func NewContextBuilder(budget int, charsPerToken int) *ContextBuilder {
	if budget <= 0 {
		budget = 8000
	}
	if charsPerToken <= 0 {
		charsPerToken = 4
	}
	return &ContextBuilder{
		Budget:        budget,
		CharsPerToken: charsPerToken,
	}
}

// EstimateTokens returns the estimated token count of text, rounded up.
func (b *ContextBuilder) EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + b.CharsPerToken - 1) / b.CharsPerToken
}

// Build renders results by descending score until the budget is used up.
// A result that does not fit completely is truncated to the remaining budget,
// everything after it is left out.
func (b *ContextBuilder) Build(results []*model.SearchResult) string {
	ordered := make([]*model.SearchResult, 0, len(results))
	for _, r := range results {
		if r != nil && r.Chunk != nil {
			ordered = append(ordered, r)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Score > ordered[j].Score
	})

	maxRunes := b.Budget * b.CharsPerToken
	used := 0

	var out strings.Builder
	for i, result := range ordered {
		separator := 0
		if i > 0 {
			separator = utf8.RuneCountInString(blockSeparator)
		}

		header := renderHeader(i+1, result)
		content := result.Chunk.Content
		size := separator + utf8.RuneCountInString(header) + utf8.RuneCountInString(content)

		if used+size <= maxRunes {
			if i > 0 {
				out.WriteString(blockSeparator)
			}
			out.WriteString(header)
			out.WriteString(content)
			used += size
			continue
		}

		available := maxRunes - used - separator - utf8.RuneCountInString(header) - utf8.RuneCountInString(TruncationMarker)
		if available > 0 {
			if i > 0 {
				out.WriteString(blockSeparator)
			}
			out.WriteString(header)
			out.WriteString(truncateRunes(content, available))
			out.WriteString(TruncationMarker)
		}
		break
	}

	return out.String()
}

func renderHeader(index int, result *model.SearchResult) string {
	chunk := result.Chunk

	title := "Untitled"
	category := ""
	var tags []string
	if chunk.Metadata != nil {
		if chunk.Metadata.Title != "" {
			title = chunk.Metadata.Title
		}
		category = chunk.Metadata.Category
		tags = chunk.Metadata.Tags
	}

	var header strings.Builder
	fmt.Fprintf(&header, "[Source %d] %s\n", index, title)
	if category != "" {
		fmt.Fprintf(&header, "Category: %s\n", category)
	}
	if len(tags) > 0 {
		fmt.Fprintf(&header, "Tags: %s\n", strings.Join(tags, ", "))
	}
	fmt.Fprintf(&header, "Relevance: %.2f\n", result.Score)
	if chunk.Language != "" {
		fmt.Fprintf(&header, "Type: %s (%s)\n", chunk.Type, chunk.Language)
	} else {
		fmt.Fprintf(&header, "Type: %s\n", chunk.Type)
	}
	header.WriteString("Content:\n")

	return header.String()
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
