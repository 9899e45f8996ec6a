package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/siherrmann/techrag/model"
	"github.com/spf13/cobra"
)

// searchFlags are the retrieval flags shared by search and ask
type searchFlags struct {
	limit         int
	minSimilarity float64
	categories    []string
	tags          []string
	json          bool
}

func (f *searchFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.limit, "limit", "n", 0, "maximum number of results (default from TECHRAG_SEARCH_LIMIT)")
	cmd.Flags().Float64Var(&f.minSimilarity, "min-similarity", -1, "minimum similarity, or minimum combined score with filters")
	cmd.Flags().StringSliceVarP(&f.categories, "category", "c", nil, "filter by category, enables hybrid search")
	cmd.Flags().StringSliceVarP(&f.tags, "tag", "t", nil, "filter by tag, enables hybrid search")
	cmd.Flags().BoolVar(&f.json, "json", false, "output as JSON")
}

func (f *searchFlags) request() *model.SearchRequest {
	request := &model.SearchRequest{
		Categories: f.categories,
		Tags:       f.tags,
		Limit:      f.limit,
	}
	if f.minSimilarity >= 0 {
		request.MinSimilarity = model.Float(f.minSimilarity)
	}
	return request
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputResults(cmd *cobra.Command, results []*model.SearchResult) {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return
	}

	for i, result := range results {
		title := "Untitled"
		if result.Chunk.Metadata != nil && result.Chunk.Metadata.Title != "" {
			title = result.Chunk.Metadata.Title
		}

		cmd.Printf("  [%d] %s (%.2f, %s)\n", i+1, title, result.Score, result.Chunk.Type)
		if result.Chunk.Metadata != nil && result.Chunk.Metadata.SourceURL != "" {
			cmd.Printf("      Source: %s\n", result.Chunk.Metadata.SourceURL)
		}
		cmd.Printf("      %s\n", snippet(result.Chunk.Content, 160))
	}
}

func outputResponse(cmd *cobra.Command, response *model.RagResponse) {
	cmd.Println(response.Answer)
	cmd.Println()

	if len(response.Sources) > 0 {
		cmd.Println("Sources:")
		outputResults(cmd, response.Sources)
		cmd.Println()
	}

	modelName := response.Model
	if modelName == "" {
		modelName = "none"
	}
	cmd.Printf("Answered in %s by %s (%s search)\n", response.Elapsed.Round(time.Millisecond), modelName, response.RetrievalMethod)
}

func snippet(content string, maxRunes int) string {
	content = strings.Join(strings.Fields(content), " ")
	runes := []rune(content)
	if len(runes) <= maxRunes {
		return content
	}
	return string(runes[:maxRunes]) + "..."
}
