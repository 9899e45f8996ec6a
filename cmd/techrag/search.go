package main

import (
	"github.com/spf13/cobra"
)

var searchOptions searchFlags

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search ingested chunks",
	Long: `Embeds the query and returns the most similar chunks.
With category or tag filters the ranking combines vector similarity with lexical matching.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchOptions.register(searchCmd)
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	tr, err := openTechRag(ctx, false)
	if err != nil {
		return err
	}
	defer tr.Close()

	results, err := tr.Search(ctx, args[0], searchOptions.request())
	if err != nil {
		return err
	}

	if searchOptions.json {
		return outputJSON(cmd, results)
	}
	outputResults(cmd, results)
	return nil
}
