package main

import (
	"time"

	"github.com/siherrmann/techrag"
	"github.com/spf13/cobra"
)

var (
	ingestReset      bool
	ingestExtensions []string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Ingest a directory of documents",
	Long: `Loads every document below the directory, splits it into summary, metadata,
code, content and full article chunks, embeds them in batches and stores them.
Documents that were ingested before are replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestReset, "reset", false, "delete all documents and chunks before ingesting")
	ingestCmd.Flags().StringSliceVar(&ingestExtensions, "ext", nil, "file extensions to load (default .md, .markdown, .txt)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	start := time.Now()

	tr, err := openTechRag(ctx, false)
	if err != nil {
		return err
	}
	defer tr.Close()

	persisted, err := tr.IngestDirectory(ctx, args[0], techrag.IngestOptions{
		Reset:      ingestReset,
		Extensions: ingestExtensions,
	})
	if err != nil {
		return err
	}

	cmd.Printf("Persisted %d chunks in %s\n", persisted, time.Since(start).Round(time.Millisecond))
	return nil
}
