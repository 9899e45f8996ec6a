package main

import (
	"github.com/siherrmann/techrag/database"
	"github.com/spf13/cobra"
)

var indexOptions database.IndexOptions

var indexCmd = &cobra.Command{
	Use:   "index [hnsw|ivfflat]",
	Short: "Rebuild the vector index",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().IntVar(&indexOptions.M, "m", 0, "HNSW max connections per layer (default 16)")
	indexCmd.Flags().IntVar(&indexOptions.EfConstruction, "ef-construction", 0, "HNSW candidate list size (default 64)")
	indexCmd.Flags().IntVar(&indexOptions.Lists, "lists", 0, "IVFFlat number of lists (default 100)")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	indexType, err := database.ParseIndexType(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	tr, err := openTechRag(ctx, false)
	if err != nil {
		return err
	}
	defer tr.Close()

	if err := tr.ChangeIndexType(ctx, indexType, indexOptions); err != nil {
		return err
	}

	cmd.Printf("Rebuilt vector index as %s\n", indexType)
	return nil
}
