package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/siherrmann/techrag"
	"github.com/siherrmann/techrag/core/provider"
	"github.com/siherrmann/techrag/helper"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "techrag",
	Short: "Question answering over a technical markdown corpus",
	Long: `techrag ingests a directory of technical markdown articles into PostgreSQL
with pgvector and answers questions from the most relevant chunks.

Database, tuning and provider settings are read from the environment or a .env file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// openTechRag connects to the database and configures the providers.
// The generation provider is only created when withGenerator is set.
func openTechRag(ctx context.Context, withGenerator bool) (*techrag.TechRag, error) {
	dbConfig, err := helper.NewDatabaseConfiguration()
	if err != nil {
		return nil, err
	}
	config, err := helper.NewRagConfiguration()
	if err != nil {
		return nil, err
	}

	tr, err := techrag.NewTechRag(dbConfig, *config)
	if err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	if err := tr.SetLogger(helper.NewLogger(os.Stderr, level)); err != nil {
		tr.Close()
		return nil, err
	}

	providers := helper.NewProviderConfiguration()

	embedder, err := provider.NewEmbedder(ctx, providers, config.EmbeddingDim)
	if err != nil {
		tr.Close()
		return nil, err
	}
	if err := tr.SetEmbedder(embedder); err != nil {
		tr.Close()
		return nil, err
	}

	if withGenerator {
		generator, err := provider.NewGenerator(ctx, providers)
		if err != nil {
			tr.Close()
			return nil, err
		}
		if err := tr.SetGenerator(generator); err != nil {
			tr.Close()
			return nil, err
		}
	}

	return tr, nil
}
