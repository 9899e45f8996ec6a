package main

import (
	"github.com/spf13/cobra"
)

var askOptions searchFlags

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the ingested corpus",
	Long: `Retrieves the most relevant chunks for the question and lets the configured
generation provider answer from them. The answer cites its sources.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askOptions.register(askCmd)
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	tr, err := openTechRag(ctx, true)
	if err != nil {
		return err
	}
	defer tr.Close()

	response, err := tr.Answer(ctx, args[0], askOptions.request())
	if err != nil {
		return err
	}

	if askOptions.json {
		return outputJSON(cmd, response)
	}
	outputResponse(cmd, response)
	return nil
}
