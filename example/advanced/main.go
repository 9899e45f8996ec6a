package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/siherrmann/techrag"
	"github.com/siherrmann/techrag/helper"
	"github.com/siherrmann/techrag/model"
)

// Ingests a corpus directory with the providers configured in the environment
// and compares plain and filtered retrieval before answering a question.
func main() {
	dir := flag.String("dir", "./corpus", "corpus directory")
	question := flag.String("question", "How do I make writes durable?", "question to answer")
	category := flag.String("category", "storage", "category used for the filtered search")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	config, err := helper.NewRagConfiguration()
	if err != nil {
		log.Fatalf("Failed to read configuration: %v", err)
	}

	tr, err := techrag.NewTechRag(dbConfig, *config)
	if err != nil {
		log.Fatalf("Failed to create techrag: %v", err)
	}
	defer tr.Close()

	if err := tr.UseProviders(ctx, helper.NewProviderConfiguration()); err != nil {
		log.Fatalf("Failed to set up providers: %v", err)
	}

	persisted, err := tr.IngestDirectory(ctx, *dir, techrag.IngestOptions{Reset: true})
	if err != nil {
		log.Fatalf("Failed to ingest %s: %v", *dir, err)
	}
	fmt.Printf("Persisted %d chunks from %s\n", persisted, *dir)

	// Example 1: Similarity search with the configured defaults
	fmt.Println("\n=== Similarity Search ===")
	results, err := tr.Search(ctx, *question, nil)
	if err != nil {
		log.Fatalf("Failed to search: %v", err)
	}
	printResults(results)

	// Example 2: Hybrid search, the category filter boosts matching chunks
	fmt.Printf("\n=== Hybrid Search (category %q) ===\n", *category)
	results, err = tr.Search(ctx, *question, &model.SearchRequest{Categories: []string{*category}, Limit: 5})
	if err != nil {
		log.Fatalf("Failed to search: %v", err)
	}
	printResults(results)

	// Example 3: Augmented answer
	fmt.Println("\n=== Answer ===")
	response, err := tr.Answer(ctx, *question, nil)
	if err != nil {
		log.Fatalf("Failed to answer: %v", err)
	}
	fmt.Println(response.Answer)
	fmt.Printf("\n%d sources, %s search, model %s, %s\n", len(response.Sources), response.RetrievalMethod, response.Model, response.Elapsed)
}

func printResults(results []*model.SearchResult) {
	if len(results) == 0 {
		fmt.Println("No results found.")
		return
	}
	for i, result := range results {
		title := ""
		if result.Chunk.Metadata != nil {
			title = result.Chunk.Metadata.Title
		}
		fmt.Printf("%d. [%s] %s score=%.3f similarity=%.3f lexical=%.3f\n",
			i+1, result.Chunk.Type, title, result.Score, result.SimilarityScore, result.LexicalScore)
	}
}
