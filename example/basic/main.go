package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/siherrmann/techrag"
	"github.com/siherrmann/techrag/core/pipeline"
	"github.com/siherrmann/techrag/core/provider"
	"github.com/siherrmann/techrag/helper"
	"github.com/siherrmann/techrag/model"
)

const sampleContent = `---
title: Caching Results in Go
category: performance
difficulty_level: beginner
technologies: [Go]
programming_languages: [go]
tags: [cache, memoization]
summary: Memoize expensive pure functions with a map guarded by a mutex.
---
# Memoization

Expensive pure functions can be memoized by storing their results in a map keyed by the input.
Every call first looks up the key and only computes the value when it is missing, which turns
repeated calls into a cheap map lookup.

` + "```go\ntype Cache struct {\n\tmu     sync.Mutex\n\tvalues map[string]int\n}\n\nfunc (c *Cache) Get(key string, compute func() int) int {\n\tc.mu.Lock()\n\tdefer c.mu.Unlock()\n\tif v, ok := c.values[key]; ok {\n\t\treturn v\n\t}\n\tv := compute()\n\tc.values[key] = v\n\treturn v\n}\n```" + `

# Eviction

An unbounded cache grows forever. A least recently used policy keeps the memory bounded by
evicting the entry that was not read for the longest time whenever the cache is full.
`

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	// The local embedder produces 384 dimensions
	config := helper.DefaultRagConfiguration()
	config.EmbeddingDim = pipeline.DefaultEmbeddingDim

	tr, err := techrag.NewTechRag(dbConfig, config)
	if err != nil {
		log.Fatalf("Failed to create techrag: %v", err)
	}
	defer tr.Close()

	if err := tr.UseDefaultPipeline(); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	ctx := context.Background()

	doc := &model.Document{
		Title:   "caching",
		Source:  "basic_example/caching.md",
		Content: sampleContent,
	}

	fmt.Println("Ingesting document...")
	persisted, err := tr.IngestDocument(ctx, doc)
	if err != nil {
		log.Fatalf("Failed to ingest document: %v", err)
	}
	fmt.Printf("Document stored with RID: %s\n", doc.RID)
	fmt.Printf("Persisted %d chunks\n", persisted)

	queryText := "How do I cache results of a function?"
	fmt.Printf("\nQuerying: %s\n", queryText)

	results, err := tr.Search(ctx, queryText, &model.SearchRequest{Limit: 5, MinSimilarity: model.Float(0.2)})
	if err != nil {
		log.Fatalf("Failed to search: %v", err)
	}

	fmt.Printf("\nFound %d results:\n", len(results))
	for i, result := range results {
		fmt.Printf("\n--- Result %d ---\n", i+1)
		fmt.Printf("Score: %.4f\n", result.Score)
		fmt.Printf("Type: %s\n", result.Chunk.Type)
		fmt.Printf("Content: %s\n", result.Chunk.Content)
	}

	// Answering needs a generation provider
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		fmt.Println("\nSet ANTHROPIC_API_KEY to also generate an answer.")
		return
	}

	generator, err := provider.NewClaudeGenerator(apiKey, "", 0)
	if err != nil {
		log.Fatalf("Failed to create generator: %v", err)
	}
	if err := tr.SetGenerator(generator); err != nil {
		log.Fatalf("Failed to set generator: %v", err)
	}

	response, err := tr.Answer(ctx, queryText, &model.SearchRequest{MinSimilarity: model.Float(0.2)})
	if err != nil {
		log.Fatalf("Failed to answer: %v", err)
	}

	fmt.Printf("\nAnswer (%s, %s):\n%s\n", response.Model, response.Elapsed, response.Answer)
	fmt.Println("\nBasic example completed successfully!")
}
