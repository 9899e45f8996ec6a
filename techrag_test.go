package techrag

import (
	"context"
	"errors"
	"hash/fnv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/siherrmann/techrag/core/pipeline"
	"github.com/siherrmann/techrag/core/provider"
	"github.com/siherrmann/techrag/core/rag"
	"github.com/siherrmann/techrag/helper"
	"github.com/siherrmann/techrag/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEmbeddingDim = 16

// testEmbedder hashes the words of a text into a bag of words vector.
// Texts sharing words get similar vectors.
func testEmbedder(dimension int) pipeline.EmbedFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		embedding := make([]float32, dimension)
		embedding[0] = 0.01
		for _, word := range strings.Fields(strings.ToLower(text)) {
			h := fnv.New32a()
			_, _ = h.Write([]byte(strings.Trim(word, ".,:;!?#`")))
			embedding[h.Sum32()%uint32(dimension)]++
		}
		return embedding, nil
	}
}

type testGenerator struct {
	calls atomic.Int32
}

func (g *testGenerator) Generate(ctx context.Context, messages []provider.Message) (*provider.Completion, error) {
	g.calls.Add(1)
	return &provider.Completion{Text: "Write the log before the page [Source 1].", Model: "test-model"}, nil
}

const storageArticle = `---
title: Write Ahead Logging
category: storage
difficulty_level: intermediate
technologies: [PostgreSQL]
tags: [storage, database, wal]
summary: A write ahead log makes page writes durable.
---
# Write ahead log

A write ahead log records every change before the changed page is written to disk,
so a crash can always be recovered by replaying the log from the last checkpoint.

` + "```go\nfunc appendRecord(log *os.File, record []byte) error {\n\t_, err := log.Write(record)\n\treturn err\n}\n```" + `

# Checkpoints

Checkpoints flush dirty pages and allow the storage engine to truncate old log segments,
keeping recovery time bounded even for very write heavy workloads on large databases.
`

const networkArticle = `---
title: TCP Congestion Control
category: networking
tags: [tcp]
---
# Congestion windows

The congestion window limits how many unacknowledged segments a sender may have in flight,
growing on acknowledgements and shrinking on loss to share the link between connections.
`

func writeCorpus(t *testing.T) string {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "storage"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "storage", "wal.md"), []byte(storageArticle), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tcp.md"), []byte(networkArticle), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.json"), []byte(`{"ignored": true}`), 0o644))
	return dir
}

func initTechRag(t *testing.T) *TechRag {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")

	config := helper.DefaultRagConfiguration()
	config.EmbeddingDim = testEmbeddingDim
	config.BatchSize = 3
	config.BatchDelay = 0

	tr, err := NewTechRag(dbConfig, config)
	require.NoError(t, err, "failed to create techrag")
	require.NotNil(t, tr, "expected techrag to be non-nil")

	t.Cleanup(func() {
		tr.Close()
	})

	return tr
}

func expectedChunkCount(t *testing.T, tr *TechRag, dir string) int {
	documents, err := pipeline.LoadDocuments(context.Background(), dir, nil, nil)
	require.NoError(t, err)
	chunked, err := pipeline.ChunkDocuments(context.Background(), documents, tr.Pipeline.Chunker, 1, nil)
	require.NoError(t, err)
	return len(pipeline.AllChunks(chunked))
}

func TestNewTechRag(t *testing.T) {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err)

	t.Run("Valid call NewTechRag", func(t *testing.T) {
		config := helper.DefaultRagConfiguration()
		config.EmbeddingDim = testEmbeddingDim

		tr, err := NewTechRag(dbConfig, config)
		require.NoError(t, err, "Expected NewTechRag to not return an error")
		require.NotNil(t, tr, "Expected NewTechRag to return a non-nil instance")
		assert.NotNil(t, tr.DB, "Expected techrag to have a database instance")
		assert.NotNil(t, tr.Chunks, "Expected techrag to have chunks handler")
		assert.NotNil(t, tr.Documents, "Expected techrag to have documents handler")
		assert.NotNil(t, tr.Pipeline.Chunker, "Expected chunker to be set")
		assert.Nil(t, tr.Pipeline.Embedder, "Expected embedder to be nil initially")
		assert.Nil(t, tr.Retrieval, "Expected retrieval to be nil initially")

		err = tr.Close()
		assert.NoError(t, err, "Expected Close to not return an error")
	})

	t.Run("Invalid call NewTechRag with invalid configuration", func(t *testing.T) {
		config := helper.DefaultRagConfiguration()
		config.BatchSize = 0

		_, err := NewTechRag(dbConfig, config)
		assert.Error(t, err, "Expected NewTechRag to return an error")
	})

	t.Run("TechRag with nil database handles Close gracefully", func(t *testing.T) {
		tr := &TechRag{}
		err := tr.Close()
		assert.NoError(t, err, "Expected Close to handle nil DB gracefully")
	})
}

func TestSetEmbedderAndGenerator(t *testing.T) {
	tr := initTechRag(t)

	t.Run("Generator before embedder", func(t *testing.T) {
		err := tr.SetGenerator(&testGenerator{})
		assert.NoError(t, err, "Expected SetGenerator to not return an error")
		assert.Nil(t, tr.Generator, "Expected no augmented generator without embedder")
	})

	t.Run("Embedder completes the setup", func(t *testing.T) {
		err := tr.SetEmbedder(testEmbedder(testEmbeddingDim))
		assert.NoError(t, err, "Expected SetEmbedder to not return an error")
		assert.NotNil(t, tr.Retrieval, "Expected retrieval service to be set")
		assert.NotNil(t, tr.Generator, "Expected augmented generator to be set")
	})

	t.Run("Nil embedder", func(t *testing.T) {
		err := tr.SetEmbedder(nil)
		assert.ErrorIs(t, err, pipeline.ErrNoEmbedder)
	})

	t.Run("Nil generator", func(t *testing.T) {
		err := tr.SetGenerator(nil)
		assert.Error(t, err, "Expected SetGenerator to return an error")
	})

	t.Run("Default pipeline with wrong dimension", func(t *testing.T) {
		err := tr.UseDefaultPipeline()
		assert.ErrorContains(t, err, "dimensions")
	})

	t.Run("Local provider with wrong dimension", func(t *testing.T) {
		err := tr.UseProviders(context.Background(), &helper.ProviderConfiguration{
			EmbeddingProvider:  "local",
			GenerationProvider: "anthropic",
			AnthropicAPIKey:    "key",
		})
		assert.ErrorIs(t, err, pipeline.ErrDimensionMismatch, "Expected the local embedder to be rejected for the chunks table")
	})

	t.Run("SetLogger rebuilds the services", func(t *testing.T) {
		service, generator := tr.Retrieval, tr.Generator

		err := tr.SetLogger(helper.NewLogger(io.Discard, slog.LevelDebug))
		assert.NoError(t, err, "Expected SetLogger to not return an error")
		assert.NotSame(t, service, tr.Retrieval, "Expected retrieval service to be rebuilt")
		assert.NotSame(t, generator, tr.Generator, "Expected augmented generator to be rebuilt")
	})

	t.Run("SetLogger with nil logger", func(t *testing.T) {
		err := tr.SetLogger(nil)
		assert.Error(t, err, "Expected SetLogger to return an error")
	})
}

func TestIngestDirectory(t *testing.T) {
	tr := initTechRag(t)
	ctx := context.Background()
	dir := writeCorpus(t)

	t.Run("Error when embedder not set", func(t *testing.T) {
		_, err := tr.IngestDirectory(ctx, dir, IngestOptions{})
		assert.ErrorContains(t, err, "embedder not set")
	})

	require.NoError(t, tr.SetEmbedder(testEmbedder(testEmbeddingDim)))
	expected := expectedChunkCount(t, tr, dir)

	t.Run("Ingest corpus", func(t *testing.T) {
		persisted, err := tr.IngestDirectory(ctx, dir, IngestOptions{Reset: true})
		assert.NoError(t, err, "Expected IngestDirectory to not return an error")
		assert.Equal(t, expected, persisted, "Expected every chunk to be persisted")

		count, err := tr.Chunks.CountChunks(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(expected), count)

		doc, err := tr.Documents.SelectDocument(ctx, model.DocumentRID("storage/wal.md"))
		require.NoError(t, err, "Expected document to be registered")
		assert.Equal(t, "Write Ahead Logging", doc.Title)
		assert.Equal(t, "storage", doc.Metadata.Category)
	})

	t.Run("Re-ingestion is idempotent", func(t *testing.T) {
		persisted, err := tr.IngestDirectory(ctx, dir, IngestOptions{})
		assert.NoError(t, err, "Expected IngestDirectory to not return an error")
		assert.Equal(t, expected, persisted)

		count, err := tr.Chunks.CountChunks(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(expected), count, "Expected no duplicate chunks")
	})

	t.Run("Reset removes documents no longer in the corpus", func(t *testing.T) {
		require.NoError(t, os.Remove(filepath.Join(dir, "tcp.md")))
		smaller := expectedChunkCount(t, tr, dir)

		persisted, err := tr.IngestDirectory(ctx, dir, IngestOptions{Reset: true})
		assert.NoError(t, err)
		assert.Equal(t, smaller, persisted)

		count, err := tr.Chunks.CountChunks(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(smaller), count)
	})

	t.Run("Failing embeddings are dropped", func(t *testing.T) {
		var calls atomic.Int32
		embed := testEmbedder(testEmbeddingDim)
		require.NoError(t, tr.SetEmbedder(func(ctx context.Context, text string) ([]float32, error) {
			if calls.Add(1) == 1 {
				return nil, errors.New("provider unavailable")
			}
			return embed(ctx, text)
		}))
		t.Cleanup(func() {
			_ = tr.SetEmbedder(embed)
		})

		persisted, err := tr.IngestDirectory(ctx, dir, IngestOptions{Reset: true})
		assert.NoError(t, err, "Expected a single embedding failure to not fail ingestion")
		assert.Equal(t, expectedChunkCount(t, tr, dir)-1, persisted)
	})

	t.Run("Wrong embedding dimension fails ingestion", func(t *testing.T) {
		require.NoError(t, tr.SetEmbedder(testEmbedder(testEmbeddingDim+1)))
		t.Cleanup(func() {
			_ = tr.SetEmbedder(testEmbedder(testEmbeddingDim))
		})

		persisted, err := tr.IngestDirectory(ctx, dir, IngestOptions{Reset: true})
		assert.ErrorIs(t, err, pipeline.ErrDimensionMismatch, "Expected a dimension mismatch to fail ingestion")
		assert.Zero(t, persisted)
	})

	t.Run("Missing directory", func(t *testing.T) {
		_, err := tr.IngestDirectory(ctx, filepath.Join(dir, "missing"), IngestOptions{})
		assert.Error(t, err, "Expected IngestDirectory to return an error")
	})
}

func TestIngestDocument(t *testing.T) {
	tr := initTechRag(t)
	ctx := context.Background()
	require.NoError(t, tr.SetEmbedder(testEmbedder(testEmbeddingDim)))

	t.Run("Ingest single document", func(t *testing.T) {
		doc := &model.Document{
			Title:   "TCP",
			Source:  "single/tcp.md",
			Content: networkArticle,
		}

		persisted, err := tr.IngestDocument(ctx, doc)
		assert.NoError(t, err, "Expected IngestDocument to not return an error")
		assert.Greater(t, persisted, 0, "Expected at least one chunk")
		assert.Equal(t, model.DocumentRID("single/tcp.md"), doc.RID, "Expected document RID to be set")

		chunks, err := tr.Chunks.SelectChunksByDocument(ctx, doc.RID)
		require.NoError(t, err)
		assert.Len(t, chunks, persisted)
		assert.Equal(t, model.ChunkTypeFullArticle, chunks[len(chunks)-1].Type)

		t.Cleanup(func() {
			_ = tr.Documents.DeleteDocument(ctx, doc.RID)
		})
	})

	t.Run("Error when content is empty", func(t *testing.T) {
		persisted, err := tr.IngestDocument(ctx, &model.Document{Title: "Empty"})
		assert.ErrorContains(t, err, "content is empty")
		assert.Equal(t, 0, persisted)
	})
}

func TestSearchAndAnswer(t *testing.T) {
	tr := initTechRag(t)
	ctx := context.Background()
	generator := &testGenerator{}

	require.NoError(t, tr.SetEmbedder(testEmbedder(testEmbeddingDim)))
	require.NoError(t, tr.SetGenerator(generator))

	_, err := tr.IngestDirectory(ctx, writeCorpus(t), IngestOptions{Reset: true})
	require.NoError(t, err)

	t.Run("Similarity search", func(t *testing.T) {
		results, err := tr.Search(ctx, "write ahead log checkpoint recovery", &model.SearchRequest{MinSimilarity: model.Float(0.1)})
		assert.NoError(t, err, "Expected Search to not return an error")
		require.NotEmpty(t, results)
		assert.Equal(t, model.RetrievalMethodVector, results[0].RetrievalMethod)
		assert.Equal(t, model.DocumentRID("storage/wal.md"), results[0].Chunk.DocumentRID)
		for i := 1; i < len(results); i++ {
			assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score, "Expected descending scores")
		}
	})

	t.Run("Hybrid search with category filter", func(t *testing.T) {
		results, err := tr.Search(ctx, "congestion window", &model.SearchRequest{Categories: []string{"Storage"}})
		assert.NoError(t, err, "Expected Search to not return an error")
		require.NotEmpty(t, results)
		storageFound := false
		for _, result := range results {
			assert.Equal(t, model.RetrievalMethodHybrid, result.RetrievalMethod)
			if result.Chunk.Metadata != nil && result.Chunk.Metadata.Category == "storage" {
				storageFound = true
				assert.Greater(t, result.LexicalScore, 0.0, "Expected a lexical score for the category match")
			}
		}
		assert.True(t, storageFound, "Expected chunks of the filtered category in the results")
	})

	t.Run("Answer with sources", func(t *testing.T) {
		response, err := tr.Answer(ctx, "How does a write ahead log work?", &model.SearchRequest{MinSimilarity: model.Float(0.1)})
		assert.NoError(t, err, "Expected Answer to not return an error")
		assert.Equal(t, "test-model", response.Model)
		assert.NotEmpty(t, response.Sources)
		assert.Equal(t, int32(1), generator.calls.Load())
	})

	t.Run("Answer without results does not call the generator", func(t *testing.T) {
		before := generator.calls.Load()
		response, err := tr.Answer(ctx, "quantum chromodynamics lattice", &model.SearchRequest{MinSimilarity: model.Float(0.99)})
		assert.NoError(t, err, "Expected Answer to not return an error")
		assert.Equal(t, rag.NoInformationAnswer, response.Answer)
		assert.Empty(t, response.Sources)
		assert.Equal(t, before, generator.calls.Load())
	})

	t.Run("Dimension mismatch", func(t *testing.T) {
		require.NoError(t, tr.SetEmbedder(testEmbedder(testEmbeddingDim+1)))
		t.Cleanup(func() {
			_ = tr.SetEmbedder(testEmbedder(testEmbeddingDim))
		})

		_, err := tr.Search(ctx, "write ahead log", nil)
		assert.ErrorContains(t, err, "dimension mismatch")
	})
}
