package database

import (
	"context"
	"log"
	"testing"

	"github.com/google/uuid"
	"github.com/siherrmann/techrag/helper"
	"github.com/siherrmann/techrag/model"
	loadSql "github.com/siherrmann/techrag/sql"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

// All tests of this package share one chunks table, so they share its dimension.
const testEmbeddingDim = 3

var dbPort string

func TestMain(m *testing.M) {
	var teardown func(ctx context.Context, opts ...testcontainers.TerminateOption) error
	var err error
	teardown, dbPort, err = helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("error starting postgres container: %v", err)
	}

	m.Run()

	if teardown != nil && teardown(context.Background()) != nil {
		log.Fatalf("error tearing down postgres container: %v", err)
	}
}

func initDB(t *testing.T) *helper.Database {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")
	db := helper.NewTestDatabase(dbConfig)

	err = loadSql.Init(db.Instance)
	require.NoError(t, err)

	return db
}

func initHandlers(t *testing.T) (*DocumentsDBHandler, *ChunksDBHandler) {
	db := initDB(t)

	documents, err := NewDocumentsDBHandler(db, true)
	require.NoError(t, err, "Expected NewDocumentsDBHandler to not return an error")

	chunks, err := NewChunksDBHandler(db, testEmbeddingDim, true)
	require.NoError(t, err, "Expected NewChunksDBHandler to not return an error")

	return documents, chunks
}

// insertTestDocument stores a document with a unique source so tests do not collide.
func insertTestDocument(t *testing.T, documents *DocumentsDBHandler, metadata model.DocumentMetadata) *model.Document {
	source := "test/" + uuid.NewString() + ".md"
	doc := &model.Document{
		RID:      model.DocumentRID(source),
		Title:    metadata.Title,
		Source:   source,
		Metadata: metadata,
	}
	if doc.Title == "" {
		doc.Title = "Test Document"
	}

	err := documents.InsertDocument(context.Background(), doc)
	require.NoError(t, err, "Expected InsertDocument to not return an error")

	t.Cleanup(func() {
		_ = documents.DeleteDocument(context.Background(), doc.RID)
	})

	return doc
}

func newTestChunk(doc *model.Document, index int, chunkType model.ChunkType, content string, embedding []float32) *model.Chunk {
	metadata := doc.Metadata
	chunk := model.NewChunk(doc.RID, index, chunkType, content, &metadata)
	chunk.Embedding = embedding
	return chunk
}
