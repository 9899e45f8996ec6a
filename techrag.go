package techrag

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/techrag/core/pipeline"
	"github.com/siherrmann/techrag/core/provider"
	"github.com/siherrmann/techrag/core/rag"
	"github.com/siherrmann/techrag/core/retrieval"
	"github.com/siherrmann/techrag/database"
	"github.com/siherrmann/techrag/helper"
	"github.com/siherrmann/techrag/model"
	loadSql "github.com/siherrmann/techrag/sql"
)

// TechRag provides a unified interface to ingestion, retrieval and answer generation
type TechRag struct {
	DB        *helper.Database
	Chunks    *database.ChunksDBHandler
	Documents *database.DocumentsDBHandler
	Config    helper.RagConfiguration
	Pipeline  *pipeline.Pipeline      // Chunking is always set, the embedder via SetEmbedder
	Retrieval *retrieval.Service      // Set once an embedder is configured
	Generator *rag.AugmentedGenerator // Set once embedder and generator are configured
	generator provider.Generator
	// Logging
	log *slog.Logger
}

// IngestOptions configures a corpus ingestion
type IngestOptions struct {
	Reset      bool     // Delete all documents and chunks before loading
	Extensions []string // File types to load, empty uses pipeline.DefaultExtensions
}

// NewTechRag connects to the database, creates the tables and functions and sets up chunking.
func NewTechRag(dbConfig *helper.DatabaseConfiguration, config helper.RagConfiguration) (*TechRag, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("techrag", dbConfig, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Documents first, chunks reference them
	// force=false to not reload if functions already exist
	documents, err := database.NewDocumentsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create documents handler", err)
	}

	chunks, err := database.NewChunksDBHandler(db, config.EmbeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create chunks handler", err)
	}

	chunker := pipeline.NewChunker(config.MinSectionLength)

	return &TechRag{
		DB:        db,
		Chunks:    chunks,
		Documents: documents,
		Config:    config,
		Pipeline:  pipeline.NewPipeline(chunker.ChunkFunc(), nil),
		log:       logger,
	}, nil
}

// Close closes the database connection
func (t *TechRag) Close() error {
	if t.DB != nil {
		return t.DB.Close()
	}
	return nil
}

// SetLogger replaces the logger used for ingestion and queries.
// Services already built are rebuilt with the new logger.
func (t *TechRag) SetLogger(logger *slog.Logger) error {
	if logger == nil {
		return helper.NewError("set logger", fmt.Errorf("logger is nil"))
	}
	t.log = logger
	if t.Pipeline != nil && t.Pipeline.Embedder != nil {
		if err := t.SetEmbedder(t.Pipeline.Embedder); err != nil {
			return helper.NewError("set logger", err)
		}
	}
	return nil
}

// SetEmbedder sets the embedding function used for ingestion and queries.
// Both must use the same embedder, its dimension must match the chunks table.
func (t *TechRag) SetEmbedder(embed pipeline.EmbedFunc) error {
	if embed == nil {
		return pipeline.ErrNoEmbedder
	}

	service, err := retrieval.NewService(t.Chunks, embed, t.Chunks.EmbeddingDim(), t.Config, t.log)
	if err != nil {
		return helper.NewError("create retrieval service", err)
	}

	t.Pipeline.Embedder = embed
	t.Retrieval = service

	return t.buildGenerator()
}

// SetGenerator sets the generation provider used to answer questions.
func (t *TechRag) SetGenerator(generator provider.Generator) error {
	if generator == nil {
		return helper.NewError("set generator", fmt.Errorf("generator is nil"))
	}
	t.generator = generator
	return t.buildGenerator()
}

// UseDefaultPipeline sets the local all-MiniLM-L6-v2 embedder (384 dimensions).
// The chunks table must have been created with that dimension.
func (t *TechRag) UseDefaultPipeline() error {
	if t.Chunks.EmbeddingDim() != pipeline.DefaultEmbeddingDim {
		return helper.NewError("use default pipeline", fmt.Errorf("chunks table has %d dimensions, default embedder produces %d", t.Chunks.EmbeddingDim(), pipeline.DefaultEmbeddingDim))
	}

	embedder, err := pipeline.DefaultEmbedder()
	if err != nil {
		return helper.NewError("create default embedder", err)
	}

	return t.SetEmbedder(embedder)
}

// UseProviders sets embedder and generator from a provider configuration.
func (t *TechRag) UseProviders(ctx context.Context, config *helper.ProviderConfiguration) error {
	embedder, err := provider.NewEmbedder(ctx, config, t.Chunks.EmbeddingDim())
	if err != nil {
		return helper.NewError("create embedder", err)
	}
	if err := t.SetEmbedder(embedder); err != nil {
		return err
	}

	generator, err := provider.NewGenerator(ctx, config)
	if err != nil {
		return helper.NewError("create generator", err)
	}
	return t.SetGenerator(generator)
}

func (t *TechRag) buildGenerator() error {
	if t.Retrieval == nil || t.generator == nil {
		return nil
	}

	builder := rag.NewContextBuilder(t.Config.ContextBudget, t.Config.CharsPerToken)
	generator, err := rag.NewAugmentedGenerator(t.Retrieval, builder, t.generator, t.log)
	if err != nil {
		return helper.NewError("create augmented generator", err)
	}
	t.Generator = generator
	return nil
}

// IngestDirectory loads, chunks, embeds and stores every document below dir.
// It returns the number of chunks persisted, which is lower than the number
// of chunks created when single embeddings fail.
func (t *TechRag) IngestDirectory(ctx context.Context, dir string, options IngestOptions) (int, error) {
	if t.Pipeline == nil || t.Pipeline.Embedder == nil {
		return 0, helper.NewError("ingest directory", fmt.Errorf("embedder not set, use SetEmbedder() first"))
	}

	start := time.Now()

	if options.Reset {
		deletedChunks, err := t.Chunks.DeleteAllChunks(ctx)
		if err != nil {
			return 0, helper.NewError("reset chunks", err)
		}
		deletedDocuments, err := t.Documents.DeleteAllDocuments(ctx)
		if err != nil {
			return 0, helper.NewError("reset documents", err)
		}
		t.log.Info("Reset corpus", slog.Int64("chunks", deletedChunks), slog.Int64("documents", deletedDocuments))
	}

	documents, err := pipeline.LoadDocuments(ctx, dir, options.Extensions, t.log)
	if err != nil {
		return 0, helper.NewError("load documents", err)
	}

	chunked, err := pipeline.ChunkDocuments(ctx, documents, t.Pipeline.Chunker, t.Config.IngestConcurrency, t.log)
	if err != nil {
		return 0, err
	}

	t.log.Info("Chunked corpus", slog.Int("documents", len(chunked)), slog.Int("chunks", len(pipeline.AllChunks(chunked))))

	persisted, err := t.storeChunked(ctx, chunked)
	if err != nil {
		return persisted, err
	}

	t.log.Info(
		"Ingested corpus",
		slog.String("dir", dir),
		slog.Int("documents", len(chunked)),
		slog.Int("persisted", persisted),
		slog.Duration("elapsed", time.Since(start)),
	)

	return persisted, nil
}

// IngestDocument chunks, embeds and stores a single document.
// The document's Content field is used for processing but not stored in the database.
func (t *TechRag) IngestDocument(ctx context.Context, doc *model.Document) (int, error) {
	if t.Pipeline == nil || t.Pipeline.Embedder == nil {
		return 0, helper.NewError("ingest document", fmt.Errorf("embedder not set, use SetEmbedder() first"))
	}
	if doc == nil || doc.Content == "" {
		return 0, helper.NewError("ingest document", fmt.Errorf("document content is empty"))
	}
	if doc.RID == uuid.Nil {
		name := doc.Source
		if name == "" {
			name = doc.Title
		}
		doc.RID = model.DocumentRID(name)
	}

	chunked, err := pipeline.ChunkDocuments(ctx, []*model.Document{doc}, t.Pipeline.Chunker, 1, t.log)
	if err != nil {
		return 0, err
	}
	if len(chunked) == 0 {
		return 0, helper.NewError("ingest document", fmt.Errorf("document %s could not be chunked", doc.Source))
	}

	return t.storeChunked(ctx, chunked)
}

// storeChunked upserts the documents, replaces their previous chunks and
// embeds and stores the new ones in batches.
func (t *TechRag) storeChunked(ctx context.Context, chunked []*pipeline.ChunkedDocument) (int, error) {
	for _, c := range chunked {
		doc := *c.Document
		doc.Content = ""

		if err := t.Documents.InsertDocument(ctx, &doc); err != nil {
			return 0, helper.NewError(fmt.Sprintf("insert document %s", doc.Source), err)
		}
		if _, err := t.Chunks.DeleteChunksByDocument(ctx, doc.RID); err != nil {
			return 0, helper.NewError(fmt.Sprintf("replace chunks of %s", doc.Source), err)
		}
	}

	batchEmbedder, err := pipeline.NewBatchEmbedder(
		t.Pipeline.Embedder,
		t.Chunks,
		pipeline.BatchOptionsFromConfig(t.Config),
		t.log,
	)
	if err != nil {
		return 0, helper.NewError("create batch embedder", err)
	}

	return batchEmbedder.ProcessAndStore(ctx, pipeline.AllChunks(chunked))
}

// Search returns the chunks ranked for query. Category or tag filters in request
// select hybrid search.
func (t *TechRag) Search(ctx context.Context, query string, request *model.SearchRequest) ([]*model.SearchResult, error) {
	if t.Retrieval == nil {
		return nil, helper.NewError("search", fmt.Errorf("embedder not set, use SetEmbedder() first"))
	}
	return t.Retrieval.Search(ctx, query, request)
}

// Answer answers question from the retrieved context.
func (t *TechRag) Answer(ctx context.Context, question string, request *model.SearchRequest) (*model.RagResponse, error) {
	if t.Generator == nil {
		return nil, helper.NewError("answer", fmt.Errorf("embedder and generator must be set, use SetEmbedder() and SetGenerator() first"))
	}
	return t.Generator.Answer(ctx, question, request)
}

// ChangeIndexType changes the vector index type between HNSW and IVFFlat
func (t *TechRag) ChangeIndexType(ctx context.Context, indexType database.IndexType, options database.IndexOptions) error {
	return t.Chunks.ChangeIndexType(ctx, indexType, options)
}
