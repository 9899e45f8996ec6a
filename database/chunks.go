package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/techrag/helper"
	"github.com/siherrmann/techrag/model"
	loadSql "github.com/siherrmann/techrag/sql"
)

// ChunksDBHandlerFunctions defines the interface for Chunks database operations.
type ChunksDBHandlerFunctions interface {
	InsertChunks(ctx context.Context, chunks []*model.Chunk) error
	SelectChunk(ctx context.Context, id uuid.UUID) (*model.Chunk, error)
	SelectChunksByDocument(ctx context.Context, documentRID uuid.UUID) ([]*model.Chunk, error)
	SelectChunksBySimilarity(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*model.SearchResult, error)
	SelectChunksByHybrid(ctx context.Context, embedding []float32, query string, categories []string, tags []string, vectorWeight float64, lexicalWeight float64, limit int, minScore float64) ([]*model.SearchResult, error)
	CountChunks(ctx context.Context) (int64, error)
	DeleteChunksByDocument(ctx context.Context, documentRID uuid.UUID) (int64, error)
	DeleteAllChunks(ctx context.Context) (int64, error)
}

// ChunksDBHandler handles chunk-related database operations
type ChunksDBHandler struct {
	db           *helper.Database
	embeddingDim int
}

// NewChunksDBHandler creates a new chunks database handler.
// It initializes the database connection and loads chunk-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
// The documents table has to exist since chunks reference it.
func NewChunksDBHandler(db *helper.Database, embeddingDim int, force bool) (*ChunksDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}
	if embeddingDim <= 0 {
		return nil, helper.NewError("embedding dimension validation", fmt.Errorf("embedding dimension must be positive, got %d", embeddingDim))
	}

	chunksDbHandler := &ChunksDBHandler{
		db:           db,
		embeddingDim: embeddingDim,
	}

	err := loadSql.LoadChunksSql(chunksDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load chunks sql", err)
	}

	err = chunksDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ChunksDBHandler")

	return chunksDbHandler, nil
}

// CreateTable creates the 'chunks' table in the database.
// If the table already exists, it does not create it again.
// It also creates the full-text and vector indexes.
func (h *ChunksDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_chunks($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing chunks table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table chunks")

	return nil
}

// EmbeddingDim returns the vector dimensionality of the chunks table.
func (h *ChunksDBHandler) EmbeddingDim() int {
	return h.embeddingDim
}

// InsertChunks upserts all chunks in a single transaction.
// Either every chunk is written or none is.
func (h *ChunksDBHandler) InsertChunks(ctx context.Context, chunks []*model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := h.db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return helper.NewError("begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `SELECT * FROM insert_chunk($1, $2, $3, $4, $5, $6, $7, $8, $9)`)
	if err != nil {
		return helper.NewError("prepare", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		if len(chunk.Embedding) != h.embeddingDim {
			return helper.NewError("insert chunk", fmt.Errorf("chunk %s has %d dimensions, expected %d", chunk.ID, len(chunk.Embedding), h.embeddingDim))
		}

		err := stmt.QueryRowContext(
			ctx,
			chunk.ID,
			chunk.DocumentRID,
			string(chunk.Type),
			chunk.Content,
			chunk.Language,
			chunk.Priority,
			chunk.ChunkIndex,
			pgvector.NewVector(chunk.Embedding),
			chunk.Metadata,
		).Scan(
			&chunk.ID,
			&chunk.CreatedAt,
		)
		if err != nil {
			return helper.NewError(fmt.Sprintf("insert chunk %s", chunk.ID), err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return helper.NewError("commit", err)
	}

	return nil
}

// SelectChunk retrieves a chunk by ID
func (h *ChunksDBHandler) SelectChunk(ctx context.Context, id uuid.UUID) (*model.Chunk, error) {
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM select_chunk($1)`,
		id,
	)

	chunk, err := scanChunk(row)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return chunk, nil
}

// SelectChunksByDocument retrieves all chunks for a document ordered by their index
func (h *ChunksDBHandler) SelectChunksByDocument(ctx context.Context, documentRID uuid.UUID) ([]*model.Chunk, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_chunks_by_document($1)`,
		documentRID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var chunks []*model.Chunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		chunks = append(chunks, chunk)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return chunks, nil
}

// SelectChunksBySimilarity returns chunks with a cosine similarity of at least
// threshold, ordered by descending similarity.
func (h *ChunksDBHandler) SelectChunksBySimilarity(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*model.SearchResult, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_chunks_by_similarity($1, $2, $3)`,
		pgvector.NewVector(embedding),
		limit,
		threshold,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var results []*model.SearchResult
	for rows.Next() {
		result := &model.SearchResult{RetrievalMethod: model.RetrievalMethodVector}
		chunk := &model.Chunk{}
		metadata := &model.DocumentMetadata{}

		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentRID,
			&chunk.Type,
			&chunk.Content,
			&chunk.Language,
			&chunk.Priority,
			&chunk.ChunkIndex,
			metadata,
			&chunk.CreatedAt,
			&result.SimilarityScore,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		chunk.Metadata = metadata
		result.Chunk = chunk
		result.Score = result.SimilarityScore
		results = append(results, result)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return results, nil
}

// SelectChunksByHybrid ranks chunks by a weighted sum of cosine similarity and a lexical
// score built from category match, tag overlap and full-text rank of the query.
// Categories and tags are expected lower-cased.
func (h *ChunksDBHandler) SelectChunksByHybrid(
	ctx context.Context,
	embedding []float32,
	query string,
	categories []string,
	tags []string,
	vectorWeight float64,
	lexicalWeight float64,
	limit int,
	minScore float64,
) ([]*model.SearchResult, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_chunks_by_hybrid($1, $2, $3, $4, $5, $6, $7, $8)`,
		pgvector.NewVector(embedding),
		query,
		pq.Array(nonNil(categories)),
		pq.Array(nonNil(tags)),
		vectorWeight,
		lexicalWeight,
		limit,
		minScore,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var results []*model.SearchResult
	for rows.Next() {
		result := &model.SearchResult{RetrievalMethod: model.RetrievalMethodHybrid}
		chunk := &model.Chunk{}
		metadata := &model.DocumentMetadata{}

		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentRID,
			&chunk.Type,
			&chunk.Content,
			&chunk.Language,
			&chunk.Priority,
			&chunk.ChunkIndex,
			metadata,
			&chunk.CreatedAt,
			&result.SimilarityScore,
			&result.LexicalScore,
			&result.Score,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		chunk.Metadata = metadata
		result.Chunk = chunk
		results = append(results, result)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return results, nil
}

// CountChunks returns the number of stored chunks
func (h *ChunksDBHandler) CountChunks(ctx context.Context) (int64, error) {
	var count int64
	err := h.db.Instance.QueryRowContext(ctx, `SELECT count_chunks()`).Scan(&count)
	if err != nil {
		return 0, helper.NewError("count chunks", err)
	}
	return count, nil
}

// DeleteChunksByDocument deletes all chunks of a document
func (h *ChunksDBHandler) DeleteChunksByDocument(ctx context.Context, documentRID uuid.UUID) (int64, error) {
	var deleted int64
	err := h.db.Instance.QueryRowContext(ctx, `SELECT delete_chunks_by_document($1)`, documentRID).Scan(&deleted)
	if err != nil {
		return 0, helper.NewError("delete chunks by document", err)
	}
	return deleted, nil
}

// DeleteAllChunks deletes every chunk
func (h *ChunksDBHandler) DeleteAllChunks(ctx context.Context) (int64, error) {
	var deleted int64
	err := h.db.Instance.QueryRowContext(ctx, `SELECT delete_all_chunks()`).Scan(&deleted)
	if err != nil {
		return 0, helper.NewError("delete all chunks", err)
	}

	h.db.Logger.Info("Deleted all chunks", "count", deleted)

	return deleted, nil
}

func scanChunk(row rowScanner) (*model.Chunk, error) {
	chunk := &model.Chunk{}
	metadata := &model.DocumentMetadata{}

	err := row.Scan(
		&chunk.ID,
		&chunk.DocumentRID,
		&chunk.Type,
		&chunk.Content,
		&chunk.Language,
		&chunk.Priority,
		&chunk.ChunkIndex,
		metadata,
		&chunk.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	chunk.Metadata = metadata
	return chunk, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
