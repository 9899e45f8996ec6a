package database

import (
	"context"
	"fmt"
	"time"

	"github.com/siherrmann/techrag/helper"
)

// IndexType is a pgvector index method for the chunk embeddings
type IndexType string

const (
	IndexTypeHNSW    IndexType = "hnsw"
	IndexTypeIVFFlat IndexType = "ivfflat"
)

// IndexOptions configures the vector index, zero values use the pgvector defaults.
//   - HNSW: M (default 16), EfConstruction (default 64)
//   - IVFFlat: Lists (default 100)
type IndexOptions struct {
	M              int
	EfConstruction int
	Lists          int
}

// ParseIndexType validates an index type name.
func ParseIndexType(name string) (IndexType, error) {
	switch IndexType(name) {
	case IndexTypeHNSW, IndexTypeIVFFlat:
		return IndexType(name), nil
	default:
		return "", helper.NewError("parse index type", fmt.Errorf("unsupported index type: %s (use 'hnsw' or 'ivfflat')", name))
	}
}

// ChangeIndexType rebuilds the cosine index on chunk embeddings with the given method.
// HNSW favours recall and query speed, IVFFlat builds faster on large corpora.
func (h *ChunksDBHandler) ChangeIndexType(ctx context.Context, indexType IndexType, options IndexOptions) error {
	var createIndexSQL string

	switch indexType {
	case IndexTypeHNSW:
		m := 16
		efConstruction := 64
		if options.M > 0 {
			m = options.M
		}
		if options.EfConstruction > 0 {
			efConstruction = options.EfConstruction
		}

		createIndexSQL = fmt.Sprintf(
			`CREATE INDEX idx_chunks_embedding ON chunks USING hnsw (embedding vector_cosine_ops) WITH (m = %d, ef_construction = %d);`,
			m, efConstruction,
		)

	case IndexTypeIVFFlat:
		lists := 100
		if options.Lists > 0 {
			lists = options.Lists
		}

		createIndexSQL = fmt.Sprintf(
			`CREATE INDEX idx_chunks_embedding ON chunks USING ivfflat (embedding vector_cosine_ops) WITH (lists = %d);`,
			lists,
		)

	default:
		return helper.NewError("change index type", fmt.Errorf("unsupported index type: %s (use 'hnsw' or 'ivfflat')", indexType))
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	tx, err := h.db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return helper.NewError("begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `DROP INDEX IF EXISTS idx_chunks_embedding;`)
	if err != nil {
		return helper.NewError("drop index", err)
	}

	_, err = tx.ExecContext(ctx, createIndexSQL)
	if err != nil {
		return helper.NewError("create index", err)
	}

	err = tx.Commit()
	if err != nil {
		return helper.NewError("commit", err)
	}

	h.db.Logger.Info("Changed vector index", "type", string(indexType), "options", fmt.Sprintf("%+v", options))

	return nil
}
