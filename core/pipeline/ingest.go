package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/siherrmann/techrag/helper"
	"github.com/siherrmann/techrag/model"
	"golang.org/x/sync/errgroup"
)

// DefaultExtensions are the file types loaded from a corpus directory.
var DefaultExtensions = []string{".md", ".markdown", ".txt"}

// ChunkedDocument is a document with its parsed metadata and its chunks
type ChunkedDocument struct {
	Document *model.Document
	Chunks   []*model.Chunk
}

// LoadDocuments walks root and reads every file with one of the given extensions.
// Unreadable files are skipped with a warning. Empty extensions use DefaultExtensions.
func LoadDocuments(ctx context.Context, root string, extensions []string, logger *slog.Logger) ([]*model.Document, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, helper.NewError("stat corpus root", err)
	}
	if !info.IsDir() {
		return nil, helper.NewError("stat corpus root", fmt.Errorf("%s is not a directory", root))
	}

	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(ext)] = true
	}

	var documents []*model.Document
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			logger.Warn("Skipping unreadable path", slog.String("path", path), slog.Any("error", err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !allowed[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		doc, err := model.NewDocumentFromFile(root, path)
		if err != nil {
			logger.Warn("Skipping unreadable document", slog.String("path", path), slog.Any("error", err))
			return nil
		}
		documents = append(documents, doc)
		return nil
	})
	if err != nil {
		return nil, helper.NewError("walk corpus", err)
	}

	logger.Info("Loaded documents", slog.String("root", root), slog.Int("count", len(documents)))

	return documents, nil
}

// ChunkDocuments chunks all documents with at most concurrency documents in parallel.
// A document whose chunking panics is skipped and logged. The result is ordered by source.
func ChunkDocuments(ctx context.Context, documents []*model.Document, chunker ChunkFunc, concurrency int, logger *slog.Logger) ([]*ChunkedDocument, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	var mu sync.Mutex
	results := make([]*ChunkedDocument, 0, len(documents))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, doc := range documents {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			chunked, err := chunkDocument(doc, chunker)
			if err != nil {
				logger.Warn("Skipping document", slog.String("source", doc.Source), slog.String("document_rid", doc.RID.String()), slog.Any("error", err))
				return nil
			}

			mu.Lock()
			results = append(results, chunked)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, helper.NewError("chunk documents", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, helper.NewError("chunk documents", err)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Document.Source < results[j].Document.Source
	})

	return results, nil
}

func chunkDocument(doc *model.Document, chunker ChunkFunc) (chunked *ChunkedDocument, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while chunking: %v", r)
		}
	}()

	metadata, chunks := chunker(doc)

	parsed := *doc
	if metadata != nil {
		parsed.Metadata = *metadata
		if metadata.Title != "" {
			parsed.Title = metadata.Title
		}
	}

	return &ChunkedDocument{
		Document: &parsed,
		Chunks:   chunks,
	}, nil
}

// AllChunks flattens the chunks of all documents keeping their order.
func AllChunks(documents []*ChunkedDocument) []*model.Chunk {
	var chunks []*model.Chunk
	for _, d := range documents {
		chunks = append(chunks, d.Chunks...)
	}
	return chunks
}
