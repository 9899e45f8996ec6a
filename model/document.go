package model

import (
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Document represents a source document of the corpus
type Document struct {
	ID        int64            `json:"id"`
	RID       uuid.UUID        `json:"rid"`
	Title     string           `json:"title"`
	Source    string           `json:"source,omitempty"`
	Content   string           `json:"content,omitempty" db:"-"` // Raw text, not stored in DB
	Metadata  DocumentMetadata `json:"metadata"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// DocumentRID derives a stable document id from its corpus-relative source path.
func DocumentRID(source string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(filepath.ToSlash(source)))
}

// NewDocumentFromFile reads a file and creates a Document with the file content.
// The title defaults to the filename, the source to the given path relative to root.
// An empty root keeps the path as is.
func NewDocumentFromFile(root string, filePath string) (*Document, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	source := filePath
	if root != "" {
		if rel, err := filepath.Rel(root, filePath); err == nil {
			source = rel
		}
	}
	source = filepath.ToSlash(source)

	// Get filename without extension for default title
	filename := filepath.Base(filePath)
	title := filename[:len(filename)-len(filepath.Ext(filename))]
	if title == "" {
		title = filename
	}

	return &Document{
		RID:     DocumentRID(source),
		Title:   title,
		Source:  source,
		Content: string(content),
	}, nil
}
