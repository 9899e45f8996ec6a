package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ChunkType is the kind of content a chunk carries
type ChunkType string

const (
	ChunkTypeSummary     ChunkType = "summary"
	ChunkTypeMetadata    ChunkType = "metadata"
	ChunkTypeCode        ChunkType = "code"
	ChunkTypeContent     ChunkType = "content"
	ChunkTypeFullArticle ChunkType = "full_article"
)

// Chunk priorities, 1 is the highest.
const (
	PriorityHigh   = 1
	PriorityMedium = 2
	PriorityLow    = 3
)

// Priority returns the retrieval priority of the chunk type.
func (t ChunkType) Priority() int {
	switch t {
	case ChunkTypeSummary, ChunkTypeMetadata:
		return PriorityHigh
	case ChunkTypeCode, ChunkTypeContent:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// Chunk is the smallest retrievable unit derived from a document
type Chunk struct {
	ID          uuid.UUID         `json:"id"`
	DocumentRID uuid.UUID         `json:"document_rid"`
	Type        ChunkType         `json:"chunk_type"`
	Content     string            `json:"content"`
	Language    string            `json:"language,omitempty"` // Only set for code chunks
	Priority    int               `json:"priority"`
	ChunkIndex  int               `json:"chunk_index"`
	Metadata    *DocumentMetadata `json:"metadata,omitempty"`
	Embedding   []float32         `json:"embedding,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// NewChunk creates a chunk with a stable id derived from the document and its ordinal.
func NewChunk(documentRID uuid.UUID, index int, chunkType ChunkType, content string, metadata *DocumentMetadata) *Chunk {
	return &Chunk{
		ID:          uuid.NewSHA1(documentRID, []byte(fmt.Sprintf("%s:%d", chunkType, index))),
		DocumentRID: documentRID,
		Type:        chunkType,
		Content:     content,
		Priority:    chunkType.Priority(),
		ChunkIndex:  index,
		Metadata:    metadata,
	}
}
