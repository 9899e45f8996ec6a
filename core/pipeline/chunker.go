package pipeline

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/siherrmann/techrag/model"
)

// DefaultMinSectionLength is the cleaned length a content section has to exceed.
const DefaultMinSectionLength = 100

// Chunker turns one markdown document into typed, prioritized chunks.
// Chunks are emitted in the order summary, metadata, code, content, full_article.
type Chunker struct {
	MinSectionLength int
	Now              func() time.Time
}

// NewChunker creates a chunker keeping content sections longer than minSectionLength.
func NewChunker(minSectionLength int) *Chunker {
	if minSectionLength < 0 {
		minSectionLength = DefaultMinSectionLength
	}
	return &Chunker{
		MinSectionLength: minSectionLength,
		Now:              time.Now,
	}
}

// ChunkFunc returns the chunker as a pipeline ChunkFunc.
func (c *Chunker) ChunkFunc() ChunkFunc {
	return c.Chunk
}

// Chunk parses the front matter of the document and splits its body.
// It never fails, a document without usable front matter gets fallback metadata
// and at least the full_article chunk.
func (c *Chunker) Chunk(doc *model.Document) (*model.DocumentMetadata, []*model.Chunk) {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	filename := doc.Source
	if filename == "" {
		filename = doc.Title
	}
	metadata, body, found := ParseFrontMatter(doc.Content, filename, now())

	chunks := []*model.Chunk{}
	add := func(chunkType model.ChunkType, content string) *model.Chunk {
		chunk := model.NewChunk(doc.RID, len(chunks), chunkType, content, metadata)
		chunks = append(chunks, chunk)
		return chunk
	}

	if summary := strings.TrimSpace(metadata.Summary); summary != "" {
		add(model.ChunkTypeSummary, summary)
	}

	if found && metadata.HasDescriptors() {
		add(model.ChunkTypeMetadata, MetadataText(metadata))
	}

	for _, block := range ExtractCodeBlocks(body) {
		chunk := add(model.ChunkTypeCode, block.Code)
		chunk.Language = block.Language
	}

	for _, section := range SplitSections(ReplaceCodeBlocks(body)) {
		cleaned := CleanText(section)
		if utf8.RuneCountInString(cleaned) > c.MinSectionLength {
			add(model.ChunkTypeContent, cleaned)
		}
	}

	add(model.ChunkTypeFullArticle, CleanText(body))

	return metadata, chunks
}

// MetadataText renders the descriptive metadata fields as one compact line.
func MetadataText(m *model.DocumentMetadata) string {
	var parts []string
	appendField := func(label string, value string) {
		if value = strings.TrimSpace(value); value != "" {
			parts = append(parts, label+": "+value)
		}
	}

	appendField("Title", m.Title)
	appendField("Category", m.Category)
	appendField("Difficulty", m.Difficulty)
	appendField("Technologies", strings.Join(m.Technologies, ", "))
	appendField("Languages", strings.Join(m.Languages, ", "))
	appendField("Tags", strings.Join(m.Tags, ", "))
	appendField("Key concepts", strings.Join(m.KeyConcepts, ", "))

	return strings.Join(parts, " | ")
}
