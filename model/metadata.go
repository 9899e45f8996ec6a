package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/siherrmann/techrag/helper"
)

// DocumentMetadata is the front matter of a source document.
// It is stored as JSONB on documents and chunks.
type DocumentMetadata struct {
	Title           string     `json:"title,omitempty"`
	SourceURL       string     `json:"source_url,omitempty"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
	CapturedAt      *time.Time `json:"captured_at,omitempty"`
	Domain          string     `json:"domain,omitempty"`
	Author          string     `json:"author,omitempty"`
	Category        string     `json:"category,omitempty"`
	Technologies    []string   `json:"technologies,omitempty"`
	Languages       []string   `json:"languages,omitempty"`
	Tags            []string   `json:"tags,omitempty"`
	KeyConcepts     []string   `json:"key_concepts,omitempty"`
	Difficulty      string     `json:"difficulty,omitempty"`
	Summary         string     `json:"summary,omitempty"`
	HasCodeExamples bool       `json:"has_code_examples,omitempty"`
}

// FallbackMetadata is used when a document has no usable front matter.
func FallbackMetadata(filename string, now time.Time) *DocumentMetadata {
	base := filename
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	title := strings.TrimSpace(strings.NewReplacer("-", " ", "_", " ").Replace(base))
	if title == "" {
		title = "Untitled"
	}
	return &DocumentMetadata{
		Title:      title,
		CapturedAt: &now,
	}
}

// HasDescriptors reports whether the metadata describes the document beyond its title.
// The title alone does not count, it is always set and may come from the filename.
func (m *DocumentMetadata) HasDescriptors() bool {
	if m == nil {
		return false
	}
	return m.Category != "" || m.Difficulty != "" ||
		len(m.Technologies) > 0 || len(m.Languages) > 0 ||
		len(m.Tags) > 0 || len(m.KeyConcepts) > 0
}

// Value implements the driver.Valuer interface for database storage
func (m DocumentMetadata) Value() (driver.Value, error) {
	return m.Marshal()
}

// Scan implements the sql.Scanner interface for database retrieval
func (m *DocumentMetadata) Scan(value interface{}) error {
	return m.Unmarshal(value)
}

// Marshal converts DocumentMetadata to JSON bytes
func (m DocumentMetadata) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// Unmarshal converts JSON bytes or DocumentMetadata to DocumentMetadata
func (m *DocumentMetadata) Unmarshal(value interface{}) error {
	if value == nil {
		*m = DocumentMetadata{}
		return nil
	}

	if s, ok := value.(DocumentMetadata); ok {
		*m = s
		return nil
	}

	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return helper.NewError("byte assertion", errors.New("type assertion to []byte failed"))
	}

	*m = DocumentMetadata{}
	return json.Unmarshal(b, m)
}
