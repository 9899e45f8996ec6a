package pipeline

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/siherrmann/techrag/model"
	"gopkg.in/yaml.v3"
)

var frontMatterPattern = regexp.MustCompile(`(?s)\A---[ \t]*\n(?:(.*?)\n)?---[ \t]*(?:\n|\z)`)

var frontMatterDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseFrontMatter splits a leading YAML block delimited by "---" lines from the body.
// A matched block is always stripped from the body. found is false if there is no block
// or it is not a YAML mapping, the returned metadata is then derived from filename and now.
// Fields are decoded one by one, a field with an unexpected type is skipped without
// affecting the others. A missing title falls back to the filename.
func ParseFrontMatter(text string, filename string, now time.Time) (metadata *model.DocumentMetadata, body string, found bool) {
	text = normalizeNewlines(text)

	match := frontMatterPattern.FindStringSubmatchIndex(text)
	if match == nil {
		return model.FallbackMetadata(filename, now), text, false
	}
	body = text[match[1]:]

	var raw string
	if match[2] >= 0 {
		raw = text[match[2]:match[3]]
	}

	metadata, err := decodeFrontMatter(raw)
	if err != nil {
		return model.FallbackMetadata(filename, now), body, false
	}

	if metadata.Title == "" {
		metadata.Title = model.FallbackMetadata(filename, now).Title
	}
	if metadata.CapturedAt == nil {
		metadata.CapturedAt = &now
	}

	return metadata, body, true
}

// decodeFrontMatter fills the metadata from the keys of a YAML mapping.
// An empty block gives empty metadata.
func decodeFrontMatter(raw string) (*model.DocumentMetadata, error) {
	metadata := &model.DocumentMetadata{}

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &root); err != nil {
		return nil, err
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return metadata, nil
	}

	mapping := resolveNode(root.Content[0])
	if mapping.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("front matter is not a mapping")
	}

	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key := strings.TrimSpace(mapping.Content[i].Value)
		value := resolveNode(mapping.Content[i+1])

		switch key {
		case "title":
			metadata.Title = scalarField(value)
		case "source_url":
			metadata.SourceURL = scalarField(value)
		case "date_published":
			metadata.PublishedAt = parseFrontMatterDate(scalarField(value))
		case "date_captured":
			metadata.CapturedAt = parseFrontMatterDate(scalarField(value))
		case "domain":
			metadata.Domain = scalarField(value)
		case "author":
			metadata.Author = scalarField(value)
		case "category":
			metadata.Category = scalarField(value)
		case "technologies":
			metadata.Technologies = listField(value)
		case "programming_languages":
			metadata.Languages = listField(value)
		case "tags":
			metadata.Tags = listField(value)
		case "key_concepts":
			metadata.KeyConcepts = listField(value)
		case "difficulty_level":
			metadata.Difficulty = scalarField(value)
		case "summary":
			metadata.Summary = scalarField(value)
		case "has_code_examples":
			var b bool
			if value.Kind == yaml.ScalarNode && value.Decode(&b) == nil {
				metadata.HasCodeExamples = b
			}
		}
	}

	return metadata, nil
}

func resolveNode(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

// scalarField returns the trimmed text of a scalar, anything else is empty.
func scalarField(node *yaml.Node) string {
	if node == nil || node.Kind != yaml.ScalarNode || node.Tag == "!!null" {
		return ""
	}
	return strings.TrimSpace(node.Value)
}

// listField accepts a sequence of scalars or a single scalar as a one element list.
func listField(node *yaml.Node) []string {
	if node == nil {
		return nil
	}

	switch node.Kind {
	case yaml.ScalarNode:
		if v := scalarField(node); v != "" {
			return []string{v}
		}
	case yaml.SequenceNode:
		var values []string
		for _, item := range node.Content {
			if v := scalarField(resolveNode(item)); v != "" {
				values = append(values, v)
			}
		}
		return values
	}
	return nil
}

func parseFrontMatterDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range frontMatterDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

func normalizeNewlines(text string) string {
	return strings.ReplaceAll(text, "\r\n", "\n")
}
