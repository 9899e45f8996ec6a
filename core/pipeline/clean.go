package pipeline

import (
	"regexp"
	"strings"
)

const (
	codePlaceholder  = "[code]"
	imagePlaceholder = "[image]"
)

var (
	codeFencePattern   = regexp.MustCompile("(?ms)^```([\\w+#.-]*)[^\\n]*\\n(.*?)^```[ \\t]*$")
	headingPattern     = regexp.MustCompile(`(?m)^#{1,6}[ \t]+\S`)
	base64ImagePattern = regexp.MustCompile(`!\[[^\]]*\]\(data:image/[^)]*\)`)
	imageLinkPattern   = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	blankRunPattern    = regexp.MustCompile(`[ \t]+`)
	lineEdgePattern    = regexp.MustCompile(` ?\n ?`)
	newlineRunPattern  = regexp.MustCompile(`\n{3,}`)
)

// CodeBlock is a fenced code block found in a markdown body
type CodeBlock struct {
	Language string
	Code     string
}

// ExtractCodeBlocks returns all fenced code blocks in order of appearance.
// The language is lower-cased, blocks without code are skipped.
func ExtractCodeBlocks(body string) []CodeBlock {
	var blocks []CodeBlock
	for _, m := range codeFencePattern.FindAllStringSubmatch(body, -1) {
		code := strings.TrimRight(strings.TrimLeft(m[2], "\n"), " \t\n")
		if strings.TrimSpace(code) == "" {
			continue
		}
		blocks = append(blocks, CodeBlock{
			Language: strings.ToLower(m[1]),
			Code:     code,
		})
	}
	return blocks
}

// ReplaceCodeBlocks substitutes every fenced code block with a placeholder.
func ReplaceCodeBlocks(body string) string {
	return codeFencePattern.ReplaceAllLiteralString(body, codePlaceholder)
}

// SplitSections splits a markdown body at every heading, any level.
// Text before the first heading is its own section.
func SplitSections(body string) []string {
	starts := headingPattern.FindAllStringIndex(body, -1)

	var sections []string
	prev := 0
	for _, s := range starts {
		if s[0] > prev {
			sections = append(sections, body[prev:s[0]])
		}
		prev = s[0]
	}
	if prev < len(body) {
		sections = append(sections, body[prev:])
	}
	return sections
}

// CleanText removes embedded images, reduces image links to a placeholder
// and collapses whitespace.
func CleanText(text string) string {
	text = normalizeNewlines(text)
	text = base64ImagePattern.ReplaceAllLiteralString(text, "")
	text = imageLinkPattern.ReplaceAllLiteralString(text, imagePlaceholder)
	text = blankRunPattern.ReplaceAllLiteralString(text, " ")
	text = lineEdgePattern.ReplaceAllLiteralString(text, "\n")
	text = newlineRunPattern.ReplaceAllLiteralString(text, "\n\n")
	return strings.TrimSpace(text)
}
