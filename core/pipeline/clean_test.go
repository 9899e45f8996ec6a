package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCodeBlocks(t *testing.T) {
	t.Run("Blocks with languages", func(t *testing.T) {
		body := "Intro\n\n```Python\nprint('hi')\n```\n\ntext\n\n```go title=\"main.go\"\nfmt.Println(1)\n```\n"

		blocks := ExtractCodeBlocks(body)

		require.Len(t, blocks, 2)
		assert.Equal(t, CodeBlock{Language: "python", Code: "print('hi')"}, blocks[0])
		assert.Equal(t, CodeBlock{Language: "go", Code: "fmt.Println(1)"}, blocks[1])
	})

	t.Run("Empty blocks are skipped", func(t *testing.T) {
		blocks := ExtractCodeBlocks("```bash\n   \n\n```\n")
		assert.Empty(t, blocks)
	})

	t.Run("Block without language", func(t *testing.T) {
		blocks := ExtractCodeBlocks("```\nls -la\n```")
		require.Len(t, blocks, 1)
		assert.Equal(t, "", blocks[0].Language)
	})
}

func TestReplaceCodeBlocks(t *testing.T) {
	body := "before\n```go\n# not a heading\n```\nafter"
	assert.Equal(t, "before\n[code]\nafter", ReplaceCodeBlocks(body))
}

func TestSplitSections(t *testing.T) {
	t.Run("Split at every heading level", func(t *testing.T) {
		body := "preamble\n# One\na\n## Two\nb\n###### Six\nc"

		sections := SplitSections(body)

		require.Len(t, sections, 4)
		assert.Equal(t, "preamble\n", sections[0])
		assert.Equal(t, "# One\na\n", sections[1])
		assert.Equal(t, "## Two\nb\n", sections[2])
		assert.Equal(t, "###### Six\nc", sections[3])
	})

	t.Run("Hashtags are not headings", func(t *testing.T) {
		sections := SplitSections("#golang is fun\n####### seven")
		assert.Len(t, sections, 1)
	})

	t.Run("Empty body", func(t *testing.T) {
		assert.Empty(t, SplitSections(""))
	})
}

func TestCleanText(t *testing.T) {
	t.Run("Strip base64 images and reduce image links", func(t *testing.T) {
		text := "A ![diagram](data:image/png;base64,iVBORw0KGgo=) B ![arch](https://example.com/a.png) C"
		assert.Equal(t, "A B [image] C", CleanText(text))
	})

	t.Run("Collapse whitespace and newlines", func(t *testing.T) {
		text := "  line   one\t\ttabbed  \n\n\n\n  line two \n \n \n end  "
		assert.Equal(t, "line one tabbed\n\nline two\n\nend", CleanText(text))
	})
}
