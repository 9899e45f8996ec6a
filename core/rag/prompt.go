package rag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/siherrmann/techrag/model"
)

// NoInformationAnswer is returned without calling the generator when retrieval finds nothing.
const NoInformationAnswer = "I could not find relevant information in the knowledge base to answer this question."

// SystemPrompt is sent as system instruction with every question.
const SystemPrompt = `You are a technical assistant answering questions about software engineering.
Answer only from the provided context. If the context does not contain the answer, say so clearly.
Use Markdown for formatting and fenced code blocks for code.`

const instructions = `Instructions:
- Cite the sources you use by their number, for example [Source 2].
- Include relevant code examples from the context when they help the answer.
- Prefer the technologies that appear in the context%s.
- Do not invent APIs or configuration options that are not in the context.`

// BuildPrompt combines the question, the context block and the answer instructions.
func BuildPrompt(question string, contextText string, technologies []string) string {
	preferred := ""
	if len(technologies) > 0 {
		preferred = " (" + strings.Join(technologies, ", ") + ")"
	}

	var prompt strings.Builder
	prompt.WriteString("Context:\n")
	prompt.WriteString(contextText)
	prompt.WriteString("\n\n")
	fmt.Fprintf(&prompt, "Question: %s\n\n", question)
	fmt.Fprintf(&prompt, instructions, preferred)

	return prompt.String()
}

// Technologies collects the distinct technologies of the results metadata, sorted.
func Technologies(results []*model.SearchResult) []string {
	seen := map[string]bool{}
	var technologies []string
	for _, r := range results {
		if r == nil || r.Chunk == nil || r.Chunk.Metadata == nil {
			continue
		}
		for _, tech := range r.Chunk.Metadata.Technologies {
			tech = strings.TrimSpace(tech)
			key := strings.ToLower(tech)
			if tech == "" || seen[key] {
				continue
			}
			seen[key] = true
			technologies = append(technologies, tech)
		}
	}
	sort.Strings(technologies)
	return technologies
}
