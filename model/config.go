package model

import "strings"

// SearchRequest holds the optional parameters of a retrieval query
type SearchRequest struct {
	Categories []string `json:"categories,omitempty"`
	Tags       []string `json:"tags,omitempty"`

	// Zero or nil values fall back to the configured defaults
	Limit         int      `json:"limit,omitempty"`
	MinSimilarity *float64 `json:"min_similarity,omitempty"`

	// Hybrid weighting, zero values fall back to the configured defaults
	VectorWeight  float64 `json:"vector_weight,omitempty"`
	LexicalWeight float64 `json:"lexical_weight,omitempty"`
}

// HasFilters reports whether the request carries any category or tag filter.
func (r *SearchRequest) HasFilters() bool {
	if r == nil {
		return false
	}
	return len(normalizeTerms(r.Categories)) > 0 || len(normalizeTerms(r.Tags)) > 0
}

// NormalizedCategories returns the lower-cased, non-blank category filters.
func (r *SearchRequest) NormalizedCategories() []string {
	if r == nil {
		return nil
	}
	return normalizeTerms(r.Categories)
}

// NormalizedTags returns the lower-cased, non-blank tag filters.
func (r *SearchRequest) NormalizedTags() []string {
	if r == nil {
		return nil
	}
	return normalizeTerms(r.Tags)
}

// Float returns a pointer to f, used for MinSimilarity overrides.
func Float(f float64) *float64 {
	return &f
}

func normalizeTerms(terms []string) []string {
	var out []string
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
