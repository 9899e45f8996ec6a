package model

import "time"

type RetrievalMethod string

const (
	RetrievalMethodVector RetrievalMethod = "vector"
	RetrievalMethodHybrid RetrievalMethod = "hybrid"
)

// SearchResult is a stored chunk together with its ranking scores
type SearchResult struct {
	Chunk           *Chunk          `json:"chunk"`
	Score           float64         `json:"score"`                   // Similarity or combined hybrid score
	SimilarityScore float64         `json:"similarity_score"`        // Cosine similarity
	LexicalScore    float64         `json:"lexical_score,omitempty"` // Only set by hybrid search
	RetrievalMethod RetrievalMethod `json:"retrieval_method"`
}

// RagResponse is the answer to a question with its provenance
type RagResponse struct {
	Answer          string          `json:"answer"`
	Sources         []*SearchResult `json:"sources"`
	Elapsed         time.Duration   `json:"elapsed"`
	Model           string          `json:"model"`
	RetrievalMethod RetrievalMethod `json:"retrieval_method,omitempty"`
}
