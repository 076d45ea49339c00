package models

// Retrieval type tags carried in RetrievedContext metadata.
const (
	RetrievalTypeVector = "vector_search"
	RetrievalTypeGraph  = "graph_expansion"
)

// GraphIntent is the structured form of a user query produced by the
// query optimizer and consumed by the hybrid retriever.
type GraphIntent struct {
	IntentType      string                 `json:"intent_type"`
	Entities        []string               `json:"entities"`
	Relations       []string               `json:"relations"`
	SemanticQuery   string                 `json:"semantic_query"`
	RetrievalParams map[string]interface{} `json:"retrieval_params"`
}

// RetrievedContext is one ranked piece of grounding returned by
// retrieval. It is never persisted. Metadata always carries a
// "retrieval_type" tag of either vector_search or graph_expansion.
type RetrievedContext struct {
	Text     string                 `json:"text"`
	PaperID  string                 `json:"paper_id"`
	ChunkID  string                 `json:"chunk_id"`
	Score    float64                `json:"score"`
	Metadata map[string]interface{} `json:"metadata"`
}
