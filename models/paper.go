package models

// PaperSource identifies where a paper was discovered or uploaded from.
type PaperSource string

const (
	SourceArxiv           PaperSource = "arxiv"
	SourceSemanticScholar PaperSource = "semantic_scholar"
	SourceUserUpload      PaperSource = "user_upload"
)

// Paper is the graph node for a single research paper. PaperID is the
// merge key: re-ingesting the same id updates attributes instead of
// creating a duplicate node.
type Paper struct {
	PaperID       string      `json:"paper_id"`
	Title         string      `json:"title"`
	Abstract      string      `json:"abstract"`
	Year          int         `json:"year"`
	Source        PaperSource `json:"source"`
	PDFPath       string      `json:"pdf_path,omitempty"`
	ArxivID       string      `json:"arxiv_id,omitempty"`
	PublishedDate string      `json:"published_date,omitempty"`

	// NoEmbeddings marks a paper ingested in degraded mode (zero
	// vectors), so callers can route it to keyword-only search.
	NoEmbeddings bool `json:"embeddings_disabled,omitempty"`
}

// Author is linked to papers via AUTHORED_BY relations.
type Author struct {
	AuthorID string `json:"author_id"`
	Name     string `json:"name"`
}

// Chunk is one embedded slice of a paper's extracted text. ChunkID is
// derived from the paper id and the 0-based chunk index, so ingestion
// of the same text is idempotent.
type Chunk struct {
	ChunkID    string    `json:"chunk_id"`
	Text       string    `json:"text"`
	PaperID    string    `json:"paper_id"`
	ChunkIndex int       `json:"chunk_index"`
	Embedding  []float32 `json:"embedding"`
}

// PaperMetadata is what the discovery client returns for a paper before
// it has been ingested.
type PaperMetadata struct {
	PaperID       string      `json:"paper_id"`
	Title         string      `json:"title"`
	Authors       []string    `json:"authors"`
	Abstract      string      `json:"abstract"`
	Year          int         `json:"year"`
	Source        PaperSource `json:"source"`
	PDFURL        string      `json:"pdf_url,omitempty"`
	ArxivID       string      `json:"arxiv_id,omitempty"`
	PublishedDate string      `json:"published_date,omitempty"`
}

// PaperDetail is the API view of a stored paper.
type PaperDetail struct {
	PaperID       string   `json:"paper_id"`
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	Abstract      string   `json:"abstract"`
	Year          int      `json:"year"`
	Source        string   `json:"source"`
	PDFPath       string   `json:"pdf_path,omitempty"`
	ArxivID       string   `json:"arxiv_id,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"`
	CitationCount int      `json:"citation_count"`
	RelatedPapers []string `json:"related_papers"`
	NoEmbeddings  bool     `json:"embeddings_disabled,omitempty"`
}

// RelatedPaper is one hit from a graph-neighborhood expansion.
// Distance is the hop count from the starting paper (>= 1).
type RelatedPaper struct {
	PaperID  string `json:"paper_id"`
	Title    string `json:"title"`
	Distance int    `json:"distance"`
}

// VectorHit is one ranked result from a similarity search over chunk
// embeddings. Higher score means more similar.
type VectorHit struct {
	ChunkID    string  `json:"chunk_id"`
	Text       string  `json:"text"`
	PaperID    string  `json:"paper_id"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
}

// PaperSearchRequest is the body of POST /api/papers/search.
type PaperSearchRequest struct {
	Query      string      `json:"query" binding:"required"`
	MaxResults int         `json:"max_results"`
	Source     PaperSource `json:"source"`
}
