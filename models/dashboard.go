package models

// YearCount is one papers-per-year bucket.
type YearCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// AuthorCount is one top-authors bucket.
type AuthorCount struct {
	Author string `json:"author"`
	Count  int    `json:"count"`
}

// DashboardOverview aggregates corpus-level metrics from the graph.
type DashboardOverview struct {
	TotalPapers   int           `json:"total_papers"`
	TotalAuthors  int           `json:"total_authors"`
	TotalChunks   int           `json:"total_chunks"`
	PapersPerYear []YearCount   `json:"papers_per_year"`
	TopAuthors    []AuthorCount `json:"top_authors"`
}
