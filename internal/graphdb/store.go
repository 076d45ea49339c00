package graphdb

import (
	"context"
	"errors"

	"paperai-backend/models"
)

// ErrNotFound is returned by GetPaper for unknown paper ids.
var ErrNotFound = errors.New("paper not found")

// Store is the graph-structured document store the ingestion pipeline
// writes to and the hybrid retriever reads from. All write operations
// are idempotent upserts keyed on stable ids, so retrying a whole paper
// after a partial failure is safe.
type Store interface {
	// UpsertPaper merges a paper node by paper_id, updating attributes
	// on re-ingestion instead of creating a duplicate.
	UpsertPaper(ctx context.Context, paper models.Paper) error

	// UpsertAuthor merges an author node by author_id.
	UpsertAuthor(ctx context.Context, author models.Author) error

	// LinkAuthor merges an authorship relation between an existing
	// paper and author.
	LinkAuthor(ctx context.Context, paperID, authorID string) error

	// CreateChunks stores embedded chunks linked to their paper. The
	// paper node must exist before its chunks are written.
	CreateChunks(ctx context.Context, chunks []models.Chunk) error

	// VectorSearch returns up to k chunks ranked by cosine similarity
	// to the query vector, optionally restricted to one paper.
	VectorSearch(ctx context.Context, queryVec []float32, k int, paperID string) ([]models.VectorHit, error)

	// ExpandNeighbors returns papers reachable from paperID within the
	// given hop depth, ordered by distance.
	ExpandNeighbors(ctx context.Context, paperID string, depth int) ([]models.RelatedPaper, error)

	// GetPaper returns the stored paper with authors and citations, or
	// ErrNotFound.
	GetPaper(ctx context.Context, paperID string) (*models.PaperDetail, error)

	// Overview aggregates corpus-level dashboard metrics.
	Overview(ctx context.Context) (*models.DashboardOverview, error)
}
