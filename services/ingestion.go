package services

import (
	"context"
	"fmt"
	"strings"

	"paperai-backend/internal/ai"
	"paperai-backend/internal/chunker"
	"paperai-backend/internal/graphdb"
	"paperai-backend/internal/logger"
	"paperai-backend/internal/telemetry"
	"paperai-backend/models"
)

// IngestionPipeline turns one paper's extracted text into stored,
// embedded, graph-linked chunks. Each call is stateless and safe to run
// concurrently with ingestion of other papers; callers should serialize
// ingestion of the same paper id themselves.
type IngestionPipeline struct {
	chunker  *chunker.Chunker
	embedder ai.Embedder // nil means degraded zero-vector mode
	store    graphdb.Store
	dim      int
	metrics  *telemetry.Metrics
}

// NewIngestionPipeline wires the pipeline. A nil embedder is allowed:
// papers are then ingested with zero vectors and flagged so callers can
// tell keyword-only papers from semantically searchable ones.
func NewIngestionPipeline(ch *chunker.Chunker, embedder ai.Embedder, store graphdb.Store, embeddingDim int, metrics *telemetry.Metrics) *IngestionPipeline {
	return &IngestionPipeline{
		chunker:  ch,
		embedder: embedder,
		store:    store,
		dim:      embeddingDim,
		metrics:  metrics,
	}
}

// EmbeddingsEnabled reports whether the pipeline has a live embedder.
// False means every ingested paper carries zero vectors.
func (p *IngestionPipeline) EmbeddingsEnabled() bool {
	return p.embedder != nil
}

// Ingest stores one paper. The error, when non-nil, always carries the
// paper id and the underlying cause; there is no partial rollback since
// the store's upserts make retrying the whole paper idempotent.
func (p *IngestionPipeline) Ingest(ctx context.Context, meta models.PaperMetadata, pdfPath, sourceText string) error {
	if strings.TrimSpace(sourceText) == "" {
		return fmt.Errorf("paper %s: %w", meta.PaperID, ErrExtractionFailed)
	}

	chunks := p.chunker.Chunk(sourceText)
	logger.Info("Chunked paper text", "paper_id", meta.PaperID, "chunks", len(chunks))

	embeddings, err := p.embedChunks(ctx, meta.PaperID, chunks)
	if err != nil {
		return err
	}

	paper := models.Paper{
		PaperID:       meta.PaperID,
		Title:         meta.Title,
		Abstract:      meta.Abstract,
		Year:          meta.Year,
		Source:        meta.Source,
		PDFPath:       pdfPath,
		ArxivID:       meta.ArxivID,
		PublishedDate: meta.PublishedDate,
		NoEmbeddings:  p.embedder == nil,
	}

	records := make([]models.Chunk, len(chunks))
	for i, text := range chunks {
		records[i] = models.Chunk{
			ChunkID:    fmt.Sprintf("%s_chunk_%d", meta.PaperID, i),
			Text:       text,
			PaperID:    meta.PaperID,
			ChunkIndex: i,
			Embedding:  embeddings[i],
		}
	}

	// Paper first: every chunk's paper_id must reference an existing
	// node when the chunk is written.
	if err := p.store.UpsertPaper(ctx, paper); err != nil {
		return fmt.Errorf("paper %s: %w: %v", meta.PaperID, ErrStoreWrite, err)
	}

	for _, name := range meta.Authors {
		author := models.Author{
			AuthorID: authorID(name),
			Name:     name,
		}
		if err := p.store.UpsertAuthor(ctx, author); err != nil {
			return fmt.Errorf("paper %s: %w: %v", meta.PaperID, ErrStoreWrite, err)
		}
		if err := p.store.LinkAuthor(ctx, meta.PaperID, author.AuthorID); err != nil {
			return fmt.Errorf("paper %s: %w: %v", meta.PaperID, ErrStoreWrite, err)
		}
	}

	if err := p.store.CreateChunks(ctx, records); err != nil {
		return fmt.Errorf("paper %s: %w: %v", meta.PaperID, ErrStoreWrite, err)
	}

	if p.metrics != nil {
		p.metrics.RecordIngestedPaper(ctx, string(meta.Source), len(records))
	}
	logger.Info("Ingested paper", "paper_id", meta.PaperID, "chunks", len(records), "embeddings_disabled", p.embedder == nil)
	return nil
}

// authorID derives a stable id from the author's name so the same
// author merges into one node across papers.
func authorID(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Join(strings.Fields(slug), "_")
	return "author_" + slug
}

// embedChunks embeds chunk texts one at a time, preserving order. With
// no embedder configured it returns zero vectors of the configured
// dimension instead of failing.
func (p *IngestionPipeline) embedChunks(ctx context.Context, paperID string, chunks []string) ([][]float32, error) {
	embeddings := make([][]float32, len(chunks))

	if p.embedder == nil {
		for i := range embeddings {
			embeddings[i] = make([]float32, p.dim)
		}
		if len(chunks) > 0 {
			logger.Warn("Embedder not configured, ingesting with zero vectors", "paper_id", paperID)
		}
		return embeddings, nil
	}

	for i, text := range chunks {
		// Large papers take a while; honor cancellation between chunks.
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("paper %s: %w", paperID, err)
		}
		vec, err := p.embedder.EmbedDocument(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("paper %s chunk %d: %w: %v", paperID, i, ErrEmbeddingFailed, err)
		}
		embeddings[i] = vec
	}
	return embeddings, nil
}
