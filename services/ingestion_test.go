package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperai-backend/internal/chunker"
	"paperai-backend/internal/graphdb"
	"paperai-backend/models"
)

func testMeta() models.PaperMetadata {
	return models.PaperMetadata{
		PaperID:  "p1",
		Title:    "Attention Is All You Need",
		Abstract: "We propose the Transformer.",
		Authors:  []string{"Ashish Vaswani", "Noam Shazeer"},
		Year:     2017,
		Source:   models.SourceUserUpload,
	}
}

func TestIngestStoresPaperAuthorsAndChunks(t *testing.T) {
	store := graphdb.NewMemoryStore()
	p := NewIngestionPipeline(chunker.New(100, 20), &fakeEmbedder{dim: 4}, store, 4, nil)

	text := strings.Repeat("The model attends to every token. ", 20)
	require.NoError(t, p.Ingest(context.Background(), testMeta(), "/pdfs/p1.pdf", text))

	detail, err := store.GetPaper(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Attention Is All You Need", detail.Title)
	assert.ElementsMatch(t, []string{"Ashish Vaswani", "Noam Shazeer"}, detail.Authors)
	assert.False(t, detail.NoEmbeddings)
	assert.Greater(t, store.ChunkCount("p1"), 1)
}

func TestIngestChunkIDsFollowIndexOrder(t *testing.T) {
	store := graphdb.NewMemoryStore()
	p := NewIngestionPipeline(chunker.New(100, 20), &fakeEmbedder{dim: 4}, store, 4, nil)

	text := strings.Repeat("Sentences accumulate until the window fills. ", 15)
	require.NoError(t, p.Ingest(context.Background(), testMeta(), "", text))

	hits, err := store.VectorSearch(context.Background(), []float32{1, 1, 1, 1}, 50, "p1")
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	seen := make(map[string]bool, len(hits))
	for _, h := range hits {
		seen[h.ChunkID] = true
	}
	for i := 0; i < len(hits); i++ {
		assert.True(t, seen[fmt.Sprintf("p1_chunk_%d", i)], "missing chunk index %d", i)
	}
}

func TestIngestEmptyTextFailsExtraction(t *testing.T) {
	p := NewIngestionPipeline(chunker.New(100, 20), &fakeEmbedder{dim: 4}, graphdb.NewMemoryStore(), 4, nil)

	for _, text := range []string{"", "   \n\t  "} {
		err := p.Ingest(context.Background(), testMeta(), "", text)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrExtractionFailed)
		assert.Contains(t, err.Error(), "p1")
	}
}

func TestIngestWithoutEmbedderUsesZeroVectors(t *testing.T) {
	store := graphdb.NewMemoryStore()
	p := NewIngestionPipeline(chunker.New(100, 20), nil, store, 4, nil)

	assert.False(t, p.EmbeddingsEnabled())
	require.NoError(t, p.Ingest(context.Background(), testMeta(), "", "Short paper body."))

	detail, err := store.GetPaper(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, detail.NoEmbeddings)
	assert.Equal(t, 1, store.ChunkCount("p1"))
}

func TestIngestEmbeddingFailureIsFatal(t *testing.T) {
	store := graphdb.NewMemoryStore()
	p := NewIngestionPipeline(chunker.New(100, 20), &fakeEmbedder{dim: 4, fail: true}, store, 4, nil)

	err := p.Ingest(context.Background(), testMeta(), "", "Some extracted body text.")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
	// Nothing written before embedding succeeds.
	_, getErr := store.GetPaper(context.Background(), "p1")
	assert.ErrorIs(t, getErr, graphdb.ErrNotFound)
}

func TestIngestStoreFailureWrapsSentinel(t *testing.T) {
	store := &scriptedStore{failWrites: true}
	p := NewIngestionPipeline(chunker.New(100, 20), &fakeEmbedder{dim: 4}, store, 4, nil)

	err := p.Ingest(context.Background(), testMeta(), "", "Some extracted body text.")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreWrite)
}

func TestIngestIsIdempotent(t *testing.T) {
	store := graphdb.NewMemoryStore()
	p := NewIngestionPipeline(chunker.New(100, 20), &fakeEmbedder{dim: 4}, store, 4, nil)

	text := strings.Repeat("Identical content both times. ", 10)
	require.NoError(t, p.Ingest(context.Background(), testMeta(), "", text))
	first := store.ChunkCount("p1")
	require.NoError(t, p.Ingest(context.Background(), testMeta(), "", text))

	assert.Equal(t, first, store.ChunkCount("p1"))
	detail, err := store.GetPaper(context.Background(), "p1")
	require.NoError(t, err)
	assert.Len(t, detail.Authors, 2)
}

func TestIngestReplacesChunksWhenTextShrinks(t *testing.T) {
	store := graphdb.NewMemoryStore()
	p := NewIngestionPipeline(chunker.New(100, 20), &fakeEmbedder{dim: 4}, store, 4, nil)

	long := strings.Repeat("A long revision with many sentences. ", 40)
	require.NoError(t, p.Ingest(context.Background(), testMeta(), "", long))
	require.Greater(t, store.ChunkCount("p1"), 1)

	require.NoError(t, p.Ingest(context.Background(), testMeta(), "", "A short revision."))

	assert.Equal(t, 1, store.ChunkCount("p1"))
	hits, err := store.VectorSearch(context.Background(), []float32{1, 1, 1, 1}, 50, "p1")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "p1_chunk_0", hits[0].ChunkID)
}

func TestIngestHonorsCancellation(t *testing.T) {
	p := NewIngestionPipeline(chunker.New(50, 10), &fakeEmbedder{dim: 4}, graphdb.NewMemoryStore(), 4, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Ingest(ctx, testMeta(), "", strings.Repeat("More text than one chunk holds. ", 10))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAuthorIDMergesAcrossPapers(t *testing.T) {
	assert.Equal(t, "author_ashish_vaswani", authorID("Ashish Vaswani"))
	assert.Equal(t, authorID("  Noam  Shazeer "), authorID("Noam Shazeer"))
}
