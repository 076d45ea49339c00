package graphdb

import (
	"context"
	"testing"

	"paperai-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreVectorSearchRanking(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.UpsertPaper(ctx, models.Paper{PaperID: "p1", Title: "Attention"}))
	require.NoError(t, store.CreateChunks(ctx, []models.Chunk{
		{ChunkID: "p1_chunk_0", PaperID: "p1", ChunkIndex: 0, Text: "close", Embedding: []float32{1, 0, 0}},
		{ChunkID: "p1_chunk_1", PaperID: "p1", ChunkIndex: 1, Text: "far", Embedding: []float32{0, 1, 0}},
		{ChunkID: "p1_chunk_2", PaperID: "p1", ChunkIndex: 2, Text: "middle", Embedding: []float32{1, 1, 0}},
	}))

	hits, err := store.VectorSearch(ctx, []float32{1, 0, 0}, 2, "")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "p1_chunk_0", hits[0].ChunkID)
	assert.Equal(t, "p1_chunk_2", hits[1].ChunkID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestMemoryStoreVectorSearchPaperFilter(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.CreateChunks(ctx, []models.Chunk{
		{ChunkID: "a_chunk_0", PaperID: "a", Embedding: []float32{1, 0}},
		{ChunkID: "b_chunk_0", PaperID: "b", Embedding: []float32{1, 0}},
	}))

	hits, err := store.VectorSearch(ctx, []float32{1, 0}, 10, "a")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].PaperID)
}

func TestMemoryStoreCreateChunksIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	chunks := []models.Chunk{
		{ChunkID: "p_chunk_0", PaperID: "p", ChunkIndex: 0, Embedding: []float32{1}},
		{ChunkID: "p_chunk_1", PaperID: "p", ChunkIndex: 1, Embedding: []float32{1}},
	}
	require.NoError(t, store.CreateChunks(ctx, chunks))
	require.NoError(t, store.CreateChunks(ctx, chunks))

	assert.Equal(t, 2, store.ChunkCount("p"))
}

func TestMemoryStoreCreateChunksReplacesStale(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	long := []models.Chunk{
		{ChunkID: "p_chunk_0", PaperID: "p", ChunkIndex: 0, Embedding: []float32{1}},
		{ChunkID: "p_chunk_1", PaperID: "p", ChunkIndex: 1, Embedding: []float32{1}},
		{ChunkID: "p_chunk_2", PaperID: "p", ChunkIndex: 2, Embedding: []float32{1}},
	}
	require.NoError(t, store.CreateChunks(ctx, long))

	short := []models.Chunk{
		{ChunkID: "p_chunk_0", PaperID: "p", ChunkIndex: 0, Embedding: []float32{1}},
	}
	require.NoError(t, store.CreateChunks(ctx, short))

	assert.Equal(t, 1, store.ChunkCount("p"))
	hits, err := store.VectorSearch(ctx, []float32{1}, 10, "p")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "p_chunk_0", hits[0].ChunkID)
}

func TestMemoryStoreExpandNeighbors(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.UpsertPaper(ctx, models.Paper{PaperID: id, Title: "paper " + id}))
	}
	store.AddCitation("a", "b")
	store.AddCitation("b", "c")

	related, err := store.ExpandNeighbors(ctx, "a", 2)
	require.NoError(t, err)
	require.Len(t, related, 2)
	assert.Equal(t, "b", related[0].PaperID)
	assert.Equal(t, 1, related[0].Distance)
	assert.Equal(t, "c", related[1].PaperID)
	assert.Equal(t, 2, related[1].Distance)

	// Depth 1 must not reach the second hop.
	related, err = store.ExpandNeighbors(ctx, "a", 1)
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, "b", related[0].PaperID)
}

func TestMemoryStoreGetPaper(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.GetPaper(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.UpsertPaper(ctx, models.Paper{PaperID: "p", Title: "T", Year: 2020}))
	require.NoError(t, store.UpsertAuthor(ctx, models.Author{AuthorID: "a0", Name: "Ada"}))
	require.NoError(t, store.LinkAuthor(ctx, "p", "a0"))

	detail, err := store.GetPaper(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "T", detail.Title)
	assert.Equal(t, []string{"Ada"}, detail.Authors)
}

func TestMemoryStoreOverview(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.UpsertPaper(ctx, models.Paper{PaperID: "p1", Year: 2021}))
	require.NoError(t, store.UpsertPaper(ctx, models.Paper{PaperID: "p2", Year: 2021}))
	require.NoError(t, store.UpsertAuthor(ctx, models.Author{AuthorID: "a", Name: "Ada"}))
	require.NoError(t, store.LinkAuthor(ctx, "p1", "a"))
	require.NoError(t, store.LinkAuthor(ctx, "p2", "a"))
	require.NoError(t, store.CreateChunks(ctx, []models.Chunk{{ChunkID: "p1_chunk_0", PaperID: "p1"}}))

	overview, err := store.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, overview.TotalPapers)
	assert.Equal(t, 1, overview.TotalAuthors)
	assert.Equal(t, 1, overview.TotalChunks)
	require.Len(t, overview.PapersPerYear, 1)
	assert.Equal(t, models.YearCount{Year: 2021, Count: 2}, overview.PapersPerYear[0])
	require.Len(t, overview.TopAuthors, 1)
	assert.Equal(t, models.AuthorCount{Author: "Ada", Count: 2}, overview.TopAuthors[0])
}
