package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkEmptyText(t *testing.T) {
	c := New(1000, 200)
	assert.Empty(t, c.Chunk(""))
}

func TestChunkShortText(t *testing.T) {
	c := New(1000, 200)
	chunks := c.Chunk("  A short abstract about transformers.  ")
	require.Len(t, chunks, 1)
	assert.Equal(t, "A short abstract about transformers.", chunks[0])
}

func TestChunkCutsAtSentenceBoundary(t *testing.T) {
	// 1500 chars with a period at index 900: the first window must end
	// at the period (>= 70% of 1000), the second at end of text.
	text := strings.Repeat("a", 900) + "." + strings.Repeat("b", 599)
	c := New(1000, 200)

	chunks := c.Chunk(text)
	require.Len(t, chunks, 2)
	assert.Equal(t, 901, len(chunks[0]))
	assert.True(t, strings.HasSuffix(chunks[0], "."))
	// Second window starts at 901-200=701, so it begins inside the
	// first chunk's tail.
	assert.Equal(t, text[701:], chunks[1])
}

func TestChunkIgnoresEarlyPeriod(t *testing.T) {
	// Period at index 300 is before the 70% threshold, so the window
	// stays full length.
	text := strings.Repeat("a", 300) + "." + strings.Repeat("b", 1199)
	c := New(1000, 200)

	chunks := c.Chunk(text)
	require.NotEmpty(t, chunks)
	assert.Equal(t, 1000, len(chunks[0]))
}

func TestChunkOverlapRegions(t *testing.T) {
	text := strings.Repeat("x", 2500)
	c := New(1000, 200)

	chunks := c.Chunk(text)
	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		// Each chunk must start with the last overlap bytes of its
		// predecessor (no sentence boundaries in this input).
		assert.Equal(t, prev[len(prev)-200:], chunks[i][:200])
	}
}

func TestChunkReconstructsText(t *testing.T) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog. ", 60)
	c := New(400, 80)

	chunks := c.Chunk(text)
	require.NotEmpty(t, chunks)

	// Every chunk must be a contiguous slice of the source, each one
	// starting no later than the previous chunk's end (the overlap),
	// and together they must cover the whole text.
	covered := 0
	prevEnd := 0
	for i, ch := range chunks {
		idx := strings.Index(text[covered:], ch)
		require.GreaterOrEqual(t, idx, 0, "chunk %d not found in source", i)
		start := covered + idx
		assert.LessOrEqual(t, start, prevEnd)
		prevEnd = start + len(ch)
		covered = start
	}
	assert.Equal(t, strings.TrimSpace(text), strings.TrimSpace(text[:prevEnd]))
}

func TestChunkDeterministic(t *testing.T) {
	text := strings.Repeat("Sentences vary in length. Some are short. Others ramble on for quite a while before stopping. ", 40)
	c := New(1000, 200)

	first := c.Chunk(text)
	second := c.Chunk(text)
	assert.Equal(t, first, second)
}

func TestNewClampsBadConfig(t *testing.T) {
	c := New(0, -1)
	assert.Equal(t, 1000, c.ChunkSize())
	assert.Equal(t, 200, c.Overlap())

	c = New(100, 100) // overlap must stay below chunk size
	assert.Less(t, c.Overlap(), c.ChunkSize())
}

func TestChunkAdvancesWithLargeOverlap(t *testing.T) {
	// A period at 75% of the window used to win the sentence snap even
	// when the overlap reached back past the shortened end, moving the
	// next window start backwards. The snap must yield to forward
	// progress when overlap is that large.
	text := strings.Repeat(strings.Repeat("a", 749)+".", 4)
	c := New(1000, 800)

	chunks := c.Chunk(text)
	require.NotEmpty(t, chunks)
	total := 0
	for _, ch := range chunks {
		assert.LessOrEqual(t, len(ch), 1000)
		total += len(ch)
	}
	// Overlapping windows revisit text, but the scan must still reach
	// the end rather than loop.
	assert.GreaterOrEqual(t, total, len(text))
}

func TestChunkSkipsWhitespaceOnlyWindows(t *testing.T) {
	text := strings.Repeat("w", 400) + strings.Repeat(" ", 900) + strings.Repeat("w", 400)
	c := New(400, 0)

	chunks := c.Chunk(text)
	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		assert.NotEmpty(t, ch)
	}
}

func TestChunkTerminates(t *testing.T) {
	// Worst case: no sentence boundaries at all, maximum overlap.
	c := New(10, 9)
	chunks := c.Chunk(strings.Repeat("z", 100))
	assert.NotEmpty(t, chunks)
	for _, ch := range chunks {
		assert.LessOrEqual(t, len(ch), 10)
	}
}
