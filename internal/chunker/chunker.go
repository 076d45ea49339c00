package chunker

import "strings"

// Chunker splits extracted document text into overlapping, roughly
// fixed-size chunks, preferring to cut at sentence boundaries.
type Chunker struct {
	chunkSize int
	overlap   int
}

// New returns a Chunker. chunkSize must be positive and overlap must be
// smaller than chunkSize; out-of-range values fall back to the 1000/200
// defaults so a bad config cannot produce a non-terminating scan.
func New(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunkSize / 5
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}
}

// Chunk splits text into ordered chunks. Adjacent chunks share an
// overlap region so retrieval keeps context across boundaries. Windows
// that do not reach the end of the text are shortened to the last
// period found at or after 70% of the window, which avoids cutting
// mid-sentence without leaving tiny fragments. The output is
// deterministic for identical input: chunk ids are derived from the
// position in this sequence.
//
// Empty input yields no chunks. Windows that trim to nothing, because
// they fall inside a whitespace run, are skipped rather than emitted as
// empty chunks.
func (c *Chunker) Chunk(text string) []string {
	if len(text) == 0 {
		return nil
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + c.chunkSize
		if end > len(text) {
			end = len(text)
		} else if end < len(text) {
			// Prefer a sentence boundary in the last 30% of the window,
			// but only when the shortened window still ends past the
			// overlap, so the next start always advances.
			window := text[start:end]
			if last := strings.LastIndexByte(window, '.'); float64(last) >= float64(c.chunkSize)*0.7 && last+1 > c.overlap {
				end = start + last + 1
			}
		}

		if chunk := strings.TrimSpace(text[start:end]); chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end >= len(text) {
			break
		}
		start = end - c.overlap
	}
	return chunks
}

// ChunkSize reports the configured window length.
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// Overlap reports the configured overlap length.
func (c *Chunker) Overlap() int { return c.overlap }
