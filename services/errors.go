package services

import "errors"

// Ingestion failure taxonomy. Extraction failures are fatal for the
// paper and not retried; embedding and store failures are retryable
// because the store's upserts make re-ingesting a whole paper safe.
var (
	// ErrExtractionFailed means no text could be extracted for a paper.
	ErrExtractionFailed = errors.New("text extraction failed")

	// ErrEmbeddingFailed means the embedding call errored (as opposed
	// to the embedder being unconfigured, which is degraded mode, not
	// an error).
	ErrEmbeddingFailed = errors.New("embedding generation failed")

	// ErrStoreWrite means persistence to the graph store failed.
	ErrStoreWrite = errors.New("graph store write failed")
)
