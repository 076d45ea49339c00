package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"paperai-backend/internal/ai"
	"paperai-backend/internal/graphdb"
	"paperai-backend/internal/logger"
	"paperai-backend/internal/telemetry"
	"paperai-backend/models"
)

// Graph-expansion hits score below strong vector hits but above weak
// ones: a first-degree neighbor lands at 0.7.
const (
	graphExpansionBaseScore    = 0.8
	graphExpansionDistanceStep = 0.1
	maxGraphExpansionPapers    = 5
)

// HybridRetriever merges vector similarity search with graph-
// neighborhood expansion into one ranked context list. Retrieval never
// returns an error: partial or absent grounding is a legitimate answer
// state downstream, so every failure degrades to an empty result.
type HybridRetriever struct {
	embedder ai.Embedder
	store    graphdb.Store
	metrics  *telemetry.Metrics
}

func NewHybridRetriever(embedder ai.Embedder, store graphdb.Store, metrics *telemetry.Metrics) *HybridRetriever {
	return &HybridRetriever{embedder: embedder, store: store, metrics: metrics}
}

// Retrieve returns at most topK contexts sorted by non-increasing
// score. Graph expansion only runs when a paper id is given and the
// intent signals relational interest (intent type mentions "citation"
// or the semantic query mentions "related").
func (r *HybridRetriever) Retrieve(ctx context.Context, intent models.GraphIntent, paperID string, topK int) []models.RetrievedContext {
	if topK <= 0 {
		topK = 10
	}

	if r.embedder == nil {
		logger.Warn("Retrieval without embedder, returning no contexts")
		return []models.RetrievedContext{}
	}

	queryVec, err := r.embedder.EmbedQuery(ctx, intent.SemanticQuery)
	if err != nil {
		logger.Error("Query embedding failed", "error", err)
		return []models.RetrievedContext{}
	}

	hits, err := r.store.VectorSearch(ctx, queryVec, topK, paperID)
	if err != nil {
		logger.Error("Vector search failed", "error", err)
		return []models.RetrievedContext{}
	}

	contexts := make([]models.RetrievedContext, 0, len(hits)+maxGraphExpansionPapers)
	for _, hit := range hits {
		contexts = append(contexts, models.RetrievedContext{
			Text:    hit.Text,
			PaperID: hit.PaperID,
			ChunkID: hit.ChunkID,
			Score:   hit.Score,
			Metadata: map[string]interface{}{
				"retrieval_type": models.RetrievalTypeVector,
				"chunk_index":    hit.ChunkIndex,
			},
		})
	}

	if paperID != "" && wantsGraphExpansion(intent) {
		contexts = append(contexts, r.expandGraph(ctx, paperID)...)
	}

	// Stable: ties keep insertion order, vector hits ahead of graph
	// hits appended after them.
	sort.SliceStable(contexts, func(i, j int) bool { return contexts[i].Score > contexts[j].Score })
	if len(contexts) > topK {
		contexts = contexts[:topK]
	}

	if r.metrics != nil {
		r.metrics.RecordRetrieval(ctx, len(contexts))
	}
	logger.Debug("Retrieved contexts", "count", len(contexts), "paper_id", paperID)
	return contexts
}

// wantsGraphExpansion preserves the source system's heuristic trigger:
// a substring match on the free-form intent fields.
func wantsGraphExpansion(intent models.GraphIntent) bool {
	return strings.Contains(strings.ToLower(intent.IntentType), "citation") ||
		strings.Contains(strings.ToLower(intent.SemanticQuery), "related")
}

func (r *HybridRetriever) expandGraph(ctx context.Context, paperID string) []models.RetrievedContext {
	related, err := r.store.ExpandNeighbors(ctx, paperID, 1)
	if err != nil {
		logger.Error("Graph expansion failed", "error", err, "paper_id", paperID)
		return nil
	}

	if len(related) > maxGraphExpansionPapers {
		related = related[:maxGraphExpansionPapers]
	}

	contexts := make([]models.RetrievedContext, 0, len(related))
	for _, rp := range related {
		contexts = append(contexts, models.RetrievedContext{
			Text:    fmt.Sprintf("Related paper: %s", rp.Title),
			PaperID: rp.PaperID,
			ChunkID: fmt.Sprintf("related_%s", rp.PaperID),
			Score:   graphExpansionBaseScore - graphExpansionDistanceStep*float64(rp.Distance),
			Metadata: map[string]interface{}{
				"retrieval_type": models.RetrievalTypeGraph,
				"distance":       rp.Distance,
			},
		})
	}
	return contexts
}
