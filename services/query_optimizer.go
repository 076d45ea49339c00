package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"paperai-backend/internal/ai"
	"paperai-backend/internal/logger"
	"paperai-backend/models"
)

const queryOptimizerPrompt = `You are a query optimization agent for a research paper knowledge graph.

Graph Schema:
- Nodes: Paper, Chunk, Author, Method, Concept
- Relationships: HAS_CHUNK, AUTHORED_BY, CITES, USES, MENTIONS

User Query: %s%s

Analyze the query and extract:
1. intent_type: The type of query (definition, comparison, methodology, citation, general)
2. entities: Key entities mentioned (paper titles, authors, methods, concepts)
3. relations: Relevant relationships to explore
4. semantic_query: A refined semantic search query
5. retrieval_params: Parameters for retrieval (e.g., focus_on_citations, expand_depth)

Return your analysis as a JSON object with these fields.`

// QueryOptimizer turns a free-form user question into a structured
// graph intent that steers retrieval. It never fails: when the model
// is unreachable or returns garbage, the raw query is passed through
// as a general intent.
type QueryOptimizer struct {
	llm *ai.GeminiClient
}

func NewQueryOptimizer(llm *ai.GeminiClient) *QueryOptimizer {
	return &QueryOptimizer{llm: llm}
}

// Optimize analyzes the query, optionally grounded on text the user
// selected in the paper viewer.
func (o *QueryOptimizer) Optimize(ctx context.Context, query, selectedText string) models.GraphIntent {
	fallback := models.GraphIntent{
		IntentType:      "general",
		Entities:        []string{},
		Relations:       []string{},
		SemanticQuery:   query,
		RetrievalParams: map[string]interface{}{},
	}
	if o.llm == nil {
		return fallback
	}

	selection := ""
	if selectedText != "" {
		selection = "\nSelected text: " + selectedText
	}
	prompt := fmt.Sprintf(queryOptimizerPrompt, query, selection)

	text, err := o.llm.GenerateText(ctx, prompt)
	if err != nil {
		logger.Error("Query optimization failed", "error", err)
		return fallback
	}

	var parsed struct {
		IntentType      string                 `json:"intent_type"`
		Entities        []string               `json:"entities"`
		Relations       []string               `json:"relations"`
		SemanticQuery   string                 `json:"semantic_query"`
		RetrievalParams map[string]interface{} `json:"retrieval_params"`
	}
	if err := json.Unmarshal([]byte(extractJSON(text)), &parsed); err != nil {
		logger.Error("Query optimization returned unparseable JSON", "error", err)
		return fallback
	}

	intent := fallback
	if parsed.IntentType != "" {
		intent.IntentType = parsed.IntentType
	}
	if parsed.Entities != nil {
		intent.Entities = parsed.Entities
	}
	if parsed.Relations != nil {
		intent.Relations = parsed.Relations
	}
	if parsed.SemanticQuery != "" {
		intent.SemanticQuery = parsed.SemanticQuery
	}
	if parsed.RetrievalParams != nil {
		intent.RetrievalParams = parsed.RetrievalParams
	}

	logger.Info("Optimized query", "intent_type", intent.IntentType)
	return intent
}

// extractJSON strips the markdown code fence the model often wraps
// around its JSON output.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "```json"); idx >= 0 {
		text = text[idx+len("```json"):]
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
		return strings.TrimSpace(text)
	}
	if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[idx+len("```"):]
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
		return strings.TrimSpace(text)
	}
	return text
}
