package ai

import (
	"context"
	"fmt"
	"time"

	"paperai-backend/internal/config"
	"paperai-backend/internal/logger"

	"github.com/google/generative-ai-go/genai"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
)

// Embedder maps text to fixed-dimension vectors. Document and query
// embeddings use distinct encoder profiles, so the two methods are not
// interchangeable even when backed by the same model.
type Embedder interface {
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// GeminiEmbedder produces embeddings with the Gemini embedding model.
// All calls go through a circuit breaker and a client-side rate limiter
// so a degraded upstream cannot stall ingestion workers indefinitely.
type GeminiEmbedder struct {
	client      *genai.Client
	modelName   string
	dimension   int
	breaker     *gobreaker.CircuitBreaker
	rateLimiter *rate.Limiter
}

// NewGeminiEmbedder returns nil (without error) when no API key is
// configured; callers treat a nil embedder as embeddings-disabled mode.
func NewGeminiEmbedder(ctx context.Context, cfg *config.Config) (*GeminiEmbedder, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiEmbeddings",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &GeminiEmbedder{
		client:      client,
		modelName:   cfg.EmbeddingModel,
		dimension:   cfg.EmbeddingDimension,
		breaker:     breaker,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(cfg.EmbedRequestsPerMinute)*0.9/60.0), cfg.EmbedRequestsPerMinute/10+1),
	}, nil
}

// Dimension reports the configured vector dimension. Responses with a
// different dimension are rejected.
func (e *GeminiEmbedder) Dimension() int { return e.dimension }

// Close releases the underlying API client.
func (e *GeminiEmbedder) Close() error { return e.client.Close() }

// EmbedDocument embeds text with the retrieval-document task type.
func (e *GeminiEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, text, genai.TaskTypeRetrievalDocument)
}

// EmbedQuery embeds text with the retrieval-query task type.
func (e *GeminiEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, text, genai.TaskTypeRetrievalQuery)
}

// EmbedBatch embeds texts sequentially, preserving input order.
func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for i, text := range texts {
		vec, err := e.EmbedDocument(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed batch item %d: %w", i, err)
		}
		vectors = append(vectors, vec)
	}
	return vectors, nil
}

func (e *GeminiEmbedder) embed(ctx context.Context, text string, taskType genai.TaskType) ([]float32, error) {
	tracer := otel.Tracer("gemini-embedder")
	ctx, span := tracer.Start(ctx, "gemini.embed_content")
	defer span.End()
	span.SetAttributes(
		attribute.String("gemini.model", e.modelName),
		attribute.Int("gemini.text_length", len(text)),
	)

	if err := e.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embedding rate limiter: %w", err)
	}

	result, err := e.breaker.Execute(func() (interface{}, error) {
		model := e.client.EmbeddingModel(e.modelName)
		model.TaskType = taskType
		resp, err := model.EmbedContent(ctx, genai.Text(text))
		if err != nil {
			return nil, err
		}
		if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
			return nil, fmt.Errorf("no embedding returned")
		}
		return resp.Embedding.Values, nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	vec := result.([]float32)
	if e.dimension > 0 && len(vec) != e.dimension {
		return nil, fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(vec), e.dimension)
	}
	return vec, nil
}
