package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"paperai-backend/internal/config"
	"paperai-backend/internal/logger"

	"github.com/google/generative-ai-go/genai"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GeminiClient wraps the Gemini generative model used for query
// optimization and answer generation.
type GeminiClient struct {
	client      *genai.Client
	modelName   string
	breaker     *gobreaker.CircuitBreaker
	rateLimiter *rate.Limiter
}

func NewGeminiClient(ctx context.Context, cfg *config.Config) (*GeminiClient, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, err
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiAPI",
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

	return &GeminiClient{
		client:      client,
		modelName:   cfg.LLMModel,
		breaker:     breaker,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(cfg.LLMRequestsPerMinute)*0.9/60.0), cfg.LLMRequestsPerMinute/10+1),
	}, nil
}

func (gc *GeminiClient) Close() error { return gc.client.Close() }

// GenerateText runs a single prompt and returns the concatenated text
// parts of the response candidates.
func (gc *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	tracer := otel.Tracer("gemini-client")
	ctx, span := tracer.Start(ctx, "gemini.generate_content")
	defer span.End()
	span.SetAttributes(
		attribute.String("gemini.model", gc.modelName),
		attribute.Int("gemini.prompt_length", len(prompt)),
	)

	if err := gc.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("llm rate limiter: %w", err)
	}

	result, err := gc.breaker.Execute(func() (interface{}, error) {
		model := gc.client.GenerativeModel(gc.modelName)
		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return nil, err
		}
		return flattenResponse(resp), nil
	})
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	text := result.(string)
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}

// GenerateStream runs a prompt and delivers text fragments on the
// returned channel as the model produces them. The channel is closed
// when the stream ends; a terminal error is sent on errc.
func (gc *GeminiClient) GenerateStream(ctx context.Context, prompt string) (<-chan string, <-chan error) {
	out := make(chan string)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)

		if err := gc.rateLimiter.Wait(ctx); err != nil {
			errc <- fmt.Errorf("llm rate limiter: %w", err)
			return
		}

		model := gc.client.GenerativeModel(gc.modelName)
		iter := model.GenerateContentStream(ctx, genai.Text(prompt))
		for {
			resp, err := iter.Next()
			if err == iterator.Done {
				return
			}
			if err != nil {
				errc <- err
				return
			}
			if text := flattenResponse(resp); text != "" {
				select {
				case out <- text:
				case <-ctx.Done():
					errc <- ctx.Err()
					return
				}
			}
		}
	}()

	return out, errc
}

func flattenResponse(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	return sb.String()
}
