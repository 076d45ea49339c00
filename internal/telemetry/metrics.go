package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	RequestCounter    metric.Int64Counter
	RequestDuration   metric.Float64Histogram
	PapersIngested    metric.Int64Counter
	ChunksStored      metric.Int64Counter
	RetrievalContexts metric.Int64Histogram
	ExtractionTime    metric.Float64Histogram
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("paperai-backend")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	papersIngested, err := meter.Int64Counter(
		"ingestion.papers.total",
		metric.WithDescription("Total papers ingested"),
	)
	if err != nil {
		return nil, err
	}

	chunksStored, err := meter.Int64Counter(
		"ingestion.chunks.total",
		metric.WithDescription("Total chunks stored"),
	)
	if err != nil {
		return nil, err
	}

	retrievalContexts, err := meter.Int64Histogram(
		"retrieval.contexts.returned",
		metric.WithDescription("Contexts returned per retrieval call"),
	)
	if err != nil {
		return nil, err
	}

	extractionTime, err := meter.Float64Histogram(
		"pdf.extraction.duration",
		metric.WithDescription("PDF text extraction duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:    requestCounter,
		RequestDuration:   requestDuration,
		PapersIngested:    papersIngested,
		ChunksStored:      chunksStored,
		RetrievalContexts: retrievalContexts,
		ExtractionTime:    extractionTime,
	}, nil
}

// RecordRequest records HTTP request metrics
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	}

	m.RequestCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.RequestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordIngestedPaper records one completed paper ingestion.
func (m *Metrics) RecordIngestedPaper(ctx context.Context, source string, chunks int) {
	attrs := metric.WithAttributes(attribute.String("paper.source", source))
	m.PapersIngested.Add(ctx, 1, attrs)
	m.ChunksStored.Add(ctx, int64(chunks), attrs)
}

// RecordRetrieval records the size of one retrieval result.
func (m *Metrics) RecordRetrieval(ctx context.Context, contexts int) {
	m.RetrievalContexts.Record(ctx, int64(contexts))
}

// RecordExtraction records PDF extraction metrics.
func (m *Metrics) RecordExtraction(duration float64, status string) {
	m.ExtractionTime.Record(context.Background(), duration,
		metric.WithAttributes(attribute.String("pdf.status", status)))
}
