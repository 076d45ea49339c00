package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"paperai-backend/internal/logger"
	"paperai-backend/models"
	"paperai-backend/services"
)

const (
	TaskIngestPaper = "paper:ingest"
)

// IngestPaperPayload is the body of one paper:ingest task. JobID ties
// the paper back to its batch job document.
type IngestPaperPayload struct {
	PaperID string `json:"paper_id"`
	Source  string `json:"source"`
	JobID   string `json:"job_id"`
}

// NewIngestPaperTask builds a queued task for a single paper.
func NewIngestPaperTask(paperID, source, jobID string) (*asynq.Task, error) {
	payload, err := json.Marshal(IngestPaperPayload{
		PaperID: paperID,
		Source:  source,
		JobID:   jobID,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskIngestPaper,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("default"),
	), nil
}

// TaskProcessor runs queued ingestion tasks against the pipeline.
type TaskProcessor struct {
	discovery *services.DiscoveryService
	extractor *services.PDFExtractor
	pipeline  *services.IngestionPipeline
	jobs      *services.JobStore
}

func NewTaskProcessor(discovery *services.DiscoveryService, extractor *services.PDFExtractor, pipeline *services.IngestionPipeline, jobs *services.JobStore) *TaskProcessor {
	return &TaskProcessor{
		discovery: discovery,
		extractor: extractor,
		pipeline:  pipeline,
		jobs:      jobs,
	}
}

// HandleIngestPaper processes one paper end to end: metadata lookup,
// PDF download, text extraction, then the ingestion pipeline. Failed
// extraction is deterministic and skips retries; everything else is
// retried by asynq.
func (p *TaskProcessor) HandleIngestPaper(ctx context.Context, t *asynq.Task) error {
	var payload IngestPaperPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal ingest payload: %v: %w", err, asynq.SkipRetry)
	}

	logger.Info("Processing ingestion task", "paper_id", payload.PaperID, "job_id", payload.JobID)
	if payload.JobID != "" {
		if err := p.jobs.MarkProcessing(ctx, payload.JobID); err != nil && !errors.Is(err, services.ErrJobNotFound) {
			logger.Warn("Could not mark job processing", "job_id", payload.JobID, "error", err)
		}
	}

	err := p.ingestOne(ctx, payload)
	if payload.JobID != "" {
		failMsg := ""
		if err != nil {
			failMsg = err.Error()
		}
		if recErr := p.jobs.RecordResult(ctx, payload.JobID, err == nil, failMsg); recErr != nil {
			logger.Error("Failed to record job result", "job_id", payload.JobID, "error", recErr)
		}
	}

	if err != nil {
		logger.Error("Paper ingestion failed", "paper_id", payload.PaperID, "error", err)
		if errors.Is(err, services.ErrExtractionFailed) {
			// Retrying won't make a scanned or empty PDF extractable.
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	logger.Info("Paper ingestion completed", "paper_id", payload.PaperID)
	return nil
}

func (p *TaskProcessor) ingestOne(ctx context.Context, payload IngestPaperPayload) error {
	meta, err := p.discovery.GetPaperByID(ctx, payload.PaperID)
	if err != nil {
		return err
	}
	if payload.Source != "" {
		meta.Source = models.PaperSource(payload.Source)
	}

	pdfPath, err := p.discovery.DownloadPDF(ctx, meta.PaperID, meta.PDFURL)
	if err != nil {
		return err
	}

	extraction, err := p.extractor.ExtractText(ctx, pdfPath)
	if err != nil {
		return err
	}

	return p.pipeline.Ingest(ctx, *meta, pdfPath, extraction.Text)
}
