package queue

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"paperai-backend/internal/logger"
	"paperai-backend/services"
)

// Enqueuer fans a batch ingestion request out into one task per paper
// and tracks the batch under a single job id.
type Enqueuer struct {
	client *asynq.Client
	jobs   *services.JobStore
}

func NewEnqueuer(client *asynq.Client, jobs *services.JobStore) *Enqueuer {
	return &Enqueuer{client: client, jobs: jobs}
}

// EnqueueBatch creates the job document and queues one ingestion task
// per paper. Papers that fail to enqueue are counted as failed
// immediately so the job can still reach a terminal state.
func (e *Enqueuer) EnqueueBatch(ctx context.Context, paperIDs []string, source string) (string, error) {
	if len(paperIDs) == 0 {
		return "", fmt.Errorf("no paper ids to ingest")
	}

	jobID := uuid.New().String()
	if err := e.jobs.CreateJob(ctx, jobID, len(paperIDs)); err != nil {
		return "", err
	}

	for _, paperID := range paperIDs {
		task, err := NewIngestPaperTask(paperID, source, jobID)
		if err == nil {
			_, err = e.client.EnqueueContext(ctx, task)
		}
		if err != nil {
			logger.Error("Failed to enqueue ingestion task", "paper_id", paperID, "job_id", jobID, "error", err)
			if recErr := e.jobs.RecordResult(ctx, jobID, false, err.Error()); recErr != nil {
				logger.Error("Failed to record enqueue failure", "job_id", jobID, "error", recErr)
			}
			continue
		}
	}

	logger.Info("Enqueued ingestion batch", "job_id", jobID, "papers", len(paperIDs))
	return jobID, nil
}
