package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"paperai-backend/internal/logger"
	"paperai-backend/models"
)

// ErrJobNotFound is returned when a job id has no document.
var ErrJobNotFound = errors.New("ingestion job not found")

// JobStore tracks batch ingestion jobs in Mongo. A job counts papers
// as the worker finishes them and flips to a terminal state once every
// paper is accounted for.
type JobStore struct {
	collection *mongo.Collection
}

func NewJobStore(db *mongo.Database) *JobStore {
	return &JobStore{collection: db.Collection("ingestion_jobs")}
}

// CreateJob inserts a pending job covering totalPapers papers.
func (s *JobStore) CreateJob(ctx context.Context, jobID string, totalPapers int) error {
	now := time.Now().UTC()
	job := models.IngestionJob{
		JobID:       jobID,
		Status:      models.JobStatusPending,
		TotalPapers: totalPapers,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.collection.InsertOne(ctx, job); err != nil {
		return fmt.Errorf("create ingestion job %s: %w", jobID, err)
	}
	return nil
}

// MarkProcessing moves a pending job to processing. Re-marking an
// already processing job is harmless.
func (s *JobStore) MarkProcessing(ctx context.Context, jobID string) error {
	update := bson.M{"$set": bson.M{
		"status":     models.JobStatusProcessing,
		"updated_at": time.Now().UTC(),
	}}
	res, err := s.collection.UpdateByID(ctx, jobID, update)
	if err != nil {
		return fmt.Errorf("mark job %s processing: %w", jobID, err)
	}
	if res.MatchedCount == 0 {
		return ErrJobNotFound
	}
	return nil
}

// RecordResult counts one finished paper. failMsg is recorded when the
// paper failed; the job flips to completed or failed once processed
// plus failed reaches the total.
func (s *JobStore) RecordResult(ctx context.Context, jobID string, succeeded bool, failMsg string) error {
	field := "processed_papers"
	set := bson.M{"updated_at": time.Now().UTC()}
	if !succeeded {
		field = "failed_papers"
		set["last_error"] = failMsg
	}

	res := s.collection.FindOneAndUpdate(ctx, bson.M{"_id": jobID},
		bson.M{"$inc": bson.M{field: 1}, "$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After))

	var job models.IngestionJob
	if err := res.Decode(&job); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrJobNotFound
		}
		return fmt.Errorf("record result for job %s: %w", jobID, err)
	}

	if job.ProcessedPapers+job.FailedPapers < job.TotalPapers {
		return nil
	}

	status := models.JobStatusCompleted
	if job.FailedPapers > 0 {
		status = models.JobStatusFailed
	}
	_, err := s.collection.UpdateByID(ctx, jobID, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("finalize job %s: %w", jobID, err)
	}
	logger.Info("Ingestion job finished", "job_id", jobID, "status", status, "processed", job.ProcessedPapers, "failed", job.FailedPapers)
	return nil
}

// GetStatus returns the API view of one job.
func (s *JobStore) GetStatus(ctx context.Context, jobID string) (*models.IngestionStatus, error) {
	var job models.IngestionJob
	err := s.collection.FindOne(ctx, bson.M{"_id": jobID}).Decode(&job)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", jobID, err)
	}

	return &models.IngestionStatus{
		JobID:           job.JobID,
		Status:          job.Status,
		TotalPapers:     job.TotalPapers,
		ProcessedPapers: job.ProcessedPapers,
		FailedPapers:    job.FailedPapers,
		Message:         job.LastError,
	}, nil
}

// SweepStale fails jobs stuck in pending or processing that have not
// been touched within maxAge. Crashed workers leave such jobs behind.
func (s *JobStore) SweepStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	res, err := s.collection.UpdateMany(ctx,
		bson.M{
			"status":     bson.M{"$in": []string{models.JobStatusPending, models.JobStatusProcessing}},
			"updated_at": bson.M{"$lt": cutoff},
		},
		bson.M{"$set": bson.M{
			"status":     models.JobStatusFailed,
			"last_error": "job timed out",
			"updated_at": time.Now().UTC(),
		}})
	if err != nil {
		return 0, fmt.Errorf("sweep stale jobs: %w", err)
	}
	if res.ModifiedCount > 0 {
		logger.Warn("Failed stale ingestion jobs", "count", res.ModifiedCount)
	}
	return res.ModifiedCount, nil
}
