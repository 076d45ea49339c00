package models

import "time"

// Ingestion job lifecycle states.
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// IngestionRequest is the body of POST /api/ingest/papers.
type IngestionRequest struct {
	PaperIDs []string    `json:"paper_ids" binding:"required"`
	Source   PaperSource `json:"source"`
}

// IngestionStatus is the API view of a batch ingestion job.
type IngestionStatus struct {
	JobID           string `json:"job_id"`
	Status          string `json:"status"`
	TotalPapers     int    `json:"total_papers"`
	ProcessedPapers int    `json:"processed_papers"`
	FailedPapers    int    `json:"failed_papers"`
	Message         string `json:"message,omitempty"`
}

// IngestionJob is the persisted job document the worker updates as it
// works through a batch.
type IngestionJob struct {
	JobID           string    `json:"job_id" bson:"_id"`
	Status          string    `json:"status" bson:"status"`
	TotalPapers     int       `json:"total_papers" bson:"total_papers"`
	ProcessedPapers int       `json:"processed_papers" bson:"processed_papers"`
	FailedPapers    int       `json:"failed_papers" bson:"failed_papers"`
	LastError       string    `json:"last_error,omitempty" bson:"last_error,omitempty"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" bson:"updated_at"`
}
