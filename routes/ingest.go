package routes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"paperai-backend/internal/queue"
	"paperai-backend/models"
	"paperai-backend/services"
	"paperai-backend/utils"
)

// SetupIngestRoutes exposes batch ingestion and job status endpoints.
func SetupIngestRoutes(router *gin.Engine, enqueuer *queue.Enqueuer, jobs *services.JobStore) {
	ingest := router.Group("/api/ingest")

	ingest.POST("/papers", func(c *gin.Context) {
		var req models.IngestionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid ingestion request", gin.H{"error": err.Error()})
			return
		}

		source := req.Source
		if source == "" {
			source = models.SourceArxiv
		}

		jobID, err := enqueuer.EnqueueBatch(c.Request.Context(), req.PaperIDs, string(source))
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to start ingestion", gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusAccepted, models.IngestionStatus{
			JobID:       jobID,
			Status:      models.JobStatusPending,
			TotalPapers: len(req.PaperIDs),
			Message:     "Ingestion job started",
		})
	})

	ingest.GET("/status/:job_id", func(c *gin.Context) {
		status, err := jobs.GetStatus(c.Request.Context(), c.Param("job_id"))
		if errors.Is(err, services.ErrJobNotFound) {
			utils.RespondWithNotFound(c, "Ingestion job not found")
			return
		}
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to load job status", nil)
			return
		}

		c.JSON(http.StatusOK, status)
	})
}
