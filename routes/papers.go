package routes

import (
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"paperai-backend/internal/graphdb"
	"paperai-backend/models"
	"paperai-backend/services"
	"paperai-backend/utils"
)

// SetupPaperRoutes exposes paper discovery and lookup endpoints.
func SetupPaperRoutes(router *gin.Engine, store graphdb.Store, discovery *services.DiscoveryService) {
	papers := router.Group("/api/papers")

	papers.POST("/search", func(c *gin.Context) {
		var req models.PaperSearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid search request", gin.H{"error": err.Error()})
			return
		}

		results := discovery.SearchArxiv(c.Request.Context(), req.Query, req.MaxResults)
		c.JSON(http.StatusOK, results)
	})

	papers.GET("/:paper_id", func(c *gin.Context) {
		paperID := c.Param("paper_id")

		detail, err := store.GetPaper(c.Request.Context(), paperID)
		if errors.Is(err, graphdb.ErrNotFound) {
			utils.RespondWithNotFound(c, "Paper not found")
			return
		}
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to load paper", nil)
			return
		}

		c.JSON(http.StatusOK, detail)
	})

	papers.GET("/:paper_id/pdf", func(c *gin.Context) {
		paperID := c.Param("paper_id")

		detail, err := store.GetPaper(c.Request.Context(), paperID)
		if errors.Is(err, graphdb.ErrNotFound) || (err == nil && detail.PDFPath == "") {
			utils.RespondWithNotFound(c, "PDF not found")
			return
		}
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to load paper", nil)
			return
		}
		if _, statErr := os.Stat(detail.PDFPath); statErr != nil {
			utils.RespondWithNotFound(c, "PDF file not found on disk")
			return
		}

		c.FileAttachment(detail.PDFPath, paperID+".pdf")
	})
}
