package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"paperai-backend/internal/graphdb"
	"paperai-backend/services"
	"paperai-backend/utils"
)

// SetupDashboardRoutes exposes corpus-level aggregates and their
// downloadable export.
func SetupDashboardRoutes(router *gin.Engine, store graphdb.Store, export *services.ExportService) {
	dashboard := router.Group("/api/dashboard")

	dashboard.GET("/overview", func(c *gin.Context) {
		overview, err := store.Overview(c.Request.Context())
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to load dashboard overview", nil)
			return
		}
		c.JSON(http.StatusOK, overview)
	})

	dashboard.GET("/export", func(c *gin.Context) {
		format := c.DefaultQuery("format", "excel")
		if format != "json" && format != "excel" {
			utils.RespondWithBadRequest(c, "Unsupported export format", gin.H{"format": format})
			return
		}

		data, err := export.BuildExport(c.Request.Context())
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to build export", nil)
			return
		}
		if err := export.StreamExport(c, data, format); err != nil {
			utils.RespondWithInternalError(c, "Failed to stream export", nil)
		}
	})
}
