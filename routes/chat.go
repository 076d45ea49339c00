package routes

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"paperai-backend/models"
	"paperai-backend/services"
	"paperai-backend/utils"
)

const (
	chatTopK          = 10
	maxSources        = 5
	sourcePreviewSize = 200
)

// SetupChatRoutes exposes the question answering endpoints. The stream
// variant delivers sources first, then answer fragments, as
// server-sent events.
func SetupChatRoutes(router *gin.Engine, optimizer *services.QueryOptimizer, retriever *services.HybridRetriever, generator *services.AnswerGenerator) {
	chat := router.Group("/api/chat")

	chat.POST("/query", func(c *gin.Context) {
		var req models.ChatQueryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid chat request", gin.H{"error": err.Error()})
			return
		}

		ctx := c.Request.Context()
		intent := optimizer.Optimize(ctx, req.Query, req.SelectedText)
		contexts := retriever.Retrieve(ctx, intent, req.PaperID, chatTopK)
		answer := generator.GenerateAnswer(ctx, req.Query, contexts, req.SelectedText, req.ChatHistory)

		c.JSON(http.StatusOK, models.ChatResponse{
			Response: answer,
			Sources:  toChatSources(contexts),
			PaperID:  req.PaperID,
		})
	})

	chat.POST("/stream", func(c *gin.Context) {
		var req models.ChatQueryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid chat request", gin.H{"error": err.Error()})
			return
		}

		ctx := c.Request.Context()
		intent := optimizer.Optimize(ctx, req.Query, req.SelectedText)
		contexts := retriever.Retrieve(ctx, intent, req.PaperID, chatTopK)

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")

		sourcesSent := false
		fragments := generator.GenerateStream(ctx, req.Query, contexts, req.SelectedText, req.ChatHistory)
		c.Stream(func(w io.Writer) bool {
			if !sourcesSent {
				sourcesSent = true
				c.SSEvent("sources", mustJSON(toChatSources(contexts)))
				return true
			}
			fragment, ok := <-fragments
			if !ok {
				c.SSEvent("done", "")
				return false
			}
			c.SSEvent("content", fragment)
			return true
		})
	})
}

// toChatSources trims contexts to the provenance view: at most five
// entries with a 200-character text preview.
func toChatSources(contexts []models.RetrievedContext) []models.ChatSource {
	if len(contexts) > maxSources {
		contexts = contexts[:maxSources]
	}

	sources := make([]models.ChatSource, 0, len(contexts))
	for _, ctx := range contexts {
		text := ctx.Text
		if len(text) > sourcePreviewSize {
			text = text[:sourcePreviewSize] + "..."
		}
		sources = append(sources, models.ChatSource{
			ChunkID: ctx.ChunkID,
			PaperID: ctx.PaperID,
			Text:    text,
			Score:   ctx.Score,
		})
	}
	return sources
}

func mustJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(data)
}
