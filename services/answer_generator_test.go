package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"paperai-backend/models"
)

func TestFormatContextsNumbersEntries(t *testing.T) {
	contexts := []models.RetrievedContext{
		{PaperID: "p1", Text: "First passage."},
		{PaperID: "p2", Text: "Second passage."},
	}

	got := formatContexts(contexts)

	assert.Contains(t, got, "[Context 1]\nPaper ID: p1\nFirst passage.")
	assert.Contains(t, got, "[Context 2]\nPaper ID: p2\nSecond passage.")
	assert.Less(t, strings.Index(got, "[Context 1]"), strings.Index(got, "[Context 2]"))
}

func TestFormatContextsEmpty(t *testing.T) {
	assert.Equal(t, "", formatContexts(nil))
}

func TestFormatChatHistoryKeepsLastFive(t *testing.T) {
	history := make([]models.ChatMessage, 7)
	for i := range history {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		history[i] = models.ChatMessage{Role: role, Content: string(rune('a' + i))}
	}

	got := formatChatHistory(history)

	assert.Contains(t, got, "Previous conversation:")
	assert.NotContains(t, got, ": a")
	assert.NotContains(t, got, ": b")
	assert.Contains(t, got, "User: c")
	assert.Contains(t, got, "Assistant: d")
	assert.Contains(t, got, "User: g")
}

func TestFormatChatHistoryEmpty(t *testing.T) {
	assert.Equal(t, "", formatChatHistory(nil))
}

func TestBuildAnswerPromptIncludesAllSections(t *testing.T) {
	contexts := []models.RetrievedContext{{PaperID: "p1", Text: "The model uses attention."}}
	history := []models.ChatMessage{{Role: "user", Content: "earlier question"}}

	prompt := buildAnswerPrompt("what is attention", contexts, "multi-head attention", history)

	assert.Contains(t, prompt, "Paper ID: p1")
	assert.Contains(t, prompt, "Selected Text:\nmulti-head attention")
	assert.Contains(t, prompt, "User: earlier question")
	assert.Contains(t, prompt, "User Question: what is attention")
}

func TestBuildAnswerPromptOmitsEmptySelection(t *testing.T) {
	prompt := buildAnswerPrompt("q", nil, "", nil)
	assert.NotContains(t, prompt, "Selected Text:")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 50))
	assert.Equal(t, "abcde...", truncate("abcdefgh", 5))
}
