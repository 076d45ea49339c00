package services

import (
	"context"
	"fmt"
	"strings"

	"paperai-backend/internal/ai"
	"paperai-backend/internal/logger"
	"paperai-backend/models"
)

// errorAnswer is returned in place of a hard failure so the chat UI
// always has something to render.
const errorAnswer = "I apologize, but I encountered an error while generating the answer. Please try again."

const answerPromptTemplate = `You are an AI assistant specialized in research paper analysis. Your goal is to provide accurate, insightful answers based on the research paper content.

Retrieved Context:
%s
%s%s

User Question: %s

Instructions:
1. Answer based primarily on the provided context
2. Be specific and cite relevant information from the context
3. If the selected text is provided, focus your answer on that specific portion
4. If the context doesn't contain enough information, acknowledge this
5. Provide clear, well-structured answers
6. Use academic language appropriate for research discussion

Answer:`

// AnswerGenerator composes retrieved contexts, chat history and the
// user's question into a grounded prompt and runs the LLM.
type AnswerGenerator struct {
	llm *ai.GeminiClient
}

func NewAnswerGenerator(llm *ai.GeminiClient) *AnswerGenerator {
	return &AnswerGenerator{llm: llm}
}

// GenerateAnswer returns a complete answer. Model failures degrade to
// a canned apology instead of an error so a flaky upstream never takes
// the chat endpoint down.
func (g *AnswerGenerator) GenerateAnswer(ctx context.Context, query string, contexts []models.RetrievedContext, selectedText string, history []models.ChatMessage) string {
	if g.llm == nil {
		return errorAnswer
	}

	prompt := buildAnswerPrompt(query, contexts, selectedText, history)
	answer, err := g.llm.GenerateText(ctx, prompt)
	if err != nil {
		logger.Error("Answer generation failed", "error", err)
		return errorAnswer
	}

	logger.Info("Generated answer", "query", truncate(query, 50))
	return strings.TrimSpace(answer)
}

// GenerateStream streams answer fragments on the returned channel. On
// failure the apology text is delivered as the final fragment and the
// channel closes.
func (g *AnswerGenerator) GenerateStream(ctx context.Context, query string, contexts []models.RetrievedContext, selectedText string, history []models.ChatMessage) <-chan string {
	out := make(chan string)

	go func() {
		defer close(out)
		if g.llm == nil {
			out <- errorAnswer
			return
		}

		prompt := buildAnswerPrompt(query, contexts, selectedText, history)
		fragments, errc := g.llm.GenerateStream(ctx, prompt)
		for fragment := range fragments {
			select {
			case out <- fragment:
			case <-ctx.Done():
				return
			}
		}
		if err := <-errc; err != nil {
			logger.Error("Streaming answer failed", "error", err)
			select {
			case out <- errorAnswer:
			case <-ctx.Done():
			}
		}
	}()

	return out
}

func buildAnswerPrompt(query string, contexts []models.RetrievedContext, selectedText string, history []models.ChatMessage) string {
	selection := ""
	if selectedText != "" {
		selection = "\n\nSelected Text:\n" + selectedText
	}
	return fmt.Sprintf(answerPromptTemplate, formatContexts(contexts), formatChatHistory(history), selection, query)
}

func formatContexts(contexts []models.RetrievedContext) string {
	var sb strings.Builder
	for i, ctx := range contexts {
		fmt.Fprintf(&sb, "[Context %d]\nPaper ID: %s\n%s\n", i+1, ctx.PaperID, ctx.Text)
		if i < len(contexts)-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// formatChatHistory renders the last five turns. Older turns add
// tokens without adding grounding.
func formatChatHistory(history []models.ChatMessage) string {
	if len(history) == 0 {
		return ""
	}
	if len(history) > 5 {
		history = history[len(history)-5:]
	}

	lines := []string{"\nPrevious conversation:"}
	for _, msg := range history {
		role := "Assistant"
		if msg.Role == "user" {
			role = "User"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", role, msg.Content))
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
