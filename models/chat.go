package models

import "time"

// ChatMessage is one turn of a conversation, supplied by the client on
// each request so the backend stays stateless.
type ChatMessage struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// ChatQueryRequest is the body of POST /api/chat/query.
type ChatQueryRequest struct {
	PaperID      string        `json:"paper_id" binding:"required"`
	Query        string        `json:"query" binding:"required"`
	SelectedText string        `json:"selected_text,omitempty"`
	ChatHistory  []ChatMessage `json:"chat_history,omitempty"`
}

// ChatSource is the trimmed provenance view returned alongside answers.
type ChatSource struct {
	ChunkID string  `json:"chunk_id"`
	PaperID string  `json:"paper_id"`
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
}

// ChatResponse is the non-streaming answer payload.
type ChatResponse struct {
	Response string       `json:"response"`
	Sources  []ChatSource `json:"sources"`
	PaperID  string       `json:"paper_id"`
}
