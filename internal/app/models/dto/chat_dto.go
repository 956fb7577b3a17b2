package dto

import (
	"time"

	"github.com/yigit/aiinfocenter/internal/app/models"
)

// CreateConversationRequest starts a new thread
type CreateConversationRequest struct {
	Title string `json:"title" example:"Help"`
}

// SendMessageRequest posts a student message to a thread
type SendMessageRequest struct {
	Text string `json:"text" example:"hello"`
}

// ConversationResponse represents a thread
type ConversationResponse struct {
	ID        int64     `json:"id" example:"1"`
	Title     string    `json:"title" example:"Help"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChatMessageResponse represents a message inside a thread
type ChatMessageResponse struct {
	ID        int64         `json:"id" example:"2"`
	ThreadID  int64         `json:"threadId" example:"1"`
	Sender    models.Sender `json:"sender" example:"AI"`
	Text      string        `json:"text" example:"Hi! How can I help?"`
	CreatedAt time.Time     `json:"createdAt"`
}

// RelayMessageRequest is the body of the public AI relay
type RelayMessageRequest struct {
	Text string `json:"text" binding:"required" example:"What are the library hours?"`
}

// RelayMessageResponse carries the AI reply of the public relay
type RelayMessageResponse struct {
	Reply string `json:"reply" example:"The library is open 8-20."`
}

// NewConversationResponse converts a thread model
func NewConversationResponse(t *models.ConversationThread) ConversationResponse {
	return ConversationResponse{ID: t.ID, Title: t.Title, CreatedAt: t.CreatedAt}
}

// NewConversationResponses converts a list of threads
func NewConversationResponses(threads []*models.ConversationThread) []ConversationResponse {
	out := make([]ConversationResponse, 0, len(threads))
	for _, t := range threads {
		out = append(out, NewConversationResponse(t))
	}
	return out
}

// NewChatMessageResponse converts a message model
func NewChatMessageResponse(m *models.ChatMessage) ChatMessageResponse {
	return ChatMessageResponse{
		ID:        m.ID,
		ThreadID:  m.ThreadID,
		Sender:    m.Sender,
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
	}
}

// NewChatMessageResponses converts a list of messages
func NewChatMessageResponses(messages []*models.ChatMessage) []ChatMessageResponse {
	out := make([]ChatMessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, NewChatMessageResponse(m))
	}
	return out
}
