package models

import "time"

// ConversationThread is one student's AI chat container
type ConversationThread struct {
	ID        int64     `json:"id" db:"id"`
	StudentID int64     `json:"studentId" db:"student_id"`
	Title     string    `json:"title" db:"title"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// ChatMessage represents one side of an exchange inside a thread
type ChatMessage struct {
	ID        int64     `json:"id" db:"id"`
	ThreadID  int64     `json:"threadId" db:"thread_id"`
	Sender    Sender    `json:"sender" db:"sender"`
	Text      string    `json:"text" db:"text"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
