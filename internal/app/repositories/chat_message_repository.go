package repositories

import (
	"context"
	"fmt"

	"github.com/yigit/aiinfocenter/internal/app/models"
	"github.com/yigit/aiinfocenter/internal/db"
)

// ChatMessageRepository handles database operations for chat messages
type ChatMessageRepository struct {
	pool db.Executor
}

// NewChatMessageRepository creates a new ChatMessageRepository
func NewChatMessageRepository(pool db.Executor) *ChatMessageRepository {
	return &ChatMessageRepository{pool: pool}
}

// Create inserts a new chat message
func (r *ChatMessageRepository) Create(ctx context.Context, message *models.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (thread_id, sender, text)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := db.Conn(ctx, r.pool).QueryRow(ctx, query,
		message.ThreadID,
		string(message.Sender),
		message.Text,
	).Scan(&message.ID, &message.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating chat message: %w", err)
	}
	return nil
}

// ListByThreadID retrieves the messages of a thread in chronological order
func (r *ChatMessageRepository) ListByThreadID(ctx context.Context, threadID int64) ([]*models.ChatMessage, error) {
	sql, args, err := statementBuilder().
		Select("id", "thread_id", "sender", "text", "created_at").
		From("chat_messages").
		Where("thread_id = ?", threadID).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	messages := make([]*models.ChatMessage, 0)
	for rows.Next() {
		var message models.ChatMessage
		var sender string
		if err := rows.Scan(&message.ID, &message.ThreadID, &sender, &message.Text, &message.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning chat message: %w", err)
		}
		message.Sender = models.Sender(sender)
		messages = append(messages, &message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat messages: %w", err)
	}

	return messages, nil
}

// DeleteByThreadID removes every message of a thread and returns the count
func (r *ChatMessageRepository) DeleteByThreadID(ctx context.Context, threadID int64) (int64, error) {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM chat_messages WHERE thread_id = $1`, threadID)
	if err != nil {
		return 0, fmt.Errorf("error deleting chat messages: %w", err)
	}
	return tag.RowsAffected(), nil
}
