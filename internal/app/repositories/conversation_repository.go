package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yigit/aiinfocenter/internal/app/models"
	"github.com/yigit/aiinfocenter/internal/db"
	"github.com/yigit/aiinfocenter/internal/pkg/apperrors"
)

// ConversationRepository handles conversation thread database operations
type ConversationRepository struct {
	pool db.Executor
}

// NewConversationRepository creates a new ConversationRepository
func NewConversationRepository(pool db.Executor) *ConversationRepository {
	return &ConversationRepository{pool: pool}
}

// Create inserts a new thread
func (r *ConversationRepository) Create(ctx context.Context, thread *models.ConversationThread) error {
	query := `
		INSERT INTO conversation_threads (student_id, title)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	err := db.Conn(ctx, r.pool).QueryRow(ctx, query, thread.StudentID, thread.Title).
		Scan(&thread.ID, &thread.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating conversation thread: %w", err)
	}
	return nil
}

// GetByID retrieves a thread by its ID
func (r *ConversationRepository) GetByID(ctx context.Context, id int64) (*models.ConversationThread, error) {
	query := `
		SELECT id, student_id, title, created_at
		FROM conversation_threads
		WHERE id = $1
	`
	var thread models.ConversationThread
	err := db.Conn(ctx, r.pool).QueryRow(ctx, query, id).
		Scan(&thread.ID, &thread.StudentID, &thread.Title, &thread.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewResourceNotFoundError(fmt.Sprintf("conversation thread %d not found", id))
		}
		return nil, fmt.Errorf("error retrieving conversation thread: %w", err)
	}
	return &thread, nil
}

// ListByStudentID retrieves a student's threads, newest first
func (r *ConversationRepository) ListByStudentID(ctx context.Context, studentID int64) ([]*models.ConversationThread, error) {
	sql, args, err := statementBuilder().
		Select("id", "student_id", "title", "created_at").
		From("conversation_threads").
		Where("student_id = ?", studentID).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	threads := make([]*models.ConversationThread, 0)
	for rows.Next() {
		var thread models.ConversationThread
		if err := rows.Scan(&thread.ID, &thread.StudentID, &thread.Title, &thread.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning conversation thread: %w", err)
		}
		threads = append(threads, &thread)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversation threads: %w", err)
	}

	return threads, nil
}

// Delete removes a thread. Its messages must already be gone.
func (r *ConversationRepository) Delete(ctx context.Context, id int64) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM conversation_threads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting conversation thread: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewResourceNotFoundError(fmt.Sprintf("conversation thread %d not found", id))
	}
	return nil
}
