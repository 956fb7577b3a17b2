package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/aiinfocenter/internal/app/models"
	"github.com/yigit/aiinfocenter/internal/db"
	"github.com/yigit/aiinfocenter/internal/pkg/apperrors"
)

var requestColumns = []string{
	"id", "student_id", "type", "message", "status", "admin_response",
	"attachment_name", "attachment_path", "attachment_type", "attachment_size",
	"created_at", "updated_at",
}

// RequestRepository handles request database operations
type RequestRepository struct {
	pool db.Executor
}

// NewRequestRepository creates a new RequestRepository
func NewRequestRepository(pool db.Executor) *RequestRepository {
	return &RequestRepository{pool: pool}
}

// Save inserts a new request or updates an existing one
func (r *RequestRepository) Save(ctx context.Context, request *models.Request) error {
	if request.ID == 0 {
		return r.insert(ctx, request)
	}
	return r.update(ctx, request)
}

func (r *RequestRepository) insert(ctx context.Context, request *models.Request) error {
	sql, args, err := statementBuilder().Insert("requests").
		Columns("student_id", "type", "message", "status", "admin_response",
			"attachment_name", "attachment_path", "attachment_type", "attachment_size").
		Values(request.StudentID, request.Type, request.Message, string(request.Status), request.AdminResponse,
			request.AttachmentName, request.AttachmentPath, request.AttachmentType, request.AttachmentSize).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create request query: %w", err)
	}

	err = db.Conn(ctx, r.pool).QueryRow(ctx, sql, args...).
		Scan(&request.ID, &request.CreatedAt, &request.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	return nil
}

func (r *RequestRepository) update(ctx context.Context, request *models.Request) error {
	sql, args, err := statementBuilder().Update("requests").
		Set("message", request.Message).
		Set("status", string(request.Status)).
		Set("admin_response", request.AdminResponse).
		Set("attachment_name", request.AttachmentName).
		Set("attachment_path", request.AttachmentPath).
		Set("attachment_type", request.AttachmentType).
		Set("attachment_size", request.AttachmentSize).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": request.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update request query: %w", err)
	}

	err = db.Conn(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&request.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewResourceNotFoundError(fmt.Sprintf("request %d not found", request.ID))
		}
		return fmt.Errorf("error updating request: %w", err)
	}
	return nil
}

// GetByID retrieves a request by its ID
func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*models.Request, error) {
	sql, args, err := statementBuilder().Select(requestColumns...).
		From("requests").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	request, err := scanRequest(db.Conn(ctx, r.pool).QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewResourceNotFoundError(fmt.Sprintf("request %d not found", id))
		}
		return nil, fmt.Errorf("error retrieving request: %w", err)
	}
	return request, nil
}

// ListAll retrieves every request, newest id first
func (r *RequestRepository) ListAll(ctx context.Context) ([]*models.Request, error) {
	return r.list(ctx, nil)
}

// ListByStudentID retrieves a student's requests, newest id first
func (r *RequestRepository) ListByStudentID(ctx context.Context, studentID int64) ([]*models.Request, error) {
	return r.list(ctx, squirrel.Eq{"student_id": studentID})
}

func (r *RequestRepository) list(ctx context.Context, filter squirrel.Sqlizer) ([]*models.Request, error) {
	builder := statementBuilder().Select(requestColumns...).
		From("requests").
		OrderBy("id DESC")
	if filter != nil {
		builder = builder.Where(filter)
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	requests := make([]*models.Request, 0)
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning request: %w", err)
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating requests: %w", err)
	}

	return requests, nil
}

func scanRequest(row pgx.Row) (*models.Request, error) {
	var request models.Request
	var status string
	err := row.Scan(
		&request.ID,
		&request.StudentID,
		&request.Type,
		&request.Message,
		&status,
		&request.AdminResponse,
		&request.AttachmentName,
		&request.AttachmentPath,
		&request.AttachmentType,
		&request.AttachmentSize,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	request.Status = models.RequestStatus(status)
	return &request, nil
}
