package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yigit/aiinfocenter/internal/app/models"
	"github.com/yigit/aiinfocenter/internal/db"
	"github.com/yigit/aiinfocenter/internal/pkg/apperrors"
	"github.com/yigit/aiinfocenter/internal/pkg/dberrors"
	"github.com/yigit/aiinfocenter/internal/pkg/logger"
)

const usersEmailConstraint = "users_email_key"

// UserRepository handles user database operations
type UserRepository struct {
	pool db.Executor
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(pool db.Executor) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	sql, args, err := statementBuilder().Insert("users").
		Columns("name", "email", "password", "role").
		Values(user.Name, user.Email, user.Password, string(user.Role)).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create user query: %w", err)
	}

	err = db.Conn(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, usersEmailConstraint) {
			logger.Warn().Str("email", user.Email).Msg("Attempted to create user with duplicate email")
			return fmt.Errorf("user %s: %w", user.Email, apperrors.ErrResourceAlreadyExists)
		}
		return fmt.Errorf("error creating user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, "id", id)
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "email", email)
}

// EmailExists checks if an email is already registered
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking email existence: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) getOne(ctx context.Context, column string, value any) (*models.User, error) {
	sql, args, err := statementBuilder().
		Select("id", "name", "email", "password", "role", "created_at").
		From("users").
		Where(column+" = ?", value).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build user query: %w", err)
	}

	var user models.User
	var role string
	err = db.Conn(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Password,
		&role,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewResourceNotFoundError(fmt.Sprintf("user with %s %v not found", column, value))
		}
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	user.Role = models.Role(role)

	return &user, nil
}
