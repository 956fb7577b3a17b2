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
)

// StudentProfileRepository handles student profile database operations
type StudentProfileRepository struct {
	pool db.Executor
}

// NewStudentProfileRepository creates a new StudentProfileRepository
func NewStudentProfileRepository(pool db.Executor) *StudentProfileRepository {
	return &StudentProfileRepository{pool: pool}
}

// Create inserts the profile of a student user
func (r *StudentProfileRepository) Create(ctx context.Context, profile *models.StudentProfile) error {
	sql, args, err := statementBuilder().Insert("student_profiles").
		Columns("user_id", "faculty", "year_of_study").
		Values(profile.UserID, profile.Faculty, profile.YearOfStudy).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create student profile query: %w", err)
	}

	if err := db.Conn(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&profile.ID); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "student_profiles_user_id_key") {
			return apperrors.NewCustomError(apperrors.ErrResourceAlreadyExists, "user already has a student profile")
		}
		return fmt.Errorf("error creating student profile: %w", err)
	}
	return nil
}

// GetByUserID retrieves the profile belonging to a user
func (r *StudentProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.StudentProfile, error) {
	var profile models.StudentProfile
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, user_id, faculty, year_of_study
		FROM student_profiles
		WHERE user_id = $1
	`, userID).Scan(&profile.ID, &profile.UserID, &profile.Faculty, &profile.YearOfStudy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewResourceNotFoundError(fmt.Sprintf("student profile for user %d not found", userID))
		}
		return nil, fmt.Errorf("error retrieving student profile: %w", err)
	}
	return &profile, nil
}
