package services

import (
	"context"
	"errors"

	"github.com/yigit/aiinfocenter/internal/app/models"
	"github.com/yigit/aiinfocenter/internal/app/repositories"
	"github.com/yigit/aiinfocenter/internal/pkg/apperrors"
)

const msgStudentNotFound = "student not found"

// requireStudent loads the user and checks the STUDENT role. notStudentMsg
// is the message returned when the user exists with another role.
func requireStudent(ctx context.Context, users repositories.IUserRepository, studentID int64, notStudentMsg string) (*models.User, error) {
	user, err := users.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.NewInvalidArgumentError(msgStudentNotFound)
		}
		return nil, err
	}
	if !user.IsStudent() {
		return nil, apperrors.NewInvalidArgumentError(notStudentMsg)
	}
	return user, nil
}
