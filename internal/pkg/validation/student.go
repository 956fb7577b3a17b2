package validation

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/yigit/aiinfocenter/internal/pkg/apperrors"
)

// Student field rules
const (
	FacultyRule     = "required,min=2,max=100"
	YearOfStudyRule = "min=1,max=6"
)

// StudentFieldValidator checks the profile fields collected when a student
// registers.
type StudentFieldValidator struct {
	validate *validator.Validate
}

// NewStudentFieldValidator creates a StudentFieldValidator
func NewStudentFieldValidator() *StudentFieldValidator {
	return &StudentFieldValidator{validate: validator.New()}
}

// ValidateStudentFields returns an InvalidArgument error when faculty or
// yearOfStudy is missing or out of range.
func (v *StudentFieldValidator) ValidateStudentFields(faculty string, yearOfStudy *int) error {
	if err := v.validate.Var(strings.TrimSpace(faculty), FacultyRule); err != nil {
		return apperrors.NewInvalidArgumentError("faculty is required (2-100 characters)")
	}
	if yearOfStudy == nil {
		return apperrors.NewInvalidArgumentError("yearOfStudy is required")
	}
	if err := v.validate.Var(*yearOfStudy, YearOfStudyRule); err != nil {
		return apperrors.NewInvalidArgumentError("yearOfStudy must be between 1 and 6")
	}
	return nil
}
