package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/yigit/aiinfocenter/internal/app/models/dto"
)

// HandleValidationError writes a 400 response for a failed request binding
func HandleValidationError(c *gin.Context, err error) {
	errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request format")

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make([]dto.FieldError, 0, len(validationErrors))
		for _, fe := range validationErrors {
			fields = append(fields, dto.FieldError{Field: fe.Field(), Message: formatValidationError(fe)})
		}
		errorDetail = dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Validation failed").
			WithField(fields[0].Field).
			WithDetails(fields)
	} else {
		errorDetail = errorDetail.WithDetails(err.Error())
	}

	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "email":
		return e.Field() + " must be a valid email address"
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	default:
		return e.Field() + " validation failed: " + e.Tag()
	}
}
