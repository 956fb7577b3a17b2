package dto

import (
	"time"

	"github.com/yigit/aiinfocenter/internal/app/models"
)

// RegisterRequest represents an account registration. Faculty and
// YearOfStudy are only read for STUDENT accounts.
type RegisterRequest struct {
	Name        string `json:"name" binding:"required" example:"Ana Popescu"`
	Email       string `json:"email" binding:"required,email" example:"ana@x.com"`
	Password    string `json:"password" binding:"required" example:"pw"`
	Role        string `json:"role" example:"STUDENT"`
	Faculty     string `json:"faculty,omitempty" example:"CS"`
	YearOfStudy *int   `json:"yearOfStudy,omitempty" example:"2"`
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"ana@x.com"`
	Password string `json:"password" binding:"required" example:"pw"`
}

// UserResponse represents basic user information
type UserResponse struct {
	ID        int64       `json:"id" example:"1"`
	Name      string      `json:"name" example:"Ana Popescu"`
	Email     string      `json:"email" example:"ana@x.com"`
	Role      models.Role `json:"role" example:"STUDENT"`
	CreatedAt time.Time   `json:"createdAt"`
}

// UserProfile is the authenticated user's own view, with the student
// profile when the user is a STUDENT.
type UserProfile struct {
	UserResponse
	Faculty     string `json:"faculty,omitempty" example:"CS"`
	YearOfStudy int    `json:"yearOfStudy,omitempty" example:"2"`
}

// NewUserResponse converts a user model to its public shape
func NewUserResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}
