package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID        int64     `json:"id" db:"id" example:"1"`
	Name      string    `json:"name" db:"name" example:"Ana Popescu"`
	Email     string    `json:"email" db:"email" example:"ana@x.com"`
	Password  string    `json:"-" db:"password"` // bcrypt hash, never serialized
	Role      Role      `json:"role" db:"role" example:"STUDENT"`
	CreatedAt time.Time `json:"createdAt" db:"created_at" example:"2024-01-01T10:00:00Z"`
}

// IsStudent reports whether the user holds the STUDENT role.
func (u *User) IsStudent() bool {
	return u != nil && u.Role == RoleStudent
}

// IsAdmin reports whether the user holds the ADMIN role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
