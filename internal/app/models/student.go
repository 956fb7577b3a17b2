package models

// StudentProfile defines the student model based on the 'student_profiles' table
type StudentProfile struct {
	ID          int64  `json:"id" db:"id" example:"1"`
	UserID      int64  `json:"userId" db:"user_id" example:"5"`
	Faculty     string `json:"faculty" db:"faculty" example:"CS"`
	YearOfStudy int    `json:"yearOfStudy" db:"year_of_study" example:"2"`

	// Relations (populated when needed)
	User *User `json:"user,omitempty"`
}
