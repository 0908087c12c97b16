package models

import "time"

// Placeholder is a registration that has not verified its email yet.
// It carries everything needed to mint the User on promotion.
type Placeholder struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Branch       string    `json:"branch"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`

	EducationLevel *string `json:"education_level,omitempty"`
	StudentID      *string `json:"student_id,omitempty"`
	YearLevel      *string `json:"year_level,omitempty"`
	Course         *string `json:"course,omitempty"`
}
