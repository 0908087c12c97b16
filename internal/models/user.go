package models

// User is a verified account. Rows are created only by promoting a
// placeholder after email verification.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // never serialized
	Branch       string `json:"branch"`
	Role         string `json:"role"`

	// student-only fields, NULL for staff/admin accounts
	EducationLevel *string `json:"education_level,omitempty"`
	StudentID      *string `json:"student_id,omitempty"`
	YearLevel      *string `json:"year_level,omitempty"`
	Course         *string `json:"course,omitempty"`
}

// Profile is the projection of a User handed to clients and cached for
// the check endpoint. No password hash.
type Profile struct {
	ID             int     `json:"id"`
	Username       string  `json:"username"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Branch         string  `json:"branch"`
	Role           string  `json:"role"`
	EducationLevel *string `json:"education_level,omitempty"`
	StudentID      *string `json:"student_id,omitempty"`
	YearLevel      *string `json:"year_level,omitempty"`
	Course         *string `json:"course,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// IdentityMatch is a row from the uniqueness probe over the union of
// users and userplaceholder.
type IdentityMatch struct {
	Username  string
	Email     string
	StudentID *string
}
