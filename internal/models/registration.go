package models

type RegisterUserRequest struct {
	Username       string `json:"username" binding:"required"`
	FirstName      string `json:"firstName" binding:"required"`
	LastName       string `json:"lastName" binding:"required"`
	Email          string `json:"email" binding:"required"`
	Password       string `json:"password" binding:"required,min=6"`
	EducationLevel string `json:"education_level" binding:"required"`
	StudentID      string `json:"student_id" binding:"required"`
	YearLevel      string `json:"year_level" binding:"required"`
	Course         string `json:"course" binding:"required"`
}

type RegisterAdminRequest struct {
	Username  string `json:"username" binding:"required"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required,min=6"`
}
