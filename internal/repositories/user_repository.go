package repositories

import (
	"context"
	"database/sql"

	"stivoting/internal/models"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetProfile(ctx context.Context, id int) (*models.Profile, error)
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

const userColumns = `
	id, username, name, email, password, branch, role,
	education_level, student_id, year_level, course
`

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var (
		educationLevel sql.NullString
		studentID      sql.NullString
		yearLevel      sql.NullString
		course         sql.NullString
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.Name, &u.Email, &u.PasswordHash, &u.Branch, &u.Role,
		&educationLevel, &studentID, &yearLevel, &course,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if educationLevel.Valid {
		s := educationLevel.String
		u.EducationLevel = &s
	}
	if studentID.Valid {
		s := studentID.String
		u.StudentID = &s
	}
	if yearLevel.Valid {
		s := yearLevel.String
		u.YearLevel = &s
	}
	if course.Valid {
		s := course.String
		u.Course = &s
	}
	return u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.DB.QueryRowContext(ctx, q, id))
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.DB.QueryRowContext(ctx, q, username))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.DB.QueryRowContext(ctx, q, email))
}

func (r *userRepository) GetProfile(ctx context.Context, id int) (*models.Profile, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil || u == nil {
		return nil, err
	}
	return &models.Profile{
		ID:             u.ID,
		Username:       u.Username,
		Name:           u.Name,
		Email:          u.Email,
		Branch:         u.Branch,
		Role:           u.Role,
		EducationLevel: u.EducationLevel,
		StudentID:      u.StudentID,
		YearLevel:      u.YearLevel,
		Course:         u.Course,
	}, nil
}
