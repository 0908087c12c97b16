package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"stivoting/internal/models"
)

type PlaceholderRepository interface {
	Create(ctx context.Context, p *models.Placeholder) error
	GetByEmail(ctx context.Context, email string) (*models.Placeholder, error)
	// FindIdentity returns every row of users and userplaceholder whose
	// username, email or student_id collides with the given values.
	// studentID may be nil for staff/admin registrations.
	FindIdentity(ctx context.Context, username, email string, studentID *string) ([]models.IdentityMatch, error)
	// Promote atomically turns the placeholder for email into a users
	// row and removes both the placeholder and its verification code.
	// Returns nil if no placeholder exists for the email.
	Promote(ctx context.Context, email string) (*models.User, error)
	// DeleteExpired removes placeholders created before cutoff together
	// with their verification codes.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type placeholderRepository struct {
	DB *sql.DB
}

func NewPlaceholderRepository(db *sql.DB) PlaceholderRepository {
	return &placeholderRepository{DB: db}
}

func (r *placeholderRepository) Create(ctx context.Context, p *models.Placeholder) error {
	const q = `
		INSERT INTO userplaceholder
			(username, name, email, password, branch, role,
			 education_level, student_id, year_level, course)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id, created_at
	`
	return r.DB.QueryRowContext(ctx, q,
		p.Username, p.Name, p.Email, p.PasswordHash, p.Branch, p.Role,
		p.EducationLevel, p.StudentID, p.YearLevel, p.Course,
	).Scan(&p.ID, &p.CreatedAt)
}

func (r *placeholderRepository) GetByEmail(ctx context.Context, email string) (*models.Placeholder, error) {
	const q = `
		SELECT id, username, name, email, password, branch, role, created_at,
		       education_level, student_id, year_level, course
		FROM userplaceholder
		WHERE email = $1
	`
	return scanPlaceholder(r.DB.QueryRowContext(ctx, q, email))
}

func scanPlaceholder(row *sql.Row) (*models.Placeholder, error) {
	p := &models.Placeholder{}
	var educationLevel, studentID, yearLevel, course sql.NullString
	err := row.Scan(
		&p.ID, &p.Username, &p.Name, &p.Email, &p.PasswordHash, &p.Branch, &p.Role, &p.CreatedAt,
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
		p.EducationLevel = &s
	}
	if studentID.Valid {
		s := studentID.String
		p.StudentID = &s
	}
	if yearLevel.Valid {
		s := yearLevel.String
		p.YearLevel = &s
	}
	if course.Valid {
		s := course.String
		p.Course = &s
	}
	return p, nil
}

func (r *placeholderRepository) FindIdentity(ctx context.Context, username, email string, studentID *string) ([]models.IdentityMatch, error) {
	const q = `
		SELECT username, email, student_id FROM users
		WHERE username = $1 OR email = $2
		   OR ($3::text IS NOT NULL AND student_id = $3)
		UNION ALL
		SELECT username, email, student_id FROM userplaceholder
		WHERE username = $1 OR email = $2
		   OR ($3::text IS NOT NULL AND student_id = $3)
	`
	rows, err := r.DB.QueryContext(ctx, q, username, email, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []models.IdentityMatch
	for rows.Next() {
		var m models.IdentityMatch
		var sid sql.NullString
		if err := rows.Scan(&m.Username, &m.Email, &sid); err != nil {
			return nil, err
		}
		if sid.Valid {
			s := sid.String
			m.StudentID = &s
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

// Promote is the single logical transaction of the verify step: the
// account insert, placeholder delete and code delete either all happen
// or none do.
func (r *placeholderRepository) Promote(ctx context.Context, email string) (*models.User, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	const sel = `
		SELECT id, username, name, email, password, branch, role,
		       education_level, student_id, year_level, course
		FROM userplaceholder
		WHERE email = $1
		FOR UPDATE
	`
	p := &models.Placeholder{}
	var educationLevel, studentID, yearLevel, course sql.NullString
	err = tx.QueryRowContext(ctx, sel, email).Scan(
		&p.ID, &p.Username, &p.Name, &p.Email, &p.PasswordHash, &p.Branch, &p.Role,
		&educationLevel, &studentID, &yearLevel, &course,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	const ins = `
		INSERT INTO users
			(username, name, email, password, branch, role,
			 education_level, student_id, year_level, course)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id
	`
	u := &models.User{
		Username:     p.Username,
		Name:         p.Name,
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
		Branch:       p.Branch,
		Role:         p.Role,
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
	if err := tx.QueryRowContext(ctx, ins,
		u.Username, u.Name, u.Email, u.PasswordHash, u.Branch, u.Role,
		u.EducationLevel, u.StudentID, u.YearLevel, u.Course,
	).Scan(&u.ID); err != nil {
		return nil, fmt.Errorf("promote insert user: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM userplaceholder WHERE id = $1`, p.ID); err != nil {
		return nil, fmt.Errorf("promote delete placeholder: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM emailverify WHERE email = $1`, email); err != nil {
		return nil, fmt.Errorf("promote delete verification: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *placeholderRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM emailverify
		WHERE email IN (SELECT email FROM userplaceholder WHERE created_at < $1)
	`, cutoff); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM userplaceholder WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, tx.Commit()
}
