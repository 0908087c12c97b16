package repositories

import (
	"context"
	"database/sql"

	"stivoting/internal/models"
)

type EmailVerificationRepository interface {
	// Insert fails with a unique violation if a live code already exists
	// for the email; callers must use UpdateCode (resend) instead.
	Insert(ctx context.Context, email, code string) error
	GetByEmail(ctx context.Context, email string) (*models.EmailVerification, error)
	// UpdateCode replaces the live code in place. Returns false when no
	// live code exists for the email.
	UpdateCode(ctx context.Context, email, code string) (bool, error)
}

type emailVerificationRepository struct {
	DB *sql.DB
}

func NewEmailVerificationRepository(db *sql.DB) EmailVerificationRepository {
	return &emailVerificationRepository{DB: db}
}

func (r *emailVerificationRepository) Insert(ctx context.Context, email, code string) error {
	const q = `INSERT INTO emailverify (email, code) VALUES ($1, $2)`
	_, err := r.DB.ExecContext(ctx, q, email, code)
	return err
}

func (r *emailVerificationRepository) GetByEmail(ctx context.Context, email string) (*models.EmailVerification, error) {
	const q = `SELECT id, email, code, created_at FROM emailverify WHERE email = $1`
	v := &models.EmailVerification{}
	err := r.DB.QueryRowContext(ctx, q, email).Scan(&v.ID, &v.Email, &v.Code, &v.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}

func (r *emailVerificationRepository) UpdateCode(ctx context.Context, email, code string) (bool, error) {
	const q = `UPDATE emailverify SET code = $1 WHERE email = $2`
	res, err := r.DB.ExecContext(ctx, q, code, email)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
