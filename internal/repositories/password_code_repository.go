package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"stivoting/internal/models"
)

type PasswordCodeRepository interface {
	// Replace deletes any live reset code for the email and inserts a
	// fresh one, so issuing a reset code always succeeds.
	Replace(ctx context.Context, email, code string) error
	GetByEmail(ctx context.Context, email string) (*models.PasswordCode, error)
	// ConsumeWithPassword burns the (email, code) row and sets the
	// account's password hash in one transaction. Returns false if the
	// code was already gone or replaced, in which case nothing changes.
	ConsumeWithPassword(ctx context.Context, email, code, passwordHash string) (bool, error)
}

type passwordCodeRepository struct {
	DB *sql.DB
}

func NewPasswordCodeRepository(db *sql.DB) PasswordCodeRepository {
	return &passwordCodeRepository{DB: db}
}

func (r *passwordCodeRepository) Replace(ctx context.Context, email, code string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM passwordcode WHERE email = $1`, email); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO passwordcode (email, code) VALUES ($1, $2)`, email, code); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *passwordCodeRepository) GetByEmail(ctx context.Context, email string) (*models.PasswordCode, error) {
	const q = `SELECT id, email, code, created_at FROM passwordcode WHERE email = $1`
	pc := &models.PasswordCode{}
	err := r.DB.QueryRowContext(ctx, q, email).Scan(&pc.ID, &pc.Email, &pc.Code, &pc.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return pc, nil
}

func (r *passwordCodeRepository) ConsumeWithPassword(ctx context.Context, email, code, passwordHash string) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	// The code predicate closes the gap between verify and consume: if a
	// concurrent request replaced or burned the code, zero rows match and
	// the password update rolls back with it.
	res, err := tx.ExecContext(ctx, `DELETE FROM passwordcode WHERE email = $1 AND code = $2`, email, code)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	res, err = tx.ExecContext(ctx, `UPDATE users SET password = $1 WHERE email = $2`, passwordHash, email)
	if err != nil {
		return false, err
	}
	if n, err = res.RowsAffected(); err != nil {
		return false, err
	} else if n == 0 {
		return false, fmt.Errorf("password reset: no account for email")
	}
	return true, tx.Commit()
}
