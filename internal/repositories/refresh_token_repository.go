package repositories

import (
	"context"
	"database/sql"
	"time"
)

type RefreshTokenRepository interface {
	// Rotate deletes every live token for the user and inserts the new
	// one in a single transaction, so only the latest token is valid.
	Rotate(ctx context.Context, userID int, token string, expiresAt time.Time) error
	// Consume deletes the token if it is live (matching and unexpired)
	// and returns the owning user id, or 0 if no live row matched.
	// Being a single statement, at most one of two concurrent callers
	// sees the token as live.
	Consume(ctx context.Context, token string, now time.Time) (int, error)
}

type refreshTokenRepository struct {
	DB *sql.DB
}

func NewRefreshTokenRepository(db *sql.DB) RefreshTokenRepository {
	return &refreshTokenRepository{DB: db}
}

func (r *refreshTokenRepository) Rotate(ctx context.Context, userID int, token string, expiresAt time.Time) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM refreshtokens WHERE userid = $1`, userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO refreshtokens (userid, token, expiresat) VALUES ($1, $2, $3)`,
		userID, token, expiresAt,
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *refreshTokenRepository) Consume(ctx context.Context, token string, now time.Time) (int, error) {
	const q = `
		DELETE FROM refreshtokens
		WHERE token = $1 AND expiresat > $2
		RETURNING userid
	`
	var userID int
	err := r.DB.QueryRowContext(ctx, q, token, now).Scan(&userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, err
	}
	return userID, nil
}
