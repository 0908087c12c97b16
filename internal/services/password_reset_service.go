package services

import (
	"context"
	"log"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"stivoting/internal/repositories"
)

// ProfileInvalidator drops a cached profile after its account changed.
type ProfileInvalidator interface {
	Invalidate(ctx context.Context, userID int) error
}

type PasswordResetService interface {
	Forgot(ctx context.Context, email string) error
	Reset(ctx context.Context, email, code, newPassword string) error
}

type passwordResetService struct {
	users    repositories.UserRepository
	codes    repositories.PasswordCodeRepository
	otp      OTPService
	profiles ProfileInvalidator // optional
}

func NewPasswordResetService(
	users repositories.UserRepository,
	codes repositories.PasswordCodeRepository,
	otp OTPService,
	profiles ProfileInvalidator,
) PasswordResetService {
	return &passwordResetService{
		users:    users,
		codes:    codes,
		otp:      otp,
		profiles: profiles,
	}
}

func (s *passwordResetService) Forgot(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return internalErr("failed to load user", err)
	}
	if user == nil {
		return &NotFoundError{Message: "user does not exist with this email"}
	}

	// Reset issuance always replaces any prior live code, and the engine
	// surfaces a failed link send as fatal.
	if _, err := s.otp.Issue(ctx, PurposeReset, email); err != nil {
		return err
	}

	log.Printf("[password-reset][forgot] reset link sent email=%q", email)
	return nil
}

func (s *passwordResetService) Reset(ctx context.Context, email, code, newPassword string) error {
	if err := s.otp.Verify(ctx, PurposeReset, email, code); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return internalErr("failed to hash password", err)
	}

	ok, err := s.codes.ConsumeWithPassword(ctx, email, code, string(hash))
	if err != nil {
		return internalErr("failed to update password", err)
	}
	if !ok {
		// The code was burned or replaced between verify and consume.
		return &NotFoundError{Message: "No reset code found"}
	}

	if s.profiles != nil {
		if user, err := s.users.GetByEmail(ctx, email); err == nil && user != nil {
			if err := s.profiles.Invalidate(ctx, user.ID); err != nil {
				log.Printf("[password-reset][reset] cache invalidate failed user_id=%d: %v", user.ID, err)
			}
		}
	}

	log.Printf("[password-reset][reset] password updated email=%q", email)
	return nil
}
