package services

import (
	"context"
	"crypto/rand"
	"log"
	"math/big"
	"strconv"

	"stivoting/internal/repositories"
)

// OTPPurpose selects which code store and which issuance semantics the
// engine uses. The two purposes are deliberately asymmetric: a live
// verification code blocks re-issuance (the caller must resend), while
// a reset code is silently replaced.
type OTPPurpose int

const (
	PurposeVerification OTPPurpose = iota
	PurposeReset
)

type OTPService interface {
	Issue(ctx context.Context, purpose OTPPurpose, email string) (string, error)
	// Resend replaces the live verification code in place. Reset codes
	// have no resend path; re-issuing covers it.
	Resend(ctx context.Context, email string) (string, error)
	// Verify checks the supplied code against the live one. It never
	// deletes the row: the owning workflow burns the code inside its own
	// transaction.
	Verify(ctx context.Context, purpose OTPPurpose, email, code string) error
}

type otpService struct {
	verifyRepo repositories.EmailVerificationRepository
	resetRepo  repositories.PasswordCodeRepository
	emails     EmailService
}

func NewOTPService(
	verifyRepo repositories.EmailVerificationRepository,
	resetRepo repositories.PasswordCodeRepository,
	emails EmailService,
) OTPService {
	return &otpService{
		verifyRepo: verifyRepo,
		resetRepo:  resetRepo,
		emails:     emails,
	}
}

// generateCode returns a uniformly random 6-digit code (100000-999999).
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}

func (s *otpService) Issue(ctx context.Context, purpose OTPPurpose, email string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", internalErr("failed to generate code", err)
	}

	switch purpose {
	case PurposeVerification:
		if err := s.verifyRepo.Insert(ctx, email, code); err != nil {
			if repositories.IsUniqueViolation(err) {
				return "", &ConflictError{Name: "email", Message: "Email verification already sent"}
			}
			return "", internalErr("failed to create verification code", err)
		}
		// A promoted placeholder with no mail ever delivered is an
		// acceptable degraded outcome; the user can always resend.
		if s.emails != nil {
			if err := s.emails.SendOTPEmail(email, code); err != nil {
				log.Printf("[otp][issue] send failed email=%q: %v", email, err)
			}
		}
	case PurposeReset:
		if err := s.resetRepo.Replace(ctx, email, code); err != nil {
			return "", internalErr("failed to create reset code", err)
		}
		// The reset link is the user's only channel back in, so a failed
		// send is fatal to the caller.
		if s.emails != nil {
			if err := s.emails.SendResetPasswordLink(email, code); err != nil {
				return "", internalErr("error sending reset password link", err)
			}
		}
	}
	return code, nil
}

func (s *otpService) Resend(ctx context.Context, email string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", internalErr("failed to generate code", err)
	}

	ok, err := s.verifyRepo.UpdateCode(ctx, email, code)
	if err != nil {
		return "", internalErr("failed to update verification code", err)
	}
	if !ok {
		return "", &NotFoundError{Message: "email not found on verifications"}
	}

	if s.emails != nil {
		if err := s.emails.SendOTPEmail(email, code); err != nil {
			log.Printf("[otp][resend] send failed email=%q: %v", email, err)
		}
	}
	return code, nil
}

func (s *otpService) Verify(ctx context.Context, purpose OTPPurpose, email, code string) error {
	switch purpose {
	case PurposeVerification:
		v, err := s.verifyRepo.GetByEmail(ctx, email)
		if err != nil {
			return internalErr("failed to load verification code", err)
		}
		if v == nil {
			return &NotFoundError{Message: "No verification record found for this email!"}
		}
		if v.Code != code {
			return &InvalidCodeError{Message: "Invalid Code!"}
		}
	case PurposeReset:
		pc, err := s.resetRepo.GetByEmail(ctx, email)
		if err != nil {
			return internalErr("failed to load reset code", err)
		}
		if pc == nil {
			return &NotFoundError{Message: "No reset code found"}
		}
		if pc.Code != code {
			return &InvalidCodeError{Message: "Invalid reset code"}
		}
	}
	return nil
}
