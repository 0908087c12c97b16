package services

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"stivoting/internal/authz"
	"stivoting/internal/models"
	"stivoting/internal/repositories"
)

// Role-specific email shapes: student addresses end with a numeric
// segment before the campus domain, staff/admin addresses carry no
// digits. This is a structural check only, ownership is proven by OTP.
var (
	userEmailPattern  = regexp.MustCompile(`^[a-zA-Z].+[0-9]+@[a-zA-Z]+\.sti\.edu\.ph$`)
	adminEmailPattern = regexp.MustCompile(`^[a-zA-Z].+[a-zA-Z]+@[a-zA-Z]+\.sti\.edu\.ph$`)
)

type RegistrationService interface {
	SubmitUser(ctx context.Context, req *models.RegisterUserRequest) (string, error)
	SubmitAdmin(ctx context.Context, req *models.RegisterAdminRequest) (string, error)
	Resend(ctx context.Context, email string) error
	Verify(ctx context.Context, email, code string) (string, error)
	SweepExpired(ctx context.Context) (int64, error)
}

type registrationService struct {
	placeholders  repositories.PlaceholderRepository
	otp           OTPService
	clientBaseURL string
	pendingTTL    time.Duration // 0 disables the sweep
}

func NewRegistrationService(
	placeholders repositories.PlaceholderRepository,
	otp OTPService,
	clientBaseURL string,
	pendingTTL time.Duration,
) RegistrationService {
	return &registrationService{
		placeholders:  placeholders,
		otp:           otp,
		clientBaseURL: clientBaseURL,
		pendingTTL:    pendingTTL,
	}
}

// branchFromEmail derives the organizational unit from the first label
// of the email's domain: alice1@stu.sti.edu.ph -> stu.
func branchFromEmail(email string) string {
	at := strings.SplitN(email, "@", 2)
	if len(at) != 2 {
		return ""
	}
	return strings.SplitN(at[1], ".", 2)[0]
}

// checkIdentity enforces the uniqueness invariant across the union of
// users and userplaceholder, in priority order username > email >
// student_id. Advisory only: the storage constraints are the backstop
// for concurrent submissions.
func (s *registrationService) checkIdentity(ctx context.Context, username, email string, studentID *string) error {
	matches, err := s.placeholders.FindIdentity(ctx, username, email, studentID)
	if err != nil {
		return internalErr("failed to check existing identity", err)
	}
	for _, m := range matches {
		if m.Username == username {
			return &ConflictError{Name: "username", Message: "Username already exists"}
		}
	}
	for _, m := range matches {
		if m.Email == email {
			return &ConflictError{Name: "email", Message: "Email already exists"}
		}
	}
	if studentID != nil {
		for _, m := range matches {
			if m.StudentID != nil && *m.StudentID == *studentID {
				return &ConflictError{Name: "student_id", Message: "Student ID already exists"}
			}
		}
	}
	return nil
}

func (s *registrationService) submit(ctx context.Context, p *models.Placeholder, plainPassword string) (string, error) {
	if err := s.checkIdentity(ctx, p.Username, p.Email, p.StudentID); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plainPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", internalErr("failed to hash password", err)
	}
	p.PasswordHash = string(hash)
	p.Branch = branchFromEmail(p.Email)

	if err := s.placeholders.Create(ctx, p); err != nil {
		// Lost the race against a concurrent submission with the same
		// identity; surface it as the same field-tagged conflict.
		if field, ok := repositories.UniqueConflictField(err); ok {
			switch field {
			case "username":
				return "", &ConflictError{Name: "username", Message: "Username already exists"}
			case "student_id":
				return "", &ConflictError{Name: "student_id", Message: "Student ID already exists"}
			default:
				return "", &ConflictError{Name: "email", Message: "Email already exists"}
			}
		}
		return "", internalErr("failed to create user try again", err)
	}

	if _, err := s.otp.Issue(ctx, PurposeVerification, p.Email); err != nil {
		return "", err
	}

	log.Printf("[register][submit] placeholder created email=%q role=%s branch=%s", p.Email, p.Role, p.Branch)
	return fmt.Sprintf("%s/verifyEmail?email=%s", s.clientBaseURL, url.QueryEscape(p.Email)), nil
}

func (s *registrationService) SubmitUser(ctx context.Context, req *models.RegisterUserRequest) (string, error) {
	if !userEmailPattern.MatchString(req.Email) {
		return "", &ValidationError{Name: "email", Message: "Invalid email format"}
	}
	p := &models.Placeholder{
		Username:       req.Username,
		Name:           req.FirstName + " " + req.LastName,
		Email:          req.Email,
		Role:           authz.RoleUser,
		EducationLevel: &req.EducationLevel,
		StudentID:      &req.StudentID,
		YearLevel:      &req.YearLevel,
		Course:         &req.Course,
	}
	return s.submit(ctx, p, req.Password)
}

func (s *registrationService) SubmitAdmin(ctx context.Context, req *models.RegisterAdminRequest) (string, error) {
	if !adminEmailPattern.MatchString(req.Email) {
		return "", &ValidationError{Name: "email", Message: "Invalid email format"}
	}
	p := &models.Placeholder{
		Username: req.Username,
		Name:     req.FirstName + " " + req.LastName,
		Email:    req.Email,
		Role:     authz.RoleAdmin,
	}
	return s.submit(ctx, p, req.Password)
}

func (s *registrationService) Resend(ctx context.Context, email string) error {
	_, err := s.otp.Resend(ctx, email)
	return err
}

func (s *registrationService) Verify(ctx context.Context, email, code string) (string, error) {
	if err := s.otp.Verify(ctx, PurposeVerification, email, code); err != nil {
		return "", err
	}

	user, err := s.placeholders.Promote(ctx, email)
	if err != nil {
		return "", internalErr("failed to promote placeholder", err)
	}
	if user == nil {
		// A surviving code without a placeholder means the stores
		// diverged; nothing sane to do but report it.
		return "", internalErr("user is not defined!", nil)
	}

	log.Printf("[register][verify] account created id=%d email=%q", user.ID, user.Email)
	return fmt.Sprintf("%s/login", s.clientBaseURL), nil
}

// SweepExpired drops placeholders older than the configured TTL along
// with their verification codes. A zero TTL keeps orphans forever.
func (s *registrationService) SweepExpired(ctx context.Context) (int64, error) {
	if s.pendingTTL <= 0 {
		return 0, nil
	}
	n, err := s.placeholders.DeleteExpired(ctx, time.Now().Add(-s.pendingTTL))
	if err != nil {
		return 0, internalErr("failed to sweep expired placeholders", err)
	}
	if n > 0 {
		log.Printf("[register][sweep] removed %d expired placeholders", n)
	}
	return n, nil
}
