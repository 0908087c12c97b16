package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lib/pq"

	"stivoting/internal/models"
)

// memStore backs the fake repositories with map state guarded by one
// mutex, mirroring the serialization the real store gets from its
// unique constraints and transactions.
type memStore struct {
	mu sync.Mutex

	users      map[int]*models.User
	nextUserID int

	placeholders      map[string]*models.Placeholder // by email
	nextPlaceholderID int

	verifications map[string]string // email -> code
	resets        map[string]string // email -> code

	refresh map[string]models.RefreshToken // token -> record
}

func newMemStore() *memStore {
	return &memStore{
		users:         map[int]*models.User{},
		placeholders:  map[string]*models.Placeholder{},
		verifications: map[string]string{},
		resets:        map[string]string{},
		refresh:       map[string]models.RefreshToken{},
	}
}

func uniqueErr(constraint string) error {
	return &pq.Error{Code: "23505", Constraint: constraint}
}

// addUser seeds a verified account directly, bypassing registration.
func (s *memStore) addUser(u models.User) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUserID++
	u.ID = s.nextUserID
	s.users[u.ID] = &u
	return &u
}

// ---- UserRepository ----

type fakeUserRepo struct{ s *memStore }

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetProfile(ctx context.Context, id int) (*models.Profile, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil || u == nil {
		return nil, err
	}
	return &models.Profile{
		ID: u.ID, Username: u.Username, Name: u.Name, Email: u.Email,
		Branch: u.Branch, Role: u.Role,
		EducationLevel: u.EducationLevel, StudentID: u.StudentID,
		YearLevel: u.YearLevel, Course: u.Course,
	}, nil
}

// ---- PlaceholderRepository ----

type fakePlaceholderRepo struct{ s *memStore }

func (r *fakePlaceholderRepo) Create(_ context.Context, p *models.Placeholder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == p.Username {
			return uniqueErr("userplaceholder_username_key")
		}
		if u.Email == p.Email {
			return uniqueErr("userplaceholder_email_key")
		}
		if p.StudentID != nil && u.StudentID != nil && *u.StudentID == *p.StudentID {
			return uniqueErr("userplaceholder_student_id_key")
		}
	}
	for _, q := range r.s.placeholders {
		if q.Username == p.Username {
			return uniqueErr("userplaceholder_username_key")
		}
		if q.Email == p.Email {
			return uniqueErr("userplaceholder_email_key")
		}
		if p.StudentID != nil && q.StudentID != nil && *q.StudentID == *p.StudentID {
			return uniqueErr("userplaceholder_student_id_key")
		}
	}
	r.s.nextPlaceholderID++
	p.ID = r.s.nextPlaceholderID
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	cp := *p
	r.s.placeholders[p.Email] = &cp
	return nil
}

func (r *fakePlaceholderRepo) GetByEmail(_ context.Context, email string) (*models.Placeholder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p, ok := r.s.placeholders[email]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *fakePlaceholderRepo) FindIdentity(_ context.Context, username, email string, studentID *string) ([]models.IdentityMatch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var res []models.IdentityMatch
	match := func(mUsername, mEmail string, mStudentID *string) {
		if mUsername == username || mEmail == email ||
			(studentID != nil && mStudentID != nil && *mStudentID == *studentID) {
			res = append(res, models.IdentityMatch{Username: mUsername, Email: mEmail, StudentID: mStudentID})
		}
	}
	for _, u := range r.s.users {
		match(u.Username, u.Email, u.StudentID)
	}
	for _, p := range r.s.placeholders {
		match(p.Username, p.Email, p.StudentID)
	}
	return res, nil
}

func (r *fakePlaceholderRepo) Promote(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.placeholders[email]
	if !ok {
		return nil, nil
	}
	r.s.nextUserID++
	u := &models.User{
		ID:           r.s.nextUserID,
		Username:     p.Username,
		Name:         p.Name,
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
		Branch:       p.Branch,
		Role:         p.Role,

		EducationLevel: p.EducationLevel,
		StudentID:      p.StudentID,
		YearLevel:      p.YearLevel,
		Course:         p.Course,
	}
	r.s.users[u.ID] = u
	delete(r.s.placeholders, email)
	delete(r.s.verifications, email)
	cp := *u
	return &cp, nil
}

func (r *fakePlaceholderRepo) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for email, p := range r.s.placeholders {
		if p.CreatedAt.Before(cutoff) {
			delete(r.s.placeholders, email)
			delete(r.s.verifications, email)
			n++
		}
	}
	return n, nil
}

// ---- EmailVerificationRepository ----

type fakeVerificationRepo struct{ s *memStore }

func (r *fakeVerificationRepo) Insert(_ context.Context, email, code string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.verifications[email]; exists {
		return uniqueErr("emailverify_email_key")
	}
	r.s.verifications[email] = code
	return nil
}

func (r *fakeVerificationRepo) GetByEmail(_ context.Context, email string) (*models.EmailVerification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	code, ok := r.s.verifications[email]
	if !ok {
		return nil, nil
	}
	return &models.EmailVerification{Email: email, Code: code}, nil
}

func (r *fakeVerificationRepo) UpdateCode(_ context.Context, email, code string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.verifications[email]; !ok {
		return false, nil
	}
	r.s.verifications[email] = code
	return true, nil
}

// ---- PasswordCodeRepository ----

type fakePasswordCodeRepo struct{ s *memStore }

func (r *fakePasswordCodeRepo) Replace(_ context.Context, email, code string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.resets[email] = code
	return nil
}

func (r *fakePasswordCodeRepo) GetByEmail(_ context.Context, email string) (*models.PasswordCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	code, ok := r.s.resets[email]
	if !ok {
		return nil, nil
	}
	return &models.PasswordCode{Email: email, Code: code}, nil
}

func (r *fakePasswordCodeRepo) ConsumeWithPassword(_ context.Context, email, code, passwordHash string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if live, ok := r.s.resets[email]; !ok || live != code {
		return false, nil
	}
	delete(r.s.resets, email)
	for _, u := range r.s.users {
		if u.Email == email {
			u.PasswordHash = passwordHash
			return true, nil
		}
	}
	return false, errors.New("password reset: no account for email")
}

// ---- RefreshTokenRepository ----

type fakeRefreshRepo struct{ s *memStore }

func (r *fakeRefreshRepo) Rotate(_ context.Context, userID int, token string, expiresAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for t, rec := range r.s.refresh {
		if rec.UserID == userID {
			delete(r.s.refresh, t)
		}
	}
	r.s.refresh[token] = models.RefreshToken{UserID: userID, Token: token, ExpiresAt: expiresAt}
	return nil
}

func (r *fakeRefreshRepo) Consume(_ context.Context, token string, now time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.refresh[token]
	if !ok || !rec.ExpiresAt.After(now) {
		return 0, nil
	}
	delete(r.s.refresh, token)
	return rec.UserID, nil
}

// ---- EmailService ----

type sentMail struct {
	Email string
	Code  string
}

type fakeEmailSender struct {
	mu         sync.Mutex
	otps       []sentMail
	resetLinks []sentMail
	failOTP    bool
	failReset  bool
}

func (f *fakeEmailSender) SendOTPEmail(email, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOTP {
		return errors.New("smtp: connection refused")
	}
	f.otps = append(f.otps, sentMail{Email: email, Code: code})
	return nil
}

func (f *fakeEmailSender) SendResetPasswordLink(email, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReset {
		return errors.New("smtp: connection refused")
	}
	f.resetLinks = append(f.resetLinks, sentMail{Email: email, Code: code})
	return nil
}

func (f *fakeEmailSender) lastOTP() (sentMail, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.otps) == 0 {
		return sentMail{}, false
	}
	return f.otps[len(f.otps)-1], true
}

func (f *fakeEmailSender) lastResetLink() (sentMail, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.resetLinks) == 0 {
		return sentMail{}, false
	}
	return f.resetLinks[len(f.resetLinks)-1], true
}

// ---- ProfileInvalidator ----

type fakeInvalidator struct {
	mu  sync.Mutex
	ids []int
}

func (f *fakeInvalidator) Invalidate(_ context.Context, userID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, userID)
	return nil
}

// ---- wiring ----

const testClientBaseURL = "http://localhost:5173"

type testEnv struct {
	store       *memStore
	emails      *fakeEmailSender
	invalidator *fakeInvalidator

	otp          OTPService
	registration RegistrationService
	auth         AuthService
	reset        PasswordResetService
}

func newTestEnv() *testEnv {
	store := newMemStore()
	emails := &fakeEmailSender{}
	invalidator := &fakeInvalidator{}

	userRepo := &fakeUserRepo{s: store}
	placeholderRepo := &fakePlaceholderRepo{s: store}
	verificationRepo := &fakeVerificationRepo{s: store}
	passwordCodeRepo := &fakePasswordCodeRepo{s: store}
	refreshRepo := &fakeRefreshRepo{s: store}

	otp := NewOTPService(verificationRepo, passwordCodeRepo, emails)
	return &testEnv{
		store:        store,
		emails:       emails,
		invalidator:  invalidator,
		otp:          otp,
		registration: NewRegistrationService(placeholderRepo, otp, testClientBaseURL, 24*time.Hour),
		auth:         NewAuthService(userRepo, refreshRepo, []byte("test-secret")),
		reset:        NewPasswordResetService(userRepo, passwordCodeRepo, otp, invalidator),
	}
}
