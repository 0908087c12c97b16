package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"stivoting/internal/authz"
	"stivoting/internal/models"
)

func studentRequest() *models.RegisterUserRequest {
	return &models.RegisterUserRequest{
		Username:       "alice",
		FirstName:      "Alice",
		LastName:       "Reyes",
		Email:          "alice1@stu.sti.edu.ph",
		Password:       "hunter22",
		EducationLevel: "tertiary",
		StudentID:      "02000312345",
		YearLevel:      "3rd",
		Course:         "BSIT",
	}
}

func adminRequest() *models.RegisterAdminRequest {
	return &models.RegisterAdminRequest{
		Username:  "registrar",
		FirstName: "Ramon",
		LastName:  "Cruz",
		Email:     "rcruz@smb.sti.edu.ph",
		Password:  "hunter22",
	}
}

func TestSubmitUserRejectsMalformedEmail(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	for _, email := range []string{
		"alice@stu.sti.edu.ph",   // no trailing digits before the domain
		"alice1@gmail.com",       // wrong domain
		"1alice1@stu.sti.edu.ph", // must start with a letter
		"alice1@stu.sti.edu.phx",
	} {
		req := studentRequest()
		req.Email = email
		_, err := env.registration.SubmitUser(ctx, req)
		var validation *ValidationError
		require.ErrorAs(t, err, &validation, "email %q", email)
		require.Equal(t, "email", validation.Name)
	}
}

func TestSubmitAdminRejectsStudentStyleEmail(t *testing.T) {
	env := newTestEnv()

	req := adminRequest()
	req.Email = "rcruz1@smb.sti.edu.ph" // digits before the domain
	_, err := env.registration.SubmitAdmin(context.Background(), req)
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "email", validation.Name)
}

func TestSubmitCreatesPlaceholderAndCode(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	redirect, err := env.registration.SubmitUser(ctx, studentRequest())
	require.NoError(t, err)
	require.Equal(t, testClientBaseURL+"/verifyEmail?email=alice1%40stu.sti.edu.ph", redirect)

	p := env.store.placeholders["alice1@stu.sti.edu.ph"]
	require.NotNil(t, p)
	require.Equal(t, "Alice Reyes", p.Name)
	require.Equal(t, "stu", p.Branch, "branch comes from the first domain label")
	require.Equal(t, authz.RoleUser, p.Role)
	require.NotNil(t, p.StudentID)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte("hunter22")))

	mail, ok := env.emails.lastOTP()
	require.True(t, ok)
	require.Equal(t, "alice1@stu.sti.edu.ph", mail.Email)
	require.Regexp(t, sixDigits, mail.Code)

	// no account until the code is verified
	require.Empty(t, env.store.users)
}

func TestSubmitAdminCarriesNoStudentFields(t *testing.T) {
	env := newTestEnv()

	_, err := env.registration.SubmitAdmin(context.Background(), adminRequest())
	require.NoError(t, err)

	p := env.store.placeholders["rcruz@smb.sti.edu.ph"]
	require.NotNil(t, p)
	require.Equal(t, authz.RoleAdmin, p.Role)
	require.Equal(t, "smb", p.Branch)
	require.Nil(t, p.StudentID)
	require.Nil(t, p.YearLevel)
}

func TestConflictPriority(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	sid := "02000312345"
	env.store.addUser(models.User{
		Username: "alice", Email: "alice1@stu.sti.edu.ph", StudentID: &sid,
		Role: authz.RoleUser,
	})

	// all three fields collide: username wins
	_, err := env.registration.SubmitUser(ctx, studentRequest())
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, "username", conflict.Name)

	// email and student_id collide: email wins
	req := studentRequest()
	req.Username = "alice2"
	_, err = env.registration.SubmitUser(ctx, req)
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, "email", conflict.Name)

	// only student_id collides
	req = studentRequest()
	req.Username = "alice2"
	req.Email = "alice2@stu.sti.edu.ph"
	_, err = env.registration.SubmitUser(ctx, req)
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, "student_id", conflict.Name)
}

func TestConflictAgainstPendingRegistration(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.registration.SubmitUser(ctx, studentRequest())
	require.NoError(t, err)

	// same identity again while still unverified
	req := studentRequest()
	req.Email = "alice9@stu.sti.edu.ph"
	req.StudentID = "02000399999"
	_, err = env.registration.SubmitUser(ctx, req)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, "username", conflict.Name)
}

func TestVerifyWrongCode(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.registration.SubmitUser(ctx, studentRequest())
	require.NoError(t, err)
	mail, _ := env.emails.lastOTP()

	wrong := "123456"
	if wrong == mail.Code {
		wrong = "654321"
	}
	_, err = env.registration.Verify(ctx, "alice1@stu.sti.edu.ph", wrong)
	var invalid *InvalidCodeError
	require.ErrorAs(t, err, &invalid)

	// placeholder survives a failed attempt
	require.NotNil(t, env.store.placeholders["alice1@stu.sti.edu.ph"])
	require.Empty(t, env.store.users)
}

func TestVerifyPromotesPlaceholder(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.registration.SubmitUser(ctx, studentRequest())
	require.NoError(t, err)
	mail, _ := env.emails.lastOTP()

	redirect, err := env.registration.Verify(ctx, "alice1@stu.sti.edu.ph", mail.Code)
	require.NoError(t, err)
	require.Equal(t, testClientBaseURL+"/login", redirect)

	// exactly one account, no surviving placeholder or code
	require.Len(t, env.store.users, 1)
	require.Empty(t, env.store.placeholders)
	require.Empty(t, env.store.verifications)

	var user *models.User
	for _, u := range env.store.users {
		user = u
	}
	require.Equal(t, "alice", user.Username)
	require.Equal(t, "alice1@stu.sti.edu.ph", user.Email)
	require.Equal(t, "stu", user.Branch)
	require.NotNil(t, user.Course)
	require.Equal(t, "BSIT", *user.Course)
}

func TestVerifyWithoutPlaceholderIsFatal(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// a code with no placeholder behind it means the stores diverged
	code, err := env.otp.Issue(ctx, PurposeVerification, "ghost1@stu.sti.edu.ph")
	require.NoError(t, err)

	_, err = env.registration.Verify(ctx, "ghost1@stu.sti.edu.ph", code)
	var internal *InternalError
	require.ErrorAs(t, err, &internal)
}

func TestResendUnknownEmail(t *testing.T) {
	env := newTestEnv()

	err := env.registration.Resend(context.Background(), "nobody1@stu.sti.edu.ph")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestConcurrentSubmitSameEmail(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.registration.SubmitUser(ctx, studentRequest())
		}(i)
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
		conflicts++
	}
	require.Equal(t, 1, successes, "exactly one concurrent registration may win")
	require.Equal(t, workers-1, conflicts)
	require.Len(t, env.store.placeholders, 1)
}

func TestSweepExpired(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.registration.SubmitUser(ctx, studentRequest())
	require.NoError(t, err)

	// age the placeholder past the 24h TTL
	p := env.store.placeholders["alice1@stu.sti.edu.ph"]
	p.CreatedAt = time.Now().Add(-25 * time.Hour)

	n, err := env.registration.SweepExpired(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	require.Empty(t, env.store.placeholders)
	require.Empty(t, env.store.verifications)
}
