package services

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendOTPEmail(email, code string) error
	SendResetPasswordLink(email, code string) error
}

type emailService struct {
	dialer        *gomail.Dialer
	from          string
	clientBaseURL string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail, clientBaseURL string) EmailService {
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	return &emailService{
		dialer:        dialer,
		from:          fromEmail,
		clientBaseURL: clientBaseURL,
	}
}

func (s *emailService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)
	return s.dialer.DialAndSend(m)
}

func (s *emailService) SendOTPEmail(email, code string) error {
	body := fmt.Sprintf(`
		<div style="font-family: Helvetica,Arial,sans-serif;width:600px;overflow:auto;line-height:2">
			<div style="margin:50px auto;width:70%%;padding:20px 0">
				<div style="border-bottom:1px solid #eee">
					<a href="%s" style="font-size:1.4em;color:#00466a;text-decoration:none;font-weight:600">STI-voting</a>
				</div>
				<p style="font-size:1.1em">Hi,</p>
				<p>Thank you for choosing STI-voting. Use the following OTP to verify your account and complete the sign-up process.</p>
				<h2 style="background:#00466a;margin:0 auto;width:max-content;padding:0 10px;color:#fff;border-radius:4px;">%s</h2>
				<p style="font-size:0.9em;">Regards,<br />STI-voting Team</p>
			</div>
		</div>
	`, s.clientBaseURL, code)

	if err := s.send(email, "OTP", body); err != nil {
		return fmt.Errorf("failed to send otp email: %w", err)
	}
	return nil
}

// SendResetPasswordLink embeds the raw code in a clickable URL. The link
// is the channel of trust here: anything that can read the URL can read
// the code, which is weaker than the type-it-in verification flow.
func (s *emailService) SendResetPasswordLink(email, code string) error {
	magicLink := fmt.Sprintf("%s/resetPassword?token=%s&email=%s", s.clientBaseURL, code, email)

	body := fmt.Sprintf(`
		<div style="font-family: Helvetica,Arial,sans-serif;width:600px;overflow:auto;line-height:2">
			<div style="margin:50px auto;width:70%%;padding:20px 0">
				<div style="border-bottom:1px solid #eee">
					<a href="%s" style="font-size:1.4em;color:#00466a;text-decoration:none;font-weight:600">STI-voting</a>
				</div>
				<p style="font-size:1.1em">Hi,</p>
				<p>You are resetting your password. If this is you please click the link to reset your password.</p>
				<a href="%s" style="background:#00466a;margin:0 auto;width:max-content;padding:10px 20px;color:#fff;border-radius:4px;">resetPassword</a>
				<p style="font-size:0.9em;">Regards,<br />STI-voting Team</p>
			</div>
		</div>
	`, s.clientBaseURL, magicLink)

	if err := s.send(email, "Reset Password", body); err != nil {
		return fmt.Errorf("failed to send reset password link: %w", err)
	}
	return nil
}
