package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// Sender is the outbound email capability. It is injected into
// EmailService so flows can be tested with a double.
type Sender interface {
	Send(to, subject, text string) error
}

// resendSender delivers mail through the Resend API.
type resendSender struct {
	client *resend.Client
	from   string
}

func (s *resendSender) Send(to, subject, text string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Text:    text,
	}

	_, err := s.client.Emails.SendWithContext(context.Background(), params)
	return err
}

// logSender logs instead of sending. Used in development so flows can
// be exercised without a Resend account.
type logSender struct{}

func (logSender) Send(to, subject, text string) error {
	slog.Info("email sent (dev mode)", "to", to, "subject", subject)
	return nil
}

// NewSender returns the Resend-backed sender, or the log sender when
// running in development or without an API key.
func NewSender(apiKey, fromEmail string, isDev bool) Sender {
	if apiKey == "" || isDev {
		return logSender{}
	}
	return &resendSender{
		client: resend.NewClient(apiKey),
		from:   fromEmail,
	}
}

type EmailService struct {
	sender       Sender
	appURL       string
	appName      string
	contactEmail string
}

func NewEmailService(sender Sender, appURL, appName, contactEmail string) *EmailService {
	return &EmailService{
		sender:       sender,
		appURL:       appURL,
		appName:      appName,
		contactEmail: contactEmail,
	}
}

func (s *EmailService) SendVerificationEmail(email, token string) error {
	verifyURL := fmt.Sprintf("%s/api/verify-email/%s", s.appURL, token)
	subject, body := verificationEmailTemplate(verifyURL, s.appName)

	err := s.sender.Send(email, subject, body)
	if err == nil {
		slog.Info("email sent", "type", "email_verification", "to", email)
	}
	return err
}

func (s *EmailService) SendWelcomeEmail(email string) error {
	subject, body := welcomeEmailTemplate(s.appURL, s.appName)

	err := s.sender.Send(email, subject, body)
	if err == nil {
		slog.Info("email sent", "type", "welcome", "to", email)
	}
	return err
}

func (s *EmailService) SendEmailChangeVerification(newEmail, token string) error {
	verifyURL := fmt.Sprintf("%s/api/confirm-email-change/%s", s.appURL, token)
	subject, body := emailChangeVerificationTemplate(verifyURL, s.appName)

	err := s.sender.Send(newEmail, subject, body)
	if err == nil {
		slog.Info("email sent", "type", "email_change_verification", "to", newEmail)
	}
	return err
}

func (s *EmailService) SendEmailChangeNotification(oldEmail, newEmail string) error {
	subject, body := emailChangeNotificationTemplate(newEmail, s.appName)

	err := s.sender.Send(oldEmail, subject, body)
	if err == nil {
		slog.Info("email sent", "type", "email_change_notification", "to", oldEmail)
	}
	return err
}

func (s *EmailService) SendAccountDeletedEmail(email string) error {
	subject, body := accountDeletedEmailTemplate(s.appName)

	err := s.sender.Send(email, subject, body)
	if err == nil {
		slog.Info("email sent", "type", "account_deleted", "to", email)
	}
	return err
}

// SendContactMessage forwards a contact-form submission to the
// configured support address.
func (s *EmailService) SendContactMessage(name, fromEmail, subject, message string) error {
	mailSubject, body := contactMessageTemplate(name, fromEmail, subject, message, s.appName)

	err := s.sender.Send(s.contactEmail, mailSubject, body)
	if err == nil {
		slog.Info("email sent", "type", "contact", "from", fromEmail)
	}
	return err
}
