package services

import (
	"context"
	"fmt"
	"html"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// Mailer delivers transactional mail
type Mailer interface {
	SendResetCode(ctx context.Context, to, firstname, code string, ttl time.Duration) error
}

// SESAPI is the part of the SESv2 client used by EmailService
type SESAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService handles email sending via AWS SES (SESv2 API)
type EmailService struct {
	ses       SESAPI
	fromEmail string
}

// NewEmailService creates an SES mailer. The region falls back to SES_AWS_REGION handling done by config.
func NewEmailService(cfg aws.Config, region, fromEmail string) *EmailService {
	if region != "" {
		cfg.Region = region
	}
	return &EmailService{ses: sesv2.NewFromConfig(cfg), fromEmail: fromEmail}
}

// NewEmailServiceWithClient wraps an existing SES client
func NewEmailServiceWithClient(client SESAPI, fromEmail string) *EmailService {
	return &EmailService{ses: client, fromEmail: fromEmail}
}

// SendResetCode mails a password reset code
func (e *EmailService) SendResetCode(ctx context.Context, to, firstname, code string, ttl time.Duration) error {
	subject := "Rebilt - Password reset code"
	return e.sendEmail(ctx, to, subject, resetCodeHTML(firstname, code, ttl))
}

func (e *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody string) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(e.fromEmail),
		Destination:      &sestypes.Destination{ToAddresses: []string{toEmail}},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(subject)},
				Body:    &sestypes.Body{Html: &sestypes.Content{Data: aws.String(htmlBody)}},
			},
		},
	}
	if _, err := e.ses.SendEmail(ctx, input); err != nil {
		return upstream("ses", fmt.Errorf("failed to send email: %w", err))
	}
	return nil
}

func resetCodeHTML(firstname, code string, ttl time.Duration) string {
	name := html.EscapeString(firstname)
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>Rebilt - Password reset</title></head>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>Hello %s,</h2>
    <p>Use the code below to reset your password.</p>
    <div style="border: 2px dashed #1976d2; border-radius: 8px; padding: 20px; text-align: center;">
        <span style="font-size: 36px; font-weight: bold; letter-spacing: 8px; font-family: 'Courier New', monospace;">%s</span>
    </div>
    <p style="color: #e53e3e;">This code expires in %d minutes.</p>
    <p>If you didn't request a reset, you can ignore this email.</p>
</body>
</html>`, name, html.EscapeString(code), int(ttl.Minutes()))
}

// LogMailer is used when no sender address is configured. It only logs that mail was skipped.
type LogMailer struct{}

func (LogMailer) SendResetCode(ctx context.Context, to, firstname, code string, ttl time.Duration) error {
	log.Printf("[EMAIL] SES_FROM_EMAIL not set, skipping reset code mail to %s", to)
	return nil
}
