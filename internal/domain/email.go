package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// MeetingScheduledEmailData holds data for the email sent to guests when voting closes.
type MeetingScheduledEmailData struct {
	Email      string
	Name       string
	EventTitle string
	Location   string
	Date       string
	Time       string
	VoteCount  int
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendMeetingScheduled(ctx context.Context, data *MeetingScheduledEmailData) error
}
