package services

import (
	"context"
	"fmt"
	"log/slog"

	"meetingscheduler/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendMeetingScheduled tells a guest which slot won, using the "meeting_scheduled" template.
func (s *emailService) SendMeetingScheduled(ctx context.Context, data *domain.MeetingScheduledEmailData) error {
	if data == nil {
		return fmt.Errorf("meeting scheduled data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("meeting_scheduled", data)
	if err != nil {
		return fmt.Errorf("failed to render meeting_scheduled template: %w", err)
	}
	if err := s.mailer.Send(ctx, data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send meeting scheduled email: %w", err)
	}
	s.logger.InfoContext(ctx, "meeting scheduled email sent", "to", data.Email, "event", data.EventTitle)
	return nil
}
