package services

import (
	"context"
	"fmt"
	"log"

	"guestline/internal/domain"
)

type emailSender struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
}

// NewEmailSender returns a MessageSender that renders the "event_message"
// template for each recipient and delivers it through the given Mailer.
func NewEmailSender(mailer domain.Mailer, renderer domain.EmailTemplateRenderer) domain.MessageSender {
	return &emailSender{mailer: mailer, renderer: renderer}
}

func (s *emailSender) SendToAttendee(ctx context.Context, att *domain.Attendee, subject, content string) error {
	if att == nil {
		return fmt.Errorf("attendee is nil")
	}
	data := &domain.EventMessageEmailData{
		RecipientName:  att.Name,
		RecipientEmail: att.Email,
		Subject:        subject,
		Content:        content,
	}
	subjectLine, htmlBody, textBody, err := s.renderer.Render("event_message", data)
	if err != nil {
		return fmt.Errorf("failed to render event_message template: %w", err)
	}
	if err := s.mailer.Send(att.Email, subjectLine, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send event message: %w", err)
	}
	log.Printf("[EMAIL] Event message sent to %s", att.Email)
	return nil
}
