package domain

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// EventMessageEmailData holds data for one personalized event message email.
type EventMessageEmailData struct {
	RecipientName  string
	RecipientEmail string
	Subject        string
	Content        string
}
