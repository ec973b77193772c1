package domain

import "context"

// EmailMessage is one rendered outgoing email.
type EmailMessage struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Mailer defines the contract for sending emails (infrastructure port).
// Send returns the provider message ID.
type Mailer interface {
	Send(ctx context.Context, msg *EmailMessage) (string, error)
}

// MailerProvider hands out the process-wide mail transport.
type MailerProvider interface {
	Mailer(ctx context.Context) (Mailer, error)
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// RegistrationEmailData holds data for the registration confirmation emails.
type RegistrationEmailData struct {
	RecipientName string
	EventName     string
	EventDate     string
	Venue         string
	TeamName      string
	WhatsappLink  string
	DetailsURL    string
	LeaderName    string
	// IsTeamMember selects the member template instead of the registrant one.
	IsTeamMember bool
	Members      []Participant
}

// NotificationResult is the outcome of one email send. It is a value, never an error.
type NotificationResult struct {
	Recipient string
	Success   bool
	MessageID string
	Err       error
}

// Notifier sends registration emails without ever failing its caller.
type Notifier interface {
	Send(ctx context.Context, recipient string, data *RegistrationEmailData) NotificationResult
}
