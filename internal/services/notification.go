package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"eventregistration/internal/domain"
)

// DefaultEmailTimeout bounds one email send, transport setup included.
const DefaultEmailTimeout = 10 * time.Second

const (
	templateRegistrant = "registration_confirmation"
	templateTeamMember = "team_member_confirmation"
)

type notificationDispatcher struct {
	mailers  domain.MailerProvider
	renderer domain.EmailTemplateRenderer
	timeout  time.Duration
	logger   *slog.Logger
}

// NewNotificationDispatcher returns a Notifier that reports every failure,
// timeouts and panics included, as a result value.
func NewNotificationDispatcher(mailers domain.MailerProvider, renderer domain.EmailTemplateRenderer, timeout time.Duration, logger *slog.Logger) domain.Notifier {
	if timeout <= 0 {
		timeout = DefaultEmailTimeout
	}
	return &notificationDispatcher{mailers: mailers, renderer: renderer, timeout: timeout, logger: logger}
}

type sendResult struct {
	id  string
	err error
}

func (d *notificationDispatcher) Send(ctx context.Context, recipient string, data *domain.RegistrationEmailData) (res domain.NotificationResult) {
	res.Recipient = recipient
	defer func() {
		if r := recover(); r != nil {
			res = domain.NotificationResult{Recipient: recipient, Err: fmt.Errorf("email send panicked: %v", r)}
		}
		if res.Err != nil {
			d.logger.WarnContext(ctx, "email not sent", "to", recipient, "error", res.Err)
		}
	}()

	name := templateRegistrant
	if data.IsTeamMember {
		name = templateTeamMember
	}
	subject, html, text, err := d.renderer.Render(name, data)
	if err != nil {
		res.Err = fmt.Errorf("render %s: %w", name, err)
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	done := make(chan sendResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- sendResult{err: fmt.Errorf("email send panicked: %v", r)}
			}
		}()
		mailer, err := d.mailers.Mailer(ctx)
		if err != nil {
			done <- sendResult{err: fmt.Errorf("mail transport: %w", err)}
			return
		}
		id, err := mailer.Send(ctx, &domain.EmailMessage{To: recipient, Subject: subject, HTML: html, Text: text})
		done <- sendResult{id: id, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			res.Err = r.err
			return res
		}
		res.Success = true
		res.MessageID = r.id
		d.logger.InfoContext(ctx, "email sent", "to", recipient, "message_id", r.id)
		return res
	case <-ctx.Done():
		res.Err = fmt.Errorf("%w after %s", domain.ErrSendTimeout, d.timeout)
		return res
	}
}
