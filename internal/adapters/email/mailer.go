package email

import (
	"log/slog"
	"strings"
	"time"

	"eventregistration/internal/domain"
)

// Transport is a Mailer that holds resources (pooled connections) until closed.
type Transport interface {
	domain.Mailer
	Close() error
}

// SESConfig holds configuration for AWS SES.
type SESConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// SMTPConfig holds configuration for the pooled SMTP transport.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// MaxConnections bounds concurrent SMTP connections (default 5).
	MaxConnections int
	// MaxMessagesPerConn recycles a connection after this many messages (default 100).
	MaxMessagesPerConn int
	DialTimeout        time.Duration
}

// MailerConfig holds configuration for creating a mailer.
type MailerConfig struct {
	Provider    string
	FromAddress string
	FromName    string
	SES         SESConfig
	SMTP        SMTPConfig
}

// From returns the formatted sender.
func (c MailerConfig) From() string {
	if c.FromName == "" {
		return c.FromAddress
	}
	return c.FromName + " <" + c.FromAddress + ">"
}

// NewMailer creates a transport from config. Provider "smtp" uses a pooled SMTP
// transport and "ses" uses AWS SES. When the selected provider has missing or
// placeholder credentials, or the provider is "sandbox" or unknown, mail is
// only logged.
func NewMailer(config MailerConfig, logger *slog.Logger) (Transport, error) {
	switch config.Provider {
	case "smtp":
		s := config.SMTP
		if IsPlaceholder(s.Host) || IsPlaceholder(s.Username) || IsPlaceholder(s.Password) {
			logger.Warn("smtp credentials missing or placeholder, using sandbox mailer")
			return NewSandboxMailer(logger), nil
		}
		return newSMTPPool(s, config, logger), nil
	case "ses":
		if IsPlaceholder(config.SES.AccessKeyID) || IsPlaceholder(config.SES.SecretAccessKey) {
			logger.Warn("ses credentials missing or placeholder, using sandbox mailer")
			return NewSandboxMailer(logger), nil
		}
		return newSESMailer(config), nil
	case "sandbox", "noop":
		return NewSandboxMailer(logger), nil
	default:
		logger.Warn("unknown email provider, using sandbox mailer", "provider", config.Provider)
		return NewSandboxMailer(logger), nil
	}
}

var placeholderMarkers = []string{"your_", "your-", "changeme", "change-me", "placeholder", "example", "xxx", "<"}

// IsPlaceholder reports whether a configured credential is empty or an
// obvious template value such as "your_smtp_password".
func IsPlaceholder(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return true
	}
	for _, m := range placeholderMarkers {
		if strings.Contains(v, m) {
			return true
		}
	}
	return false
}
