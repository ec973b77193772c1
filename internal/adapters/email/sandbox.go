package email

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"eventregistration/internal/domain"
)

// SandboxMailer logs messages instead of delivering them and keeps a copy
// of everything it was asked to send.
type SandboxMailer struct {
	logger *slog.Logger

	mu   sync.Mutex
	sent []domain.EmailMessage
}

// NewSandboxMailer returns a mailer that never leaves the process.
func NewSandboxMailer(logger *slog.Logger) *SandboxMailer {
	return &SandboxMailer{logger: logger}
}

func (m *SandboxMailer) Send(ctx context.Context, msg *domain.EmailMessage) (string, error) {
	m.mu.Lock()
	m.sent = append(m.sent, *msg)
	m.mu.Unlock()
	id := "sandbox-" + uuid.NewString()
	m.logger.InfoContext(ctx, "email not delivered (sandbox)", "to", msg.To, "subject", msg.Subject, "message_id", id)
	return id, nil
}

// Sent returns the messages recorded so far.
func (m *SandboxMailer) Sent() []domain.EmailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.EmailMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

func (m *SandboxMailer) Close() error { return nil }
