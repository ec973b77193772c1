package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"eventregistration/internal/domain"
)

const (
	defaultMaxConnections     = 5
	defaultMaxMessagesPerConn = 100
	defaultDialTimeout        = 10 * time.Second
)

var errPoolClosed = errors.New("smtp pool closed")

// smtpClient is the subset of *smtp.Client used per message.
type smtpClient interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Reset() error
	Quit() error
	Close() error
}

type pooledConn struct {
	client smtpClient
	sent   int
}

// smtpPool keeps up to MaxConnections authenticated SMTP sessions open and
// recycles each after MaxMessagesPerConn messages.
type smtpPool struct {
	cfg      SMTPConfig
	from     string
	fromAddr string
	sem      *semaphore.Weighted
	idle     chan *pooledConn
	dial     func(ctx context.Context) (smtpClient, error)
	logger   *slog.Logger

	mu     sync.Mutex
	closed bool
}

func newSMTPPool(cfg SMTPConfig, mc MailerConfig, logger *slog.Logger) *smtpPool {
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = defaultMaxConnections
	}
	if cfg.MaxMessagesPerConn <= 0 {
		cfg.MaxMessagesPerConn = defaultMaxMessagesPerConn
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	fromAddr := mc.FromAddress
	if fromAddr == "" {
		fromAddr = cfg.Username
	}
	p := &smtpPool{
		cfg:      cfg,
		from:     MailerConfig{FromAddress: fromAddr, FromName: mc.FromName}.From(),
		fromAddr: fromAddr,
		sem:      semaphore.NewWeighted(int64(cfg.MaxConnections)),
		idle:     make(chan *pooledConn, cfg.MaxConnections),
		logger:   logger,
	}
	p.dial = p.dialSMTP
	return p
}

func (p *smtpPool) dialSMTP(ctx context.Context) (smtpClient, error) {
	addr := net.JoinHostPort(p.cfg.Host, strconv.Itoa(p.cfg.Port))
	tlsConfig := &tls.Config{ServerName: p.cfg.Host, MinVersion: tls.VersionTLS12}
	dialer := &net.Dialer{Timeout: p.cfg.DialTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("smtp dial %s: %w", addr, err)
	}
	// Port 465 speaks TLS from the first byte; other ports upgrade with STARTTLS.
	if p.cfg.Port == 465 {
		conn = tls.Client(conn, tlsConfig)
	}
	client, err := smtp.NewClient(conn, p.cfg.Host)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("smtp handshake: %w", err)
	}
	if p.cfg.Port != 465 {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConfig); err != nil {
				client.Close()
				return nil, fmt.Errorf("smtp starttls: %w", err)
			}
		}
	}
	if p.cfg.Username != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(smtp.PlainAuth("", p.cfg.Username, p.cfg.Password, p.cfg.Host)); err != nil {
				client.Close()
				return nil, fmt.Errorf("smtp auth: %w", err)
			}
		}
	}
	return client, nil
}

func (p *smtpPool) acquire(ctx context.Context) (*pooledConn, error) {
	for {
		select {
		case pc := <-p.idle:
			if err := pc.client.Reset(); err != nil {
				pc.client.Close()
				continue
			}
			return pc, nil
		default:
			c, err := p.dial(ctx)
			if err != nil {
				return nil, err
			}
			return &pooledConn{client: c}, nil
		}
	}
}

func (p *smtpPool) release(pc *pooledConn) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed || pc.sent >= p.cfg.MaxMessagesPerConn {
		_ = pc.client.Quit()
		return
	}
	select {
	case p.idle <- pc:
	default:
		_ = pc.client.Quit()
	}
}

func (p *smtpPool) Send(ctx context.Context, msg *domain.EmailMessage) (string, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return "", errPoolClosed
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer p.sem.Release(1)

	pc, err := p.acquire(ctx)
	if err != nil {
		return "", err
	}
	id := messageID(p.fromAddr)
	raw, err := buildMessage(p.from, msg, id, time.Now())
	if err != nil {
		p.release(pc)
		return "", err
	}
	if err := deliver(pc.client, p.fromAddr, msg.To, raw); err != nil {
		// The session state is unknown after a failed transaction.
		_ = pc.client.Close()
		return "", err
	}
	pc.sent++
	p.release(pc)
	return id, nil
}

func deliver(c smtpClient, from, to string, raw []byte) error {
	if err := c.Mail(from); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	if err := c.Rcpt(to); err != nil {
		return fmt.Errorf("smtp RCPT TO: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		w.Close()
		return fmt.Errorf("smtp write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close DATA: %w", err)
	}
	return nil
}

// Close quits every idle connection. Connections in use are quit on release.
func (p *smtpPool) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	for {
		select {
		case pc := <-p.idle:
			_ = pc.client.Quit()
		default:
			return nil
		}
	}
}

func messageID(from string) string {
	host := "localhost"
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		host = from[at+1:]
	}
	return "<" + uuid.NewString() + "@" + host + ">"
}

// buildMessage renders msg as a multipart/alternative RFC 5322 message.
func buildMessage(from string, msg *domain.EmailMessage, id string, now time.Time) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	parts := []struct{ contentType, content string }{
		{"text/plain; charset=UTF-8", msg.Text},
		{"text/html; charset=UTF-8", msg.HTML},
	}
	for _, part := range parts {
		if part.content == "" {
			continue
		}
		w, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {part.contentType},
			"Content-Transfer-Encoding": {"8bit"},
		})
		if err != nil {
			return nil, err
		}
		if _, err := io.WriteString(w, part.content); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	header := [][2]string{
		{"From", from},
		{"To", msg.To},
		{"Subject", mime.QEncoding.Encode("UTF-8", msg.Subject)},
		{"Date", now.Format(time.RFC1123Z)},
		{"Message-ID", id},
		{"MIME-Version", "1.0"},
		{"Content-Type", `multipart/alternative; boundary="` + mw.Boundary() + `"`},
	}
	for _, h := range header {
		out.WriteString(h[0] + ": " + h[1] + "\r\n")
	}
	out.WriteString("\r\n")
	out.Write(body.Bytes())
	return out.Bytes(), nil
}
