// Package google talks to Google Sheets (the spreadsheet registry) and
// Google Drive (the cloud-drive file sink) with one service-account credential.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"golang.org/x/sync/singleflight"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"eventregistration/internal/cache"
	"eventregistration/internal/domain"
)

const (
	clientsKey = "service-account"
	// refreshMargin re-authorizes this long before the access token expires.
	refreshMargin = 5 * time.Minute
	// defaultTokenLifetime is assumed when the token carries no expiry.
	defaultTokenLifetime = time.Hour
)

// Credentials identify the service account.
type Credentials struct {
	ClientEmail string
	PrivateKey  string
}

// Clients are the authorized API services sharing one token source.
type Clients struct {
	Sheets *sheets.Service
	Drive  *drive.Service
	Expiry time.Time
}

// ClientProvider authorizes the service account once and reuses the clients
// until shortly before the token expires.
type ClientProvider struct {
	creds     Credentials
	clock     cache.Clock
	clients   *cache.TTL[*Clients]
	group     singleflight.Group
	logger    *slog.Logger
	authorize func(ctx context.Context) (*Clients, error)
}

// NewClientProvider returns a provider for creds. A nil clock uses the wall clock.
func NewClientProvider(creds Credentials, clock cache.Clock, logger *slog.Logger) *ClientProvider {
	if clock == nil {
		clock = cache.SystemClock
	}
	p := &ClientProvider{
		creds:   creds,
		clock:   clock,
		clients: cache.NewTTL[*Clients](defaultTokenLifetime-refreshMargin, clock),
		logger:  logger,
	}
	p.authorize = p.serviceAccount
	return p
}

// Configured reports whether credentials were supplied at all.
func (p *ClientProvider) Configured() bool {
	return strings.TrimSpace(p.creds.ClientEmail) != "" && strings.TrimSpace(p.creds.PrivateKey) != ""
}

// Clients returns authorized services, authorizing on first use or after expiry.
// Concurrent callers share a single authorization.
func (p *ClientProvider) Clients(ctx context.Context) (*Clients, error) {
	if c, ok := p.clients.Get(clientsKey); ok {
		return c, nil
	}
	v, err, _ := p.group.Do(clientsKey, func() (any, error) {
		if c, ok := p.clients.Get(clientsKey); ok {
			return c, nil
		}
		c, err := p.authorize(ctx)
		if err != nil {
			return nil, err
		}
		ttl := c.Expiry.Sub(p.clock.Now()) - refreshMargin
		if c.Expiry.IsZero() || ttl <= 0 {
			ttl = defaultTokenLifetime - refreshMargin
		}
		p.clients.SetWithTTL(clientsKey, c, ttl)
		p.logger.DebugContext(ctx, "google service account authorized", "expires_in", ttl.String())
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Clients), nil
}

// Invalidate forces the next call to re-authorize.
func (p *ClientProvider) Invalidate() {
	p.clients.Invalidate(clientsKey)
}

func (p *ClientProvider) serviceAccount(ctx context.Context) (*Clients, error) {
	if !p.Configured() {
		return nil, &domain.AuthInitError{
			Missing: true,
			Err:     errors.New("GOOGLE_CLIENT_EMAIL and GOOGLE_PRIVATE_KEY must be set"),
		}
	}
	conf := &jwt.Config{
		Email:      p.creds.ClientEmail,
		PrivateKey: []byte(NormalizePrivateKey(p.creds.PrivateKey)),
		Scopes:     []string{sheets.SpreadsheetsScope, drive.DriveFileScope},
		TokenURL:   googleoauth.JWTTokenURL,
	}
	// The token source outlives this request; refreshes must not inherit its deadline.
	ts := oauth2.ReuseTokenSource(nil, conf.TokenSource(context.WithoutCancel(ctx)))
	tok, err := ts.Token()
	if err != nil {
		return nil, &domain.AuthInitError{Err: fmt.Errorf("authorize service account: %w", err)}
	}

	sheetsSvc, err := sheets.NewService(context.WithoutCancel(ctx), option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	driveSvc, err := drive.NewService(context.WithoutCancel(ctx), option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &Clients{Sheets: sheetsSvc, Drive: driveSvc, Expiry: tok.Expiry}, nil
}

// NormalizePrivateKey turns the escaped "\n" sequences of a key stored in an
// environment variable back into newlines and strips wrapping quotes.
func NormalizePrivateKey(key string) string {
	key = strings.TrimSpace(key)
	key = strings.Trim(key, `"`)
	return strings.ReplaceAll(key, `\n`, "\n")
}
