package email

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"eventregistration/internal/cache"
	"eventregistration/internal/domain"
)

const transportKey = "transport"

// DefaultTransportTTL is how long one transport (and its connection pool) is reused.
const DefaultTransportTTL = 30 * time.Minute

// TransportCache builds the mail transport lazily and rebuilds it after ttl.
// A replaced or expired transport is closed.
type TransportCache struct {
	build  func() (Transport, error)
	cache  *cache.TTL[Transport]
	group  singleflight.Group
	logger *slog.Logger
}

var _ domain.MailerProvider = (*TransportCache)(nil)

// NewTransportCache returns a provider that creates transports with NewMailer(config).
func NewTransportCache(config MailerConfig, ttl time.Duration, clock cache.Clock, logger *slog.Logger) *TransportCache {
	return newTransportCache(func() (Transport, error) { return NewMailer(config, logger) }, ttl, clock, logger)
}

func newTransportCache(build func() (Transport, error), ttl time.Duration, clock cache.Clock, logger *slog.Logger) *TransportCache {
	if ttl <= 0 {
		ttl = DefaultTransportTTL
	}
	tc := &TransportCache{
		build:  build,
		cache:  cache.NewTTL[Transport](ttl, clock),
		logger: logger,
	}
	tc.cache.OnEvict = func(_ string, t Transport) {
		if err := t.Close(); err != nil {
			logger.Warn("close mail transport", "error", err)
		}
	}
	return tc
}

// Mailer returns the cached transport, building one when absent or expired.
func (tc *TransportCache) Mailer(ctx context.Context) (domain.Mailer, error) {
	if t, ok := tc.cache.Get(transportKey); ok {
		return t, nil
	}
	v, err, _ := tc.group.Do(transportKey, func() (any, error) {
		if t, ok := tc.cache.Get(transportKey); ok {
			return t, nil
		}
		t, err := tc.build()
		if err != nil {
			return nil, err
		}
		tc.cache.Set(transportKey, t)
		tc.logger.DebugContext(ctx, "mail transport created")
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Transport), nil
}

// Close closes the current transport.
func (tc *TransportCache) Close() {
	tc.cache.InvalidateAll()
}
