package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"eventregistration/internal/cache"
	"eventregistration/internal/domain"
)

// DefaultContactTTL bounds how long a remote contact list is kept.
const DefaultContactTTL = 5 * time.Minute

// DefaultContactReadTimeout bounds one shared read of a remote contact list.
const DefaultContactReadTimeout = 15 * time.Second

// indexGuard asks the database. The unique indexes stay authoritative for
// racing submissions; this lookup only avoids relaying files needlessly.
type indexGuard struct {
	repo domain.RegistrationRepository
}

// NewIndexGuard returns a DuplicateGuard backed by the registrations table.
func NewIndexGuard(repo domain.RegistrationRepository) domain.DuplicateGuard {
	return &indexGuard{repo: repo}
}

func (g *indexGuard) IsRegistered(ctx context.Context, event *domain.Event, email, phone string) (bool, error) {
	return g.repo.ExistsByEventAndContact(ctx, event.ID, email, phone)
}

func (g *indexGuard) Remember(event *domain.Event, email, phone string) {}

type contactSet struct {
	mu     sync.RWMutex
	emails map[string]struct{}
	phones map[string]struct{}
}

func newContactSet(emails, phones []string) *contactSet {
	s := &contactSet{
		emails: make(map[string]struct{}, len(emails)),
		phones: make(map[string]struct{}, len(phones)),
	}
	for _, e := range emails {
		s.emails[strings.ToLower(strings.TrimSpace(e))] = struct{}{}
	}
	for _, p := range phones {
		s.phones[strings.TrimSpace(p)] = struct{}{}
	}
	return s
}

func (s *contactSet) has(email, phone string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.emails[strings.ToLower(email)]; ok && email != "" {
		return true
	}
	_, ok := s.phones[phone]
	return ok && phone != ""
}

func (s *contactSet) add(email, phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if email != "" {
		s.emails[strings.ToLower(email)] = struct{}{}
	}
	if phone != "" {
		s.phones[phone] = struct{}{}
	}
}

// cachedContactGuard keeps each event's remote contact list for a TTL. A hit
// in the live list answers "registered" without a remote call; anything else
// re-reads the remote sheet in full, since other instances may have appended
// rows this process has not seen. Two first-time submissions racing each
// other can both pass before either row is appended.
type cachedContactGuard struct {
	lister      domain.ContactLister
	contacts    *cache.TTL[*contactSet]
	group       singleflight.Group
	readTimeout time.Duration
}

// NewCachedContactGuard returns a DuplicateGuard over a remote contact list.
func NewCachedContactGuard(lister domain.ContactLister, ttl time.Duration, clock cache.Clock) domain.DuplicateGuard {
	if ttl <= 0 {
		ttl = DefaultContactTTL
	}
	return &cachedContactGuard{
		lister:      lister,
		contacts:    cache.NewTTL[*contactSet](ttl, clock),
		readTimeout: DefaultContactReadTimeout,
	}
}

func (g *cachedContactGuard) IsRegistered(ctx context.Context, event *domain.Event, email, phone string) (bool, error) {
	if set, ok := g.contacts.Get(event.ID); ok && set.has(email, phone) {
		return true, nil
	}
	set, err := g.reload(ctx, event)
	if err != nil {
		return false, err
	}
	return set.has(email, phone), nil
}

// reload reads the remote list once for all concurrent callers of one event.
// The shared read is detached from the caller that happened to start it.
func (g *cachedContactGuard) reload(ctx context.Context, event *domain.Event) (*contactSet, error) {
	v, err, _ := g.group.Do(event.ID, func() (any, error) {
		readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.readTimeout)
		defer cancel()
		emails, phones, err := g.lister.Contacts(readCtx, event)
		if err != nil {
			return nil, fmt.Errorf("read registered contacts: %w", err)
		}
		set := newContactSet(emails, phones)
		g.contacts.Set(event.ID, set)
		return set, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*contactSet), nil
}

func (g *cachedContactGuard) Remember(event *domain.Event, email, phone string) {
	if set, ok := g.contacts.Get(event.ID); ok {
		set.add(email, phone)
	}
}

// guardRouter picks the guard matching each event's registry.
type guardRouter struct {
	guards map[domain.RegistryKind]domain.DuplicateGuard
}

// NewGuardRouter returns a DuplicateGuard dispatching on event.Registry.
func NewGuardRouter(guards map[domain.RegistryKind]domain.DuplicateGuard) domain.DuplicateGuard {
	return &guardRouter{guards: guards}
}

func (r *guardRouter) IsRegistered(ctx context.Context, event *domain.Event, email, phone string) (bool, error) {
	g, ok := r.guards[event.Registry]
	if !ok || g == nil {
		return false, &domain.RegistryError{
			Backend: event.Registry,
			Phase:   domain.PhaseRead,
			Err:     &domain.AuthInitError{Missing: true, Err: fmt.Errorf("no duplicate guard for %s registry", event.Registry)},
		}
	}
	return g.IsRegistered(ctx, event, email, phone)
}

func (r *guardRouter) Remember(event *domain.Event, email, phone string) {
	if g, ok := r.guards[event.Registry]; ok && g != nil {
		g.Remember(event, email, phone)
	}
}
