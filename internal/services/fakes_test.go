package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"eventregistration/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeCatalog is an in-memory EventCatalog.
type fakeCatalog struct {
	events map[string]*domain.Event
}

func newFakeCatalog(events ...*domain.Event) *fakeCatalog {
	c := &fakeCatalog{events: make(map[string]*domain.Event)}
	for _, e := range events {
		c.events[e.ID] = e
	}
	return c
}

func (c *fakeCatalog) List(ctx context.Context) ([]*domain.Event, error) {
	out := make([]*domain.Event, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e)
	}
	return out, nil
}

func (c *fakeCatalog) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if e, ok := c.events[id]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("event %q: %w", id, domain.ErrNotFound)
}

// fakeRegistrationRepo is an in-memory RegistrationRepository enforcing the
// same (event, email) and (event, phone) uniqueness as the database.
type fakeRegistrationRepo struct {
	mu     sync.Mutex
	byID   map[string]*domain.Registration
	nextID int
	err    error // if set, every call returns it
}

func newFakeRegistrationRepo() *fakeRegistrationRepo {
	return &fakeRegistrationRepo{byID: make(map[string]*domain.Registration), nextID: 1}
}

func (f *fakeRegistrationRepo) Create(ctx context.Context, reg *domain.Registration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, r := range f.byID {
		if r.EventID != reg.EventID {
			continue
		}
		if r.MainParticipant.Email == reg.MainParticipant.Email || r.MainParticipant.Phone == reg.MainParticipant.Phone {
			return domain.ErrAlreadyRegistered
		}
	}
	reg.ID = fmt.Sprintf("reg-%d", f.nextID)
	f.nextID++
	f.byID[reg.ID] = reg
	return nil
}

func (f *fakeRegistrationRepo) GetByID(ctx context.Context, id string) (*domain.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if r, ok := f.byID[id]; ok {
		return r, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRegistrationRepo) GetByEventAndEmail(ctx context.Context, eventID, email string) (*domain.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, r := range f.byID {
		if r.EventID == eventID && r.MainParticipant.Email == email {
			return r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRegistrationRepo) ExistsByEventAndContact(ctx context.Context, eventID, email, phone string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	for _, r := range f.byID {
		if r.EventID == eventID && (r.MainParticipant.Email == email || r.MainParticipant.Phone == phone) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRegistrationRepo) sorted(eventID string) []*domain.Registration {
	var out []*domain.Registration
	for _, r := range f.byID {
		if eventID == "" || r.EventID == eventID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegistrationDate.Before(out[j].RegistrationDate) })
	return out
}

func (f *fakeRegistrationRepo) List(ctx context.Context, eventID string, page domain.PaginationParams) ([]*domain.Registration, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, 0, f.err
	}
	all := f.sorted(eventID)
	start := min(page.Offset(), len(all))
	end := min(start+page.PageSize, len(all))
	return all[start:end], len(all), nil
}

func (f *fakeRegistrationRepo) ListAll(ctx context.Context, eventID string) ([]*domain.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.sorted(eventID), nil
}

func (f *fakeRegistrationRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeRegistrationRepo) DeleteByEvent(ctx context.Context, eventID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	var n int64
	for id, r := range f.byID {
		if eventID == "" || r.EventID == eventID {
			delete(f.byID, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeRegistrationRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

// fakeSink records every object it receives. Objects whose name starts
// with failPrefix are rejected.
type fakeSink struct {
	mu         sync.Mutex
	objects    []*domain.FileObject
	failPrefix string
}

func (s *fakeSink) Put(ctx context.Context, obj *domain.FileObject) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPrefix != "" && strings.HasPrefix(obj.Name, s.failPrefix) {
		return "", errors.New("sink unavailable")
	}
	s.objects = append(s.objects, obj)
	return "https://files.test/" + obj.Name, nil
}

func (s *fakeSink) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.objects))
	for _, o := range s.objects {
		out = append(out, o.Name)
	}
	return out
}

// fakeMailer fails for every address listed in failFor and records the rest.
type fakeMailer struct {
	mu      sync.Mutex
	sent    []*domain.EmailMessage
	failFor map[string]bool
	delay   time.Duration
	panics  bool
}

func (m *fakeMailer) Send(ctx context.Context, msg *domain.EmailMessage) (string, error) {
	if m.panics {
		panic("transport exploded")
	}
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.failFor[msg.To] {
		return "", errors.New("smtp: 550 mailbox unavailable")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return "msg-" + msg.To, nil
}

func (m *fakeMailer) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sent))
	for _, s := range m.sent {
		out = append(out, s.To)
	}
	sort.Strings(out)
	return out
}

type fakeMailerProvider struct {
	mailer domain.Mailer
	err    error
}

func (p *fakeMailerProvider) Mailer(ctx context.Context) (domain.Mailer, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.mailer, nil
}

// fakeRenderer renders "<template>:<recipient>" without touching real templates.
type fakeRenderer struct {
	err error
}

func (r *fakeRenderer) Render(name string, data any) (string, string, string, error) {
	if r.err != nil {
		return "", "", "", r.err
	}
	d := data.(*domain.RegistrationEmailData)
	return name + ":" + d.RecipientName, "<p>" + d.EventName + "</p>", d.EventName, nil
}
