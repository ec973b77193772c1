// Package catalog loads the events open for registration from TOML.
package catalog

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"eventregistration/internal/domain"
)

//go:embed events.toml
var defaultEvents []byte

type teamSize struct {
	Min int `toml:"min"`
	Max int `toml:"max"`
}

type eventEntry struct {
	ID             string   `toml:"id"`
	Name           string   `toml:"name"`
	Description    string   `toml:"description"`
	Date           string   `toml:"date"`
	Venue          string   `toml:"venue"`
	TeamSize       teamSize `toml:"team_size"`
	WhatsappLink   string   `toml:"whatsapp_link"`
	Registry       string   `toml:"registry"`
	FileSink       string   `toml:"file_sink"`
	RequireIDProof bool     `toml:"require_id_proof"`
	EmailPolicy    string   `toml:"email_policy"`
	SheetName      string   `toml:"sheet_name"`
}

type eventFile struct {
	Events []eventEntry `toml:"events"`
}

// Catalog is an immutable in-memory event catalog.
type Catalog struct {
	events []*domain.Event
	byID   map[string]*domain.Event
}

var _ domain.EventCatalog = (*Catalog)(nil)

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Parse(defaultEvents)
}

// LoadFile reads a catalog from path, or the embedded one when path is empty.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read events file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and checks a TOML catalog.
func Parse(data []byte) (*Catalog, error) {
	var f eventFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	if len(f.Events) == 0 {
		return nil, errors.New("events file defines no events")
	}
	c := &Catalog{byID: make(map[string]*domain.Event, len(f.Events))}
	for i, e := range f.Events {
		ev, err := e.toDomain()
		if err != nil {
			return nil, fmt.Errorf("event #%d (%s): %w", i+1, e.ID, err)
		}
		if _, dup := c.byID[ev.ID]; dup {
			return nil, fmt.Errorf("event #%d: duplicate id %q", i+1, ev.ID)
		}
		c.byID[ev.ID] = ev
		c.events = append(c.events, ev)
	}
	return c, nil
}

func (e eventEntry) toDomain() (*domain.Event, error) {
	ev := &domain.Event{
		ID:             strings.TrimSpace(e.ID),
		Name:           strings.TrimSpace(e.Name),
		Description:    e.Description,
		Venue:          e.Venue,
		TeamSize:       domain.TeamSize{Min: e.TeamSize.Min, Max: e.TeamSize.Max},
		WhatsappLink:   e.WhatsappLink,
		Registry:       domain.RegistryKind(orDefault(e.Registry, string(domain.RegistryDatabase))),
		FileSink:       domain.FileSinkKind(orDefault(e.FileSink, string(domain.FileSinkDatabase))),
		RequireIDProof: e.RequireIDProof,
		EmailPolicy:    domain.EmailPolicy(orDefault(e.EmailPolicy, string(domain.EmailPolicyGeneric))),
		SheetName:      strings.TrimSpace(e.SheetName),
	}
	if ev.ID == "" {
		return nil, errors.New("id is required")
	}
	if ev.Name == "" {
		return nil, errors.New("name is required")
	}
	if ev.TeamSize.Min == 0 && ev.TeamSize.Max == 0 {
		ev.TeamSize = domain.TeamSize{Min: 1, Max: 1}
	}
	if ev.TeamSize.Min < 1 || ev.TeamSize.Max < ev.TeamSize.Min || ev.TeamSize.Max > 1+domain.MaxTeamMembers {
		return nil, fmt.Errorf("team_size must satisfy 1 <= min <= max <= %d", 1+domain.MaxTeamMembers)
	}
	switch ev.Registry {
	case domain.RegistryDatabase, domain.RegistrySheets:
	default:
		return nil, fmt.Errorf("unknown registry %q", ev.Registry)
	}
	switch ev.FileSink {
	case domain.FileSinkDatabase, domain.FileSinkDrive, domain.FileSinkS3:
	default:
		return nil, fmt.Errorf("unknown file_sink %q", ev.FileSink)
	}
	switch ev.EmailPolicy {
	case domain.EmailPolicyAcademic, domain.EmailPolicyGeneric:
	default:
		return nil, fmt.Errorf("unknown email_policy %q", ev.EmailPolicy)
	}
	if e.Date != "" {
		d, err := parseDate(e.Date)
		if err != nil {
			return nil, err
		}
		ev.Date = &d
	}
	return ev, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func orDefault(v, def string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return def
	}
	return v
}

// List returns every event in file order.
func (c *Catalog) List(ctx context.Context) ([]*domain.Event, error) {
	out := make([]*domain.Event, len(c.events))
	for i, e := range c.events {
		cp := *e
		out[i] = &cp
	}
	return out, nil
}

// GetByID returns a copy of the event, or domain.ErrNotFound.
func (c *Catalog) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	e, ok := c.byID[strings.TrimSpace(id)]
	if !ok {
		return nil, fmt.Errorf("event %q: %w", id, domain.ErrNotFound)
	}
	cp := *e
	return &cp, nil
}
