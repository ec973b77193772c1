package domain

import (
	"context"
	"io"
	"strings"
	"time"
)

// MaxTeamMembers is the number of member slots besides the main participant.
const MaxTeamMembers = 3

// Participant is one person on a registration.
// swagger:model Participant
type Participant struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	RollNo       string `json:"rollNo"`
	Course       string `json:"course"`
	Year         string `json:"year"`
	College      string `json:"college"`
	OtherCollege string `json:"otherCollege,omitempty"`
	CollegeIDURL string `json:"collegeIdUrl,omitempty"`
}

// Institution returns the free-text college when "Other" was picked.
func (p Participant) Institution() string {
	if strings.EqualFold(strings.TrimSpace(p.College), "other") && strings.TrimSpace(p.OtherCollege) != "" {
		return strings.TrimSpace(p.OtherCollege)
	}
	return p.College
}

// Registration is one stored registration of an individual or a team.
// swagger:model Registration
type Registration struct {
	ID               string        `json:"id"`
	EventID          string        `json:"eventId"`
	EventName        string        `json:"eventName"`
	IsTeamEvent      bool          `json:"isTeamEvent"`
	TeamName         string        `json:"teamName,omitempty"`
	MainParticipant  Participant   `json:"mainParticipant"`
	TeamMembers      []Participant `json:"teamMembers"`
	CollegeIDURL     string        `json:"collegeIdUrl,omitempty"`
	Query            string        `json:"query,omitempty"`
	RegistrationDate time.Time     `json:"registrationDate"`
}

// NewRegistration returns a Registration for event. ID is typically set by the registry on append.
func NewRegistration(event *Event, main Participant, members []Participant, teamName, query string, now time.Time) *Registration {
	if members == nil {
		members = []Participant{}
	}
	reg := &Registration{
		EventID:          event.ID,
		EventName:        event.Name,
		IsTeamEvent:      event.IsTeamEvent(),
		MainParticipant:  main,
		TeamMembers:      members,
		CollegeIDURL:     main.CollegeIDURL,
		Query:            query,
		RegistrationDate: now,
	}
	if reg.IsTeamEvent {
		reg.TeamName = teamName
	}
	return reg
}

// RegistrationRepository defines document storage for registrations.
// Create returns ErrAlreadyRegistered when the (event, email) or (event, phone) pair is taken.
type RegistrationRepository interface {
	Create(ctx context.Context, reg *Registration) error
	GetByID(ctx context.Context, id string) (*Registration, error)
	GetByEventAndEmail(ctx context.Context, eventID, email string) (*Registration, error)
	ExistsByEventAndContact(ctx context.Context, eventID, email, phone string) (bool, error)
	List(ctx context.Context, eventID string, page PaginationParams) ([]*Registration, int, error)
	ListAll(ctx context.Context, eventID string) ([]*Registration, error)
	Delete(ctx context.Context, id string) error
	DeleteByEvent(ctx context.Context, eventID string) (int64, error)
}

// RegistryWriter is the system of record a registration is persisted to.
type RegistryWriter interface {
	// EnsureReady verifies the destination can accept rows for event.
	EnsureReady(ctx context.Context, event *Event) error
	// Append persists exactly one registration.
	Append(ctx context.Context, event *Event, reg *Registration) error
	// Find returns the registration of email for event or ErrNotFound.
	Find(ctx context.Context, event *Event, email string) (*Registration, error)
}

// ContactLister returns the main-participant emails and phones stored for event.
type ContactLister interface {
	Contacts(ctx context.Context, event *Event) (emails, phones []string, err error)
}

// DuplicateGuard decides whether a participant already registered for an event.
type DuplicateGuard interface {
	IsRegistered(ctx context.Context, event *Event, email, phone string) (bool, error)
	// Remember records a successful registration so later checks can short-circuit.
	Remember(event *Event, email, phone string)
}

// TokenSeparator ends the email segment of a legacy "email|ts|nonce" token.
// Addresses containing it are rejected at validation so tokens round-trip.
const TokenSeparator = "|"

// RegistrationTokenIssuer mints and resolves opaque, unsigned registration tokens.
type RegistrationTokenIssuer interface {
	Issue(email string) string
	Resolve(token string) (string, error)
}

// RegistrationOutcome is the result of a registration attempt, including duplicates.
type RegistrationOutcome struct {
	Event             *Event
	Registration      *Registration
	AlreadyRegistered bool
	Token             string
	EmailSent         bool
	EmailError        string
	TeamEmailErrors   []string
}

// RegistrationDetails bundles a stored registration with its event.
type RegistrationDetails struct {
	Registration *Registration `json:"registration"`
	Event        *Event        `json:"event"`
}

// RegistrationService runs the public registration workflow.
type RegistrationService interface {
	Register(ctx context.Context, sub *Submission) (*RegistrationOutcome, error)
	GetDetails(ctx context.Context, eventID, email string) (*RegistrationDetails, error)
}

// AdminRegistrationService defines administrative operations on stored registrations.
type AdminRegistrationService interface {
	List(ctx context.Context, eventID string, page PaginationParams) ([]*Registration, int, error)
	Get(ctx context.Context, id string) (*Registration, error)
	Delete(ctx context.Context, id string) error
	Flush(ctx context.Context, eventID string) (int64, error)
	ExportCSV(ctx context.Context, eventID string, w io.Writer) error
}
