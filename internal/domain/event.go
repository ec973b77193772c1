package domain

import (
	"context"
	"time"
)

// RegistryKind names the system of record a registration is written to.
type RegistryKind string

const (
	RegistryDatabase RegistryKind = "database"
	RegistrySheets   RegistryKind = "sheets"
)

// FileSinkKind names the durable store identity proofs are relayed to.
type FileSinkKind string

const (
	FileSinkDatabase FileSinkKind = "database"
	FileSinkDrive    FileSinkKind = "drive"
	FileSinkS3       FileSinkKind = "s3"
)

// EmailPolicy controls which addresses an event accepts.
type EmailPolicy string

const (
	// EmailPolicyAcademic accepts only addresses on the allow-listed academic domains.
	EmailPolicyAcademic EmailPolicy = "academic"
	// EmailPolicyGeneric accepts any syntactically valid address.
	EmailPolicyGeneric EmailPolicy = "generic"
)

// TeamSize is the inclusive range of participants (main participant included).
type TeamSize struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether n participants fall within the range.
func (t TeamSize) Contains(n int) bool {
	return n >= t.Min && n <= t.Max
}

// Event is a registrable event from the catalog.
// swagger:model Event
type Event struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Description    string       `json:"description,omitempty"`
	Date           *time.Time   `json:"date,omitempty"`
	Venue          string       `json:"venue,omitempty"`
	TeamSize       TeamSize     `json:"teamSize"`
	WhatsappLink   string       `json:"whatsappLink,omitempty"`
	Registry       RegistryKind `json:"registry"`
	FileSink       FileSinkKind `json:"fileSink"`
	RequireIDProof bool         `json:"requireIdProof"`
	EmailPolicy    EmailPolicy  `json:"emailPolicy"`
	SheetName      string       `json:"-"`
}

// IsTeamEvent reports whether the event accepts team members besides the main participant.
func (e *Event) IsTeamEvent() bool {
	return e.TeamSize.Max > 1
}

// EventCatalog lists the events open for registration.
type EventCatalog interface {
	List(ctx context.Context) ([]*Event, error)
	GetByID(ctx context.Context, id string) (*Event, error)
}
