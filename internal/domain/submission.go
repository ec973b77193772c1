package domain

import "strings"

// UploadedFile is a file part received with a submission.
type UploadedFile struct {
	Field       string
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}

// ParticipantInput is the raw form data of one participant.
type ParticipantInput struct {
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"required,mobile_in"`
	RollNo       string `json:"rollNo" validate:"required"`
	Course       string `json:"course" validate:"required"`
	Year         string `json:"year" validate:"required"`
	College      string `json:"college" validate:"required"`
	OtherCollege string `json:"otherCollege"`

	// Slot is the 1-based form slot of a team member; 0 means its list position.
	Slot    int           `json:"-"`
	IDProof *UploadedFile `json:"-"`
}

// SlotNumber returns the member's form slot, falling back to position i+1.
func (in ParticipantInput) SlotNumber(i int) int {
	if in.Slot > 0 {
		return in.Slot
	}
	return i + 1
}

// Participant returns the normalized participant record (trimmed, lower-cased email).
func (in ParticipantInput) Participant() Participant {
	return Participant{
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:        strings.TrimSpace(in.Phone),
		RollNo:       strings.TrimSpace(in.RollNo),
		Course:       strings.TrimSpace(in.Course),
		Year:         strings.TrimSpace(in.Year),
		College:      strings.TrimSpace(in.College),
		OtherCollege: strings.TrimSpace(in.OtherCollege),
	}
}

// Submission is a registration form parsed once at the HTTP boundary.
// Members holds the non-blank team members in slot order.
type Submission struct {
	EventID  string
	TeamName string
	Query    string
	Main     ParticipantInput
	Members  []ParticipantInput
}

// SubmissionValidator checks a submission against an event's rules.
// It returns a *ValidationError listing every offending field, or nil.
type SubmissionValidator interface {
	Validate(event *Event, sub *Submission) error
}
