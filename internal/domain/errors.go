package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared across layers.
var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyRegistered = errors.New("already registered")
	ErrInvalidToken      = errors.New("invalid registration token")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidInput      = errors.New("invalid input")
	ErrFileMissing       = errors.New("file is required")
	ErrSendTimeout       = errors.New("email send timed out")
)

// FieldError is one offending field of a submission.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError enumerates every offending field of a submission.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

// Add records a failure for field.
func (e *ValidationError) Add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

// Has reports whether field has at least one recorded failure.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// OrNil returns e when it holds failures and nil otherwise.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// UploadError reports a failed relay of one uploaded file.
type UploadError struct {
	Field    string
	Filename string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s (%s): %v", e.Field, e.Filename, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// RegistryPhase identifies the step of a registry operation that failed.
type RegistryPhase string

const (
	PhaseAuth       RegistryPhase = "auth"
	PhaseSheetCheck RegistryPhase = "sheet-check"
	PhaseAppend     RegistryPhase = "append"
	PhaseRead       RegistryPhase = "read"
)

// RegistryError wraps a failure of the system of record.
type RegistryError struct {
	Backend RegistryKind
	Phase   RegistryPhase
	Err     error
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("%s registry %s: %v", e.Backend, e.Phase, e.Err)
}

func (e *RegistryError) Unwrap() error { return e.Err }

// AuthInitError reports that a service credential could not be used.
// Missing is true when no credential is configured at all.
type AuthInitError struct {
	Missing bool
	Err     error
}

func (e *AuthInitError) Error() string {
	if e.Missing {
		return fmt.Sprintf("service credentials missing: %v", e.Err)
	}
	return fmt.Sprintf("service credentials rejected: %v", e.Err)
}

func (e *AuthInitError) Unwrap() error { return e.Err }
