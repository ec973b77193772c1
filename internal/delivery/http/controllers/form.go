package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"eventregistration/internal/domain"
	"eventregistration/internal/validation"
)

const (
	// maxRegistrationBody allows one proof per participant plus form fields.
	maxRegistrationBody = (domain.MaxTeamMembers+1)*validation.MaxFileSize + 1<<20
	maxMultipartMemory  = 8 << 20

	fieldMainProof = "collegeId"
)

// ParseSubmission reads a registration form into a Submission. Team members
// come from a "teamMembers" JSON array or from "teamMember1".."teamMember3"
// JSON objects; their proofs from "teamMember{N}CollegeId" file parts.
func ParseSubmission(w http.ResponseWriter, r *http.Request) (*domain.Submission, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRegistrationBody)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			return nil, badForm(err)
		}
		if err := r.ParseForm(); err != nil {
			return nil, badForm(err)
		}
	}

	sub := &domain.Submission{
		EventID:  strings.TrimSpace(r.FormValue("eventId")),
		TeamName: r.FormValue("teamName"),
		Query:    r.FormValue("query"),
		Main: domain.ParticipantInput{
			Name:         r.FormValue("name"),
			Email:        r.FormValue("email"),
			Phone:        r.FormValue("phone"),
			RollNo:       r.FormValue("rollNo"),
			Course:       r.FormValue("course"),
			Year:         r.FormValue("year"),
			College:      r.FormValue("college"),
			OtherCollege: r.FormValue("otherCollege"),
		},
	}
	if sub.EventID == "" {
		verr := &domain.ValidationError{}
		verr.Add("eventId", "is required")
		return nil, verr
	}

	members, err := parseMembers(r)
	if err != nil {
		return nil, err
	}
	sub.Members = members

	if r.MultipartForm == nil {
		return sub, nil
	}
	if sub.Main.IDProof, err = formFile(r.MultipartForm, fieldMainProof); err != nil {
		return nil, badForm(err)
	}
	for i := range sub.Members {
		field := fmt.Sprintf("teamMember%dCollegeId", sub.Members[i].SlotNumber(i))
		if sub.Members[i].IDProof, err = formFile(r.MultipartForm, field); err != nil {
			return nil, badForm(err)
		}
	}
	return sub, nil
}

func parseMembers(r *http.Request) ([]domain.ParticipantInput, error) {
	var members []domain.ParticipantInput
	if raw := strings.TrimSpace(r.FormValue("teamMembers")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &members); err != nil {
			return nil, invalidJSON("teamMembers")
		}
		for i := range members {
			members[i].Slot = i + 1
		}
	} else {
		for i := 1; i <= domain.MaxTeamMembers; i++ {
			field := fmt.Sprintf("teamMember%d", i)
			raw := strings.TrimSpace(r.FormValue(field))
			if raw == "" {
				continue
			}
			var m domain.ParticipantInput
			if err := json.Unmarshal([]byte(raw), &m); err != nil {
				return nil, invalidJSON(field)
			}
			m.Slot = i
			members = append(members, m)
		}
	}

	out := members[:0]
	for _, m := range members {
		if !isBlank(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

func isBlank(m domain.ParticipantInput) bool {
	return strings.TrimSpace(m.Name+m.Email+m.Phone+m.RollNo+m.Course+m.Year+m.College+m.OtherCollege) == ""
}

// formFile returns the named file part, or nil when it was not sent.
// At most MaxFileSize+1 bytes are read so oversized files still fail validation.
func formFile(form *multipart.Form, field string) (*domain.UploadedFile, error) {
	headers := form.File[field]
	if len(headers) == 0 {
		return nil, nil
	}
	fh := headers[0]
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, validation.MaxFileSize+1))
	if err != nil {
		return nil, err
	}
	return &domain.UploadedFile{
		Field:       field,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Data:        data,
	}, nil
}

type formError struct{ err error }

func (e *formError) Error() string { return "malformed form: " + e.err.Error() }

func (e *formError) Unwrap() error { return e.err }

func badForm(err error) error { return &formError{err: err} }

func invalidJSON(field string) error {
	verr := &domain.ValidationError{}
	verr.Add(field, "must be valid JSON")
	return verr
}
