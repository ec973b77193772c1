package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"eventregistration/internal/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	notAvailable    = "N/A"
)

type adminRegistrationService struct {
	repo   domain.RegistrationRepository
	logger *slog.Logger
}

// NewAdminRegistrationService returns the administrative view of stored registrations.
func NewAdminRegistrationService(repo domain.RegistrationRepository, logger *slog.Logger) domain.AdminRegistrationService {
	return &adminRegistrationService{repo: repo, logger: logger}
}

func (s *adminRegistrationService) List(ctx context.Context, eventID string, page domain.PaginationParams) ([]*domain.Registration, int, error) {
	return s.repo.List(ctx, eventID, page.Clamp(defaultPageSize, maxPageSize))
}

func (s *adminRegistrationService) Get(ctx context.Context, id string) (*domain.Registration, error) {
	return s.repo.GetByID(ctx, id)
}

// Delete removes one registration. Deleting an absent registration succeeds.
func (s *adminRegistrationService) Delete(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	s.logger.InfoContext(ctx, "registration deleted", "registration_id", id, "existed", err == nil)
	return nil
}

// Flush removes every registration of eventID (all events when empty).
func (s *adminRegistrationService) Flush(ctx context.Context, eventID string) (int64, error) {
	n, err := s.repo.DeleteByEvent(ctx, eventID)
	if err != nil {
		return 0, err
	}
	s.logger.WarnContext(ctx, "registrations flushed", "event_id", eventID, "deleted", n)
	return n, nil
}

var (
	csvBaseColumns   = []string{"Registration ID", "Registration Date", "Event ID", "Event Name", "Team Name", "Name", "Email", "Phone", "Roll No", "Course", "Year", "College", "College ID", "Query"}
	csvMemberColumns = []string{"Name", "Email", "Phone", "Roll No", "Course", "Year", "College", "College ID"}
)

// CSVHeader returns the export columns. Member column groups are included
// only for team registrations.
func CSVHeader(team bool) []string {
	h := append([]string{}, csvBaseColumns...)
	if !team {
		return h
	}
	for i := 1; i <= domain.MaxTeamMembers; i++ {
		for _, c := range csvMemberColumns {
			h = append(h, fmt.Sprintf("Member %d %s", i, c))
		}
	}
	return h
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}

func participantFields(p domain.Participant) []string {
	return []string{orNA(p.Name), orNA(p.Email), orNA(p.Phone), orNA(p.RollNo), orNA(p.Course), orNA(p.Year), orNA(p.Institution()), orNA(p.CollegeIDURL)}
}

// CSVRecord flattens reg in CSVHeader(team) order, with N/A for missing values.
func CSVRecord(reg *domain.Registration, team bool) []string {
	rec := []string{
		orNA(reg.ID),
		reg.RegistrationDate.UTC().Format(time.RFC3339),
		orNA(reg.EventID),
		orNA(reg.EventName),
		orNA(reg.TeamName),
	}
	rec = append(rec, participantFields(reg.MainParticipant)[:7]...)
	rec = append(rec, orNA(reg.CollegeIDURL), orNA(reg.Query))
	if !team {
		return rec
	}
	for i := 0; i < domain.MaxTeamMembers; i++ {
		if i < len(reg.TeamMembers) {
			rec = append(rec, participantFields(reg.TeamMembers[i])...)
			continue
		}
		for range csvMemberColumns {
			rec = append(rec, notAvailable)
		}
	}
	return rec
}

// ExportCSV writes every registration of eventID as RFC 4180 CSV.
func (s *adminRegistrationService) ExportCSV(ctx context.Context, eventID string, w io.Writer) error {
	regs, err := s.repo.ListAll(ctx, eventID)
	if err != nil {
		return err
	}
	team := false
	for _, r := range regs {
		if r.IsTeamEvent {
			team = true
			break
		}
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader(team)); err != nil {
		return err
	}
	for _, r := range regs {
		if err := cw.Write(CSVRecord(r, team)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
