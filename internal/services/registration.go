package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"eventregistration/internal/domain"
)

// RegistrationDeps are the collaborators of the registration workflow.
type RegistrationDeps struct {
	Catalog   domain.EventCatalog
	Validator domain.SubmissionValidator
	Guard     domain.DuplicateGuard
	Relay     domain.FileRelay
	Registry  domain.RegistryWriter
	Notifier  domain.Notifier
	Tokens    domain.RegistrationTokenIssuer
	// PublicBaseURL prefixes the details link sent in confirmation emails.
	PublicBaseURL string
	Logger        *slog.Logger
}

type registrationService struct {
	RegistrationDeps
	now func() time.Time
}

// NewRegistrationService returns the public registration workflow.
func NewRegistrationService(deps RegistrationDeps) domain.RegistrationService {
	deps.PublicBaseURL = strings.TrimRight(deps.PublicBaseURL, "/")
	return &registrationService{RegistrationDeps: deps, now: time.Now}
}

// Register validates sub, short-circuits duplicates, relays identity proofs,
// appends the registration and notifies every participant. Once files start
// moving the request's cancellation is ignored so the write runs to an end.
func (s *registrationService) Register(ctx context.Context, sub *domain.Submission) (*domain.RegistrationOutcome, error) {
	event, err := s.Catalog.GetByID(ctx, sub.EventID)
	if err != nil {
		return nil, err
	}
	if err := s.Validator.Validate(event, sub); err != nil {
		return nil, err
	}

	main := sub.Main.Participant()
	registered, err := s.Guard.IsRegistered(ctx, event, main.Email, main.Phone)
	if err != nil {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}
	if registered {
		s.Logger.InfoContext(ctx, "duplicate registration", "event_id", event.ID, "email", main.Email)
		return s.duplicate(event, main.Email), nil
	}

	ctx = context.WithoutCancel(ctx)
	if err := s.Registry.EnsureReady(ctx, event); err != nil {
		return nil, err
	}

	members := make([]domain.Participant, len(sub.Members))
	for i, m := range sub.Members {
		members[i] = m.Participant()
	}
	if err := s.relayFiles(ctx, event, sub, &main, members); err != nil {
		return nil, err
	}

	reg := domain.NewRegistration(event, main, members, strings.TrimSpace(sub.TeamName), strings.TrimSpace(sub.Query), s.now())
	if err := s.Registry.Append(ctx, event, reg); err != nil {
		if errors.Is(err, domain.ErrAlreadyRegistered) {
			s.Logger.InfoContext(ctx, "duplicate registration rejected by registry", "event_id", event.ID, "email", main.Email)
			return s.duplicate(event, main.Email), nil
		}
		// Relayed files are left in place.
		return nil, err
	}
	s.Guard.Remember(event, main.Email, main.Phone)
	s.Logger.InfoContext(ctx, "registration stored", "event_id", event.ID, "registration_id", reg.ID, "members", len(members))

	outcome := &domain.RegistrationOutcome{
		Event:        event,
		Registration: reg,
		Token:        s.Tokens.Issue(main.Email),
	}
	s.notify(ctx, event, reg, outcome)
	return outcome, nil
}

func (s *registrationService) duplicate(event *domain.Event, email string) *domain.RegistrationOutcome {
	return &domain.RegistrationOutcome{
		Event:             event,
		AlreadyRegistered: true,
		Token:             s.Tokens.Issue(email),
	}
}

// relayFiles uploads every identity proof concurrently. A failed main proof
// aborts the registration; a failed member proof is logged and skipped.
func (s *registrationService) relayFiles(ctx context.Context, event *domain.Event, sub *domain.Submission, main *domain.Participant, members []domain.Participant) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		link, err := s.Relay.Relay(gctx, event, sub.Main.IDProof, "main", *main, event.RequireIDProof)
		if err != nil {
			return err
		}
		main.CollegeIDURL = link
		return nil
	})
	for i := range members {
		g.Go(func() error {
			link, err := s.Relay.Relay(gctx, event, sub.Members[i].IDProof, fmt.Sprintf("member%d", sub.Members[i].SlotNumber(i)), members[i], false)
			if err != nil {
				s.Logger.WarnContext(ctx, "team member upload failed", "event_id", event.ID, "member", sub.Members[i].SlotNumber(i), "error", err)
				return nil
			}
			members[i].CollegeIDURL = link
			return nil
		})
	}
	return g.Wait()
}

func (s *registrationService) detailsURL(event *domain.Event, token string) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("eventId", event.ID)
	return s.PublicBaseURL + "/registration-details?" + q.Encode()
}

// notify emails the main participant and every team member concurrently.
// Only the main participant's result decides EmailSent.
func (s *registrationService) notify(ctx context.Context, event *domain.Event, reg *domain.Registration, outcome *domain.RegistrationOutcome) {
	base := domain.RegistrationEmailData{
		EventName:    event.Name,
		Venue:        event.Venue,
		TeamName:     reg.TeamName,
		WhatsappLink: event.WhatsappLink,
		DetailsURL:   s.detailsURL(event, outcome.Token),
		LeaderName:   reg.MainParticipant.Name,
		Members:      reg.TeamMembers,
	}
	if event.Date != nil {
		base.EventDate = event.Date.Format("Monday, 2 January 2006")
	}

	results := make([]domain.NotificationResult, 1+len(reg.TeamMembers))
	var g errgroup.Group
	g.Go(func() error {
		data := base
		data.RecipientName = reg.MainParticipant.Name
		results[0] = s.Notifier.Send(ctx, reg.MainParticipant.Email, &data)
		return nil
	})
	for i, m := range reg.TeamMembers {
		if m.Email == "" {
			results[i+1] = domain.NotificationResult{Recipient: m.Email, Success: true}
			continue
		}
		g.Go(func() error {
			data := base
			data.RecipientName = m.Name
			data.IsTeamMember = true
			results[i+1] = s.Notifier.Send(ctx, m.Email, &data)
			return nil
		})
	}
	_ = g.Wait()

	outcome.EmailSent = results[0].Success
	if !results[0].Success && results[0].Err != nil {
		outcome.EmailError = results[0].Err.Error()
	}
	for _, r := range results[1:] {
		if !r.Success {
			outcome.TeamEmailErrors = append(outcome.TeamEmailErrors, fmt.Sprintf("%s: %v", r.Recipient, r.Err))
		}
	}
}

// GetDetails returns the stored registration of email for eventID.
func (s *registrationService) GetDetails(ctx context.Context, eventID, email string) (*domain.RegistrationDetails, error) {
	event, err := s.Catalog.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	reg, err := s.Registry.Find(ctx, event, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	return &domain.RegistrationDetails{Registration: reg, Event: event}, nil
}
