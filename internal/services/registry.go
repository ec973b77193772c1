package services

import (
	"context"
	"errors"
	"fmt"

	"eventregistration/internal/domain"
)

// databaseRegistry stores registrations in the document table. The unique
// indexes make Append atomic with respect to duplicates.
type databaseRegistry struct {
	repo domain.RegistrationRepository
}

// NewDatabaseRegistry returns a RegistryWriter backed by repo.
func NewDatabaseRegistry(repo domain.RegistrationRepository) domain.RegistryWriter {
	return &databaseRegistry{repo: repo}
}

func (r *databaseRegistry) EnsureReady(ctx context.Context, event *domain.Event) error {
	return nil
}

func (r *databaseRegistry) Append(ctx context.Context, event *domain.Event, reg *domain.Registration) error {
	err := r.repo.Create(ctx, reg)
	if err == nil || errors.Is(err, domain.ErrAlreadyRegistered) {
		return err
	}
	return &domain.RegistryError{Backend: domain.RegistryDatabase, Phase: domain.PhaseAppend, Err: err}
}

func (r *databaseRegistry) Find(ctx context.Context, event *domain.Event, email string) (*domain.Registration, error) {
	reg, err := r.repo.GetByEventAndEmail(ctx, event.ID, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, &domain.RegistryError{Backend: domain.RegistryDatabase, Phase: domain.PhaseRead, Err: err}
	}
	return reg, nil
}

// registryRouter picks the registry configured for each event.
type registryRouter struct {
	backends map[domain.RegistryKind]domain.RegistryWriter
}

// NewRegistryRouter returns a RegistryWriter dispatching on event.Registry.
func NewRegistryRouter(backends map[domain.RegistryKind]domain.RegistryWriter) domain.RegistryWriter {
	return &registryRouter{backends: backends}
}

func (r *registryRouter) backend(event *domain.Event) (domain.RegistryWriter, error) {
	b, ok := r.backends[event.Registry]
	if !ok || b == nil {
		return nil, &domain.RegistryError{
			Backend: event.Registry,
			Phase:   domain.PhaseAuth,
			Err:     &domain.AuthInitError{Missing: true, Err: fmt.Errorf("no %s registry configured", event.Registry)},
		}
	}
	return b, nil
}

func (r *registryRouter) EnsureReady(ctx context.Context, event *domain.Event) error {
	b, err := r.backend(event)
	if err != nil {
		return err
	}
	return b.EnsureReady(ctx, event)
}

func (r *registryRouter) Append(ctx context.Context, event *domain.Event, reg *domain.Registration) error {
	b, err := r.backend(event)
	if err != nil {
		return err
	}
	return b.Append(ctx, event, reg)
}

func (r *registryRouter) Find(ctx context.Context, event *domain.Event, email string) (*domain.Registration, error) {
	b, err := r.backend(event)
	if err != nil {
		return nil, err
	}
	return b.Find(ctx, event, email)
}
