package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"eventregistration/internal/domain"
)

const (
	pqUniqueViolation   = "23505"
	pqInvalidTextFormat = "22P02"
)

const registrationColumns = `id, event_id, event_name, is_team_event, team_name, main_participant,
		team_members, college_id_url, query, registration_date`

type registrationRepository struct {
	DB *sql.DB
}

// NewRegistrationRepository returns a RegistrationRepository storing participants as JSONB.
// The compound unique indexes on (event_id, main_email) and (event_id, main_phone)
// are the authoritative duplicate check.
func NewRegistrationRepository(db *sql.DB) domain.RegistrationRepository {
	return &registrationRepository{DB: db}
}

func isPQCode(err error, code string) bool {
	var perr *pq.Error
	return errors.As(err, &perr) && string(perr.Code) == code
}

func (r *registrationRepository) Create(ctx context.Context, reg *domain.Registration) error {
	main, err := json.Marshal(reg.MainParticipant)
	if err != nil {
		return fmt.Errorf("encode main participant: %w", err)
	}
	members := reg.TeamMembers
	if members == nil {
		members = []domain.Participant{}
	}
	team, err := json.Marshal(members)
	if err != nil {
		return fmt.Errorf("encode team members: %w", err)
	}
	query := `
		INSERT INTO registrations (event_id, event_name, is_team_event, team_name, main_participant,
			team_members, main_email, main_phone, college_id_url, query, registration_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	err = r.DB.QueryRowContext(ctx, query,
		reg.EventID, reg.EventName, reg.IsTeamEvent, reg.TeamName, main, team,
		reg.MainParticipant.Email, reg.MainParticipant.Phone, reg.CollegeIDURL, reg.Query, reg.RegistrationDate,
	).Scan(&reg.ID)
	if err != nil {
		if isPQCode(err, pqUniqueViolation) {
			return domain.ErrAlreadyRegistered
		}
		return err
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistration(s rowScanner) (*domain.Registration, error) {
	reg := &domain.Registration{}
	var main, team []byte
	if err := s.Scan(&reg.ID, &reg.EventID, &reg.EventName, &reg.IsTeamEvent, &reg.TeamName,
		&main, &team, &reg.CollegeIDURL, &reg.Query, &reg.RegistrationDate); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(main, &reg.MainParticipant); err != nil {
		return nil, fmt.Errorf("decode main participant: %w", err)
	}
	if len(team) > 0 {
		if err := json.Unmarshal(team, &reg.TeamMembers); err != nil {
			return nil, fmt.Errorf("decode team members: %w", err)
		}
	}
	if reg.TeamMembers == nil {
		reg.TeamMembers = []domain.Participant{}
	}
	return reg, nil
}

func (r *registrationRepository) GetByID(ctx context.Context, id string) (*domain.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1`
	reg, err := scanRegistration(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isPQCode(err, pqInvalidTextFormat) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return reg, nil
}

func (r *registrationRepository) GetByEventAndEmail(ctx context.Context, eventID, email string) (*domain.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE event_id = $1 AND main_email = $2`
	reg, err := scanRegistration(r.DB.QueryRowContext(ctx, query, eventID, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return reg, nil
}

func (r *registrationRepository) ExistsByEventAndContact(ctx context.Context, eventID, email, phone string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM registrations
			WHERE event_id = $1 AND (main_email = $2 OR main_phone = $3)
		)
	`
	var exists bool
	if err := r.DB.QueryRowContext(ctx, query, eventID, email, phone).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *registrationRepository) List(ctx context.Context, eventID string, page domain.PaginationParams) ([]*domain.Registration, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM registrations WHERE ($1 = '' OR event_id = $1)`
	if err := r.DB.QueryRowContext(ctx, countQuery, eventID).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `SELECT ` + registrationColumns + `
		FROM registrations
		WHERE ($1 = '' OR event_id = $1)
		ORDER BY registration_date DESC
		LIMIT $2 OFFSET $3`
	regs, err := r.query(ctx, query, eventID, page.PageSize, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	return regs, total, nil
}

func (r *registrationRepository) ListAll(ctx context.Context, eventID string) ([]*domain.Registration, error) {
	query := `SELECT ` + registrationColumns + `
		FROM registrations
		WHERE ($1 = '' OR event_id = $1)
		ORDER BY registration_date ASC`
	return r.query(ctx, query, eventID)
}

func (r *registrationRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Registration, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	regs := []*domain.Registration{}
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return regs, nil
}

func (r *registrationRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	if err != nil {
		if isPQCode(err, pqInvalidTextFormat) {
			return domain.ErrNotFound
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteByEvent removes every registration of eventID, or all registrations
// when eventID is empty.
func (r *registrationRepository) DeleteByEvent(ctx context.Context, eventID string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM registrations WHERE ($1 = '' OR event_id = $1)`, eventID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
