package medicines

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("medicine not found")
	ErrForbidden    = errors.New("not authorized for this medicine")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	Name      string
	Dosage    string
	Time      string
	Frequency string
	StartDate time.Time
	EndDate   *time.Time
	PhotoURL  string
}

func (s *Service) Create(ctx context.Context, ownerUserID string, in CreateInput) (Medicine, error) {
	if strings.TrimSpace(ownerUserID) == "" {
		return Medicine{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Dosage) == "" {
		return Medicine{}, ErrInvalidInput
	}
	if in.StartDate.IsZero() {
		return Medicine{}, ErrInvalidInput
	}

	hhmm, err := NormalizeTime(in.Time)
	if err != nil {
		return Medicine{}, err
	}
	freq, ok := ParseFrequency(in.Frequency)
	if !ok {
		return Medicine{}, ErrInvalidInput
	}
	// Primera capa; el store vuelve a validar el rango.
	if err := ValidateDateRange(in.StartDate, in.EndDate); err != nil {
		return Medicine{}, err
	}

	now := s.now()
	m := Medicine{
		ID:          uuid.NewString(),
		OwnerUserID: ownerUserID,
		Name:        strings.TrimSpace(in.Name),
		Dosage:      strings.TrimSpace(in.Dosage),
		Time:        hhmm,
		Frequency:   freq,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		PhotoURL:    strings.TrimSpace(in.PhotoURL),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return Medicine{}, err
	}
	return m, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Medicine, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Medicine{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]Medicine, error) {
	return s.repo.ListByOwner(ctx, ownerUserID)
}

// FindByTime es la consulta que usa el scheduler en cada tick.
func (s *Service) FindByTime(ctx context.Context, hhmm string) ([]Medicine, error) {
	return s.repo.FindByTime(ctx, hhmm)
}

// UpdateInput: nil o vacío = mantener el valor actual.
type UpdateInput struct {
	Name      *string
	Dosage    *string
	Time      *string
	Frequency *string
	StartDate *time.Time
	EndDate   *time.Time
	PhotoURL  *string
}

func (s *Service) Update(ctx context.Context, id, callerUserID string, in UpdateInput) (Medicine, error) {
	m, err := s.owned(ctx, id, callerUserID)
	if err != nil {
		return Medicine{}, err
	}

	if v := trimmed(in.Name); v != "" {
		m.Name = v
	}
	if v := trimmed(in.Dosage); v != "" {
		m.Dosage = v
	}
	if v := trimmed(in.Time); v != "" {
		hhmm, err := NormalizeTime(v)
		if err != nil {
			return Medicine{}, err
		}
		m.Time = hhmm
	}
	if v := trimmed(in.Frequency); v != "" {
		freq, ok := ParseFrequency(v)
		if !ok {
			return Medicine{}, ErrInvalidInput
		}
		m.Frequency = freq
	}
	if in.StartDate != nil && !in.StartDate.IsZero() {
		m.StartDate = *in.StartDate
	}
	if in.EndDate != nil && !in.EndDate.IsZero() {
		end := *in.EndDate
		m.EndDate = &end
	}
	if v := trimmed(in.PhotoURL); v != "" {
		m.PhotoURL = v
	}

	if err := ValidateDateRange(m.StartDate, m.EndDate); err != nil {
		return Medicine{}, err
	}

	m.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, m); err != nil {
		return Medicine{}, err
	}
	return m, nil
}

func (s *Service) Delete(ctx context.Context, id, callerUserID string) error {
	if _, err := s.owned(ctx, id, callerUserID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// MarkTaken registra last_taken. Los evaluadores no lo leen.
func (s *Service) MarkTaken(ctx context.Context, id, callerUserID string) (Medicine, error) {
	m, err := s.owned(ctx, id, callerUserID)
	if err != nil {
		return Medicine{}, err
	}

	now := s.now()
	m.LastTaken = &now
	m.UpdatedAt = now
	if err := s.repo.Update(ctx, m); err != nil {
		return Medicine{}, err
	}
	return m, nil
}

// owned carga la medicina y verifica que callerUserID sea el dueño.
func (s *Service) owned(ctx context.Context, id, callerUserID string) (Medicine, error) {
	if strings.TrimSpace(callerUserID) == "" {
		return Medicine{}, ErrForbidden
	}
	m, err := s.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Medicine{}, ErrNotFound
		}
		return Medicine{}, err
	}
	if m.OwnerUserID != callerUserID {
		return Medicine{}, ErrForbidden
	}
	return m, nil
}

func trimmed(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}
