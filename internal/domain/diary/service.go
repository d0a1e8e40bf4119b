package diary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("diary entry not found")

type Service struct {
	entries EntryRepository
}

func NewService(entries EntryRepository) *Service { return &Service{entries: entries} }

// EntryParams carries the writable fields of a diary entry.
type EntryParams struct {
	EntryDate time.Time
	Mood      *int
	Title     *string
	Content   string
	Shared    bool
}

func (p EntryParams) validate() error {
	if strings.TrimSpace(p.Content) == "" {
		return fmt.Errorf("content is required")
	}
	if p.EntryDate.IsZero() {
		return fmt.Errorf("entry_date is required")
	}
	if p.Mood != nil && (*p.Mood < 1 || *p.Mood > 10) {
		return fmt.Errorf("mood must be between 1 and 10")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, patientID uuid.UUID, p EntryParams) (*Entry, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	e := &Entry{
		PatientID: patientID,
		EntryDate: p.EntryDate,
		Mood:      p.Mood,
		Title:     p.Title,
		Content:   p.Content,
		Shared:    p.Shared,
	}
	if err := s.entries.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) Get(ctx context.Context, id, patientID uuid.UUID) (*Entry, error) {
	e, err := s.entries.GetByIDForPatient(ctx, id, patientID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

func (s *Service) Update(ctx context.Context, id, patientID uuid.UUID, p EntryParams) (*Entry, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	e, err := s.Get(ctx, id, patientID)
	if err != nil {
		return nil, err
	}
	e.EntryDate = p.EntryDate
	e.Mood = p.Mood
	e.Title = p.Title
	e.Content = p.Content
	e.Shared = p.Shared
	if err := s.entries.Update(ctx, e); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (s *Service) Delete(ctx context.Context, id, patientID uuid.UUID) error {
	err := s.entries.Delete(ctx, id, patientID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *Service) ListOwn(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Entry, int, error) {
	return s.entries.ListForPatient(ctx, patientID, limit, offset)
}

// ListSharedOf returns a patient's shared entries for the therapist view.
// Private entries never leave the repository.
func (s *Service) ListSharedOf(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Entry, int, error) {
	return s.entries.ListSharedForPatient(ctx, patientID, limit, offset)
}
