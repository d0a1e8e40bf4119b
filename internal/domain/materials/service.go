package materials

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

var (
	ErrNotFound        = errors.New("reading material not found")
	ErrAlreadyAssigned = errors.New("material is already assigned to this patient")
)

// Notifier delivers a notification to one user.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, ntype, title, body string, data map[string]interface{}) error
}

type Service struct {
	materials   MaterialRepository
	assignments AssignmentRepository
	notifier    Notifier
	logger      zerolog.Logger
}

func NewService(m MaterialRepository, a AssignmentRepository, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{materials: m, assignments: a, notifier: notifier, logger: logger}
}

// MaterialParams carries the writable fields of a reading material.
type MaterialParams struct {
	Title       string
	Description *string
	URL         *string
	Content     *string
}

func (p MaterialParams) validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("title is required")
	}
	hasURL := p.URL != nil && strings.TrimSpace(*p.URL) != ""
	hasContent := p.Content != nil && strings.TrimSpace(*p.Content) != ""
	if !hasURL && !hasContent {
		return fmt.Errorf("either url or content is required")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, createdBy uuid.UUID, p MaterialParams) (*Material, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	m := &Material{
		Title:       strings.TrimSpace(p.Title),
		Description: p.Description,
		URL:         p.URL,
		Content:     p.Content,
		CreatedByID: createdBy,
	}
	if err := s.materials.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Material, error) {
	m, err := s.materials.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return m, err
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, p MaterialParams) (*Material, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Title = strings.TrimSpace(p.Title)
	m.Description = p.Description
	m.URL = p.URL
	m.Content = p.Content
	if err := s.materials.Update(ctx, m); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.materials.Delete(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Material, int, error) {
	return s.materials.List(ctx, limit, offset)
}

// Assign hands a material to a patient and notifies them.
func (s *Service) Assign(ctx context.Context, therapistID, materialID, patientID uuid.UUID) (*Assignment, error) {
	m, err := s.Get(ctx, materialID)
	if err != nil {
		return nil, err
	}

	a := &Assignment{
		MaterialID:   materialID,
		PatientID:    patientID,
		AssignedByID: therapistID,
		Status:       AssignmentAssigned,
	}
	if err := s.assignments.Create(ctx, a); err != nil {
		return nil, err
	}
	a.Material = m

	s.notify(ctx, patientID, "material.assigned",
		"New reading material",
		fmt.Sprintf("Your therapist shared %q with you", m.Title),
		map[string]interface{}{"assignment_id": a.ID, "material_id": m.ID})
	return a, nil
}

// MarkRead records that the patient finished the material and notifies the
// therapist who assigned it. Marking twice keeps the first read stamp.
func (s *Service) MarkRead(ctx context.Context, patientID, assignmentID uuid.UUID) (*Assignment, error) {
	a, err := s.assignments.MarkRead(ctx, assignmentID, patientID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	s.notify(ctx, a.AssignedByID, "material.read",
		"Material read",
		"A patient finished an assigned reading material",
		map[string]interface{}{"assignment_id": a.ID, "material_id": a.MaterialID})
	return a, nil
}

func (s *Service) ListAssignmentsForPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Assignment, int, error) {
	return s.assignments.ListForPatient(ctx, patientID, limit, offset)
}

func (s *Service) notify(ctx context.Context, userID uuid.UUID, ntype, title, body string, data map[string]interface{}) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, ntype, title, body, data); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Str("type", ntype).
			Msg("failed to deliver notification")
	}
}
