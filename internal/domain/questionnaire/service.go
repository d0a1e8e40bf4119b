package questionnaire

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

var (
	ErrNotFound         = errors.New("questionnaire not found")
	ErrAlreadyAssigned  = errors.New("questionnaire is already assigned to this patient")
	ErrAlreadySubmitted = errors.New("a response was already submitted for this assignment")
	ErrNotActive        = errors.New("only active questionnaires can be assigned")
	ErrCompleted        = errors.New("assignment is already completed")
)

// Notifier delivers a notification to one user.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, ntype, title, body string, data map[string]interface{}) error
}

type Service struct {
	questionnaires QuestionnaireRepository
	assignments    AssignmentRepository
	responses      ResponseRepository
	notifier       Notifier
	logger         zerolog.Logger
}

func NewService(q QuestionnaireRepository, a AssignmentRepository, r ResponseRepository, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{questionnaires: q, assignments: a, responses: r, notifier: notifier, logger: logger}
}

// QuestionnaireParams carries the writable fields of a questionnaire.
type QuestionnaireParams struct {
	Title       string
	Description *string
	Items       json.RawMessage
	Status      string
}

func (p QuestionnaireParams) validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if len(p.Items) == 0 {
		return fmt.Errorf("items are required")
	}
	if !json.Valid(p.Items) {
		return fmt.Errorf("items must be valid JSON")
	}
	switch p.Status {
	case StatusDraft, StatusActive, StatusRetired:
	default:
		return fmt.Errorf("invalid status: %s", p.Status)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, createdBy uuid.UUID, p QuestionnaireParams) (*Questionnaire, error) {
	if p.Status == "" {
		p.Status = StatusDraft
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	q := &Questionnaire{
		Title:       strings.TrimSpace(p.Title),
		Description: p.Description,
		Items:       p.Items,
		Status:      p.Status,
		CreatedByID: createdBy,
	}
	if err := s.questionnaires.Create(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Questionnaire, error) {
	q, err := s.questionnaires.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return q, err
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, p QuestionnaireParams) (*Questionnaire, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	q.Title = strings.TrimSpace(p.Title)
	q.Description = p.Description
	q.Items = p.Items
	q.Status = p.Status
	if err := s.questionnaires.Update(ctx, q); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return q, nil
}

func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]*Questionnaire, int, error) {
	return s.questionnaires.List(ctx, status, limit, offset)
}

// Assign hands an active questionnaire to a patient and notifies them.
func (s *Service) Assign(ctx context.Context, therapistID, questionnaireID, patientID uuid.UUID) (*Assignment, error) {
	q, err := s.Get(ctx, questionnaireID)
	if err != nil {
		return nil, err
	}
	if q.Status != StatusActive {
		return nil, ErrNotActive
	}

	a := &Assignment{
		QuestionnaireID: questionnaireID,
		PatientID:       patientID,
		AssignedByID:    therapistID,
		Status:          AssignmentAssigned,
	}
	if err := s.assignments.Create(ctx, a); err != nil {
		return nil, err
	}
	a.Questionnaire = q

	s.notify(ctx, patientID, "questionnaire.assigned",
		"New questionnaire",
		fmt.Sprintf("You have been asked to fill in %q", q.Title),
		map[string]interface{}{"assignment_id": a.ID, "questionnaire_id": q.ID})
	return a, nil
}

// Submit records the patient's answers, completes the assignment, and
// notifies the therapist who assigned it. A second submit is a conflict.
func (s *Service) Submit(ctx context.Context, patientID, assignmentID uuid.UUID, answers json.RawMessage) (*Response, error) {
	if len(answers) == 0 || !json.Valid(answers) {
		return nil, fmt.Errorf("answers must be valid JSON")
	}

	a, err := s.assignments.GetByIDForPatient(ctx, assignmentID, patientID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if a.Status == AssignmentCompleted {
		return nil, ErrAlreadySubmitted
	}

	resp := &Response{AssignmentID: assignmentID, Answers: answers}
	if err := s.responses.Create(ctx, resp); err != nil {
		return nil, err
	}
	if err := s.assignments.Complete(ctx, assignmentID); err != nil {
		s.logger.Error().Err(err).Str("assignment_id", assignmentID.String()).
			Msg("failed to complete assignment after response")
	}

	s.notify(ctx, a.AssignedByID, "questionnaire.completed",
		"Questionnaire completed",
		"A patient submitted their questionnaire answers",
		map[string]interface{}{"assignment_id": a.ID, "response_id": resp.ID})
	return resp, nil
}

// ListAssignmentsForPatient returns the patient's assignments, newest first,
// with the questionnaire joined in.
func (s *Service) ListAssignmentsForPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Assignment, int, error) {
	return s.assignments.ListForPatient(ctx, patientID, limit, offset)
}

// ListAssignments returns all assignments of one questionnaire for the
// therapist's overview.
func (s *Service) ListAssignments(ctx context.Context, questionnaireID uuid.UUID, limit, offset int) ([]*Assignment, int, error) {
	return s.assignments.ListForQuestionnaire(ctx, questionnaireID, limit, offset)
}

// OpenAssignmentCount counts a patient's questionnaires still waiting for
// answers.
func (s *Service) OpenAssignmentCount(ctx context.Context, patientID uuid.UUID) (int, error) {
	return s.assignments.CountOpenForPatient(ctx, patientID)
}

// GetResponse returns the submitted answers of one assignment. Patients can
// read their own; the therapist can read any.
func (s *Service) GetResponse(ctx context.Context, callerID uuid.UUID, isTherapist bool, assignmentID uuid.UUID) (*Response, error) {
	a, err := s.assignments.GetByID(ctx, assignmentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !isTherapist && a.PatientID != callerID {
		return nil, ErrNotFound
	}

	resp, err := s.responses.GetByAssignment(ctx, assignmentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return resp, err
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
