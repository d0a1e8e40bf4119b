package questionnaire

import (
	"context"

	"github.com/google/uuid"
)

type QuestionnaireRepository interface {
	Create(ctx context.Context, q *Questionnaire) error
	GetByID(ctx context.Context, id uuid.UUID) (*Questionnaire, error)
	Update(ctx context.Context, q *Questionnaire) error
	List(ctx context.Context, status string, limit, offset int) ([]*Questionnaire, int, error)
}

type AssignmentRepository interface {
	// Create fails with ErrAlreadyAssigned when the patient already has an
	// open assignment of the same questionnaire.
	Create(ctx context.Context, a *Assignment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Assignment, error)
	GetByIDForPatient(ctx context.Context, id, patientID uuid.UUID) (*Assignment, error)
	// Complete flips the assignment to completed and stamps completed_at.
	Complete(ctx context.Context, id uuid.UUID) error
	// ListForPatient joins the questionnaire onto each assignment.
	ListForPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Assignment, int, error)
	ListForQuestionnaire(ctx context.Context, questionnaireID uuid.UUID, limit, offset int) ([]*Assignment, int, error)
	CountOpenForPatient(ctx context.Context, patientID uuid.UUID) (int, error)
}

type ResponseRepository interface {
	// Create fails with ErrAlreadySubmitted on a second response for the
	// same assignment.
	Create(ctx context.Context, r *Response) error
	GetByAssignment(ctx context.Context, assignmentID uuid.UUID) (*Response, error)
}
