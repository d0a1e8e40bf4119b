package materials

import (
	"context"

	"github.com/google/uuid"
)

type MaterialRepository interface {
	Create(ctx context.Context, m *Material) error
	GetByID(ctx context.Context, id uuid.UUID) (*Material, error)
	Update(ctx context.Context, m *Material) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Material, int, error)
}

type AssignmentRepository interface {
	// Create fails with ErrAlreadyAssigned when the patient already has the
	// material assigned.
	Create(ctx context.Context, a *Assignment) error
	GetByIDForPatient(ctx context.Context, id, patientID uuid.UUID) (*Assignment, error)
	// MarkRead stamps read_at once; repeated marks keep the first stamp.
	MarkRead(ctx context.Context, id, patientID uuid.UUID) (*Assignment, error)
	// ListForPatient joins the material onto each assignment.
	ListForPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Assignment, int, error)
}
