package safetyplan

import (
	"context"

	"github.com/google/uuid"
)

type PlanRepository interface {
	Create(ctx context.Context, p *Plan) error
	GetByID(ctx context.Context, id uuid.UUID) (*Plan, error)
	Update(ctx context.Context, p *Plan) error
	// GetActiveForPatient returns the patient's single active plan.
	GetActiveForPatient(ctx context.Context, patientID uuid.UUID) (*Plan, error)
	ListForPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Plan, int, error)
	// DeactivateForPatient flips every active plan of the patient to
	// inactive. Used before activating a new one.
	DeactivateForPatient(ctx context.Context, patientID uuid.UUID) error
}
