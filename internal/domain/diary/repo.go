package diary

import (
	"context"

	"github.com/google/uuid"
)

type EntryRepository interface {
	Create(ctx context.Context, e *Entry) error
	// GetByIDForPatient scopes the lookup to the owning patient; foreign ids
	// surface as pgx.ErrNoRows.
	GetByIDForPatient(ctx context.Context, id, patientID uuid.UUID) (*Entry, error)
	Update(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, id, patientID uuid.UUID) error
	ListForPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Entry, int, error)
	// ListSharedForPatient returns only entries the patient chose to share.
	ListSharedForPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Entry, int, error)
}
