package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// GetByIDForUser returns the appointment only if the given user is its
	// patient or its therapist. Ownership misses look like absence.
	GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ListForTherapist returns the therapist's appointments ascending by
	// start time, optionally filtered to one patient.
	ListForTherapist(ctx context.Context, therapistID uuid.UUID, patientID *uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListForPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	// ListBlockingBetween returns slot-blocking appointments for the
	// therapist with start_time in [from, to), optionally excluding one id.
	ListBlockingBetween(ctx context.Context, therapistID uuid.UUID, from, to time.Time, excludeID *uuid.UUID) ([]*Appointment, error)
	CountByStatusForTherapist(ctx context.Context, therapistID uuid.UUID, status Status) (int, error)
	// NextForPatient returns the patient's earliest blocking appointment
	// starting at or after the given instant.
	NextForPatient(ctx context.Context, patientID uuid.UUID, after time.Time) (*Appointment, error)
}
