package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an appointment. Pending, accepted and
// rescheduled appointments block their slot; cancelled and rejected are
// terminal and free it.
type Status string

const (
	StatusPending     Status = "pending"
	StatusAccepted    Status = "accepted"
	StatusRescheduled Status = "rescheduled"
	StatusCancelled   Status = "cancelled"
	StatusRejected    Status = "rejected"
)

// BlockingStatuses are the states in which an appointment occupies its slot.
var BlockingStatuses = []Status{StatusPending, StatusAccepted, StatusRescheduled}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRescheduled, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

func (s Status) Blocking() bool {
	return s == StatusPending || s == StatusAccepted || s == StatusRescheduled
}

func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusRejected
}

// Appointment maps to the appointments table.
type Appointment struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patient_id"`
	TherapistID uuid.UUID `db:"therapist_id" json:"therapist_id"`
	StartTime   time.Time `db:"start_time" json:"start_time"`
	Status      Status    `db:"status" json:"status"`
	Notes       *string   `db:"notes" json:"notes,omitempty"`
	CreatedByID uuid.UUID `db:"created_by_id" json:"created_by_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
