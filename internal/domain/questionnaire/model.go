package questionnaire

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Questionnaire statuses. Only active questionnaires can be assigned.
const (
	StatusDraft   = "draft"
	StatusActive  = "active"
	StatusRetired = "retired"
)

// Assignment statuses.
const (
	AssignmentAssigned  = "assigned"
	AssignmentCompleted = "completed"
)

// Questionnaire maps to the questionnaires table. Items is an opaque JSON
// question list; the server stores and returns it without interpreting the
// individual questions.
type Questionnaire struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	Title       string          `db:"title" json:"title"`
	Description *string         `db:"description" json:"description,omitempty"`
	Items       json.RawMessage `db:"items" json:"items"`
	Status      string          `db:"status" json:"status"`
	CreatedByID uuid.UUID       `db:"created_by_id" json:"created_by_id"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// Assignment maps to the questionnaire_assignments table.
type Assignment struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	QuestionnaireID uuid.UUID  `db:"questionnaire_id" json:"questionnaire_id"`
	PatientID       uuid.UUID  `db:"patient_id" json:"patient_id"`
	AssignedByID    uuid.UUID  `db:"assigned_by_id" json:"assigned_by_id"`
	Status          string     `db:"status" json:"status"`
	AssignedAt      time.Time  `db:"assigned_at" json:"assigned_at"`
	CompletedAt     *time.Time `db:"completed_at" json:"completed_at,omitempty"`

	// Questionnaire is joined in on reads for client convenience.
	Questionnaire *Questionnaire `db:"-" json:"questionnaire,omitempty"`
}

// Response maps to the questionnaire_responses table. One response per
// assignment, enforced by a unique index.
type Response struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	AssignmentID uuid.UUID       `db:"assignment_id" json:"assignment_id"`
	Answers      json.RawMessage `db:"answers" json:"answers"`
	SubmittedAt  time.Time       `db:"submitted_at" json:"submitted_at"`
}
