package materials

import (
	"time"

	"github.com/google/uuid"
)

// Assignment statuses.
const (
	AssignmentAssigned = "assigned"
	AssignmentRead     = "read"
)

// Material maps to the reading_materials table. Either url or content is set:
// a link to external reading, or inline text.
type Material struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description,omitempty"`
	URL         *string   `db:"url" json:"url,omitempty"`
	Content     *string   `db:"content" json:"content,omitempty"`
	CreatedByID uuid.UUID `db:"created_by_id" json:"created_by_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Assignment maps to the material_assignments table.
type Assignment struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	MaterialID   uuid.UUID  `db:"material_id" json:"material_id"`
	PatientID    uuid.UUID  `db:"patient_id" json:"patient_id"`
	AssignedByID uuid.UUID  `db:"assigned_by_id" json:"assigned_by_id"`
	Status       string     `db:"status" json:"status"`
	ReadAt       *time.Time `db:"read_at" json:"read_at,omitempty"`
	AssignedAt   time.Time  `db:"assigned_at" json:"assigned_at"`

	// Material is joined in on reads for client convenience.
	Material *Material `db:"-" json:"material,omitempty"`
}
