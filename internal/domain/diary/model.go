package diary

import (
	"time"

	"github.com/google/uuid"
)

// Entry maps to the diary_entries table. Entries are private to the patient
// unless shared; the therapist can only ever read shared entries.
type Entry struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	EntryDate time.Time `db:"entry_date" json:"entry_date"`
	Mood      *int      `db:"mood" json:"mood,omitempty"`
	Title     *string   `db:"title" json:"title,omitempty"`
	Content   string    `db:"content" json:"content"`
	Shared    bool      `db:"shared" json:"shared"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
