package safetyplan

import (
	"time"

	"github.com/google/uuid"
)

// Plan statuses. One active plan per patient at a time.
const (
	StatusDraft    = "draft"
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Plan maps to the safety_plans table. The free-text sections follow the
// Stanley-Brown safety planning structure.
type Plan struct {
	ID                     uuid.UUID `db:"id" json:"id"`
	PatientID              uuid.UUID `db:"patient_id" json:"patient_id"`
	CreatedByID            uuid.UUID `db:"created_by_id" json:"created_by_id"`
	Status                 string    `db:"status" json:"status"`
	WarningSigns           *string   `db:"warning_signs" json:"warning_signs,omitempty"`
	CopingStrategies       *string   `db:"coping_strategies" json:"coping_strategies,omitempty"`
	SocialDistractions     *string   `db:"social_distractions" json:"social_distractions,omitempty"`
	PeopleToContact        *string   `db:"people_to_contact" json:"people_to_contact,omitempty"`
	ProfessionalsToContact *string   `db:"professionals_to_contact" json:"professionals_to_contact,omitempty"`
	EmergencyContacts      *string   `db:"emergency_contacts" json:"emergency_contacts,omitempty"`
	MeansRestriction       *string   `db:"means_restriction" json:"means_restriction,omitempty"`
	ReasonsForLiving       *string   `db:"reasons_for_living" json:"reasons_for_living,omitempty"`
	CreatedAt              time.Time `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time `db:"updated_at" json:"updated_at"`
}
