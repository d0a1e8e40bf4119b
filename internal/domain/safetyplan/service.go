package safetyplan

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

var ErrNotFound = errors.New("safety plan not found")

// Notifier delivers a notification to one user.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, ntype, title, body string, data map[string]interface{}) error
}

type Service struct {
	plans    PlanRepository
	notifier Notifier
	logger   zerolog.Logger
}

func NewService(plans PlanRepository, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{plans: plans, notifier: notifier, logger: logger}
}

// PlanParams carries the writable fields of a safety plan.
type PlanParams struct {
	Status                 string
	WarningSigns           *string
	CopingStrategies       *string
	SocialDistractions     *string
	PeopleToContact        *string
	ProfessionalsToContact *string
	EmergencyContacts      *string
	MeansRestriction       *string
	ReasonsForLiving       *string
}

func (p PlanParams) validate() error {
	switch p.Status {
	case StatusDraft, StatusActive, StatusInactive:
		return nil
	}
	return fmt.Errorf("invalid status: %s", p.Status)
}

func (p PlanParams) apply(plan *Plan) {
	plan.Status = p.Status
	plan.WarningSigns = p.WarningSigns
	plan.CopingStrategies = p.CopingStrategies
	plan.SocialDistractions = p.SocialDistractions
	plan.PeopleToContact = p.PeopleToContact
	plan.ProfessionalsToContact = p.ProfessionalsToContact
	plan.EmergencyContacts = p.EmergencyContacts
	plan.MeansRestriction = p.MeansRestriction
	plan.ReasonsForLiving = p.ReasonsForLiving
}

// Create drafts a safety plan for a patient. Activating it deactivates any
// previous active plan so there is always at most one.
func (s *Service) Create(ctx context.Context, therapistID, patientID uuid.UUID, p PlanParams) (*Plan, error) {
	if p.Status == "" {
		p.Status = StatusDraft
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	if p.Status == StatusActive {
		if err := s.plans.DeactivateForPatient(ctx, patientID); err != nil {
			return nil, fmt.Errorf("deactivate previous plans: %w", err)
		}
	}

	plan := &Plan{PatientID: patientID, CreatedByID: therapistID}
	p.apply(plan)
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, err
	}

	if plan.Status == StatusActive {
		s.notifyActivated(ctx, plan)
	}
	return plan, nil
}

// Update rewrites a plan's sections and status.
func (s *Service) Update(ctx context.Context, id uuid.UUID, p PlanParams) (*Plan, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	plan, err := s.plans.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	wasActive := plan.Status == StatusActive
	if p.Status == StatusActive && !wasActive {
		if err := s.plans.DeactivateForPatient(ctx, plan.PatientID); err != nil {
			return nil, fmt.Errorf("deactivate previous plans: %w", err)
		}
	}

	p.apply(plan)
	if err := s.plans.Update(ctx, plan); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if plan.Status == StatusActive && !wasActive {
		s.notifyActivated(ctx, plan)
	}
	return plan, nil
}

// GetActiveForPatient returns the patient's current active plan.
func (s *Service) GetActiveForPatient(ctx context.Context, patientID uuid.UUID) (*Plan, error) {
	plan, err := s.plans.GetActiveForPatient(ctx, patientID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return plan, err
}

// Get returns a plan visible to the caller: the owning patient or any
// therapist.
func (s *Service) Get(ctx context.Context, callerID uuid.UUID, isTherapist bool, id uuid.UUID) (*Plan, error) {
	plan, err := s.plans.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !isTherapist && plan.PatientID != callerID {
		return nil, ErrNotFound
	}
	return plan, nil
}

func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Plan, int, error) {
	return s.plans.ListForPatient(ctx, patientID, limit, offset)
}

func (s *Service) notifyActivated(ctx context.Context, plan *Plan) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.Notify(ctx, plan.PatientID, "safetyplan.activated",
		"Safety plan updated",
		"Your therapist activated a safety plan for you",
		map[string]interface{}{"plan_id": plan.ID})
	if err != nil {
		s.logger.Error().Err(err).Str("plan_id", plan.ID.String()).
			Msg("failed to deliver notification")
	}
}
