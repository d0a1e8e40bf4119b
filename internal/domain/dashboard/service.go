package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/telecare/telecare/internal/domain/identity"
	"github.com/telecare/telecare/internal/domain/safetyplan"
	"github.com/telecare/telecare/internal/domain/scheduling"
)

// The dashboard aggregates read models from the other domains. Each source is
// a narrow interface satisfied by the corresponding service.

type AppointmentSource interface {
	TodayForTherapist(ctx context.Context, therapistID uuid.UUID, day time.Time) ([]*scheduling.Appointment, error)
	PendingCountForTherapist(ctx context.Context, therapistID uuid.UUID) (int, error)
	NextForPatient(ctx context.Context, patientID uuid.UUID) (*scheduling.Appointment, error)
}

type PatientSource interface {
	ListPatients(ctx context.Context, limit, offset int) ([]*identity.User, int, error)
}

type UnreadSource interface {
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
}

type AssignmentSource interface {
	OpenAssignmentCount(ctx context.Context, patientID uuid.UUID) (int, error)
}

type SafetyPlanSource interface {
	GetActiveForPatient(ctx context.Context, patientID uuid.UUID) (*safetyplan.Plan, error)
}

type Service struct {
	appointments  AppointmentSource
	patients      PatientSource
	notifications UnreadSource
	assignments   AssignmentSource
	safetyPlans   SafetyPlanSource
	logger        zerolog.Logger

	now func() time.Time
}

func NewService(appts AppointmentSource, patients PatientSource, unread UnreadSource,
	assignments AssignmentSource, plans SafetyPlanSource, logger zerolog.Logger) *Service {
	return &Service{
		appointments:  appts,
		patients:      patients,
		notifications: unread,
		assignments:   assignments,
		safetyPlans:   plans,
		logger:        logger,
		now:           time.Now,
	}
}

// TherapistDashboard is the therapist's day-at-a-glance view.
type TherapistDashboard struct {
	TodaysAppointments  []*scheduling.Appointment `json:"todays_appointments"`
	PendingAppointments int                       `json:"pending_appointments"`
	PatientCount        int                       `json:"patient_count"`
	UnreadNotifications int                       `json:"unread_notifications"`
}

// PatientDashboard is the patient's home view.
type PatientDashboard struct {
	NextAppointment     *scheduling.Appointment `json:"next_appointment,omitempty"`
	OpenQuestionnaires  int                     `json:"open_questionnaires"`
	UnreadNotifications int                     `json:"unread_notifications"`
	HasActiveSafetyPlan bool                    `json:"has_active_safety_plan"`
}

func (s *Service) ForTherapist(ctx context.Context, therapistID uuid.UUID) (*TherapistDashboard, error) {
	d := &TherapistDashboard{TodaysAppointments: []*scheduling.Appointment{}}

	today, err := s.appointments.TodayForTherapist(ctx, therapistID, s.now())
	if err != nil {
		return nil, err
	}
	if today != nil {
		d.TodaysAppointments = today
	}

	if d.PendingAppointments, err = s.appointments.PendingCountForTherapist(ctx, therapistID); err != nil {
		return nil, err
	}
	if _, d.PatientCount, err = s.patients.ListPatients(ctx, 1, 0); err != nil {
		return nil, err
	}
	if d.UnreadNotifications, err = s.notifications.UnreadCount(ctx, therapistID); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) ForPatient(ctx context.Context, patientID uuid.UUID) (*PatientDashboard, error) {
	d := &PatientDashboard{}

	next, err := s.appointments.NextForPatient(ctx, patientID)
	switch {
	case err == nil:
		d.NextAppointment = next
	case errors.Is(err, scheduling.ErrNotFound):
		// No upcoming appointment is a normal state.
	default:
		return nil, err
	}

	if d.OpenQuestionnaires, err = s.assignments.OpenAssignmentCount(ctx, patientID); err != nil {
		return nil, err
	}
	if d.UnreadNotifications, err = s.notifications.UnreadCount(ctx, patientID); err != nil {
		return nil, err
	}

	if _, err := s.safetyPlans.GetActiveForPatient(ctx, patientID); err == nil {
		d.HasActiveSafetyPlan = true
	} else if !errors.Is(err, safetyplan.ErrNotFound) {
		return nil, err
	}
	return d, nil
}
