package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/telecare/telecare/internal/domain/identity"
	"github.com/telecare/telecare/internal/domain/safetyplan"
	"github.com/telecare/telecare/internal/domain/scheduling"
)

type stubAppointments struct {
	today   []*scheduling.Appointment
	pending int
	next    *scheduling.Appointment
}

func (s *stubAppointments) TodayForTherapist(context.Context, uuid.UUID, time.Time) ([]*scheduling.Appointment, error) {
	return s.today, nil
}

func (s *stubAppointments) PendingCountForTherapist(context.Context, uuid.UUID) (int, error) {
	return s.pending, nil
}

func (s *stubAppointments) NextForPatient(context.Context, uuid.UUID) (*scheduling.Appointment, error) {
	if s.next == nil {
		return nil, scheduling.ErrNotFound
	}
	return s.next, nil
}

type stubPatients struct{ count int }

func (s *stubPatients) ListPatients(context.Context, int, int) ([]*identity.User, int, error) {
	return nil, s.count, nil
}

type stubUnread struct{ count int }

func (s *stubUnread) UnreadCount(context.Context, uuid.UUID) (int, error) { return s.count, nil }

type stubAssignments struct{ open int }

func (s *stubAssignments) OpenAssignmentCount(context.Context, uuid.UUID) (int, error) {
	return s.open, nil
}

type stubPlans struct{ active *safetyplan.Plan }

func (s *stubPlans) GetActiveForPatient(context.Context, uuid.UUID) (*safetyplan.Plan, error) {
	if s.active == nil {
		return nil, safetyplan.ErrNotFound
	}
	return s.active, nil
}

func TestForTherapist(t *testing.T) {
	appts := &stubAppointments{
		today:   []*scheduling.Appointment{{ID: uuid.New()}, {ID: uuid.New()}},
		pending: 3,
	}
	svc := NewService(appts, &stubPatients{count: 12}, &stubUnread{count: 4},
		&stubAssignments{}, &stubPlans{}, zerolog.Nop())

	d, err := svc.ForTherapist(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.TodaysAppointments) != 2 {
		t.Errorf("expected 2 appointments today, got %d", len(d.TodaysAppointments))
	}
	if d.PendingAppointments != 3 || d.PatientCount != 12 || d.UnreadNotifications != 4 {
		t.Errorf("unexpected dashboard: %+v", d)
	}
}

func TestForTherapist_EmptyDay(t *testing.T) {
	svc := NewService(&stubAppointments{}, &stubPatients{}, &stubUnread{},
		&stubAssignments{}, &stubPlans{}, zerolog.Nop())

	d, err := svc.ForTherapist(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.TodaysAppointments == nil {
		t.Error("todays_appointments must serialize as [], not null")
	}
}

func TestForPatient(t *testing.T) {
	next := &scheduling.Appointment{ID: uuid.New(), Status: scheduling.StatusAccepted}
	svc := NewService(&stubAppointments{next: next}, &stubPatients{}, &stubUnread{count: 2},
		&stubAssignments{open: 1}, &stubPlans{active: &safetyplan.Plan{ID: uuid.New()}}, zerolog.Nop())

	d, err := svc.ForPatient(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.NextAppointment == nil || d.NextAppointment.ID != next.ID {
		t.Error("next appointment missing")
	}
	if d.OpenQuestionnaires != 1 || d.UnreadNotifications != 2 || !d.HasActiveSafetyPlan {
		t.Errorf("unexpected dashboard: %+v", d)
	}
}

func TestForPatient_NoUpcomingAppointment(t *testing.T) {
	svc := NewService(&stubAppointments{}, &stubPatients{}, &stubUnread{},
		&stubAssignments{}, &stubPlans{}, zerolog.Nop())

	d, err := svc.ForPatient(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("no upcoming appointment must not be an error: %v", err)
	}
	if d.NextAppointment != nil {
		t.Error("expected no next appointment")
	}
	if d.HasActiveSafetyPlan {
		t.Error("expected no active safety plan")
	}
}
