package safetyplan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type mockPlanRepo struct {
	plans map[uuid.UUID]*Plan
}

func newMockPlanRepo() *mockPlanRepo { return &mockPlanRepo{plans: make(map[uuid.UUID]*Plan)} }

func (m *mockPlanRepo) Create(_ context.Context, p *Plan) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	m.plans[p.ID] = &cp
	return nil
}

func (m *mockPlanRepo) GetByID(_ context.Context, id uuid.UUID) (*Plan, error) {
	p, ok := m.plans[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (m *mockPlanRepo) Update(_ context.Context, p *Plan) error {
	if _, ok := m.plans[p.ID]; !ok {
		return pgx.ErrNoRows
	}
	p.UpdatedAt = time.Now()
	cp := *p
	m.plans[p.ID] = &cp
	return nil
}

func (m *mockPlanRepo) GetActiveForPatient(_ context.Context, patientID uuid.UUID) (*Plan, error) {
	for _, p := range m.plans {
		if p.PatientID == patientID && p.Status == StatusActive {
			cp := *p
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockPlanRepo) ListForPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Plan, int, error) {
	var match []*Plan
	for _, p := range m.plans {
		if p.PatientID == patientID {
			cp := *p
			match = append(match, &cp)
		}
	}
	return match, len(match), nil
}

func (m *mockPlanRepo) DeactivateForPatient(_ context.Context, patientID uuid.UUID) error {
	for _, p := range m.plans {
		if p.PatientID == patientID && p.Status == StatusActive {
			p.Status = StatusInactive
		}
	}
	return nil
}

type stubNotifier struct {
	calls int
}

func (n *stubNotifier) Notify(context.Context, uuid.UUID, string, string, string, map[string]interface{}) error {
	n.calls++
	return nil
}

func newTestService() (*Service, *mockPlanRepo, *stubNotifier) {
	repo := newMockPlanRepo()
	notifier := &stubNotifier{}
	return NewService(repo, notifier, zerolog.Nop()), repo, notifier
}

func TestCreatePlan_DefaultsToDraft(t *testing.T) {
	svc, _, notifier := newTestService()

	plan, err := svc.Create(context.Background(), uuid.New(), uuid.New(), PlanParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Status != StatusDraft {
		t.Errorf("expected draft, got %s", plan.Status)
	}
	if notifier.calls != 0 {
		t.Error("draft creation must not notify")
	}
}

func TestCreatePlan_InvalidStatus(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.Create(context.Background(), uuid.New(), uuid.New(), PlanParams{Status: "bogus"}); err == nil {
		t.Error("expected validation error")
	}
}

func TestActivation_DeactivatesPrevious(t *testing.T) {
	svc, _, notifier := newTestService()
	therapistID, patientID := uuid.New(), uuid.New()

	first, err := svc.Create(context.Background(), therapistID, patientID, PlanParams{Status: StatusActive})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	if notifier.calls != 1 {
		t.Errorf("expected activation notification, got %d", notifier.calls)
	}

	second, err := svc.Create(context.Background(), therapistID, patientID, PlanParams{Status: StatusActive})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	active, err := svc.GetActiveForPatient(context.Background(), patientID)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if active.ID != second.ID {
		t.Error("newest plan should be the active one")
	}

	stale, err := svc.Get(context.Background(), therapistID, true, first.ID)
	if err != nil {
		t.Fatalf("get first: %v", err)
	}
	if stale.Status != StatusInactive {
		t.Errorf("previous plan should be inactive, got %s", stale.Status)
	}
}

func TestUpdate_ActivationNotifiesOnce(t *testing.T) {
	svc, _, notifier := newTestService()
	therapistID, patientID := uuid.New(), uuid.New()

	plan, err := svc.Create(context.Background(), therapistID, patientID, PlanParams{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Update(context.Background(), plan.ID, PlanParams{Status: StatusActive}); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if notifier.calls != 1 {
		t.Errorf("expected 1 notification after activation, got %d", notifier.calls)
	}

	// Updating an already-active plan does not re-notify.
	if _, err := svc.Update(context.Background(), plan.ID, PlanParams{Status: StatusActive}); err != nil {
		t.Fatalf("re-save: %v", err)
	}
	if notifier.calls != 1 {
		t.Errorf("expected no extra notification, got %d", notifier.calls)
	}
}

func TestGet_PatientScoping(t *testing.T) {
	svc, _, _ := newTestService()
	therapistID, patientID := uuid.New(), uuid.New()

	plan, err := svc.Create(context.Background(), therapistID, patientID, PlanParams{Status: StatusActive})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Get(context.Background(), patientID, false, plan.ID); err != nil {
		t.Errorf("owner should read own plan: %v", err)
	}
	if _, err := svc.Get(context.Background(), uuid.New(), false, plan.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("stranger should get ErrNotFound, got %v", err)
	}
	if _, err := svc.Get(context.Background(), therapistID, true, plan.ID); err != nil {
		t.Errorf("therapist should read any plan: %v", err)
	}
}

func TestGetActiveForPatient_NoneIsNotFound(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.GetActiveForPatient(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
