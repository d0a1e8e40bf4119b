package questionnaire

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type mockStore struct {
	questionnaires map[uuid.UUID]*Questionnaire
	assignments    map[uuid.UUID]*Assignment
	responses      map[uuid.UUID]*Response
}

func newMockStore() *mockStore {
	return &mockStore{
		questionnaires: make(map[uuid.UUID]*Questionnaire),
		assignments:    make(map[uuid.UUID]*Assignment),
		responses:      make(map[uuid.UUID]*Response),
	}
}

func (m *mockStore) Create(_ context.Context, q *Questionnaire) error {
	q.ID = uuid.New()
	q.CreatedAt = time.Now()
	q.UpdatedAt = q.CreatedAt
	cp := *q
	m.questionnaires[q.ID] = &cp
	return nil
}

func (m *mockStore) GetByID(_ context.Context, id uuid.UUID) (*Questionnaire, error) {
	q, ok := m.questionnaires[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *q
	return &cp, nil
}

func (m *mockStore) Update(_ context.Context, q *Questionnaire) error {
	if _, ok := m.questionnaires[q.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *q
	m.questionnaires[q.ID] = &cp
	return nil
}

func (m *mockStore) List(_ context.Context, status string, limit, offset int) ([]*Questionnaire, int, error) {
	var match []*Questionnaire
	for _, q := range m.questionnaires {
		if status == "" || q.Status == status {
			cp := *q
			match = append(match, &cp)
		}
	}
	return match, len(match), nil
}

type mockAssignmentRepo struct{ store *mockStore }

func (m *mockAssignmentRepo) Create(_ context.Context, a *Assignment) error {
	for _, other := range m.store.assignments {
		if other.QuestionnaireID == a.QuestionnaireID && other.PatientID == a.PatientID &&
			other.Status == AssignmentAssigned {
			return ErrAlreadyAssigned
		}
	}
	a.ID = uuid.New()
	a.AssignedAt = time.Now()
	cp := *a
	cp.Questionnaire = nil
	m.store.assignments[a.ID] = &cp
	return nil
}

func (m *mockAssignmentRepo) GetByID(_ context.Context, id uuid.UUID) (*Assignment, error) {
	a, ok := m.store.assignments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (m *mockAssignmentRepo) GetByIDForPatient(_ context.Context, id, patientID uuid.UUID) (*Assignment, error) {
	a, ok := m.store.assignments[id]
	if !ok || a.PatientID != patientID {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (m *mockAssignmentRepo) Complete(_ context.Context, id uuid.UUID) error {
	a, ok := m.store.assignments[id]
	if !ok {
		return pgx.ErrNoRows
	}
	now := time.Now()
	a.Status = AssignmentCompleted
	a.CompletedAt = &now
	return nil
}

func (m *mockAssignmentRepo) ListForPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Assignment, int, error) {
	var match []*Assignment
	for _, a := range m.store.assignments {
		if a.PatientID == patientID {
			cp := *a
			cp.Questionnaire, _ = m.store.GetByID(context.Background(), a.QuestionnaireID)
			match = append(match, &cp)
		}
	}
	return match, len(match), nil
}

func (m *mockAssignmentRepo) ListForQuestionnaire(_ context.Context, questionnaireID uuid.UUID, limit, offset int) ([]*Assignment, int, error) {
	var match []*Assignment
	for _, a := range m.store.assignments {
		if a.QuestionnaireID == questionnaireID {
			cp := *a
			match = append(match, &cp)
		}
	}
	return match, len(match), nil
}

func (m *mockAssignmentRepo) CountOpenForPatient(_ context.Context, patientID uuid.UUID) (int, error) {
	n := 0
	for _, a := range m.store.assignments {
		if a.PatientID == patientID && a.Status == AssignmentAssigned {
			n++
		}
	}
	return n, nil
}

type mockResponseRepo struct{ store *mockStore }

func (m *mockResponseRepo) Create(_ context.Context, r *Response) error {
	for _, other := range m.store.responses {
		if other.AssignmentID == r.AssignmentID {
			return ErrAlreadySubmitted
		}
	}
	r.ID = uuid.New()
	r.SubmittedAt = time.Now()
	cp := *r
	m.store.responses[r.ID] = &cp
	return nil
}

func (m *mockResponseRepo) GetByAssignment(_ context.Context, assignmentID uuid.UUID) (*Response, error) {
	for _, r := range m.store.responses {
		if r.AssignmentID == assignmentID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type stubNotifier struct {
	calls []struct {
		userID uuid.UUID
		ntype  string
	}
}

func (n *stubNotifier) Notify(_ context.Context, userID uuid.UUID, ntype, _, _ string, _ map[string]interface{}) error {
	n.calls = append(n.calls, struct {
		userID uuid.UUID
		ntype  string
	}{userID, ntype})
	return nil
}

func newTestService() (*Service, *stubNotifier) {
	store := newMockStore()
	notifier := &stubNotifier{}
	svc := NewService(store, &mockAssignmentRepo{store: store}, &mockResponseRepo{store: store}, notifier, zerolog.Nop())
	return svc, notifier
}

func activeParams(title string) QuestionnaireParams {
	return QuestionnaireParams{
		Title:  title,
		Items:  json.RawMessage(`[{"id":1,"text":"How did you sleep?"}]`),
		Status: StatusActive,
	}
}

func TestCreateQuestionnaire_DefaultsToDraft(t *testing.T) {
	svc, _ := newTestService()

	p := activeParams("PHQ-9")
	p.Status = ""
	q, err := svc.Create(context.Background(), uuid.New(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Status != StatusDraft {
		t.Errorf("expected draft, got %s", q.Status)
	}
}

func TestCreateQuestionnaire_Validation(t *testing.T) {
	svc, _ := newTestService()

	cases := []QuestionnaireParams{
		{Title: "", Items: json.RawMessage(`[]`), Status: StatusDraft},
		{Title: "x", Items: nil, Status: StatusDraft},
		{Title: "x", Items: json.RawMessage(`{not json`), Status: StatusDraft},
		{Title: "x", Items: json.RawMessage(`[]`), Status: "bogus"},
	}
	for i, p := range cases {
		if _, err := svc.Create(context.Background(), uuid.New(), p); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestAssign_NotifiesPatient(t *testing.T) {
	svc, notifier := newTestService()
	therapistID, patientID := uuid.New(), uuid.New()

	q, err := svc.Create(context.Background(), therapistID, activeParams("PHQ-9"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	a, err := svc.Assign(context.Background(), therapistID, q.ID, patientID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != AssignmentAssigned {
		t.Errorf("expected assigned, got %s", a.Status)
	}
	if len(notifier.calls) != 1 || notifier.calls[0].userID != patientID {
		t.Errorf("expected notification to the patient, got %+v", notifier.calls)
	}
}

func TestAssign_DraftRejected(t *testing.T) {
	svc, _ := newTestService()
	therapistID := uuid.New()

	p := activeParams("draft one")
	p.Status = StatusDraft
	q, err := svc.Create(context.Background(), therapistID, p)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Assign(context.Background(), therapistID, q.ID, uuid.New()); !errors.Is(err, ErrNotActive) {
		t.Errorf("expected ErrNotActive, got %v", err)
	}
}

func TestAssign_DuplicateConflict(t *testing.T) {
	svc, _ := newTestService()
	therapistID, patientID := uuid.New(), uuid.New()

	q, err := svc.Create(context.Background(), therapistID, activeParams("PHQ-9"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Assign(context.Background(), therapistID, q.ID, patientID); err != nil {
		t.Fatalf("first assign: %v", err)
	}

	if _, err := svc.Assign(context.Background(), therapistID, q.ID, patientID); !errors.Is(err, ErrAlreadyAssigned) {
		t.Errorf("expected ErrAlreadyAssigned, got %v", err)
	}
}

func TestSubmit_CompletesAndNotifiesTherapist(t *testing.T) {
	svc, notifier := newTestService()
	therapistID, patientID := uuid.New(), uuid.New()

	q, _ := svc.Create(context.Background(), therapistID, activeParams("PHQ-9"))
	a, err := svc.Assign(context.Background(), therapistID, q.ID, patientID)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	notifier.calls = nil

	resp, err := svc.Submit(context.Background(), patientID, a.ID, json.RawMessage(`{"1":"well"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.AssignmentID != a.ID {
		t.Error("response not linked to assignment")
	}

	assignments, _, _ := svc.ListAssignmentsForPatient(context.Background(), patientID, 20, 0)
	if len(assignments) != 1 || assignments[0].Status != AssignmentCompleted {
		t.Errorf("assignment not completed: %+v", assignments)
	}
	if len(notifier.calls) != 1 || notifier.calls[0].userID != therapistID {
		t.Errorf("expected notification to the therapist, got %+v", notifier.calls)
	}
}

func TestSubmit_DuplicateConflict(t *testing.T) {
	svc, _ := newTestService()
	therapistID, patientID := uuid.New(), uuid.New()

	q, _ := svc.Create(context.Background(), therapistID, activeParams("PHQ-9"))
	a, _ := svc.Assign(context.Background(), therapistID, q.ID, patientID)

	if _, err := svc.Submit(context.Background(), patientID, a.ID, json.RawMessage(`{}`)); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := svc.Submit(context.Background(), patientID, a.ID, json.RawMessage(`{}`)); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("expected ErrAlreadySubmitted, got %v", err)
	}
}

func TestSubmit_ForeignAssignmentNotFound(t *testing.T) {
	svc, _ := newTestService()
	therapistID, patientID := uuid.New(), uuid.New()

	q, _ := svc.Create(context.Background(), therapistID, activeParams("PHQ-9"))
	a, _ := svc.Assign(context.Background(), therapistID, q.ID, patientID)

	if _, err := svc.Submit(context.Background(), uuid.New(), a.ID, json.RawMessage(`{}`)); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetResponse_Scoping(t *testing.T) {
	svc, _ := newTestService()
	therapistID, patientID := uuid.New(), uuid.New()

	q, _ := svc.Create(context.Background(), therapistID, activeParams("PHQ-9"))
	a, _ := svc.Assign(context.Background(), therapistID, q.ID, patientID)
	if _, err := svc.Submit(context.Background(), patientID, a.ID, json.RawMessage(`{"1":"ok"}`)); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := svc.GetResponse(context.Background(), patientID, false, a.ID); err != nil {
		t.Errorf("owner should read response: %v", err)
	}
	if _, err := svc.GetResponse(context.Background(), therapistID, true, a.ID); err != nil {
		t.Errorf("therapist should read response: %v", err)
	}
	if _, err := svc.GetResponse(context.Background(), uuid.New(), false, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("stranger should get ErrNotFound, got %v", err)
	}
}
