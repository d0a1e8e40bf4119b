package scheduling

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/telecare/telecare/internal/platform/auth"
)

func handlerFixture(t *testing.T) (*Handler, *fixture) {
	t.Helper()
	f := newFixture(t)
	return NewHandler(f.svc), f
}

func doJSON(e *echo.Echo, method, target string, body string, userID uuid.UUID, role string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req = req.WithContext(auth.WithUser(req.Context(), userID, role))
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAvailabilityHandler_MissingDate(t *testing.T) {
	h, f := handlerFixture(t)
	e := echo.New()

	c, _ := doJSON(e, http.MethodGet, "/slots/availability", "", f.patientID, "patient")
	err := h.Availability(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestAvailabilityHandler_Saturday(t *testing.T) {
	h, f := handlerFixture(t)
	e := echo.New()

	c, rec := doJSON(e, http.MethodGet, "/slots/availability?date=2025-06-14", "", f.patientID, "patient")
	if err := h.Availability(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var day DayAvailability
	if err := json.Unmarshal(rec.Body.Bytes(), &day); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if day.Date != "2025-06-14" || len(day.Slots) != 0 {
		t.Errorf("expected empty Saturday, got %+v", day)
	}
}

func TestAvailabilityHandler_BadExclude(t *testing.T) {
	h, f := handlerFixture(t)
	e := echo.New()

	c, _ := doJSON(e, http.MethodGet, "/slots/availability?date=2025-06-16&exclude=not-a-uuid", "", f.patientID, "patient")
	err := h.Availability(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestCreateHandler(t *testing.T) {
	h, f := handlerFixture(t)
	e := echo.New()

	body := `{"date":"2025-06-16T10:00","notes":"first session"}`
	c, rec := doJSON(e, http.MethodPost, "/appointments", body, f.patientID, "patient")
	if err := h.Create(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var a Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &a); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if a.Status != StatusPending {
		t.Errorf("expected pending, got %s", a.Status)
	}
	if a.Notes == nil || *a.Notes != "first session" {
		t.Error("notes not persisted")
	}
}

func TestCreateHandler_SlotTaken(t *testing.T) {
	h, f := handlerFixture(t)
	e := echo.New()

	body := `{"date":"2025-06-16T10:00"}`
	c, _ := doJSON(e, http.MethodPost, "/appointments", body, f.patientID, "patient")
	if err := h.Create(c); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	c, _ = doJSON(e, http.MethodPost, "/appointments", body, uuid.New(), "patient")
	err := h.Create(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusConflict {
		t.Errorf("expected 409, got %v", err)
	}
}

func TestCreateHandler_InvalidDate(t *testing.T) {
	h, f := handlerFixture(t)
	e := echo.New()

	for _, body := range []string{`{}`, `{"date":"tomorrow"}`, `{"date":"2020-01-01T10:00"}`} {
		c, _ := doJSON(e, http.MethodPost, "/appointments", body, f.patientID, "patient")
		err := h.Create(c)
		he, ok := err.(*echo.HTTPError)
		if !ok || he.Code != http.StatusBadRequest {
			t.Errorf("body %s: expected 400, got %v", body, err)
		}
	}
}

func TestUpdateHandler_NotOwned(t *testing.T) {
	h, f := handlerFixture(t)
	e := echo.New()

	a := f.mustCreate(t, time.Date(2025, 6, 16, 10, 0, 0, 0, time.Local))

	c, _ := doJSON(e, http.MethodPut, "/appointments/"+a.ID.String(), `{"status":"accepted"}`, uuid.New(), "therapist")
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())

	err := h.Update(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404 for non-owned appointment, got %v", err)
	}
}

func TestUpdateHandler_Accept(t *testing.T) {
	h, f := handlerFixture(t)
	e := echo.New()

	a := f.mustCreate(t, time.Date(2025, 6, 16, 10, 0, 0, 0, time.Local))

	c, rec := doJSON(e, http.MethodPut, "/appointments/"+a.ID.String(), `{"status":"accepted"}`, f.therapistID, "therapist")
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())

	if err := h.Update(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var got Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if got.Status != StatusAccepted {
		t.Errorf("expected accepted, got %s", got.Status)
	}
}

func TestRemoveHandler(t *testing.T) {
	h, f := handlerFixture(t)
	e := echo.New()

	a := f.mustCreate(t, time.Date(2025, 6, 16, 10, 0, 0, 0, time.Local))

	c, rec := doJSON(e, http.MethodDelete, "/appointments/"+a.ID.String(), "", f.patientID, "patient")
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())

	if err := h.Remove(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}

	// Second delete of the same id is a 404.
	c, _ = doJSON(e, http.MethodDelete, "/appointments/"+a.ID.String(), "", f.patientID, "patient")
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())

	err := h.Remove(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestListHandler_Paginated(t *testing.T) {
	h, f := handlerFixture(t)
	e := echo.New()

	for i := 0; i < 3; i++ {
		f.mustCreate(t, time.Date(2025, 6, 16, 15+i, 0, 0, 0, time.Local))
	}

	c, rec := doJSON(e, http.MethodGet, "/appointments?limit=2", "", f.patientID, "patient")
	if err := h.List(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp struct {
		Data    []Appointment `json:"data"`
		Total   int           `json:"total"`
		HasMore bool          `json:"has_more"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if resp.Total != 3 || len(resp.Data) != 2 || !resp.HasMore {
		t.Errorf("unexpected page: total=%d len=%d", resp.Total, len(resp.Data))
	}
	if !resp.Data[0].StartTime.Before(resp.Data[1].StartTime) {
		t.Error("appointments not sorted ascending by date")
	}
}

func TestGetHandler_OtherPatientNotFound(t *testing.T) {
	h, f := handlerFixture(t)
	e := echo.New()

	a := f.mustCreate(t, time.Date(2025, 6, 16, 10, 0, 0, 0, time.Local))

	c, _ := doJSON(e, http.MethodGet, fmt.Sprintf("/appointments/%s", a.ID), "", uuid.New(), "patient")
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())

	err := h.Get(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}
