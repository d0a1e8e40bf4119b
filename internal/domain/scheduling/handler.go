package scheduling

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/telecare/telecare/internal/platform/auth"
	"github.com/telecare/telecare/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/slots/availability", h.Availability)
	g.GET("/appointments", h.List)
	g.GET("/appointments/:id", h.Get)
	g.POST("/appointments", h.Create, auth.RequireRole(auth.RolePatient))
	g.PUT("/appointments/:id", h.Update, auth.RequireRole(auth.RoleTherapist))
	g.DELETE("/appointments/:id", h.Remove)
}

func (h *Handler) Availability(c echo.Context) error {
	dateStr := c.QueryParam("date")
	if dateStr == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "date query parameter is required")
	}
	date, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}

	var excludeID *uuid.UUID
	if ex := c.QueryParam("exclude"); ex != "" {
		id, err := uuid.Parse(ex)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid exclude id")
		}
		excludeID = &id
	}

	day, err := h.svc.Availability(c.Request().Context(), date, excludeID)
	if err != nil {
		return schedulingError(err)
	}
	return c.JSON(http.StatusOK, day)
}

type createRequest struct {
	Date  string  `json:"date"`
	Notes *string `json:"notes"`
}

func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Date == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "date is required")
	}
	startTime, err := ParseAppointmentTime(req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	a, err := h.svc.Create(ctx, auth.UserIDFromContext(ctx), auth.NameFromContext(ctx), startTime, req.Notes)
	if err != nil {
		return schedulingError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

type updateRequest struct {
	Status *string `json:"status"`
	Date   *string `json:"date"`
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}

	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Status == nil && req.Date == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "nothing to update")
	}

	var p UpdateParams
	if req.Status != nil {
		st := Status(*req.Status)
		if !st.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		p.Status = &st
	}
	if req.Date != nil {
		t, err := ParseAppointmentTime(*req.Date)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		p.StartTime = &t
	}

	ctx := c.Request().Context()
	a, err := h.svc.Update(ctx, auth.UserIDFromContext(ctx), id, p)
	if err != nil {
		return schedulingError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Remove(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}

	ctx := c.Request().Context()
	if err := h.svc.Remove(ctx, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx), id); err != nil {
		return schedulingError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) List(c echo.Context) error {
	var patientFilter *uuid.UUID
	if pf := c.QueryParam("patient"); pf != "" {
		id, err := uuid.Parse(pf)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
		}
		patientFilter = &id
	}

	ctx := c.Request().Context()
	p := pagination.FromContext(c)
	items, total, err := h.svc.List(ctx, auth.UserIDFromContext(ctx), auth.RoleFromContext(ctx), patientFilter, p.Limit, p.Offset)
	if err != nil {
		return schedulingError(err)
	}
	if items == nil {
		items = []*Appointment{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}

	ctx := c.Request().Context()
	a, err := h.svc.Get(ctx, auth.UserIDFromContext(ctx), id)
	if err != nil {
		return schedulingError(err)
	}
	return c.JSON(http.StatusOK, a)
}

// schedulingError maps service errors onto HTTP status codes. A missing
// therapist account is a deployment problem, so it surfaces as 500.
func schedulingError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, ErrNotFound.Error())
	case errors.Is(err, ErrSlotTaken):
		return echo.NewHTTPError(http.StatusConflict, ErrSlotTaken.Error())
	case errors.Is(err, ErrPastDate):
		return echo.NewHTTPError(http.StatusBadRequest, ErrPastDate.Error())
	case errors.Is(err, ErrTerminalStatus):
		return echo.NewHTTPError(http.StatusConflict, ErrTerminalStatus.Error())
	case errors.Is(err, ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusBadRequest, ErrInvalidTransition.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
