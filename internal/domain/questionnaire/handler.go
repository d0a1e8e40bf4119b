package questionnaire

import (
	"encoding/json"
	"errors"
	"net/http"

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
	therapistOnly := auth.RequireRole(auth.RoleTherapist)
	g.POST("/questionnaires", h.Create, therapistOnly)
	g.GET("/questionnaires", h.List, therapistOnly)
	g.GET("/questionnaires/:id", h.Get, therapistOnly)
	g.PUT("/questionnaires/:id", h.Update, therapistOnly)
	g.POST("/questionnaires/:id/assign", h.Assign, therapistOnly)
	g.GET("/questionnaires/:id/assignments", h.ListAssignments, therapistOnly)

	g.GET("/assignments", h.ListOwnAssignments, auth.RequireRole(auth.RolePatient))
	g.POST("/assignments/:id/response", h.Submit, auth.RequireRole(auth.RolePatient))
	g.GET("/assignments/:id/response", h.GetResponse)
}

type questionnaireRequest struct {
	Title       string          `json:"title"`
	Description *string         `json:"description"`
	Items       json.RawMessage `json:"items"`
	Status      string          `json:"status"`
}

func (r questionnaireRequest) params() QuestionnaireParams {
	return QuestionnaireParams{Title: r.Title, Description: r.Description, Items: r.Items, Status: r.Status}
}

func (h *Handler) Create(c echo.Context) error {
	var req questionnaireRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	q, err := h.svc.Create(ctx, auth.UserIDFromContext(ctx), req.params())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, q)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid questionnaire id")
	}

	q, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return questionnaireError(err)
	}
	return c.JSON(http.StatusOK, q)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid questionnaire id")
	}

	var req questionnaireRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	q, err := h.svc.Update(c.Request().Context(), id, req.params())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return questionnaireError(err)
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, q)
}

func (h *Handler) List(c echo.Context) error {
	p := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), c.QueryParam("status"), p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list questionnaires")
	}
	if items == nil {
		items = []*Questionnaire{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

type assignRequest struct {
	PatientID uuid.UUID `json:"patient_id"`
}

func (h *Handler) Assign(c echo.Context) error {
	questionnaireID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid questionnaire id")
	}

	var req assignRequest
	if err := c.Bind(&req); err != nil || req.PatientID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}

	ctx := c.Request().Context()
	a, err := h.svc.Assign(ctx, auth.UserIDFromContext(ctx), questionnaireID, req.PatientID)
	if err != nil {
		return questionnaireError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) ListAssignments(c echo.Context) error {
	questionnaireID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid questionnaire id")
	}

	p := pagination.FromContext(c)
	items, total, err := h.svc.ListAssignments(c.Request().Context(), questionnaireID, p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list assignments")
	}
	if items == nil {
		items = []*Assignment{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

func (h *Handler) ListOwnAssignments(c echo.Context) error {
	ctx := c.Request().Context()
	p := pagination.FromContext(c)
	items, total, err := h.svc.ListAssignmentsForPatient(ctx, auth.UserIDFromContext(ctx), p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list assignments")
	}
	if items == nil {
		items = []*Assignment{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

type submitRequest struct {
	Answers json.RawMessage `json:"answers"`
}

func (h *Handler) Submit(c echo.Context) error {
	assignmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid assignment id")
	}

	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	resp, err := h.svc.Submit(ctx, auth.UserIDFromContext(ctx), assignmentID, req.Answers)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrAlreadySubmitted):
			return questionnaireError(err)
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *Handler) GetResponse(c echo.Context) error {
	assignmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid assignment id")
	}

	ctx := c.Request().Context()
	isTherapist := auth.RoleFromContext(ctx) == auth.RoleTherapist
	resp, err := h.svc.GetResponse(ctx, auth.UserIDFromContext(ctx), isTherapist, assignmentID)
	if err != nil {
		return questionnaireError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

func questionnaireError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, ErrNotFound.Error())
	case errors.Is(err, ErrAlreadyAssigned):
		return echo.NewHTTPError(http.StatusConflict, ErrAlreadyAssigned.Error())
	case errors.Is(err, ErrAlreadySubmitted):
		return echo.NewHTTPError(http.StatusConflict, ErrAlreadySubmitted.Error())
	case errors.Is(err, ErrNotActive):
		return echo.NewHTTPError(http.StatusBadRequest, ErrNotActive.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
