package materials

import (
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
	g.POST("/materials", h.Create, therapistOnly)
	g.GET("/materials", h.List, therapistOnly)
	g.GET("/materials/:id", h.Get, therapistOnly)
	g.PUT("/materials/:id", h.Update, therapistOnly)
	g.DELETE("/materials/:id", h.Delete, therapistOnly)
	g.POST("/materials/:id/assign", h.Assign, therapistOnly)

	patientOnly := auth.RequireRole(auth.RolePatient)
	g.GET("/material-assignments", h.ListOwnAssignments, patientOnly)
	g.PUT("/material-assignments/:id/read", h.MarkRead, patientOnly)
}

type materialRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	URL         *string `json:"url"`
	Content     *string `json:"content"`
}

func (r materialRequest) params() MaterialParams {
	return MaterialParams{Title: r.Title, Description: r.Description, URL: r.URL, Content: r.Content}
}

func (h *Handler) Create(c echo.Context) error {
	var req materialRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	m, err := h.svc.Create(ctx, auth.UserIDFromContext(ctx), req.params())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid material id")
	}

	m, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return materialsError(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid material id")
	}

	var req materialRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	m, err := h.svc.Update(c.Request().Context(), id, req.params())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return materialsError(err)
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid material id")
	}

	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return materialsError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) List(c echo.Context) error {
	p := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list materials")
	}
	if items == nil {
		items = []*Material{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

type assignRequest struct {
	PatientID uuid.UUID `json:"patient_id"`
}

func (h *Handler) Assign(c echo.Context) error {
	materialID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid material id")
	}

	var req assignRequest
	if err := c.Bind(&req); err != nil || req.PatientID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}

	ctx := c.Request().Context()
	a, err := h.svc.Assign(ctx, auth.UserIDFromContext(ctx), materialID, req.PatientID)
	if err != nil {
		return materialsError(err)
	}
	return c.JSON(http.StatusCreated, a)
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

func (h *Handler) MarkRead(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid assignment id")
	}

	ctx := c.Request().Context()
	a, err := h.svc.MarkRead(ctx, auth.UserIDFromContext(ctx), id)
	if err != nil {
		return materialsError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func materialsError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, ErrNotFound.Error())
	case errors.Is(err, ErrAlreadyAssigned):
		return echo.NewHTTPError(http.StatusConflict, ErrAlreadyAssigned.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
