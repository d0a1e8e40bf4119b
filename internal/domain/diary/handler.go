package diary

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
	patientOnly := auth.RequireRole(auth.RolePatient)
	g.GET("/diary", h.ListOwn, patientOnly)
	g.POST("/diary", h.Create, patientOnly)
	g.GET("/diary/:id", h.Get, patientOnly)
	g.PUT("/diary/:id", h.Update, patientOnly)
	g.DELETE("/diary/:id", h.Delete, patientOnly)
	g.GET("/patients/:id/diary", h.ListShared, auth.RequireRole(auth.RoleTherapist))
}

type entryRequest struct {
	EntryDate string  `json:"entry_date"`
	Mood      *int    `json:"mood"`
	Title     *string `json:"title"`
	Content   string  `json:"content"`
	Shared    bool    `json:"shared"`
}

func (r entryRequest) params() (EntryParams, error) {
	var p EntryParams
	if r.EntryDate != "" {
		d, err := time.ParseInLocation("2006-01-02", r.EntryDate, time.Local)
		if err != nil {
			return p, errors.New("entry_date must be YYYY-MM-DD")
		}
		p.EntryDate = d
	}
	p.Mood = r.Mood
	p.Title = r.Title
	p.Content = r.Content
	p.Shared = r.Shared
	return p, nil
}

func (h *Handler) Create(c echo.Context) error {
	var req entryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	p, err := req.params()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	e, err := h.svc.Create(ctx, auth.UserIDFromContext(ctx), p)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid entry id")
	}

	ctx := c.Request().Context()
	e, err := h.svc.Get(ctx, id, auth.UserIDFromContext(ctx))
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, ErrNotFound.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load entry")
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid entry id")
	}

	var req entryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	p, err := req.params()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	e, err := h.svc.Update(ctx, id, auth.UserIDFromContext(ctx), p)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, ErrNotFound.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid entry id")
	}

	ctx := c.Request().Context()
	err = h.svc.Delete(ctx, id, auth.UserIDFromContext(ctx))
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, ErrNotFound.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete entry")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListOwn(c echo.Context) error {
	ctx := c.Request().Context()
	p := pagination.FromContext(c)
	items, total, err := h.svc.ListOwn(ctx, auth.UserIDFromContext(ctx), p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list entries")
	}
	if items == nil {
		items = []*Entry{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

func (h *Handler) ListShared(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	p := pagination.FromContext(c)
	items, total, err := h.svc.ListSharedOf(c.Request().Context(), patientID, p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list entries")
	}
	if items == nil {
		items = []*Entry{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}
