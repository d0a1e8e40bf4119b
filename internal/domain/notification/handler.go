package notification

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
	g.GET("/notifications", h.List)
	g.GET("/notifications/unread-count", h.UnreadCount)
	g.PUT("/notifications/read-all", h.MarkAllRead)
	g.PUT("/notifications/:id/read", h.MarkRead)
	g.DELETE("/notifications/all", h.DeleteAll)
	g.DELETE("/notifications/:id", h.Delete)
}

func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	p := pagination.FromContext(c)

	items, total, err := h.svc.List(ctx, auth.UserIDFromContext(ctx), p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list notifications")
	}
	if items == nil {
		items = []*Notification{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

func (h *Handler) UnreadCount(c echo.Context) error {
	ctx := c.Request().Context()
	count, err := h.svc.UnreadCount(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to count notifications")
	}
	return c.JSON(http.StatusOK, map[string]int{"count": count})
}

func (h *Handler) MarkRead(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid notification id")
	}

	ctx := c.Request().Context()
	n, err := h.svc.MarkRead(ctx, id, auth.UserIDFromContext(ctx))
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, ErrNotFound.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to mark notification read")
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) MarkAllRead(c echo.Context) error {
	ctx := c.Request().Context()
	updated, err := h.svc.MarkAllRead(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to mark notifications read")
	}
	return c.JSON(http.StatusOK, map[string]int{"updated": updated})
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid notification id")
	}

	ctx := c.Request().Context()
	err = h.svc.Delete(ctx, id, auth.UserIDFromContext(ctx))
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, ErrNotFound.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete notification")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) DeleteAll(c echo.Context) error {
	ctx := c.Request().Context()
	deleted, err := h.svc.DeleteAll(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete notifications")
	}
	return c.JSON(http.StatusOK, map[string]int{"deleted": deleted})
}
