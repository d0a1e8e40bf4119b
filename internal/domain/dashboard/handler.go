package dashboard

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/telecare/telecare/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/dashboard", h.Get)
}

// Get serves the dashboard matching the caller's role.
func (h *Handler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	userID := auth.UserIDFromContext(ctx)

	switch auth.RoleFromContext(ctx) {
	case auth.RoleTherapist:
		d, err := h.svc.ForTherapist(ctx, userID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to build dashboard")
		}
		return c.JSON(http.StatusOK, d)
	case auth.RolePatient:
		d, err := h.svc.ForPatient(ctx, userID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to build dashboard")
		}
		return c.JSON(http.StatusOK, d)
	default:
		return echo.NewHTTPError(http.StatusForbidden, "unknown role")
	}
}
