package safetyplan

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
	g.POST("/patients/:id/safety-plans", h.Create, therapistOnly)
	g.GET("/patients/:id/safety-plans", h.ListForPatient, therapistOnly)
	g.PUT("/safety-plans/:id", h.Update, therapistOnly)
	g.GET("/safety-plans/:id", h.Get)
	// The patient's own current plan.
	g.GET("/safety-plan", h.GetOwnActive, auth.RequireRole(auth.RolePatient))
}

type planRequest struct {
	Status                 string  `json:"status"`
	WarningSigns           *string `json:"warning_signs"`
	CopingStrategies       *string `json:"coping_strategies"`
	SocialDistractions     *string `json:"social_distractions"`
	PeopleToContact        *string `json:"people_to_contact"`
	ProfessionalsToContact *string `json:"professionals_to_contact"`
	EmergencyContacts      *string `json:"emergency_contacts"`
	MeansRestriction       *string `json:"means_restriction"`
	ReasonsForLiving       *string `json:"reasons_for_living"`
}

func (r planRequest) params() PlanParams {
	return PlanParams{
		Status:                 r.Status,
		WarningSigns:           r.WarningSigns,
		CopingStrategies:       r.CopingStrategies,
		SocialDistractions:     r.SocialDistractions,
		PeopleToContact:        r.PeopleToContact,
		ProfessionalsToContact: r.ProfessionalsToContact,
		EmergencyContacts:      r.EmergencyContacts,
		MeansRestriction:       r.MeansRestriction,
		ReasonsForLiving:       r.ReasonsForLiving,
	}
}

func (h *Handler) Create(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	var req planRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	plan, err := h.svc.Create(ctx, auth.UserIDFromContext(ctx), patientID, req.params())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, plan)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid plan id")
	}

	var req planRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	plan, err := h.svc.Update(c.Request().Context(), id, req.params())
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, ErrNotFound.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, plan)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid plan id")
	}

	ctx := c.Request().Context()
	isTherapist := auth.RoleFromContext(ctx) == auth.RoleTherapist
	plan, err := h.svc.Get(ctx, auth.UserIDFromContext(ctx), isTherapist, id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, ErrNotFound.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load plan")
	}
	return c.JSON(http.StatusOK, plan)
}

func (h *Handler) GetOwnActive(c echo.Context) error {
	ctx := c.Request().Context()
	plan, err := h.svc.GetActiveForPatient(ctx, auth.UserIDFromContext(ctx))
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "no active safety plan")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load plan")
	}
	return c.JSON(http.StatusOK, plan)
}

func (h *Handler) ListForPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	p := pagination.FromContext(c)
	items, total, err := h.svc.ListForPatient(c.Request().Context(), patientID, p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list plans")
	}
	if items == nil {
		items = []*Plan{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}
