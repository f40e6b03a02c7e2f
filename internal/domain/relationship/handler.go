package relationship

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carelink/carelink/internal/domain/party"
	"github.com/carelink/carelink/internal/platform/apperror"
	"github.com/carelink/carelink/pkg/pagination"
)

type Handler struct {
	mgr *Manager
}

func NewHandler(mgr *Manager) *Handler {
	return &Handler{mgr: mgr}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/relationship-requests", h.CreateRequest)
	api.POST("/relationship-requests/:id/accept", h.AcceptRequest)
	api.GET("/relationship-requests", h.ListRequests)
	api.GET("/relationships", h.ListRelationships)
}

func (h *Handler) CreateRequest(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	caller := party.CallerFromContext(c.Request().Context())
	req, err := h.mgr.CreateRequest(c.Request().Context(), caller, in)
	if err != nil {
		return apperror.HTTP(err)
	}
	return c.JSON(http.StatusCreated, req)
}

func (h *Handler) AcceptRequest(c echo.Context) error {
	caller := party.CallerFromContext(c.Request().Context())
	rel, err := h.mgr.AcceptRequest(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return apperror.HTTP(err)
	}
	return c.JSON(http.StatusOK, rel)
}

func (h *Handler) ListRequests(c echo.Context) error {
	pg := pagination.FromContext(c)
	caller := party.CallerFromContext(c.Request().Context())
	items, total, err := h.mgr.ListRequests(c.Request().Context(), caller, pg.Limit, pg.Offset)
	if err != nil {
		return apperror.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListRelationships(c echo.Context) error {
	pg := pagination.FromContext(c)
	caller := party.CallerFromContext(c.Request().Context())

	var kind party.Kind
	if k := c.QueryParam("kind"); k != "" {
		kind = party.Kind(k)
	}

	items, total, err := h.mgr.ListRelationships(c.Request().Context(), caller, kind, pg.Limit, pg.Offset)
	if err != nil {
		return apperror.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
