package timeline

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carelink/carelink/internal/domain/party"
	"github.com/carelink/carelink/internal/platform/apperror"
	"github.com/carelink/carelink/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/shares/prescription", h.SharePrescription)
	api.POST("/shares/report", h.ShareReport)
	api.GET("/timeline", h.Entries)
	api.GET("/timeline/:id/prescription", h.Prescription)
}

func (h *Handler) SharePrescription(c echo.Context) error {
	var in SharePrescriptionInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	caller := party.CallerFromContext(c.Request().Context())
	msg, err := h.svc.SharePrescription(c.Request().Context(), caller, in)
	if err != nil {
		return apperror.HTTP(err)
	}
	return c.JSON(http.StatusCreated, msg)
}

func (h *Handler) ShareReport(c echo.Context) error {
	var in ShareReportInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	caller := party.CallerFromContext(c.Request().Context())
	entry, err := h.svc.ShareReport(c.Request().Context(), caller, in)
	if err != nil {
		return apperror.HTTP(err)
	}
	return c.JSON(http.StatusCreated, entry)
}

func (h *Handler) Entries(c echo.Context) error {
	pg := pagination.FromContext(c)
	caller := party.CallerFromContext(c.Request().Context())

	views, total, err := h.svc.Entries(c.Request().Context(), caller, c.QueryParam("provider_id"), pg.Limit, pg.Offset)
	if err != nil {
		return apperror.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(views, total, pg.Limit, pg.Offset))
}

func (h *Handler) Prescription(c echo.Context) error {
	p, err := h.svc.Prescription(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apperror.HTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}
