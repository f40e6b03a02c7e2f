package messaging

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
	api.POST("/messages", h.Send)
	api.GET("/messages", h.Conversation)
}

func (h *Handler) Send(c echo.Context) error {
	var in SendInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	caller := party.CallerFromContext(c.Request().Context())
	msg, err := h.svc.Send(c.Request().Context(), caller, in)
	if err != nil {
		return apperror.HTTP(err)
	}
	return c.JSON(http.StatusCreated, msg)
}

func (h *Handler) Conversation(c echo.Context) error {
	pg := pagination.FromContext(c)
	caller := party.CallerFromContext(c.Request().Context())

	views, total, err := h.svc.Conversation(c.Request().Context(), caller, c.QueryParam("counterparty_id"), pg.Limit, pg.Offset)
	if err != nil {
		return apperror.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(views, total, pg.Limit, pg.Offset))
}
