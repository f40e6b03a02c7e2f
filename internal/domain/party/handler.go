package party

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carelink/carelink/internal/platform/apperror"
)

// TokenIssuer signs a session token for a verified party. Wired to the
// bearer-token signer at startup.
type TokenIssuer func(ID) (string, error)

type Handler struct {
	svc        *Service
	issueToken TokenIssuer
}

func NewHandler(svc *Service, issueToken TokenIssuer) *Handler {
	return &Handler{svc: svc, issueToken: issueToken}
}

// RegisterRoutes splits routes across the open group (register, login) and
// the bearer-authenticated group (profile).
func (h *Handler) RegisterRoutes(public, authed *echo.Group) {
	public.POST("/patients", h.Register)
	public.POST("/login", h.Login)
	authed.GET("/profile", h.Profile)
	authed.PATCH("/profile", h.UpdateProfile)
}

func (h *Handler) Register(c echo.Context) error {
	var in RegisterInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	p, err := h.svc.Register(c.Request().Context(), in)
	if err != nil {
		return apperror.HTTP(err)
	}
	return c.JSON(http.StatusCreated, p)
}

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	ID    ID     `json:"id"`
	Kind  Kind   `json:"kind"`
	Name  string `json:"name"`
}

func (h *Handler) Login(c echo.Context) error {
	var in loginInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	p, err := h.svc.Authenticate(c.Request().Context(), in.Email, in.Password)
	if err != nil {
		if apperror.KindOf(err) == apperror.Authorization {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		return apperror.HTTP(err)
	}

	token, err := h.issueToken(p.ID)
	if err != nil {
		return apperror.HTTP(apperror.Internalf(err, "issue token"))
	}
	return c.JSON(http.StatusOK, loginResponse{Token: token, ID: p.ID, Kind: p.Kind, Name: p.Name()})
}

func (h *Handler) Profile(c echo.Context) error {
	caller := CallerFromContext(c.Request().Context())
	p, err := h.svc.Profile(c.Request().Context(), caller)
	if err != nil {
		return apperror.HTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

// UpdateProfile decodes strictly so fields outside the allow-list are
// rejected rather than silently dropped.
func (h *Handler) UpdateProfile(c echo.Context) error {
	dec := json.NewDecoder(c.Request().Body)
	dec.DisallowUnknownFields()

	var u ProfileUpdate
	if err := dec.Decode(&u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	caller := CallerFromContext(c.Request().Context())
	if err := h.svc.UpdateProfile(c.Request().Context(), caller, &u); err != nil {
		return apperror.HTTP(err)
	}

	p, err := h.svc.Profile(c.Request().Context(), caller)
	if err != nil {
		return apperror.HTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}
