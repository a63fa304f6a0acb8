package directory

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinichq/clinic/internal/platform/auth"
	"github.com/clinichq/clinic/pkg/apperror"
	"github.com/clinichq/clinic/pkg/pagination"
)

type Handler struct {
	svc    *Service
	tokens *auth.TokenIssuer
}

func NewHandler(svc *Service, tokens *auth.TokenIssuer) *Handler {
	return &Handler{svc: svc, tokens: tokens}
}

// RegisterRoutes mounts routes. public receives login/registration (subject to
// the maintenance gate); api receives authenticated profile and lookup routes.
func (h *Handler) RegisterRoutes(public *echo.Group, api *echo.Group) {
	public.POST("/auth/register/patient", h.RegisterPatient)
	public.POST("/auth/register/doctor", h.RegisterDoctor)
	public.POST("/auth/login", h.Login)

	api.POST("/auth/register/admin", h.RegisterAdmin, auth.RequireRole(auth.RoleAdmin))

	api.GET("/profile", h.GetProfile)
	api.PUT("/profile", h.UpdateProfile)
	api.POST("/profile/password", h.ChangePassword)
	api.DELETE("/profile", h.DeleteAccount)

	api.GET("/doctors", h.ListDoctors)
	api.GET("/doctors/:id", h.GetDoctor)

	staff := api.Group("", auth.RequireStaff())
	staff.GET("/patients", h.ListPatients)
	staff.GET("/patients/:id", h.GetPatient)
}

func httpError(err error) error {
	return echo.NewHTTPError(apperror.HTTPStatus(err), err.Error())
}

// tokenResponse is the envelope returned by login and registration.
type tokenResponse struct {
	Token    string    `json:"token"`
	Identity *Identity `json:"identity"`
}

func (h *Handler) RegisterPatient(c echo.Context) error {
	var in RegisterPatientInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	_, ident, err := h.svc.RegisterPatient(c.Request().Context(), in)
	if err != nil {
		return httpError(err)
	}
	token, err := h.tokens.Issue(ident.ID.String(), ident.Role, ident.IsStaff)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "token issuance failed")
	}
	return c.JSON(http.StatusCreated, tokenResponse{Token: token, Identity: ident})
}

func (h *Handler) RegisterDoctor(c echo.Context) error {
	var in RegisterDoctorInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	_, ident, err := h.svc.RegisterDoctor(c.Request().Context(), in)
	if err != nil {
		return httpError(err)
	}
	token, err := h.tokens.Issue(ident.ID.String(), ident.Role, ident.IsStaff)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "token issuance failed")
	}
	return c.JSON(http.StatusCreated, tokenResponse{Token: token, Identity: ident})
}

func (h *Handler) RegisterAdmin(c echo.Context) error {
	var in RegisterAdminInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	_, ident, err := h.svc.RegisterAdmin(c.Request().Context(), in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"identity": ident})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ident, err := h.svc.Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if apperror.IsAuthorization(err) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		return httpError(err)
	}
	token, err := h.tokens.Issue(ident.ID.String(), ident.Role, ident.IsStaff)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "token issuance failed")
	}
	return c.JSON(http.StatusOK, tokenResponse{Token: token, Identity: ident})
}

func (h *Handler) GetProfile(c echo.Context) error {
	identityID, err := identityFromRequest(c)
	if err != nil {
		return err
	}
	profile, err := h.svc.GetProfile(c.Request().Context(), identityID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, profile)
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	identityID, err := identityFromRequest(c)
	if err != nil {
		return err
	}
	var in UpdateProfileInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	profile, err := h.svc.UpdateProfile(c.Request().Context(), identityID, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, profile)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *Handler) ChangePassword(c echo.Context) error {
	identityID, err := identityFromRequest(c)
	if err != nil {
		return err
	}
	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.ChangePassword(c.Request().Context(), identityID, req.CurrentPassword, req.NewPassword); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) DeleteAccount(c echo.Context) error {
	identityID, err := identityFromRequest(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteAccount(c.Request().Context(), identityID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	pg := pagination.FromContext(c)
	doctors, total, err := h.svc.ListDoctors(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(doctors, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.GetDoctor(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	patients, total, err := h.svc.ListPatients(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(patients, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

// identityFromRequest parses the authenticated identity ID from the request
// context.
func identityFromRequest(c echo.Context) (uuid.UUID, error) {
	raw := auth.IdentityIDFromContext(c.Request().Context())
	if raw == "" {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid identity")
	}
	return id, nil
}
