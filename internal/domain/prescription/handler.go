package prescription

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinichq/clinic/internal/domain/directory"
	"github.com/clinichq/clinic/internal/platform/auth"
	"github.com/clinichq/clinic/pkg/apperror"
	"github.com/clinichq/clinic/pkg/pagination"
)

// DirectoryResolver maps authenticated identities to their directory records.
type DirectoryResolver interface {
	GetPatientByIdentity(ctx context.Context, identityID uuid.UUID) (*directory.Patient, error)
	GetDoctorByIdentity(ctx context.Context, identityID uuid.UUID) (*directory.Doctor, error)
}

type Handler struct {
	svc *Service
	dir DirectoryResolver
}

func NewHandler(svc *Service, dir DirectoryResolver) *Handler {
	return &Handler{svc: svc, dir: dir}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/prescriptions", h.List)
	api.GET("/prescriptions/:id", h.Get)

	doctor := api.Group("", auth.RequireRole(auth.RoleDoctor))
	doctor.POST("/prescriptions", h.Issue)
	doctor.GET("/prescriptions/eligible-patients", h.EligiblePatients)
}

func httpError(err error) error {
	return echo.NewHTTPError(apperror.HTTPStatus(err), err.Error())
}

func (h *Handler) actorFromRequest(c echo.Context) (Actor, error) {
	ctx := c.Request().Context()
	raw := auth.IdentityIDFromContext(ctx)
	if raw == "" {
		return Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	identityID, err := uuid.Parse(raw)
	if err != nil {
		return Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "invalid identity")
	}

	actor := Actor{Role: auth.RoleFromContext(ctx)}
	switch actor.Role {
	case auth.RolePatient:
		p, err := h.dir.GetPatientByIdentity(ctx, identityID)
		if err != nil {
			return Actor{}, httpError(err)
		}
		actor.PatientID = p.ID
	case auth.RoleDoctor:
		d, err := h.dir.GetDoctorByIdentity(ctx, identityID)
		if err != nil {
			return Actor{}, httpError(err)
		}
		actor.DoctorID = d.ID
	}
	return actor, nil
}

func (h *Handler) Issue(c echo.Context) error {
	actor, err := h.actorFromRequest(c)
	if err != nil {
		return err
	}

	var in IssueInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	p, err := h.svc.Issue(c.Request().Context(), actor.DoctorID, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) Get(c echo.Context) error {
	actor, err := h.actorFromRequest(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	p, err := h.svc.Get(c.Request().Context(), actor, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) List(c echo.Context) error {
	actor, err := h.actorFromRequest(c)
	if err != nil {
		return err
	}

	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), actor, c.QueryParam("search"), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) EligiblePatients(c echo.Context) error {
	actor, err := h.actorFromRequest(c)
	if err != nil {
		return err
	}

	patients, err := h.svc.EligiblePatients(c.Request().Context(), actor.DoctorID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, patients)
}
