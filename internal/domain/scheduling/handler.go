package scheduling

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
	api.POST("/appointments", h.BookAppointment)
	api.GET("/appointments", h.ListAppointments)
	api.GET("/appointments/:id", h.GetAppointment)
	api.PATCH("/appointments/:id/status", h.UpdateAppointmentStatus)

	doctor := api.Group("", auth.RequireRole(auth.RoleDoctor))
	doctor.GET("/schedule", h.GetOwnSchedule)
	doctor.PUT("/schedule", h.SaveScheduleDay)
	doctor.POST("/timeoff", h.RequestTimeOff)
	doctor.GET("/settings", h.GetSettings)
	doctor.PUT("/settings/notifications", h.UpdateNotificationSettings)
	doctor.PUT("/settings/practice", h.UpdatePracticeSettings)

	api.GET("/doctors/:id/schedule", h.GetDoctorSchedule)
	api.GET("/timeoff", h.ListTimeOff, auth.RequireStaff())
	api.PATCH("/timeoff/:id/status", h.UpdateTimeOffStatus, auth.RequireStaff())
}

func httpError(err error) error {
	return echo.NewHTTPError(apperror.HTTPStatus(err), err.Error())
}

// actorFromRequest resolves the authenticated identity into a scheduling
// actor with its role-specific record ID.
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

func (h *Handler) BookAppointment(c echo.Context) error {
	actor, err := h.actorFromRequest(c)
	if err != nil {
		return err
	}

	var in BookInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	// Patients always book for themselves; doctors and admins name the
	// patient in the request body.
	if actor.Role == auth.RolePatient {
		in.PatientID = actor.PatientID
	}

	appt, err := h.svc.Book(c.Request().Context(), in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, appt)
}

func (h *Handler) ListAppointments(c echo.Context) error {
	actor, err := h.actorFromRequest(c)
	if err != nil {
		return err
	}

	pg := pagination.FromContext(c)
	filter := ListFilter(c.QueryParam("filter"))
	appts, total, err := h.svc.ListAppointments(c.Request().Context(), actor, filter, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(appts, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetAppointment(c echo.Context) error {
	actor, err := h.actorFromRequest(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	appt, err := h.svc.GetAppointment(c.Request().Context(), actor, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, appt)
}

type statusRequest struct {
	Status     string `json:"status"`
	AdminNotes string `json:"admin_notes"`
}

func (h *Handler) UpdateAppointmentStatus(c echo.Context) error {
	actor, err := h.actorFromRequest(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	appt, err := h.svc.UpdateAppointmentStatus(c.Request().Context(), actor, id, req.Status)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *Handler) GetOwnSchedule(c echo.Context) error {
	actor, err := h.actorFromRequest(c)
	if err != nil {
		return err
	}
	schedules, err := h.svc.WeeklySchedule(c.Request().Context(), actor.DoctorID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, schedules)
}

func (h *Handler) SaveScheduleDay(c echo.Context) error {
	actor, err := h.actorFromRequest(c)
	if err != nil {
		return err
	}

	var in ScheduleInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	sched, err := h.svc.SaveScheduleDay(c.Request().Context(), actor.DoctorID, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sched)
}

func (h *Handler) GetDoctorSchedule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	schedules, err := h.svc.WeeklySchedule(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, schedules)
}

func (h *Handler) RequestTimeOff(c echo.Context) error {
	actor, err := h.actorFromRequest(c)
	if err != nil {
		return err
	}

	var in TimeOffInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	req, err := h.svc.RequestTimeOff(c.Request().Context(), actor.DoctorID, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, req)
}

func (h *Handler) ListTimeOff(c echo.Context) error {
	actor, err := h.actorFromRequest(c)
	if err != nil {
		return err
	}

	pg := pagination.FromContext(c)
	reqs, total, err := h.svc.ListTimeOff(c.Request().Context(), actor, c.QueryParam("status"), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(reqs, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateTimeOffStatus(c echo.Context) error {
	actor, err := h.actorFromRequest(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	updated, err := h.svc.UpdateTimeOffStatus(c.Request().Context(), actor, id, req.Status, req.AdminNotes)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) GetSettings(c echo.Context) error {
	actor, err := h.actorFromRequest(c)
	if err != nil {
		return err
	}
	settings, err := h.svc.GetSettings(c.Request().Context(), actor.DoctorID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, settings)
}

func (h *Handler) UpdateNotificationSettings(c echo.Context) error {
	actor, err := h.actorFromRequest(c)
	if err != nil {
		return err
	}

	var in NotificationSettingsInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	settings, err := h.svc.UpdateNotificationSettings(c.Request().Context(), actor.DoctorID, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, settings)
}

func (h *Handler) UpdatePracticeSettings(c echo.Context) error {
	actor, err := h.actorFromRequest(c)
	if err != nil {
		return err
	}

	var in PracticeSettingsInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	settings, err := h.svc.UpdatePracticeSettings(c.Request().Context(), actor.DoctorID, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, settings)
}
