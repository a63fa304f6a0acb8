package scheduling

import (
	"context"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/clinichq/clinic/pkg/apperror"
)

// Actor identifies who is performing a scheduling operation. DoctorID and
// PatientID are Nil unless the actor holds that role.
type Actor struct {
	Role      string
	DoctorID  uuid.UUID
	PatientID uuid.UUID
}

func (a Actor) isAdmin() bool { return a.Role == "admin" }

type Service struct {
	appointments AppointmentRepository
	schedules    ScheduleRepository
	timeOff      TimeOffRepository
	settings     SettingsRepository
	validate     *validator.Validate
}

func NewService(appointments AppointmentRepository, schedules ScheduleRepository,
	timeOff TimeOffRepository, settings SettingsRepository) *Service {
	return &Service{
		appointments: appointments,
		schedules:    schedules,
		timeOff:      timeOff,
		settings:     settings,
		validate:     validator.New(),
	}
}

// parseClock validates an HH:MM wall-clock value.
func parseClock(v string) (time.Time, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return time.Time{}, apperror.Newf(apperror.Validation, "invalid time %q, expected HH:MM", v)
	}
	return t, nil
}

// parseDay validates a YYYY-MM-DD calendar date.
func parseDay(v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, apperror.Newf(apperror.Validation, "invalid date %q, expected YYYY-MM-DD", v)
	}
	return t, nil
}

// -- Appointments --

type BookInput struct {
	PatientID uuid.UUID `json:"patient_id"`
	DoctorID  uuid.UUID `json:"doctor_id" validate:"required"`
	Date      string    `json:"appointment_date" validate:"required"`
	Time      string    `json:"appointment_time" validate:"required"`
	Reason    string    `json:"reason"`
}

// Book creates a pending appointment. Slot exclusivity is decided by the
// database, so two concurrent bookings of the same slot cannot both succeed.
func (s *Service) Book(ctx context.Context, in BookInput) (*Appointment, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, apperror.Wrap(apperror.Validation, "invalid booking", err)
	}
	if in.PatientID == uuid.Nil {
		return nil, apperror.New(apperror.Validation, "patient_id is required")
	}
	if _, err := parseClock(in.Time); err != nil {
		return nil, err
	}
	date, err := parseDay(in.Date)
	if err != nil {
		return nil, err
	}

	appt := &Appointment{
		PatientID: in.PatientID,
		DoctorID:  in.DoctorID,
		Date:      date,
		Time:      in.Time,
		Reason:    in.Reason,
		Status:    StatusPending,
	}
	if err := s.appointments.Create(ctx, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

func (s *Service) GetAppointment(ctx context.Context, actor Actor, id uuid.UUID) (*Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeAppointment(actor, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

func (s *Service) authorizeAppointment(actor Actor, appt *Appointment) error {
	if actor.isAdmin() {
		return nil
	}
	if actor.DoctorID != uuid.Nil && appt.DoctorID == actor.DoctorID {
		return nil
	}
	if actor.PatientID != uuid.Nil && appt.PatientID == actor.PatientID {
		return nil
	}
	return apperror.New(apperror.Authorization, "not a participant in this appointment")
}

// UpdateAppointmentStatus applies a status transition. Pending appointments
// may be confirmed or cancelled; confirmed ones completed or cancelled;
// completed and cancelled are terminal. Patients may only cancel their own
// appointments; doctors and admins may apply any legal transition.
func (s *Service) UpdateAppointmentStatus(ctx context.Context, actor Actor, id uuid.UUID, next string) (*Appointment, error) {
	if !ValidAppointmentStatus(next) {
		return nil, apperror.Newf(apperror.Validation, "unknown status %q", next)
	}

	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeAppointment(actor, appt); err != nil {
		return nil, err
	}
	if actor.Role == "patient" && next != StatusCancelled {
		return nil, apperror.New(apperror.Authorization, "patients may only cancel appointments")
	}
	if !CanTransitionAppointment(appt.Status, next) {
		return nil, apperror.Newf(apperror.Conflict,
			"cannot move appointment from %s to %s", appt.Status, next)
	}

	if err := s.appointments.UpdateStatus(ctx, id, next); err != nil {
		return nil, err
	}
	appt.Status = next
	return appt, nil
}

// ListAppointments returns the appointments visible to the actor. Admins see
// every appointment, doctors and patients only their own.
func (s *Service) ListAppointments(ctx context.Context, actor Actor, filter ListFilter, limit, offset int) ([]*Appointment, int, error) {
	if filter == "" {
		filter = FilterAll
	}
	if !ValidFilter(filter) {
		return nil, 0, apperror.Newf(apperror.Validation, "unknown filter %q", filter)
	}

	switch {
	case actor.isAdmin():
		return s.appointments.ListAll(ctx, filter, limit, offset)
	case actor.DoctorID != uuid.Nil:
		return s.appointments.ListByDoctor(ctx, actor.DoctorID, filter, limit, offset)
	case actor.PatientID != uuid.Nil:
		return s.appointments.ListByPatient(ctx, actor.PatientID, filter, limit, offset)
	default:
		return nil, 0, apperror.New(apperror.Authorization, "no scheduling access")
	}
}

// -- Weekly schedule --

type ScheduleInput struct {
	DayOfWeek   string `json:"day_of_week"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsAvailable bool   `json:"is_available"`
}

// SaveScheduleDay upserts a doctor's hours for one weekday. An existing row
// for the same day is overwritten. Existing appointments are never touched;
// the weekly schedule is advisory for future bookings.
func (s *Service) SaveScheduleDay(ctx context.Context, doctorID uuid.UUID, in ScheduleInput) (*DoctorSchedule, error) {
	if !ValidDay(in.DayOfWeek) {
		return nil, apperror.Newf(apperror.Validation, "unknown day %q", in.DayOfWeek)
	}
	start, err := parseClock(in.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := parseClock(in.EndTime)
	if err != nil {
		return nil, err
	}
	if !end.After(start) {
		return nil, apperror.New(apperror.Validation, "end_time must be after start_time")
	}

	sched := &DoctorSchedule{
		DoctorID:    doctorID,
		DayOfWeek:   in.DayOfWeek,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		IsAvailable: in.IsAvailable,
	}
	if err := s.schedules.Upsert(ctx, sched); err != nil {
		return nil, err
	}
	return sched, nil
}

// WeeklySchedule returns a doctor's schedule rows ordered Monday to Sunday.
func (s *Service) WeeklySchedule(ctx context.Context, doctorID uuid.UUID) ([]*DoctorSchedule, error) {
	schedules, err := s.schedules.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	sort.Slice(schedules, func(i, j int) bool {
		return DayIndex(schedules[i].DayOfWeek) < DayIndex(schedules[j].DayOfWeek)
	})
	return schedules, nil
}

// -- Time off --

type TimeOffInput struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason"`
}

// RequestTimeOff files a pending time-off request. Appointments inside the
// range are left alone; resolving conflicts is an admin decision.
func (s *Service) RequestTimeOff(ctx context.Context, doctorID uuid.UUID, in TimeOffInput) (*TimeOffRequest, error) {
	if in.StartDate == "" || in.EndDate == "" {
		return nil, apperror.New(apperror.Validation, "start_date and end_date are required")
	}
	start, err := parseDay(in.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDay(in.EndDate)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, apperror.New(apperror.Validation, "end_date must not precede start_date")
	}

	req := &TimeOffRequest{
		DoctorID:  doctorID,
		StartDate: start,
		EndDate:   end,
		Reason:    in.Reason,
		Status:    TimeOffPending,
	}
	if err := s.timeOff.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// UpdateTimeOffStatus decides a pending request. Admins may approve, reject,
// or cancel; the requesting doctor may only cancel. Decided requests are
// immutable.
func (s *Service) UpdateTimeOffStatus(ctx context.Context, actor Actor, id uuid.UUID, next, adminNotes string) (*TimeOffRequest, error) {
	if !ValidTimeOffStatus(next) {
		return nil, apperror.Newf(apperror.Validation, "unknown status %q", next)
	}

	req, err := s.timeOff.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch {
	case actor.isAdmin():
	case actor.DoctorID != uuid.Nil && actor.DoctorID == req.DoctorID:
		if next != TimeOffCancelled {
			return nil, apperror.New(apperror.Authorization, "doctors may only cancel their own requests")
		}
	default:
		return nil, apperror.New(apperror.Authorization, "not allowed to decide this request")
	}

	if !CanTransitionTimeOff(req.Status, next) {
		return nil, apperror.Newf(apperror.Conflict,
			"cannot move time-off request from %s to %s", req.Status, next)
	}

	if err := s.timeOff.UpdateStatus(ctx, id, next, adminNotes); err != nil {
		return nil, err
	}
	req.Status = next
	if adminNotes != "" {
		req.AdminNotes = adminNotes
	}
	return req, nil
}

// ListTimeOff returns time-off requests visible to the actor. Admins may
// filter by status across all doctors; doctors see their own history.
func (s *Service) ListTimeOff(ctx context.Context, actor Actor, status string, limit, offset int) ([]*TimeOffRequest, int, error) {
	if status != "" && !ValidTimeOffStatus(status) {
		return nil, 0, apperror.Newf(apperror.Validation, "unknown status %q", status)
	}

	switch {
	case actor.isAdmin():
		return s.timeOff.ListAll(ctx, status, limit, offset)
	case actor.DoctorID != uuid.Nil:
		return s.timeOff.ListByDoctor(ctx, actor.DoctorID, limit, offset)
	default:
		return nil, 0, apperror.New(apperror.Authorization, "no time-off access")
	}
}

// -- Settings --

// EnsureDefaults provisions the default settings row for a doctor. Called at
// doctor registration; safe to call again.
func (s *Service) EnsureDefaults(ctx context.Context, doctorID uuid.UUID) error {
	return s.settings.EnsureDefaults(ctx, doctorID)
}

// GetSettings returns a doctor's settings, provisioning defaults if the
// doctor predates automatic provisioning.
func (s *Service) GetSettings(ctx context.Context, doctorID uuid.UUID) (*DoctorSettings, error) {
	settings, err := s.settings.GetByDoctor(ctx, doctorID)
	if apperror.IsNotFound(err) {
		if err := s.settings.EnsureDefaults(ctx, doctorID); err != nil {
			return nil, err
		}
		return s.settings.GetByDoctor(ctx, doctorID)
	}
	return settings, err
}

type NotificationSettingsInput struct {
	EmailNotifications   bool `json:"email_notifications"`
	SMSNotifications     bool `json:"sms_notifications"`
	AppointmentReminders bool `json:"appointment_reminders"`
	NotesAutoSave        bool `json:"notes_auto_save"`
}

// UpdateNotificationSettings replaces the notification flags, leaving the
// practice settings untouched.
func (s *Service) UpdateNotificationSettings(ctx context.Context, doctorID uuid.UUID, in NotificationSettingsInput) (*DoctorSettings, error) {
	settings, err := s.GetSettings(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	settings.EmailNotifications = in.EmailNotifications
	settings.SMSNotifications = in.SMSNotifications
	settings.AppointmentReminders = in.AppointmentReminders
	settings.NotesAutoSave = in.NotesAutoSave

	if err := s.settings.Update(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

type PracticeSettingsInput struct {
	WorkingHoursStart string `json:"working_hours_start"`
	WorkingHoursEnd   string `json:"working_hours_end"`
	BreakDuration     int    `json:"break_duration"`
	MaxPatientsPerDay int    `json:"max_patients_per_day"`
}

// UpdatePracticeSettings replaces the working window and limits after
// validating them, leaving the notification flags untouched.
func (s *Service) UpdatePracticeSettings(ctx context.Context, doctorID uuid.UUID, in PracticeSettingsInput) (*DoctorSettings, error) {
	start, err := parseClock(in.WorkingHoursStart)
	if err != nil {
		return nil, err
	}
	end, err := parseClock(in.WorkingHoursEnd)
	if err != nil {
		return nil, err
	}
	if !end.After(start) {
		return nil, apperror.New(apperror.Validation, "working_hours_end must be after working_hours_start")
	}
	if in.BreakDuration < 0 {
		return nil, apperror.New(apperror.Validation, "break_duration must not be negative")
	}
	if in.MaxPatientsPerDay < 1 {
		return nil, apperror.New(apperror.Validation, "max_patients_per_day must be at least 1")
	}

	settings, err := s.GetSettings(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	settings.WorkingHoursStart = in.WorkingHoursStart
	settings.WorkingHoursEnd = in.WorkingHoursEnd
	settings.BreakDuration = in.BreakDuration
	settings.MaxPatientsPerDay = in.MaxPatientsPerDay

	if err := s.settings.Update(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}
