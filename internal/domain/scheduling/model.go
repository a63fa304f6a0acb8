package scheduling

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Appointment statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// appointmentTransitions defines the allowed appointment status moves.
// Completed and cancelled are terminal.
var appointmentTransitions = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// CanTransitionAppointment reports whether an appointment may move from one
// status to another.
func CanTransitionAppointment(from, to string) bool {
	for _, allowed := range appointmentTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidAppointmentStatus reports whether s is a known appointment status.
func ValidAppointmentStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Appointment maps to the appointment table. The (doctor, date, time) triple
// is unique; the database index is the arbiter under concurrent booking.
// PatientName and DoctorName are joined in for display.
type Appointment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Date      time.Time `db:"appointment_date" json:"appointment_date"`
	Time      string    `db:"appointment_time" json:"appointment_time"`
	Reason    string    `db:"reason" json:"reason"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	PatientName string `db:"patient_name" json:"patient_name,omitempty"`
	DoctorName  string `db:"doctor_name" json:"doctor_name,omitempty"`
}

// Days of the week, Monday first, matching how weekly schedules are shown.
var DaysOfWeek = []string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

// dayOrder positions each day within the display week.
var dayOrder = func() map[string]int {
	m := make(map[string]int, len(DaysOfWeek))
	for i, d := range DaysOfWeek {
		m[d] = i
	}
	return m
}()

// ValidDay reports whether day is a known weekday value.
func ValidDay(day string) bool {
	_, ok := dayOrder[day]
	return ok
}

// DayIndex returns the position of day within the week, Monday = 0.
func DayIndex(day string) int {
	return dayOrder[day]
}

// DoctorSchedule maps to the doctor_schedule table. One row per
// (doctor, day_of_week); saving again overwrites the times.
type DoctorSchedule struct {
	ID          uuid.UUID `db:"id" json:"id"`
	DoctorID    uuid.UUID `db:"doctor_id" json:"doctor_id"`
	DayOfWeek   string    `db:"day_of_week" json:"day_of_week"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	IsAvailable bool      `db:"is_available" json:"is_available"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Time-off statuses.
const (
	TimeOffPending   = "pending"
	TimeOffApproved  = "approved"
	TimeOffRejected  = "rejected"
	TimeOffCancelled = "cancelled"
)

// timeOffTransitions defines the allowed time-off status moves. All decisions
// are terminal; cancellation is only meaningful from pending.
var timeOffTransitions = map[string][]string{
	TimeOffPending: {TimeOffApproved, TimeOffRejected, TimeOffCancelled},
}

// CanTransitionTimeOff reports whether a time-off request may move from one
// status to another.
func CanTransitionTimeOff(from, to string) bool {
	for _, allowed := range timeOffTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidTimeOffStatus reports whether s is a known time-off status.
func ValidTimeOffStatus(s string) bool {
	switch s {
	case TimeOffPending, TimeOffApproved, TimeOffRejected, TimeOffCancelled:
		return true
	}
	return false
}

// TimeOffRequest maps to the time_off_request table.
type TimeOffRequest struct {
	ID         uuid.UUID `db:"id" json:"id"`
	DoctorID   uuid.UUID `db:"doctor_id" json:"doctor_id"`
	StartDate  time.Time `db:"start_date" json:"start_date"`
	EndDate    time.Time `db:"end_date" json:"end_date"`
	Reason     string    `db:"reason" json:"reason"`
	Status     string    `db:"status" json:"status"`
	AdminNotes string    `db:"admin_notes" json:"admin_notes"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`

	DoctorName string `db:"doctor_name" json:"doctor_name,omitempty"`
}

// DurationDays returns the inclusive span of the request in days. A request
// for a single day is 1 day long.
func (r *TimeOffRequest) DurationDays() int {
	return int(r.EndDate.Sub(r.StartDate).Hours()/24) + 1
}

// MarshalJSON includes the derived duration so clients need not recompute it.
func (r *TimeOffRequest) MarshalJSON() ([]byte, error) {
	type plain TimeOffRequest
	return json.Marshal(struct {
		*plain
		DurationDays int `json:"duration_days"`
	}{(*plain)(r), r.DurationDays()})
}

// DoctorSettings maps to the doctor_settings table. One row per doctor,
// created with defaults at registration.
type DoctorSettings struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	DoctorID           uuid.UUID `db:"doctor_id" json:"doctor_id"`
	EmailNotifications bool      `db:"email_notifications" json:"email_notifications"`
	SMSNotifications   bool      `db:"sms_notifications" json:"sms_notifications"`
	AppointmentReminders bool    `db:"appointment_reminders" json:"appointment_reminders"`
	NotesAutoSave      bool      `db:"notes_auto_save" json:"notes_auto_save"`
	WorkingHoursStart  string    `db:"working_hours_start" json:"working_hours_start"`
	WorkingHoursEnd    string    `db:"working_hours_end" json:"working_hours_end"`
	BreakDuration      int       `db:"break_duration" json:"break_duration"`
	MaxPatientsPerDay  int       `db:"max_patients_per_day" json:"max_patients_per_day"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// DefaultSettings returns the settings every doctor starts with.
func DefaultSettings(doctorID uuid.UUID) *DoctorSettings {
	return &DoctorSettings{
		DoctorID:             doctorID,
		EmailNotifications:   true,
		SMSNotifications:     false,
		AppointmentReminders: true,
		NotesAutoSave:        true,
		WorkingHoursStart:    "09:00",
		WorkingHoursEnd:      "17:00",
		BreakDuration:        15,
		MaxPatientsPerDay:    20,
	}
}
