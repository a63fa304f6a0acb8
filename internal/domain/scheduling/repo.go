package scheduling

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows appointment listings.
type ListFilter string

const (
	FilterAll      ListFilter = "all"
	FilterToday    ListFilter = "today"
	FilterUpcoming ListFilter = "upcoming"
)

// ValidFilter reports whether f is a known listing filter.
func ValidFilter(f ListFilter) bool {
	switch f {
	case FilterAll, FilterToday, FilterUpcoming:
		return true
	}
	return false
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, filter ListFilter, limit, offset int) ([]*Appointment, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, filter ListFilter, limit, offset int) ([]*Appointment, int, error)
	ListAll(ctx context.Context, filter ListFilter, limit, offset int) ([]*Appointment, int, error)
}

type ScheduleRepository interface {
	Upsert(ctx context.Context, s *DoctorSchedule) error
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*DoctorSchedule, error)
}

type TimeOffRepository interface {
	Create(ctx context.Context, r *TimeOffRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*TimeOffRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status, adminNotes string) error
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*TimeOffRequest, int, error)
	ListAll(ctx context.Context, status string, limit, offset int) ([]*TimeOffRequest, int, error)
}

type SettingsRepository interface {
	EnsureDefaults(ctx context.Context, doctorID uuid.UUID) error
	GetByDoctor(ctx context.Context, doctorID uuid.UUID) (*DoctorSettings, error)
	Update(ctx context.Context, s *DoctorSettings) error
}
