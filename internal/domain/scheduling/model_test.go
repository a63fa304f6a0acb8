package scheduling

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCanTransitionAppointment(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusConfirmed, false},
	}
	for _, tt := range tests {
		if got := CanTransitionAppointment(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransitionAppointment(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestCanTransitionTimeOff(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{TimeOffPending, TimeOffApproved, true},
		{TimeOffPending, TimeOffRejected, true},
		{TimeOffPending, TimeOffCancelled, true},
		{TimeOffApproved, TimeOffCancelled, false},
		{TimeOffRejected, TimeOffApproved, false},
		{TimeOffCancelled, TimeOffPending, false},
	}
	for _, tt := range tests {
		if got := CanTransitionTimeOff(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransitionTimeOff(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestDurationDays(t *testing.T) {
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		end  time.Time
		want int
	}{
		{"single day", start, 1},
		{"weekend", start.AddDate(0, 0, 1), 2},
		{"full week", start.AddDate(0, 0, 6), 7},
	}
	for _, tt := range tests {
		r := &TimeOffRequest{StartDate: start, EndDate: tt.end}
		if got := r.DurationDays(); got != tt.want {
			t.Errorf("%s: DurationDays() = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestDayOrdering(t *testing.T) {
	if !ValidDay("monday") || ValidDay("funday") {
		t.Error("unexpected day validation")
	}
	if DayIndex("monday") != 0 || DayIndex("sunday") != 6 {
		t.Errorf("unexpected day ordering: monday=%d sunday=%d", DayIndex("monday"), DayIndex("sunday"))
	}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings(uuid.Nil)
	if !s.EmailNotifications || s.SMSNotifications || !s.AppointmentReminders || !s.NotesAutoSave {
		t.Error("unexpected notification defaults")
	}
	if s.WorkingHoursStart != "09:00" || s.WorkingHoursEnd != "17:00" {
		t.Errorf("unexpected hours %s-%s", s.WorkingHoursStart, s.WorkingHoursEnd)
	}
	if s.BreakDuration != 15 || s.MaxPatientsPerDay != 20 {
		t.Errorf("unexpected limits break=%d max=%d", s.BreakDuration, s.MaxPatientsPerDay)
	}
}
