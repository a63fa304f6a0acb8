package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinichq/clinic/pkg/apperror"
)

// -- Mock repositories --

type slotKey struct {
	doctor uuid.UUID
	date   string
	time   string
}

type mockAppointmentRepo struct {
	appointments map[uuid.UUID]*Appointment
	slots        map[slotKey]bool
}

func newMockAppointmentRepo() *mockAppointmentRepo {
	return &mockAppointmentRepo{
		appointments: make(map[uuid.UUID]*Appointment),
		slots:        make(map[slotKey]bool),
	}
}

func (m *mockAppointmentRepo) key(a *Appointment) slotKey {
	return slotKey{doctor: a.DoctorID, date: a.Date.Format("2006-01-02"), time: a.Time}
}

func (m *mockAppointmentRepo) Create(_ context.Context, a *Appointment) error {
	k := m.key(a)
	if m.slots[k] {
		return apperror.New(apperror.Conflict,
			"this doctor already has an appointment at the selected time")
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	m.slots[k] = true
	cp := *a
	m.appointments[a.ID] = &cp
	return nil
}

func (m *mockAppointmentRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, apperror.New(apperror.NotFound, "appointment not found")
	}
	cp := *a
	return &cp, nil
}

func (m *mockAppointmentRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	a, ok := m.appointments[id]
	if !ok {
		return apperror.New(apperror.NotFound, "appointment not found")
	}
	a.Status = status
	return nil
}

func (m *mockAppointmentRepo) filtered(filter ListFilter, keep func(*Appointment) bool) []*Appointment {
	today := time.Now().Format("2006-01-02")
	var out []*Appointment
	for _, a := range m.appointments {
		if !keep(a) {
			continue
		}
		date := a.Date.Format("2006-01-02")
		switch filter {
		case FilterToday:
			if date != today {
				continue
			}
		case FilterUpcoming:
			if date < today {
				continue
			}
		}
		cp := *a
		out = append(out, &cp)
	}
	return out
}

func (m *mockAppointmentRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, filter ListFilter, limit, offset int) ([]*Appointment, int, error) {
	out := m.filtered(filter, func(a *Appointment) bool { return a.DoctorID == doctorID })
	return out, len(out), nil
}

func (m *mockAppointmentRepo) ListByPatient(_ context.Context, patientID uuid.UUID, filter ListFilter, limit, offset int) ([]*Appointment, int, error) {
	out := m.filtered(filter, func(a *Appointment) bool { return a.PatientID == patientID })
	return out, len(out), nil
}

func (m *mockAppointmentRepo) ListAll(_ context.Context, filter ListFilter, limit, offset int) ([]*Appointment, int, error) {
	out := m.filtered(filter, func(*Appointment) bool { return true })
	return out, len(out), nil
}

type dayKey struct {
	doctor uuid.UUID
	day    string
}

type mockScheduleRepo struct {
	rows map[dayKey]*DoctorSchedule
}

func newMockScheduleRepo() *mockScheduleRepo {
	return &mockScheduleRepo{rows: make(map[dayKey]*DoctorSchedule)}
}

func (m *mockScheduleRepo) Upsert(_ context.Context, s *DoctorSchedule) error {
	k := dayKey{doctor: s.DoctorID, day: s.DayOfWeek}
	if existing, ok := m.rows[k]; ok {
		s.ID = existing.ID
	} else if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	cp := *s
	m.rows[k] = &cp
	return nil
}

func (m *mockScheduleRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]*DoctorSchedule, error) {
	var out []*DoctorSchedule
	for _, s := range m.rows {
		if s.DoctorID == doctorID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

type mockTimeOffRepo struct {
	requests map[uuid.UUID]*TimeOffRequest
}

func newMockTimeOffRepo() *mockTimeOffRepo {
	return &mockTimeOffRepo{requests: make(map[uuid.UUID]*TimeOffRequest)}
}

func (m *mockTimeOffRepo) Create(_ context.Context, r *TimeOffRequest) error {
	r.ID = uuid.New()
	r.CreatedAt = time.Now()
	cp := *r
	m.requests[r.ID] = &cp
	return nil
}

func (m *mockTimeOffRepo) GetByID(_ context.Context, id uuid.UUID) (*TimeOffRequest, error) {
	r, ok := m.requests[id]
	if !ok {
		return nil, apperror.New(apperror.NotFound, "time-off request not found")
	}
	cp := *r
	return &cp, nil
}

func (m *mockTimeOffRepo) UpdateStatus(_ context.Context, id uuid.UUID, status, adminNotes string) error {
	r, ok := m.requests[id]
	if !ok {
		return apperror.New(apperror.NotFound, "time-off request not found")
	}
	r.Status = status
	r.AdminNotes = adminNotes
	return nil
}

func (m *mockTimeOffRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, limit, offset int) ([]*TimeOffRequest, int, error) {
	var out []*TimeOffRequest
	for _, r := range m.requests {
		if r.DoctorID == doctorID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (m *mockTimeOffRepo) ListAll(_ context.Context, status string, limit, offset int) ([]*TimeOffRequest, int, error) {
	var out []*TimeOffRequest
	for _, r := range m.requests {
		if status != "" && r.Status != status {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	return out, len(out), nil
}

type mockSettingsRepo struct {
	settings map[uuid.UUID]*DoctorSettings
}

func newMockSettingsRepo() *mockSettingsRepo {
	return &mockSettingsRepo{settings: make(map[uuid.UUID]*DoctorSettings)}
}

func (m *mockSettingsRepo) EnsureDefaults(_ context.Context, doctorID uuid.UUID) error {
	if _, ok := m.settings[doctorID]; ok {
		return nil
	}
	def := DefaultSettings(doctorID)
	def.ID = uuid.New()
	m.settings[doctorID] = def
	return nil
}

func (m *mockSettingsRepo) GetByDoctor(_ context.Context, doctorID uuid.UUID) (*DoctorSettings, error) {
	s, ok := m.settings[doctorID]
	if !ok {
		return nil, apperror.New(apperror.NotFound, "settings not found")
	}
	cp := *s
	return &cp, nil
}

func (m *mockSettingsRepo) Update(_ context.Context, s *DoctorSettings) error {
	if _, ok := m.settings[s.DoctorID]; !ok {
		return apperror.New(apperror.NotFound, "settings not found")
	}
	cp := *s
	m.settings[s.DoctorID] = &cp
	return nil
}

func newTestService() *Service {
	return NewService(newMockAppointmentRepo(), newMockScheduleRepo(),
		newMockTimeOffRepo(), newMockSettingsRepo())
}

func dateAt(daysFromNow int) string {
	return time.Now().AddDate(0, 0, daysFromNow).Format("2006-01-02")
}

// -- Appointment tests --

func TestBook(t *testing.T) {
	svc := newTestService()
	patientID, doctorID := uuid.New(), uuid.New()

	appt, err := svc.Book(context.Background(), BookInput{
		PatientID: patientID,
		DoctorID:  doctorID,
		Date:      dateAt(1),
		Time:      "10:30",
		Reason:    "checkup",
	})
	if err != nil {
		t.Fatalf("Book() error: %v", err)
	}
	if appt.Status != StatusPending {
		t.Errorf("new appointments must be pending, got %s", appt.Status)
	}
	if appt.ID == uuid.Nil {
		t.Error("expected generated id")
	}
}

func TestBook_SlotConflict(t *testing.T) {
	svc := newTestService()
	doctorID := uuid.New()
	date := dateAt(1)

	if _, err := svc.Book(context.Background(), BookInput{
		PatientID: uuid.New(), DoctorID: doctorID, Date: date, Time: "10:30",
	}); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	_, err := svc.Book(context.Background(), BookInput{
		PatientID: uuid.New(), DoctorID: doctorID, Date: date, Time: "10:30",
	})
	if !apperror.IsConflict(err) {
		t.Errorf("expected Conflict for taken slot, got %v", err)
	}

	// Same time with another doctor is fine.
	if _, err := svc.Book(context.Background(), BookInput{
		PatientID: uuid.New(), DoctorID: uuid.New(), Date: date, Time: "10:30",
	}); err != nil {
		t.Errorf("different doctor same slot should book: %v", err)
	}
}

func TestBook_Validation(t *testing.T) {
	svc := newTestService()

	tests := []struct {
		name string
		in   BookInput
	}{
		{"missing doctor", BookInput{PatientID: uuid.New(), Date: dateAt(1), Time: "10:00"}},
		{"missing patient", BookInput{DoctorID: uuid.New(), Date: dateAt(1), Time: "10:00"}},
		{"bad time", BookInput{PatientID: uuid.New(), DoctorID: uuid.New(), Date: dateAt(1), Time: "25:99"}},
		{"bad date", BookInput{PatientID: uuid.New(), DoctorID: uuid.New(), Date: "someday", Time: "10:00"}},
		{"missing time", BookInput{PatientID: uuid.New(), DoctorID: uuid.New(), Date: dateAt(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Book(context.Background(), tt.in); !apperror.IsValidation(err) {
				t.Errorf("expected Validation error, got %v", err)
			}
		})
	}
}

func TestUpdateAppointmentStatus_Lifecycle(t *testing.T) {
	svc := newTestService()
	patientID, doctorID := uuid.New(), uuid.New()
	doctor := Actor{Role: "doctor", DoctorID: doctorID}

	appt, err := svc.Book(context.Background(), BookInput{
		PatientID: patientID, DoctorID: doctorID, Date: dateAt(1), Time: "09:00",
	})
	if err != nil {
		t.Fatalf("Book() error: %v", err)
	}

	appt, err = svc.UpdateAppointmentStatus(context.Background(), doctor, appt.ID, StatusConfirmed)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if appt.Status != StatusConfirmed {
		t.Errorf("expected confirmed, got %s", appt.Status)
	}

	appt, err = svc.UpdateAppointmentStatus(context.Background(), doctor, appt.ID, StatusCompleted)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	// Completed is terminal.
	if _, err := svc.UpdateAppointmentStatus(context.Background(), doctor, appt.ID, StatusCancelled); !apperror.IsConflict(err) {
		t.Errorf("expected Conflict on terminal state, got %v", err)
	}
}

func TestUpdateAppointmentStatus_IllegalMoves(t *testing.T) {
	svc := newTestService()
	doctorID := uuid.New()
	doctor := Actor{Role: "doctor", DoctorID: doctorID}

	appt, err := svc.Book(context.Background(), BookInput{
		PatientID: uuid.New(), DoctorID: doctorID, Date: dateAt(1), Time: "09:00",
	})
	if err != nil {
		t.Fatalf("Book() error: %v", err)
	}

	// Pending cannot jump straight to completed.
	if _, err := svc.UpdateAppointmentStatus(context.Background(), doctor, appt.ID, StatusCompleted); !apperror.IsConflict(err) {
		t.Errorf("expected Conflict for pending->completed, got %v", err)
	}
	if _, err := svc.UpdateAppointmentStatus(context.Background(), doctor, appt.ID, "nonsense"); !apperror.IsValidation(err) {
		t.Errorf("expected Validation for unknown status, got %v", err)
	}
}

func TestUpdateAppointmentStatus_Authorization(t *testing.T) {
	svc := newTestService()
	patientID, doctorID := uuid.New(), uuid.New()

	appt, err := svc.Book(context.Background(), BookInput{
		PatientID: patientID, DoctorID: doctorID, Date: dateAt(1), Time: "09:00",
	})
	if err != nil {
		t.Fatalf("Book() error: %v", err)
	}

	owner := Actor{Role: "patient", PatientID: patientID}
	stranger := Actor{Role: "patient", PatientID: uuid.New()}
	otherDoctor := Actor{Role: "doctor", DoctorID: uuid.New()}

	if _, err := svc.UpdateAppointmentStatus(context.Background(), stranger, appt.ID, StatusCancelled); !apperror.IsAuthorization(err) {
		t.Errorf("expected Authorization for unrelated patient, got %v", err)
	}
	if _, err := svc.UpdateAppointmentStatus(context.Background(), otherDoctor, appt.ID, StatusConfirmed); !apperror.IsAuthorization(err) {
		t.Errorf("expected Authorization for unrelated doctor, got %v", err)
	}
	if _, err := svc.UpdateAppointmentStatus(context.Background(), owner, appt.ID, StatusConfirmed); !apperror.IsAuthorization(err) {
		t.Errorf("patients must not confirm, got %v", err)
	}

	// The patient may cancel their own booking.
	updated, err := svc.UpdateAppointmentStatus(context.Background(), owner, appt.ID, StatusCancelled)
	if err != nil {
		t.Fatalf("owner cancel failed: %v", err)
	}
	if updated.Status != StatusCancelled {
		t.Errorf("expected cancelled, got %s", updated.Status)
	}
}

func TestListAppointments_Visibility(t *testing.T) {
	svc := newTestService()
	patientID, doctorID := uuid.New(), uuid.New()

	for i, tm := range []string{"09:00", "10:00", "11:00"} {
		in := BookInput{PatientID: patientID, DoctorID: doctorID, Date: dateAt(i + 1), Time: tm}
		if i == 2 {
			in.PatientID = uuid.New()
		}
		if _, err := svc.Book(context.Background(), in); err != nil {
			t.Fatalf("booking %d failed: %v", i, err)
		}
	}

	appts, total, err := svc.ListAppointments(context.Background(),
		Actor{Role: "patient", PatientID: patientID}, FilterAll, 20, 0)
	if err != nil {
		t.Fatalf("patient list failed: %v", err)
	}
	if total != 2 || len(appts) != 2 {
		t.Errorf("expected patient to see 2 appointments, got %d", total)
	}

	_, total, err = svc.ListAppointments(context.Background(),
		Actor{Role: "doctor", DoctorID: doctorID}, FilterAll, 20, 0)
	if err != nil {
		t.Fatalf("doctor list failed: %v", err)
	}
	if total != 3 {
		t.Errorf("expected doctor to see 3 appointments, got %d", total)
	}

	_, total, err = svc.ListAppointments(context.Background(), Actor{Role: "admin"}, FilterAll, 20, 0)
	if err != nil {
		t.Fatalf("admin list failed: %v", err)
	}
	if total != 3 {
		t.Errorf("expected admin to see 3 appointments, got %d", total)
	}

	if _, _, err := svc.ListAppointments(context.Background(),
		Actor{Role: "doctor", DoctorID: doctorID}, "bogus", 20, 0); !apperror.IsValidation(err) {
		t.Errorf("expected Validation for unknown filter, got %v", err)
	}
}

func TestListAppointments_UpcomingFilter(t *testing.T) {
	svc := newTestService()
	doctorID := uuid.New()
	doctor := Actor{Role: "doctor", DoctorID: doctorID}

	for i, days := range []int{-2, 0, 3} {
		if _, err := svc.Book(context.Background(), BookInput{
			PatientID: uuid.New(), DoctorID: doctorID, Date: dateAt(days), Time: "09:00",
		}); err != nil {
			t.Fatalf("booking %d failed: %v", i, err)
		}
	}

	_, total, err := svc.ListAppointments(context.Background(), doctor, FilterUpcoming, 20, 0)
	if err != nil {
		t.Fatalf("upcoming list failed: %v", err)
	}
	if total != 2 {
		t.Errorf("expected 2 upcoming (today inclusive), got %d", total)
	}

	_, total, err = svc.ListAppointments(context.Background(), doctor, FilterToday, 20, 0)
	if err != nil {
		t.Fatalf("today list failed: %v", err)
	}
	if total != 1 {
		t.Errorf("expected 1 today, got %d", total)
	}
}

// -- Schedule tests --

func TestSaveScheduleDay_Upsert(t *testing.T) {
	svc := newTestService()
	doctorID := uuid.New()

	first, err := svc.SaveScheduleDay(context.Background(), doctorID, ScheduleInput{
		DayOfWeek: "monday", StartTime: "09:00", EndTime: "17:00", IsAvailable: true,
	})
	if err != nil {
		t.Fatalf("SaveScheduleDay() error: %v", err)
	}

	// Saving the same day again overwrites, not duplicates.
	second, err := svc.SaveScheduleDay(context.Background(), doctorID, ScheduleInput{
		DayOfWeek: "monday", StartTime: "10:00", EndTime: "16:00", IsAvailable: false,
	})
	if err != nil {
		t.Fatalf("second SaveScheduleDay() error: %v", err)
	}
	if second.ID != first.ID {
		t.Error("expected upsert to keep the existing row")
	}

	week, err := svc.WeeklySchedule(context.Background(), doctorID)
	if err != nil {
		t.Fatalf("WeeklySchedule() error: %v", err)
	}
	if len(week) != 1 {
		t.Fatalf("expected 1 schedule row, got %d", len(week))
	}
	if week[0].StartTime != "10:00" || week[0].IsAvailable {
		t.Errorf("expected overwritten values, got %+v", week[0])
	}
}

func TestSaveScheduleDay_Validation(t *testing.T) {
	svc := newTestService()
	doctorID := uuid.New()

	tests := []struct {
		name string
		in   ScheduleInput
	}{
		{"unknown day", ScheduleInput{DayOfWeek: "someday", StartTime: "09:00", EndTime: "17:00"}},
		{"end before start", ScheduleInput{DayOfWeek: "monday", StartTime: "17:00", EndTime: "09:00"}},
		{"equal times", ScheduleInput{DayOfWeek: "monday", StartTime: "09:00", EndTime: "09:00"}},
		{"bad clock", ScheduleInput{DayOfWeek: "monday", StartTime: "nine", EndTime: "17:00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.SaveScheduleDay(context.Background(), doctorID, tt.in); !apperror.IsValidation(err) {
				t.Errorf("expected Validation error, got %v", err)
			}
		})
	}
}

func TestWeeklySchedule_Ordering(t *testing.T) {
	svc := newTestService()
	doctorID := uuid.New()

	for _, day := range []string{"friday", "monday", "wednesday"} {
		if _, err := svc.SaveScheduleDay(context.Background(), doctorID, ScheduleInput{
			DayOfWeek: day, StartTime: "09:00", EndTime: "17:00", IsAvailable: true,
		}); err != nil {
			t.Fatalf("SaveScheduleDay(%s) error: %v", day, err)
		}
	}

	week, err := svc.WeeklySchedule(context.Background(), doctorID)
	if err != nil {
		t.Fatalf("WeeklySchedule() error: %v", err)
	}

	want := []string{"monday", "wednesday", "friday"}
	for i, day := range want {
		if week[i].DayOfWeek != day {
			t.Errorf("position %d: expected %s, got %s", i, day, week[i].DayOfWeek)
		}
	}
}

// -- Time-off tests --

func TestRequestTimeOff(t *testing.T) {
	svc := newTestService()
	doctorID := uuid.New()

	req, err := svc.RequestTimeOff(context.Background(), doctorID, TimeOffInput{
		StartDate: dateAt(7),
		EndDate:   dateAt(9),
		Reason:    "conference",
	})
	if err != nil {
		t.Fatalf("RequestTimeOff() error: %v", err)
	}
	if req.Status != TimeOffPending {
		t.Errorf("new requests must be pending, got %s", req.Status)
	}
	if req.DurationDays() != 3 {
		t.Errorf("expected inclusive duration 3, got %d", req.DurationDays())
	}
}

func TestRequestTimeOff_Validation(t *testing.T) {
	svc := newTestService()
	doctorID := uuid.New()

	if _, err := svc.RequestTimeOff(context.Background(), doctorID, TimeOffInput{
		StartDate: dateAt(9), EndDate: dateAt(7),
	}); !apperror.IsValidation(err) {
		t.Errorf("expected Validation for end before start, got %v", err)
	}
	if _, err := svc.RequestTimeOff(context.Background(), doctorID, TimeOffInput{}); !apperror.IsValidation(err) {
		t.Errorf("expected Validation for missing dates, got %v", err)
	}

	// Single-day requests are valid and last one day.
	req, err := svc.RequestTimeOff(context.Background(), doctorID, TimeOffInput{
		StartDate: dateAt(7), EndDate: dateAt(7),
	})
	if err != nil {
		t.Fatalf("single-day request failed: %v", err)
	}
	if req.DurationDays() != 1 {
		t.Errorf("expected duration 1, got %d", req.DurationDays())
	}
}

func TestUpdateTimeOffStatus(t *testing.T) {
	svc := newTestService()
	doctorID := uuid.New()
	admin := Actor{Role: "admin"}
	owner := Actor{Role: "doctor", DoctorID: doctorID}
	otherDoctor := Actor{Role: "doctor", DoctorID: uuid.New()}

	req, err := svc.RequestTimeOff(context.Background(), doctorID, TimeOffInput{
		StartDate: dateAt(7), EndDate: dateAt(9),
	})
	if err != nil {
		t.Fatalf("RequestTimeOff() error: %v", err)
	}

	if _, err := svc.UpdateTimeOffStatus(context.Background(), otherDoctor, req.ID, TimeOffCancelled, ""); !apperror.IsAuthorization(err) {
		t.Errorf("expected Authorization for unrelated doctor, got %v", err)
	}
	if _, err := svc.UpdateTimeOffStatus(context.Background(), owner, req.ID, TimeOffApproved, ""); !apperror.IsAuthorization(err) {
		t.Errorf("doctors must not approve their own requests, got %v", err)
	}

	decided, err := svc.UpdateTimeOffStatus(context.Background(), admin, req.ID, TimeOffApproved, "enjoy")
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if decided.Status != TimeOffApproved || decided.AdminNotes != "enjoy" {
		t.Errorf("unexpected decision: %+v", decided)
	}

	// Approved is terminal.
	if _, err := svc.UpdateTimeOffStatus(context.Background(), admin, req.ID, TimeOffCancelled, ""); !apperror.IsConflict(err) {
		t.Errorf("expected Conflict on decided request, got %v", err)
	}
}

func TestUpdateTimeOffStatus_OwnerCancel(t *testing.T) {
	svc := newTestService()
	doctorID := uuid.New()
	owner := Actor{Role: "doctor", DoctorID: doctorID}

	req, err := svc.RequestTimeOff(context.Background(), doctorID, TimeOffInput{
		StartDate: dateAt(7), EndDate: dateAt(9),
	})
	if err != nil {
		t.Fatalf("RequestTimeOff() error: %v", err)
	}

	cancelled, err := svc.UpdateTimeOffStatus(context.Background(), owner, req.ID, TimeOffCancelled, "")
	if err != nil {
		t.Fatalf("owner cancel failed: %v", err)
	}
	if cancelled.Status != TimeOffCancelled {
		t.Errorf("expected cancelled, got %s", cancelled.Status)
	}
}

// -- Settings tests --

func TestGetSettings_ProvisionsDefaults(t *testing.T) {
	svc := newTestService()
	doctorID := uuid.New()

	settings, err := svc.GetSettings(context.Background(), doctorID)
	if err != nil {
		t.Fatalf("GetSettings() error: %v", err)
	}
	if !settings.EmailNotifications || settings.SMSNotifications {
		t.Error("unexpected notification defaults")
	}
	if settings.WorkingHoursStart != "09:00" || settings.WorkingHoursEnd != "17:00" {
		t.Errorf("unexpected working hours: %s-%s", settings.WorkingHoursStart, settings.WorkingHoursEnd)
	}
	if settings.BreakDuration != 15 || settings.MaxPatientsPerDay != 20 {
		t.Errorf("unexpected limits: break=%d max=%d", settings.BreakDuration, settings.MaxPatientsPerDay)
	}
}

func TestUpdateNotificationSettings(t *testing.T) {
	svc := newTestService()
	doctorID := uuid.New()

	updated, err := svc.UpdateNotificationSettings(context.Background(), doctorID, NotificationSettingsInput{
		EmailNotifications:   false,
		SMSNotifications:     true,
		AppointmentReminders: true,
		NotesAutoSave:        false,
	})
	if err != nil {
		t.Fatalf("UpdateNotificationSettings() error: %v", err)
	}
	if updated.EmailNotifications || !updated.SMSNotifications {
		t.Error("notification flags not applied")
	}
	if updated.WorkingHoursStart != "09:00" || updated.MaxPatientsPerDay != 20 {
		t.Errorf("practice settings must be untouched: %+v", updated)
	}
}

func TestUpdatePracticeSettings(t *testing.T) {
	svc := newTestService()
	doctorID := uuid.New()

	if _, err := svc.UpdateNotificationSettings(context.Background(), doctorID, NotificationSettingsInput{
		SMSNotifications: true,
	}); err != nil {
		t.Fatalf("UpdateNotificationSettings() error: %v", err)
	}

	updated, err := svc.UpdatePracticeSettings(context.Background(), doctorID, PracticeSettingsInput{
		WorkingHoursStart: "08:00",
		WorkingHoursEnd:   "14:00",
		BreakDuration:     30,
		MaxPatientsPerDay: 10,
	})
	if err != nil {
		t.Fatalf("UpdatePracticeSettings() error: %v", err)
	}
	if updated.WorkingHoursStart != "08:00" || updated.MaxPatientsPerDay != 10 {
		t.Errorf("unexpected values: %+v", updated)
	}
	if !updated.SMSNotifications {
		t.Error("notification flags must be untouched")
	}
}

func TestUpdatePracticeSettings_Validation(t *testing.T) {
	svc := newTestService()
	doctorID := uuid.New()

	base := PracticeSettingsInput{
		WorkingHoursStart: "09:00", WorkingHoursEnd: "17:00",
		BreakDuration: 15, MaxPatientsPerDay: 20,
	}

	tests := []struct {
		name   string
		mutate func(*PracticeSettingsInput)
	}{
		{"inverted hours", func(in *PracticeSettingsInput) { in.WorkingHoursStart, in.WorkingHoursEnd = "17:00", "09:00" }},
		{"negative break", func(in *PracticeSettingsInput) { in.BreakDuration = -1 }},
		{"zero capacity", func(in *PracticeSettingsInput) { in.MaxPatientsPerDay = 0 }},
		{"bad clock", func(in *PracticeSettingsInput) { in.WorkingHoursStart = "morning" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			if _, err := svc.UpdatePracticeSettings(context.Background(), doctorID, in); !apperror.IsValidation(err) {
				t.Errorf("expected Validation error, got %v", err)
			}
		})
	}
}
