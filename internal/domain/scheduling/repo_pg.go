package scheduling

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinichq/clinic/internal/platform/db"
	"github.com/clinichq/clinic/pkg/apperror"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}

func mapNotFound(err error, msg string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.New(apperror.NotFound, msg)
	}
	return err
}

// =========== Appointment Repository ===========

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) db.Querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const apptCols = `a.id, a.patient_id, a.doctor_id, a.appointment_date,
	to_char(a.appointment_time, 'HH24:MI'), a.reason, a.status, a.created_at, a.updated_at,
	pi.first_name || ' ' || pi.last_name,
	'Dr. ' || di.first_name || ' ' || di.last_name`

const apptFrom = ` FROM appointment a
	JOIN patient p ON p.id = a.patient_id
	JOIN identity pi ON pi.id = p.identity_id
	JOIN doctor d ON d.id = a.doctor_id
	JOIN identity di ON di.id = d.identity_id`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.Date, &a.Time, &a.Reason,
		&a.Status, &a.CreatedAt, &a.UpdatedAt, &a.PatientName, &a.DoctorName)
	return &a, err
}

// Create inserts the appointment. The unique slot index resolves concurrent
// bookings; a duplicate (doctor, date, time) surfaces as a Conflict without
// any prior existence check.
func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointment (id, patient_id, doctor_id, appointment_date, appointment_time, reason, status)
		VALUES ($1,$2,$3,$4,$5::time,$6,$7)`,
		a.ID, a.PatientID, a.DoctorID, a.Date, a.Time, a.Reason, a.Status)
	if isUniqueViolation(err) {
		return apperror.New(apperror.Conflict,
			"this doctor already has an appointment at the selected time")
	}
	if isForeignKeyViolation(err) {
		return apperror.New(apperror.NotFound, "doctor or patient not found")
	}
	return err
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+apptCols+apptFrom+` WHERE a.id = $1`, id))
	if err != nil {
		return nil, mapNotFound(err, "appointment not found")
	}
	return a, nil
}

func (r *appointmentRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE appointment SET status=$2, updated_at=NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperror.New(apperror.NotFound, "appointment not found")
	}
	return nil
}

// filterClause returns the WHERE fragment and ordering for a listing filter.
// Today and upcoming sort soonest first; the full history sorts newest first.
func filterClause(filter ListFilter) (where, order string) {
	switch filter {
	case FilterToday:
		return ` AND a.appointment_date = CURRENT_DATE`,
			` ORDER BY a.appointment_time`
	case FilterUpcoming:
		return ` AND a.appointment_date >= CURRENT_DATE`,
			` ORDER BY a.appointment_date, a.appointment_time`
	default:
		return ``, ` ORDER BY a.appointment_date DESC, a.appointment_time`
	}
}

func (r *appointmentRepoPG) list(ctx context.Context, cond string, condArg interface{}, filter ListFilter, limit, offset int) ([]*Appointment, int, error) {
	where, order := filterClause(filter)

	args := []interface{}{}
	n := 0
	if condArg != nil {
		args = append(args, condArg)
		n = 1
	}

	var total int
	countSQL := `SELECT COUNT(*)` + apptFrom + ` WHERE 1=1` + cond + where
	if err := r.conn(ctx).QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listSQL := `SELECT ` + apptCols + apptFrom + ` WHERE 1=1` + cond + where + order +
		` LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var appts []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		appts = append(appts, a)
	}
	return appts, total, rows.Err()
}

func (r *appointmentRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, filter ListFilter, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, ` AND a.doctor_id = $1`, doctorID, filter, limit, offset)
}

func (r *appointmentRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, filter ListFilter, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, ` AND a.patient_id = $1`, patientID, filter, limit, offset)
}

func (r *appointmentRepoPG) ListAll(ctx context.Context, filter ListFilter, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, ``, nil, filter, limit, offset)
}

// =========== Schedule Repository ===========

type scheduleRepoPG struct{ pool *pgxpool.Pool }

func NewScheduleRepoPG(pool *pgxpool.Pool) ScheduleRepository { return &scheduleRepoPG{pool: pool} }

func (r *scheduleRepoPG) conn(ctx context.Context) db.Querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Upsert writes the weekday row, overwriting times and availability when the
// (doctor, day_of_week) row already exists.
func (r *scheduleRepoPG) Upsert(ctx context.Context, s *DoctorSchedule) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO doctor_schedule (id, doctor_id, day_of_week, start_time, end_time, is_available)
		VALUES ($1,$2,$3,$4::time,$5::time,$6)
		ON CONFLICT (doctor_id, day_of_week) DO UPDATE
			SET start_time=EXCLUDED.start_time, end_time=EXCLUDED.end_time,
				is_available=EXCLUDED.is_available, updated_at=NOW()
		RETURNING id`,
		s.ID, s.DoctorID, s.DayOfWeek, s.StartTime, s.EndTime, s.IsAvailable).Scan(&s.ID)
}

func (r *scheduleRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*DoctorSchedule, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, doctor_id, day_of_week, to_char(start_time, 'HH24:MI'),
			to_char(end_time, 'HH24:MI'), is_available, created_at, updated_at
		FROM doctor_schedule WHERE doctor_id = $1`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []*DoctorSchedule
	for rows.Next() {
		var s DoctorSchedule
		if err := rows.Scan(&s.ID, &s.DoctorID, &s.DayOfWeek, &s.StartTime, &s.EndTime,
			&s.IsAvailable, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		schedules = append(schedules, &s)
	}
	return schedules, rows.Err()
}

// =========== Time-off Repository ===========

type timeOffRepoPG struct{ pool *pgxpool.Pool }

func NewTimeOffRepoPG(pool *pgxpool.Pool) TimeOffRepository { return &timeOffRepoPG{pool: pool} }

func (r *timeOffRepoPG) conn(ctx context.Context) db.Querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const timeOffCols = `t.id, t.doctor_id, t.start_date, t.end_date, t.reason, t.status,
	t.admin_notes, t.created_at, t.updated_at, 'Dr. ' || i.first_name || ' ' || i.last_name`

const timeOffFrom = ` FROM time_off_request t
	JOIN doctor d ON d.id = t.doctor_id
	JOIN identity i ON i.id = d.identity_id`

func scanTimeOff(row pgx.Row) (*TimeOffRequest, error) {
	var t TimeOffRequest
	err := row.Scan(&t.ID, &t.DoctorID, &t.StartDate, &t.EndDate, &t.Reason, &t.Status,
		&t.AdminNotes, &t.CreatedAt, &t.UpdatedAt, &t.DoctorName)
	return &t, err
}

func (r *timeOffRepoPG) Create(ctx context.Context, req *TimeOffRequest) error {
	req.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO time_off_request (id, doctor_id, start_date, end_date, reason, status, admin_notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		req.ID, req.DoctorID, req.StartDate, req.EndDate, req.Reason, req.Status, req.AdminNotes)
	return err
}

func (r *timeOffRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*TimeOffRequest, error) {
	t, err := scanTimeOff(r.conn(ctx).QueryRow(ctx,
		`SELECT `+timeOffCols+timeOffFrom+` WHERE t.id = $1`, id))
	if err != nil {
		return nil, mapNotFound(err, "time-off request not found")
	}
	return t, nil
}

func (r *timeOffRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status, adminNotes string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE time_off_request SET status=$2, admin_notes=$3, updated_at=NOW() WHERE id = $1`,
		id, status, adminNotes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperror.New(apperror.NotFound, "time-off request not found")
	}
	return nil
}

func (r *timeOffRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*TimeOffRequest, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM time_off_request WHERE doctor_id = $1`, doctorID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+timeOffCols+timeOffFrom+` WHERE t.doctor_id = $1
		 ORDER BY t.created_at DESC LIMIT $2 OFFSET $3`, doctorID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	return collectTimeOff(rows, total)
}

func (r *timeOffRepoPG) ListAll(ctx context.Context, status string, limit, offset int) ([]*TimeOffRequest, int, error) {
	cond := ``
	args := []interface{}{}
	if status != "" {
		cond = ` WHERE t.status = $1`
		args = append(args, status)
	}

	var total int
	countSQL := `SELECT COUNT(*)` + timeOffFrom + cond
	if err := r.conn(ctx).QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listSQL := `SELECT ` + timeOffCols + timeOffFrom + cond + ` ORDER BY t.created_at DESC`
	if status != "" {
		listSQL += ` LIMIT $2 OFFSET $3`
	} else {
		listSQL += ` LIMIT $1 OFFSET $2`
	}
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	return collectTimeOff(rows, total)
}

func collectTimeOff(rows pgx.Rows, total int) ([]*TimeOffRequest, int, error) {
	var reqs []*TimeOffRequest
	for rows.Next() {
		t, err := scanTimeOff(rows)
		if err != nil {
			return nil, 0, err
		}
		reqs = append(reqs, t)
	}
	return reqs, total, rows.Err()
}

// =========== Settings Repository ===========

type settingsRepoPG struct{ pool *pgxpool.Pool }

func NewSettingsRepoPG(pool *pgxpool.Pool) SettingsRepository { return &settingsRepoPG{pool: pool} }

func (r *settingsRepoPG) conn(ctx context.Context) db.Querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// EnsureDefaults inserts the default row for a doctor if none exists yet.
// Safe to call repeatedly.
func (r *settingsRepoPG) EnsureDefaults(ctx context.Context, doctorID uuid.UUID) error {
	def := DefaultSettings(doctorID)
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO doctor_settings (id, doctor_id, email_notifications, sms_notifications,
			appointment_reminders, notes_auto_save, working_hours_start, working_hours_end,
			break_duration, max_patients_per_day)
		VALUES ($1,$2,$3,$4,$5,$6,$7::time,$8::time,$9,$10)
		ON CONFLICT (doctor_id) DO NOTHING`,
		uuid.New(), doctorID, def.EmailNotifications, def.SMSNotifications,
		def.AppointmentReminders, def.NotesAutoSave, def.WorkingHoursStart, def.WorkingHoursEnd,
		def.BreakDuration, def.MaxPatientsPerDay)
	return err
}

func (r *settingsRepoPG) GetByDoctor(ctx context.Context, doctorID uuid.UUID) (*DoctorSettings, error) {
	var s DoctorSettings
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, doctor_id, email_notifications, sms_notifications, appointment_reminders,
			notes_auto_save, to_char(working_hours_start, 'HH24:MI'),
			to_char(working_hours_end, 'HH24:MI'), break_duration, max_patients_per_day,
			created_at, updated_at
		FROM doctor_settings WHERE doctor_id = $1`, doctorID).
		Scan(&s.ID, &s.DoctorID, &s.EmailNotifications, &s.SMSNotifications,
			&s.AppointmentReminders, &s.NotesAutoSave, &s.WorkingHoursStart, &s.WorkingHoursEnd,
			&s.BreakDuration, &s.MaxPatientsPerDay, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, mapNotFound(err, "settings not found")
	}
	return &s, nil
}

func (r *settingsRepoPG) Update(ctx context.Context, s *DoctorSettings) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE doctor_settings SET email_notifications=$2, sms_notifications=$3,
			appointment_reminders=$4, notes_auto_save=$5, working_hours_start=$6::time,
			working_hours_end=$7::time, break_duration=$8, max_patients_per_day=$9,
			updated_at=NOW()
		WHERE doctor_id = $1`,
		s.DoctorID, s.EmailNotifications, s.SMSNotifications, s.AppointmentReminders,
		s.NotesAutoSave, s.WorkingHoursStart, s.WorkingHoursEnd, s.BreakDuration,
		s.MaxPatientsPerDay)
	return err
}
