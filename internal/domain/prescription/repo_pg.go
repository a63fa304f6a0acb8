package prescription

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

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const prescriptionCols = `pr.id, pr.doctor_id, pr.patient_id, pr.medication_name,
	pr.dosage, pr.frequency, pr.duration, pr.instructions, pr.created_at,
	pi.first_name || ' ' || pi.last_name,
	'Dr. ' || di.first_name || ' ' || di.last_name`

const prescriptionFrom = ` FROM prescription pr
	JOIN patient p ON p.id = pr.patient_id
	JOIN identity pi ON pi.id = p.identity_id
	JOIN doctor d ON d.id = pr.doctor_id
	JOIN identity di ON di.id = d.identity_id`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.DoctorID, &p.PatientID, &p.MedicationName, &p.Dosage,
		&p.Frequency, &p.Duration, &p.Instructions, &p.CreatedAt, &p.PatientName, &p.DoctorName)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO prescription (id, doctor_id, patient_id, medication_name, dosage, frequency, duration, instructions)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at`,
		p.ID, p.DoctorID, p.PatientID, p.MedicationName, p.Dosage,
		p.Frequency, p.Duration, p.Instructions).Scan(&p.CreatedAt)
	if isForeignKeyViolation(err) {
		return apperror.New(apperror.NotFound, "doctor or patient not found")
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := scanPrescription(r.conn(ctx).QueryRow(ctx,
		`SELECT `+prescriptionCols+prescriptionFrom+` WHERE pr.id = $1`, id))
	if err != nil {
		return nil, mapNotFound(err, "prescription not found")
	}
	return p, nil
}

func (r *repoPG) list(ctx context.Context, where string, limit, offset int, args ...any) ([]*Prescription, int, error) {
	var total int
	countArgs := args[:len(args)-2]
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT count(*)`+prescriptionFrom+where, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+prescriptionCols+prescriptionFrom+where+
			` ORDER BY pr.created_at DESC LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, search string, limit, offset int) ([]*Prescription, int, error) {
	if search != "" {
		pattern := "%" + search + "%"
		return r.list(ctx, ` WHERE pr.doctor_id = $1
			AND (pr.medication_name ILIKE $2 OR pi.first_name ILIKE $2 OR pi.last_name ILIKE $2)`,
			limit, offset, doctorID, pattern, limit, offset)
	}
	return r.list(ctx, ` WHERE pr.doctor_id = $1`, limit, offset, doctorID, limit, offset)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return r.list(ctx, ` WHERE pr.patient_id = $1`, limit, offset, patientID, limit, offset)
}

func (r *repoPG) ListAll(ctx context.Context, limit, offset int) ([]*Prescription, int, error) {
	return r.list(ctx, ``, limit, offset, limit, offset)
}

func (r *repoPG) IsPatientOfDoctor(ctx context.Context, doctorID, patientID uuid.UUID) (bool, error) {
	var ok bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointment
			WHERE doctor_id = $1 AND patient_id = $2
		)`, doctorID, patientID).Scan(&ok)
	return ok, err
}

func (r *repoPG) ListEligiblePatients(ctx context.Context, doctorID uuid.UUID) ([]*EligiblePatient, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT p.id, i.first_name, i.last_name, i.email, max(a.appointment_date)
		FROM appointment a
		JOIN patient p ON p.id = a.patient_id
		JOIN identity i ON i.id = p.identity_id
		WHERE a.doctor_id = $1
		GROUP BY p.id, i.first_name, i.last_name, i.email
		ORDER BY i.first_name, i.last_name`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*EligiblePatient
	for rows.Next() {
		var ep EligiblePatient
		if err := rows.Scan(&ep.ID, &ep.FirstName, &ep.LastName, &ep.Email, &ep.LastVisit); err != nil {
			return nil, err
		}
		out = append(out, &ep)
	}
	return out, rows.Err()
}

func mapNotFound(err error, msg string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.New(apperror.NotFound, msg)
	}
	return err
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

