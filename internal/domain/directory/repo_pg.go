package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinichq/clinic/internal/platform/db"
	"github.com/clinichq/clinic/pkg/apperror"
)

const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a postgres unique constraint error.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func mapNotFound(err error, msg string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.New(apperror.NotFound, msg)
	}
	return err
}

// =========== Identity Repository ===========

type identityRepoPG struct{ pool *pgxpool.Pool }

func NewIdentityRepoPG(pool *pgxpool.Pool) IdentityRepository { return &identityRepoPG{pool: pool} }

func (r *identityRepoPG) conn(ctx context.Context) db.Querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const identityCols = `id, username, email, first_name, last_name, password_hash,
	role, is_staff, is_active, last_login, date_joined`

func scanIdentity(row pgx.Row) (*Identity, error) {
	var i Identity
	err := row.Scan(&i.ID, &i.Username, &i.Email, &i.FirstName, &i.LastName, &i.PasswordHash,
		&i.Role, &i.IsStaff, &i.IsActive, &i.LastLogin, &i.DateJoined)
	return &i, err
}

func (r *identityRepoPG) Create(ctx context.Context, ident *Identity) error {
	ident.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO identity (id, username, email, first_name, last_name, password_hash, role, is_staff, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		ident.ID, ident.Username, ident.Email, ident.FirstName, ident.LastName,
		ident.PasswordHash, ident.Role, ident.IsStaff, ident.IsActive)
	if isUniqueViolation(err) {
		return apperror.New(apperror.Conflict, "username already taken")
	}
	return err
}

func (r *identityRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Identity, error) {
	ident, err := scanIdentity(r.conn(ctx).QueryRow(ctx,
		`SELECT `+identityCols+` FROM identity WHERE id = $1`, id))
	if err != nil {
		return nil, mapNotFound(err, "identity not found")
	}
	return ident, nil
}

func (r *identityRepoPG) GetByUsername(ctx context.Context, username string) (*Identity, error) {
	ident, err := scanIdentity(r.conn(ctx).QueryRow(ctx,
		`SELECT `+identityCols+` FROM identity WHERE username = $1`, username))
	if err != nil {
		return nil, mapNotFound(err, "identity not found")
	}
	return ident, nil
}

func (r *identityRepoPG) Update(ctx context.Context, ident *Identity) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE identity SET email=$2, first_name=$3, last_name=$4 WHERE id = $1`,
		ident.ID, ident.Email, ident.FirstName, ident.LastName)
	return err
}

func (r *identityRepoPG) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE identity SET password_hash=$2 WHERE id = $1`, id, passwordHash)
	return err
}

func (r *identityRepoPG) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE identity SET last_login=NOW() WHERE id = $1`, id)
	return err
}

// Delete removes the identity row; the role profile goes with it via the
// ON DELETE CASCADE foreign keys.
func (r *identityRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM identity WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperror.New(apperror.NotFound, "identity not found")
	}
	return nil
}

// =========== Address Repository ===========

type addressRepoPG struct{ pool *pgxpool.Pool }

func NewAddressRepoPG(pool *pgxpool.Pool) AddressRepository { return &addressRepoPG{pool: pool} }

func (r *addressRepoPG) conn(ctx context.Context) db.Querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *addressRepoPG) Create(ctx context.Context, a *Address) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO address (id, line1, city, state, pincode) VALUES ($1,$2,$3,$4,$5)`,
		a.ID, a.Line1, a.City, a.State, a.Pincode)
	return err
}

func (r *addressRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Address, error) {
	var a Address
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, line1, city, state, pincode FROM address WHERE id = $1`, id).
		Scan(&a.ID, &a.Line1, &a.City, &a.State, &a.Pincode)
	if err != nil {
		return nil, mapNotFound(err, "address not found")
	}
	return &a, nil
}

func (r *addressRepoPG) Update(ctx context.Context, a *Address) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE address SET line1=$2, city=$3, state=$4, pincode=$5 WHERE id = $1`,
		a.ID, a.Line1, a.City, a.State, a.Pincode)
	return err
}

func (r *addressRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM address WHERE id = $1`, id)
	return err
}

// =========== Patient Repository ===========

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository { return &patientRepoPG{pool: pool} }

func (r *patientRepoPG) conn(ctx context.Context) db.Querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const patientCols = `p.id, p.identity_id, p.address_id, p.profile_image_id, p.date_of_birth,
	p.phone, p.medical_history, p.created_at, p.updated_at, i.first_name, i.last_name`

const patientFrom = ` FROM patient p JOIN identity i ON i.id = p.identity_id`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.IdentityID, &p.AddressID, &p.ProfileImageID, &p.DateOfBirth,
		&p.Phone, &p.MedicalHistory, &p.CreatedAt, &p.UpdatedAt, &p.FirstName, &p.LastName)
	return &p, err
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient (id, identity_id, address_id, profile_image_id, date_of_birth, phone, medical_history)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		p.ID, p.IdentityID, p.AddressID, p.ProfileImageID, p.DateOfBirth, p.Phone, p.MedicalHistory)
	if isUniqueViolation(err) {
		return apperror.New(apperror.Conflict, "identity already has a patient profile")
	}
	return err
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+patientFrom+` WHERE p.id = $1`, id))
	if err != nil {
		return nil, mapNotFound(err, "patient not found")
	}
	return p, nil
}

func (r *patientRepoPG) GetByIdentityID(ctx context.Context, identityID uuid.UUID) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+patientFrom+` WHERE p.identity_id = $1`, identityID))
	if err != nil {
		return nil, mapNotFound(err, "patient not found")
	}
	return p, nil
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient SET profile_image_id=$2, date_of_birth=$3, phone=$4, medical_history=$5, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.ProfileImageID, p.DateOfBirth, p.Phone, p.MedicalHistory)
	return err
}

func (r *patientRepoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+patientCols+patientFrom+` ORDER BY i.last_name, i.first_name LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		patients = append(patients, p)
	}
	return patients, total, rows.Err()
}

// =========== Doctor Repository ===========

type doctorRepoPG struct{ pool *pgxpool.Pool }

func NewDoctorRepoPG(pool *pgxpool.Pool) DoctorRepository { return &doctorRepoPG{pool: pool} }

func (r *doctorRepoPG) conn(ctx context.Context) db.Querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const doctorCols = `d.id, d.identity_id, d.address_id, d.profile_image_id, d.specialization,
	d.license_number, d.experience_years, d.phone, d.created_at, d.updated_at,
	i.first_name, i.last_name`

const doctorFrom = ` FROM doctor d JOIN identity i ON i.id = d.identity_id`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.IdentityID, &d.AddressID, &d.ProfileImageID, &d.Specialization,
		&d.LicenseNumber, &d.ExperienceYears, &d.Phone, &d.CreatedAt, &d.UpdatedAt,
		&d.FirstName, &d.LastName)
	return &d, err
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO doctor (id, identity_id, address_id, profile_image_id, specialization, license_number, experience_years, phone)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		d.ID, d.IdentityID, d.AddressID, d.ProfileImageID, d.Specialization,
		d.LicenseNumber, d.ExperienceYears, d.Phone)
	if isUniqueViolation(err) {
		return apperror.New(apperror.Conflict, "identity already has a doctor profile")
	}
	return err
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := scanDoctor(r.conn(ctx).QueryRow(ctx,
		`SELECT `+doctorCols+doctorFrom+` WHERE d.id = $1`, id))
	if err != nil {
		return nil, mapNotFound(err, "doctor not found")
	}
	return d, nil
}

func (r *doctorRepoPG) GetByIdentityID(ctx context.Context, identityID uuid.UUID) (*Doctor, error) {
	d, err := scanDoctor(r.conn(ctx).QueryRow(ctx,
		`SELECT `+doctorCols+doctorFrom+` WHERE d.identity_id = $1`, identityID))
	if err != nil {
		return nil, mapNotFound(err, "doctor not found")
	}
	return d, nil
}

func (r *doctorRepoPG) Update(ctx context.Context, d *Doctor) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE doctor SET profile_image_id=$2, specialization=$3, license_number=$4,
			experience_years=$5, phone=$6, updated_at=NOW()
		WHERE id = $1`,
		d.ID, d.ProfileImageID, d.Specialization, d.LicenseNumber, d.ExperienceYears, d.Phone)
	return err
}

func (r *doctorRepoPG) List(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM doctor`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+doctorCols+doctorFrom+` ORDER BY i.last_name, i.first_name LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var doctors []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, err
		}
		doctors = append(doctors, d)
	}
	return doctors, total, rows.Err()
}

// =========== Admin Repository ===========

type adminRepoPG struct{ pool *pgxpool.Pool }

func NewAdminRepoPG(pool *pgxpool.Pool) AdminRepository { return &adminRepoPG{pool: pool} }

func (r *adminRepoPG) conn(ctx context.Context) db.Querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const adminCols = `a.id, a.identity_id, a.profile_image_id, a.phone, a.created_at, a.updated_at,
	i.first_name, i.last_name`

func (r *adminRepoPG) Create(ctx context.Context, a *Admin) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO admin (id, identity_id, profile_image_id, phone) VALUES ($1,$2,$3,$4)`,
		a.ID, a.IdentityID, a.ProfileImageID, a.Phone)
	if isUniqueViolation(err) {
		return apperror.New(apperror.Conflict, "identity already has an admin profile")
	}
	return err
}

func (r *adminRepoPG) GetByIdentityID(ctx context.Context, identityID uuid.UUID) (*Admin, error) {
	var a Admin
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+adminCols+` FROM admin a JOIN identity i ON i.id = a.identity_id WHERE a.identity_id = $1`,
		identityID).
		Scan(&a.ID, &a.IdentityID, &a.ProfileImageID, &a.Phone, &a.CreatedAt, &a.UpdatedAt,
			&a.FirstName, &a.LastName)
	if err != nil {
		return nil, mapNotFound(err, "admin not found")
	}
	return &a, nil
}

func (r *adminRepoPG) Update(ctx context.Context, a *Admin) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE admin SET profile_image_id=$2, phone=$3, updated_at=NOW() WHERE id = $1`,
		a.ID, a.ProfileImageID, a.Phone)
	return err
}
