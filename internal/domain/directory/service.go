package directory

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/clinichq/clinic/internal/platform/auth"
	"github.com/clinichq/clinic/pkg/apperror"
)

// TxRunner executes fn atomically. Production wiring runs fn inside a
// database transaction; the default runs it directly.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// SettingsProvisioner creates default preferences for a newly registered
// doctor. Wired to the scheduling engine at startup.
type SettingsProvisioner interface {
	EnsureDefaults(ctx context.Context, doctorID uuid.UUID) error
}

type Service struct {
	identities IdentityRepository
	addresses  AddressRepository
	patients   PatientRepository
	doctors    DoctorRepository
	admins     AdminRepository

	validate    *validator.Validate
	runTx       TxRunner
	provisioner SettingsProvisioner
}

type ServiceOption func(*Service)

// WithTxRunner sets the transaction runner used for multi-write operations.
func WithTxRunner(run TxRunner) ServiceOption {
	return func(s *Service) { s.runTx = run }
}

// WithSettingsProvisioner sets the hook invoked after doctor registration.
func WithSettingsProvisioner(p SettingsProvisioner) ServiceOption {
	return func(s *Service) { s.provisioner = p }
}

func NewService(identities IdentityRepository, addresses AddressRepository,
	patients PatientRepository, doctors DoctorRepository, admins AdminRepository,
	opts ...ServiceOption) *Service {

	s := &Service{
		identities: identities,
		addresses:  addresses,
		patients:   patients,
		doctors:    doctors,
		admins:     admins,
		validate:   validator.New(),
		runTx: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// -- Registration --

type RegisterPatientInput struct {
	Username       string     `json:"username" validate:"required,min=3,max=150"`
	Password       string     `json:"password" validate:"required,min=8"`
	Email          string     `json:"email" validate:"required,email"`
	FirstName      string     `json:"first_name" validate:"required,max=150"`
	LastName       string     `json:"last_name" validate:"required,max=150"`
	Line1          string     `json:"line1" validate:"required,max=255"`
	City           string     `json:"city" validate:"required,max=100"`
	State          string     `json:"state" validate:"required,max=100"`
	Pincode        string     `json:"pincode" validate:"required,max=10"`
	DateOfBirth    *time.Time `json:"date_of_birth,omitempty"`
	Phone          string     `json:"phone" validate:"max=20"`
	MedicalHistory string     `json:"medical_history"`
}

// RegisterPatient creates the identity, address, and patient records in one
// atomic step. A duplicate username surfaces as a Conflict.
func (s *Service) RegisterPatient(ctx context.Context, in RegisterPatientInput) (*Patient, *Identity, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, nil, apperror.Wrap(apperror.Validation, "invalid registration", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, nil, err
	}

	ident := &Identity{
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
		Role:         RolePatient,
		IsActive:     true,
	}
	patient := &Patient{
		DateOfBirth:    in.DateOfBirth,
		Phone:          in.Phone,
		MedicalHistory: in.MedicalHistory,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
	}

	err = s.runTx(ctx, func(ctx context.Context) error {
		addr := &Address{Line1: in.Line1, City: in.City, State: in.State, Pincode: in.Pincode}
		if err := s.addresses.Create(ctx, addr); err != nil {
			return err
		}
		if err := s.identities.Create(ctx, ident); err != nil {
			return err
		}
		patient.IdentityID = ident.ID
		patient.AddressID = addr.ID
		return s.patients.Create(ctx, patient)
	})
	if err != nil {
		return nil, nil, err
	}
	return patient, ident, nil
}

type RegisterDoctorInput struct {
	Username        string  `json:"username" validate:"required,min=3,max=150"`
	Password        string  `json:"password" validate:"required,min=8"`
	Email           string  `json:"email" validate:"required,email"`
	FirstName       string  `json:"first_name" validate:"required,max=150"`
	LastName        string  `json:"last_name" validate:"required,max=150"`
	Line1           string  `json:"line1" validate:"required,max=255"`
	City            string  `json:"city" validate:"required,max=100"`
	State           string  `json:"state" validate:"required,max=100"`
	Pincode         string  `json:"pincode" validate:"required,max=10"`
	Specialization  *string `json:"specialization,omitempty" validate:"omitempty,max=100"`
	LicenseNumber   *string `json:"license_number,omitempty" validate:"omitempty,max=50"`
	ExperienceYears int     `json:"experience_years" validate:"min=0"`
	Phone           string  `json:"phone" validate:"max=20"`
}

// RegisterDoctor creates the identity, address, and doctor records atomically,
// then provisions default preferences for the new doctor.
func (s *Service) RegisterDoctor(ctx context.Context, in RegisterDoctorInput) (*Doctor, *Identity, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, nil, apperror.Wrap(apperror.Validation, "invalid registration", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, nil, err
	}

	ident := &Identity{
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
		Role:         RoleDoctor,
		IsStaff:      true,
		IsActive:     true,
	}
	doctor := &Doctor{
		Specialization:  in.Specialization,
		LicenseNumber:   in.LicenseNumber,
		ExperienceYears: in.ExperienceYears,
		Phone:           in.Phone,
		FirstName:       in.FirstName,
		LastName:        in.LastName,
	}

	err = s.runTx(ctx, func(ctx context.Context) error {
		addr := &Address{Line1: in.Line1, City: in.City, State: in.State, Pincode: in.Pincode}
		if err := s.addresses.Create(ctx, addr); err != nil {
			return err
		}
		if err := s.identities.Create(ctx, ident); err != nil {
			return err
		}
		doctor.IdentityID = ident.ID
		doctor.AddressID = addr.ID
		if err := s.doctors.Create(ctx, doctor); err != nil {
			return err
		}
		if s.provisioner != nil {
			return s.provisioner.EnsureDefaults(ctx, doctor.ID)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return doctor, ident, nil
}

type RegisterAdminInput struct {
	Username  string `json:"username" validate:"required,min=3,max=150"`
	Password  string `json:"password" validate:"required,min=8"`
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Phone     string `json:"phone" validate:"max=20"`
}

// RegisterAdmin creates a staff identity with the admin role.
func (s *Service) RegisterAdmin(ctx context.Context, in RegisterAdminInput) (*Admin, *Identity, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, nil, apperror.Wrap(apperror.Validation, "invalid registration", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, nil, err
	}

	ident := &Identity{
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
		Role:         RoleAdmin,
		IsStaff:      true,
		IsActive:     true,
	}
	admin := &Admin{
		Phone:     in.Phone,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}

	err = s.runTx(ctx, func(ctx context.Context) error {
		if err := s.identities.Create(ctx, ident); err != nil {
			return err
		}
		admin.IdentityID = ident.ID
		return s.admins.Create(ctx, admin)
	})
	if err != nil {
		return nil, nil, err
	}
	return admin, ident, nil
}

// -- Authentication --

// Authenticate verifies credentials and records the login time. A bad
// username and a bad password are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*Identity, error) {
	if username == "" || password == "" {
		return nil, apperror.New(apperror.Validation, "username and password are required")
	}

	ident, err := s.identities.GetByUsername(ctx, username)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.New(apperror.Authorization, "invalid credentials")
		}
		return nil, err
	}
	if !ident.IsActive {
		return nil, apperror.New(apperror.Authorization, "account is disabled")
	}
	if err := auth.CheckPassword(ident.PasswordHash, password); err != nil {
		return nil, apperror.New(apperror.Authorization, "invalid credentials")
	}

	if err := s.identities.UpdateLastLogin(ctx, ident.ID); err != nil {
		return nil, err
	}
	return ident, nil
}

// ChangePassword verifies the current password before setting a new one.
func (s *Service) ChangePassword(ctx context.Context, identityID uuid.UUID, current, next string) error {
	if len(next) < 8 {
		return apperror.New(apperror.Validation, "new password must be at least 8 characters")
	}

	ident, err := s.identities.GetByID(ctx, identityID)
	if err != nil {
		return err
	}
	if err := auth.CheckPassword(ident.PasswordHash, current); err != nil {
		return apperror.New(apperror.Authorization, "current password is incorrect")
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	return s.identities.UpdatePassword(ctx, identityID, hash)
}

// -- Profiles --

// Profile bundles an identity with its role-specific record.
type Profile struct {
	Identity *Identity `json:"identity"`
	Patient  *Patient  `json:"patient,omitempty"`
	Doctor   *Doctor   `json:"doctor,omitempty"`
	Admin    *Admin    `json:"admin,omitempty"`
	Address  *Address  `json:"address,omitempty"`
}

// GetProfile resolves the role-specific profile for an identity.
func (s *Service) GetProfile(ctx context.Context, identityID uuid.UUID) (*Profile, error) {
	ident, err := s.identities.GetByID(ctx, identityID)
	if err != nil {
		return nil, err
	}

	profile := &Profile{Identity: ident}
	switch ident.Role {
	case RolePatient:
		p, err := s.patients.GetByIdentityID(ctx, identityID)
		if err != nil {
			return nil, err
		}
		profile.Patient = p
		if addr, err := s.addresses.GetByID(ctx, p.AddressID); err == nil {
			profile.Address = addr
		}
	case RoleDoctor:
		d, err := s.doctors.GetByIdentityID(ctx, identityID)
		if err != nil {
			return nil, err
		}
		profile.Doctor = d
		if addr, err := s.addresses.GetByID(ctx, d.AddressID); err == nil {
			profile.Address = addr
		}
	case RoleAdmin:
		a, err := s.admins.GetByIdentityID(ctx, identityID)
		if err != nil {
			return nil, err
		}
		profile.Admin = a
	default:
		return nil, apperror.Newf(apperror.Validation, "unknown role %q", ident.Role)
	}
	return profile, nil
}

type UpdateProfileInput struct {
	Email          string     `json:"email" validate:"required,email"`
	FirstName      string     `json:"first_name" validate:"required,max=150"`
	LastName       string     `json:"last_name" validate:"required,max=150"`
	Phone          string     `json:"phone" validate:"max=20"`
	Line1          string     `json:"line1" validate:"max=255"`
	City           string     `json:"city" validate:"max=100"`
	State          string     `json:"state" validate:"max=100"`
	Pincode        string     `json:"pincode" validate:"max=10"`
	DateOfBirth    *time.Time `json:"date_of_birth,omitempty"`
	MedicalHistory *string    `json:"medical_history,omitempty"`

	Specialization  *string `json:"specialization,omitempty" validate:"omitempty,max=100"`
	LicenseNumber   *string `json:"license_number,omitempty" validate:"omitempty,max=50"`
	ExperienceYears *int    `json:"experience_years,omitempty" validate:"omitempty,min=0"`

	ProfileImageID *string `json:"profile_image_id,omitempty"`
}

// UpdateProfile applies identity and role-specific changes in one atomic step.
func (s *Service) UpdateProfile(ctx context.Context, identityID uuid.UUID, in UpdateProfileInput) (*Profile, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, apperror.Wrap(apperror.Validation, "invalid profile", err)
	}

	ident, err := s.identities.GetByID(ctx, identityID)
	if err != nil {
		return nil, err
	}

	ident.Email = in.Email
	ident.FirstName = in.FirstName
	ident.LastName = in.LastName

	err = s.runTx(ctx, func(ctx context.Context) error {
		if err := s.identities.Update(ctx, ident); err != nil {
			return err
		}

		switch ident.Role {
		case RolePatient:
			p, err := s.patients.GetByIdentityID(ctx, identityID)
			if err != nil {
				return err
			}
			p.Phone = in.Phone
			if in.DateOfBirth != nil {
				p.DateOfBirth = in.DateOfBirth
			}
			if in.MedicalHistory != nil {
				p.MedicalHistory = *in.MedicalHistory
			}
			if in.ProfileImageID != nil {
				p.ProfileImageID = in.ProfileImageID
			}
			if err := s.patients.Update(ctx, p); err != nil {
				return err
			}
			return s.updateAddress(ctx, p.AddressID, in)
		case RoleDoctor:
			d, err := s.doctors.GetByIdentityID(ctx, identityID)
			if err != nil {
				return err
			}
			d.Phone = in.Phone
			if in.Specialization != nil {
				d.Specialization = in.Specialization
			}
			if in.LicenseNumber != nil {
				d.LicenseNumber = in.LicenseNumber
			}
			if in.ExperienceYears != nil {
				d.ExperienceYears = *in.ExperienceYears
			}
			if in.ProfileImageID != nil {
				d.ProfileImageID = in.ProfileImageID
			}
			if err := s.doctors.Update(ctx, d); err != nil {
				return err
			}
			return s.updateAddress(ctx, d.AddressID, in)
		case RoleAdmin:
			a, err := s.admins.GetByIdentityID(ctx, identityID)
			if err != nil {
				return err
			}
			a.Phone = in.Phone
			if in.ProfileImageID != nil {
				a.ProfileImageID = in.ProfileImageID
			}
			return s.admins.Update(ctx, a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, identityID)
}

func (s *Service) updateAddress(ctx context.Context, addressID uuid.UUID, in UpdateProfileInput) error {
	if in.Line1 == "" && in.City == "" && in.State == "" && in.Pincode == "" {
		return nil
	}
	addr, err := s.addresses.GetByID(ctx, addressID)
	if err != nil {
		return err
	}
	if in.Line1 != "" {
		addr.Line1 = in.Line1
	}
	if in.City != "" {
		addr.City = in.City
	}
	if in.State != "" {
		addr.State = in.State
	}
	if in.Pincode != "" {
		addr.Pincode = in.Pincode
	}
	return s.addresses.Update(ctx, addr)
}

// DeleteAccount removes an identity along with its role profile and owned
// address in one atomic step. The profile row goes with the identity via the
// cascade; the address is owned, not referencing, so it is removed explicitly.
// Admin accounts carry no address.
func (s *Service) DeleteAccount(ctx context.Context, identityID uuid.UUID) error {
	ident, err := s.identities.GetByID(ctx, identityID)
	if err != nil {
		return err
	}

	var addressID uuid.UUID
	switch ident.Role {
	case RolePatient:
		p, err := s.patients.GetByIdentityID(ctx, identityID)
		if err != nil {
			return err
		}
		addressID = p.AddressID
	case RoleDoctor:
		d, err := s.doctors.GetByIdentityID(ctx, identityID)
		if err != nil {
			return err
		}
		addressID = d.AddressID
	}

	return s.runTx(ctx, func(ctx context.Context) error {
		if err := s.identities.Delete(ctx, identityID); err != nil {
			return err
		}
		if addressID != uuid.Nil {
			return s.addresses.Delete(ctx, addressID)
		}
		return nil
	})
}

// -- Lookups --

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) GetPatientByIdentity(ctx context.Context, identityID uuid.UUID) (*Patient, error) {
	return s.patients.GetByIdentityID(ctx, identityID)
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByID(ctx, id)
}

func (s *Service) GetDoctorByIdentity(ctx context.Context, identityID uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByIdentityID(ctx, identityID)
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}

func (s *Service) ListDoctors(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	return s.doctors.List(ctx, limit, offset)
}
