package prescription

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/clinichq/clinic/pkg/apperror"
)

type Service struct {
	repo     Repository
	validate *validator.Validate
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

// Actor identifies who is reading the ledger.
type Actor struct {
	Role      string
	DoctorID  uuid.UUID
	PatientID uuid.UUID
}

func (a Actor) isAdmin() bool { return a.Role == "admin" }

type IssueInput struct {
	PatientID      uuid.UUID `json:"patient_id" validate:"required"`
	MedicationName string    `json:"medication_name" validate:"required"`
	Dosage         string    `json:"dosage" validate:"required"`
	Frequency      string    `json:"frequency" validate:"required"`
	Duration       string    `json:"duration" validate:"required"`
	Instructions   string    `json:"instructions"`
}

// Issue writes a prescription for one of the doctor's own patients. A doctor
// may only prescribe to patients who have an appointment with them.
func (s *Service) Issue(ctx context.Context, doctorID uuid.UUID, in IssueInput) (*Prescription, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, apperror.Wrap(apperror.Validation, "invalid prescription", err)
	}

	eligible, err := s.repo.IsPatientOfDoctor(ctx, doctorID, in.PatientID)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, apperror.New(apperror.Authorization,
			"patient has no appointment with this doctor")
	}

	p := &Prescription{
		DoctorID:       doctorID,
		PatientID:      in.PatientID,
		MedicationName: in.MedicationName,
		Dosage:         in.Dosage,
		Frequency:      in.Frequency,
		Duration:       in.Duration,
		Instructions:   in.Instructions,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*Prescription, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case actor.isAdmin():
	case actor.DoctorID != uuid.Nil && actor.DoctorID == p.DoctorID:
	case actor.PatientID != uuid.Nil && actor.PatientID == p.PatientID:
	default:
		return nil, apperror.New(apperror.Authorization, "no access to this prescription")
	}
	return p, nil
}

// List returns prescriptions visible to the actor, newest first. Doctors may
// narrow their history with a search term; patients always see their own.
func (s *Service) List(ctx context.Context, actor Actor, search string, limit, offset int) ([]*Prescription, int, error) {
	switch {
	case actor.isAdmin():
		return s.repo.ListAll(ctx, limit, offset)
	case actor.DoctorID != uuid.Nil:
		return s.repo.ListByDoctor(ctx, actor.DoctorID, search, limit, offset)
	case actor.PatientID != uuid.Nil:
		return s.repo.ListByPatient(ctx, actor.PatientID, limit, offset)
	default:
		return nil, 0, apperror.New(apperror.Authorization, "no prescription access")
	}
}

// EligiblePatients lists the patients the doctor may prescribe to.
func (s *Service) EligiblePatients(ctx context.Context, doctorID uuid.UUID) ([]*EligiblePatient, error) {
	return s.repo.ListEligiblePatients(ctx, doctorID)
}
