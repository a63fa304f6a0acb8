package prescription

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	// ListByDoctor returns the doctor's prescriptions newest first. A
	// non-empty search matches medication names and patient names.
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, search string, limit, offset int) ([]*Prescription, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error)
	ListAll(ctx context.Context, limit, offset int) ([]*Prescription, int, error)

	// IsPatientOfDoctor reports whether the patient shares at least one
	// appointment with the doctor.
	IsPatientOfDoctor(ctx context.Context, doctorID, patientID uuid.UUID) (bool, error)
	ListEligiblePatients(ctx context.Context, doctorID uuid.UUID) ([]*EligiblePatient, error)
}
