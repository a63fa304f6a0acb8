package prescription

import (
	"time"

	"github.com/google/uuid"
)

// Prescription maps to the prescription table. Prescriptions are immutable
// once issued; corrections are made by issuing a new one.
type Prescription struct {
	ID             uuid.UUID `db:"id" json:"id"`
	DoctorID       uuid.UUID `db:"doctor_id" json:"doctor_id"`
	PatientID      uuid.UUID `db:"patient_id" json:"patient_id"`
	MedicationName string    `db:"medication_name" json:"medication_name"`
	Dosage         string    `db:"dosage" json:"dosage"`
	Frequency      string    `db:"frequency" json:"frequency"`
	Duration       string    `db:"duration" json:"duration"`
	Instructions   string    `db:"instructions" json:"instructions"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`

	PatientName string `db:"patient_name" json:"patient_name,omitempty"`
	DoctorName  string `db:"doctor_name" json:"doctor_name,omitempty"`
}

// EligiblePatient is a patient the doctor may prescribe to, with just enough
// directory detail to pick from a list.
type EligiblePatient struct {
	ID        uuid.UUID `db:"id" json:"id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Email     string    `db:"email" json:"email"`
	LastVisit time.Time `db:"last_visit" json:"last_visit"`
}
