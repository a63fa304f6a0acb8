package directory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Identity roles.
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"
)

// Identity maps to the identity table. Every directory entry links one-to-one
// to an identity, which owns the credentials and the role tag.
type Identity struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Email        string     `db:"email" json:"email"`
	FirstName    string     `db:"first_name" json:"first_name"`
	LastName     string     `db:"last_name" json:"last_name"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         string     `db:"role" json:"role"`
	IsStaff      bool       `db:"is_staff" json:"is_staff"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	DateJoined   time.Time  `db:"date_joined" json:"date_joined"`
}

// FullName returns "First Last".
func (i *Identity) FullName() string {
	return fmt.Sprintf("%s %s", i.FirstName, i.LastName)
}

// Address maps to the address table.
type Address struct {
	ID      uuid.UUID `db:"id" json:"id"`
	Line1   string    `db:"line1" json:"line1"`
	City    string    `db:"city" json:"city"`
	State   string    `db:"state" json:"state"`
	Pincode string    `db:"pincode" json:"pincode"`
}

// String renders the address the way it appears on printed summaries.
func (a *Address) String() string {
	return fmt.Sprintf("%s, %s, %s - %s", a.Line1, a.City, a.State, a.Pincode)
}

// Patient maps to the patient table. FirstName and LastName are joined in
// from the linked identity for display.
type Patient struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	IdentityID     uuid.UUID  `db:"identity_id" json:"identity_id"`
	AddressID      uuid.UUID  `db:"address_id" json:"address_id"`
	ProfileImageID *string    `db:"profile_image_id" json:"profile_image_id,omitempty"`
	DateOfBirth    *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Phone          string     `db:"phone" json:"phone"`
	MedicalHistory string     `db:"medical_history" json:"medical_history"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`

	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
}

// FullName returns "First Last".
func (p *Patient) FullName() string {
	return fmt.Sprintf("%s %s", p.FirstName, p.LastName)
}

// Doctor maps to the doctor table.
type Doctor struct {
	ID              uuid.UUID `db:"id" json:"id"`
	IdentityID      uuid.UUID `db:"identity_id" json:"identity_id"`
	AddressID       uuid.UUID `db:"address_id" json:"address_id"`
	ProfileImageID  *string   `db:"profile_image_id" json:"profile_image_id,omitempty"`
	Specialization  *string   `db:"specialization" json:"specialization,omitempty"`
	LicenseNumber   *string   `db:"license_number" json:"license_number,omitempty"`
	ExperienceYears int       `db:"experience_years" json:"experience_years"`
	Phone           string    `db:"phone" json:"phone"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`

	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
}

// FullName returns "Dr. First Last".
func (d *Doctor) FullName() string {
	return fmt.Sprintf("Dr. %s %s", d.FirstName, d.LastName)
}

// Admin maps to the admin table.
type Admin struct {
	ID             uuid.UUID `db:"id" json:"id"`
	IdentityID     uuid.UUID `db:"identity_id" json:"identity_id"`
	ProfileImageID *string   `db:"profile_image_id" json:"profile_image_id,omitempty"`
	Phone          string    `db:"phone" json:"phone"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`

	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
}

// ValidRole reports whether role is one of the known role tags.
func ValidRole(role string) bool {
	switch role {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}
