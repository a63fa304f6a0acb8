package directory

import (
	"context"

	"github.com/google/uuid"
)

type IdentityRepository interface {
	Create(ctx context.Context, ident *Identity) error
	GetByID(ctx context.Context, id uuid.UUID) (*Identity, error)
	GetByUsername(ctx context.Context, username string) (*Identity, error)
	Update(ctx context.Context, ident *Identity) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type AddressRepository interface {
	Create(ctx context.Context, a *Address) error
	GetByID(ctx context.Context, id uuid.UUID) (*Address, error)
	Update(ctx context.Context, a *Address) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByIdentityID(ctx context.Context, identityID uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
}

type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetByIdentityID(ctx context.Context, identityID uuid.UUID) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	List(ctx context.Context, limit, offset int) ([]*Doctor, int, error)
}

type AdminRepository interface {
	Create(ctx context.Context, a *Admin) error
	GetByIdentityID(ctx context.Context, identityID uuid.UUID) (*Admin, error)
	Update(ctx context.Context, a *Admin) error
}
