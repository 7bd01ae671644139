package directory

import (
	"context"
	"errors"
)

// ErrDoctorNotFound is returned when a doctor id is absent from the registry.
var ErrDoctorNotFound = errors.New("doctor not found")

// ErrDoctorExists is returned when adding a doctor whose id is already taken.
var ErrDoctorExists = errors.New("doctor already exists")

// Repository is the doctor registry contract. Implementations must be safe
// for concurrent use.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Doctor, error)
	List(ctx context.Context) []*Doctor
	BySpecialization(ctx context.Context, spec Specialization) []*Doctor
	Search(ctx context.Context, query string) []*Doctor
	ByMinRating(ctx context.Context, min float64) []*Doctor
	Add(ctx context.Context, d *Doctor) error
	Update(ctx context.Context, d *Doctor) error
	Delete(ctx context.Context, id string) error
}
