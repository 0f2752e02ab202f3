package eligibility

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

type Repository interface {
	Create(ctx context.Context, v *Verification) error
	GetByID(ctx context.Context, id uuid.UUID) (*Verification, error)
	// GetLatest returns the most recent verification for an insurance and
	// service date, or ErrNotFound when none exists.
	GetLatest(ctx context.Context, insuranceID uuid.UUID, serviceDate time.Time) (*Verification, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Verification, int, error)
}
