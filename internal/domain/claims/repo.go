package claims

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a claim or child record does not exist.
var ErrNotFound = errors.New("not found")

type Repository interface {
	Create(ctx context.Context, c *Claim) error
	GetByID(ctx context.Context, id uuid.UUID) (*Claim, error)
	GetByClaimNumber(ctx context.Context, claimNumber string) (*Claim, error)
	Update(ctx context.Context, c *Claim) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Claim, int, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]*Claim, int, error)
	// FindOverlapping returns submitted/processing/paid claims for the same
	// patient whose service period covers the given date, excluding excludeID.
	FindOverlapping(ctx context.Context, patientID uuid.UUID, serviceDate time.Time, excludeID uuid.UUID) ([]*Claim, error)
	// Procedures
	AddProcedure(ctx context.Context, p *Procedure) error
	GetProcedures(ctx context.Context, claimID uuid.UUID) ([]*Procedure, error)
	// Diagnoses
	AddDiagnosis(ctx context.Context, d *Diagnosis) error
	GetDiagnoses(ctx context.Context, claimID uuid.UUID) ([]*Diagnosis, error)
	// Status history (append-only)
	AddStatusHistory(ctx context.Context, h *StatusHistory) error
	GetStatusHistory(ctx context.Context, claimID uuid.UUID) ([]*StatusHistory, error)
}
