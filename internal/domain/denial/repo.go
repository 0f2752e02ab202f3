package denial

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/MSA-Soft/billwise-ai-nexus-sub002/pkg/pagination"
)

var ErrNotFound = errors.New("denial record not found")

// Repository is the persistence boundary for denial records.
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	UpdateAppealStatus(ctx context.Context, id uuid.UUID, status string) error
	ListByClaim(ctx context.Context, claimID uuid.UUID) ([]*Record, error)
	ListByPayer(ctx context.Context, payerID uuid.UUID, p pagination.Params) ([]*Record, int, error)
}
