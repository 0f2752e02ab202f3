package payerrules

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

type PayerRepository interface {
	Create(ctx context.Context, p *Payer) error
	GetByID(ctx context.Context, id uuid.UUID) (*Payer, error)
	GetByCode(ctx context.Context, payerCode string) (*Payer, error)
	Update(ctx context.Context, p *Payer) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Payer, int, error)
}

type RuleRepository interface {
	Create(ctx context.Context, r *Rule) error
	GetByID(ctx context.Context, id uuid.UUID) (*Rule, error)
	Update(ctx context.Context, r *Rule) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByPayer(ctx context.Context, payerID uuid.UUID, limit, offset int) ([]*Rule, int, error)
	// ListActiveByPayer returns active rules ordered by priority descending.
	ListActiveByPayer(ctx context.Context, payerID uuid.UUID) ([]*Rule, error)
}
