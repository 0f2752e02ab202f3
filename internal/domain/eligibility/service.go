package eligibility

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Record(ctx context.Context, v *Verification) error {
	if v.InsuranceID == uuid.Nil {
		return fmt.Errorf("insurance_id is required")
	}
	if v.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if v.ServiceDate.IsZero() {
		return fmt.Errorf("service_date is required")
	}
	if v.Status == "" {
		v.Status = StatusUnknown
	}
	if !validStatuses[v.Status] {
		return fmt.Errorf("invalid eligibility status: %s", v.Status)
	}
	return s.repo.Create(ctx, v)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Verification, error) {
	return s.repo.GetByID(ctx, id)
}

// Latest returns the most recent verification for an insurance and service
// date. Callers treat ErrNotFound as "never verified".
func (s *Service) Latest(ctx context.Context, insuranceID uuid.UUID, serviceDate time.Time) (*Verification, error) {
	return s.repo.GetLatest(ctx, insuranceID, serviceDate)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Verification, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}
