package authorization

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req *Request) error {
	if req.AuthorizationNumber == "" {
		return fmt.Errorf("authorization_number is required")
	}
	if req.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if len(req.CPTCodes) == 0 {
		return fmt.Errorf("at least one CPT code is required")
	}
	if req.Status == "" {
		req.Status = StatusPending
	}
	if !validStatuses[req.Status] {
		return fmt.Errorf("invalid authorization status: %s", req.Status)
	}
	return s.repo.Create(ctx, req)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Request, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByNumber(ctx context.Context, authorizationNumber string) (*Request, error) {
	return s.repo.GetByNumber(ctx, authorizationNumber)
}

func (s *Service) Approve(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, StatusApproved)
}

func (s *Service) Deny(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, StatusDenied)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, status string) error {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if req.Status != StatusPending {
		return fmt.Errorf("authorization is %s, only pending requests can be decided", req.Status)
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Request, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}
