package claims

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// TxRunner executes fn inside one database transaction. The repositories
// pick the transaction up through the context.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	repo  Repository
	runTx TxRunner
}

func NewService(repo Repository, runTx TxRunner) *Service {
	if runTx == nil {
		runTx = func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		}
	}
	return &Service{repo: repo, runTx: runTx}
}

var validStatuses = map[string]bool{
	StatusDraft: true, StatusSubmitted: true, StatusProcessing: true,
	StatusPaid: true, StatusDenied: true,
}

// Create saves a new draft claim. Only structural checks run here; the
// full validation pipeline runs at scrub/submit time.
func (s *Service) Create(ctx context.Context, c *Claim) error {
	if c.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if c.Status == "" {
		c.Status = StatusDraft
	}
	if c.Status != StatusDraft {
		return fmt.Errorf("new claims must start in draft status")
	}
	return s.runTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, c); err != nil {
			return fmt.Errorf("creating claim: %w", err)
		}
		for _, p := range c.Procedures {
			p.ClaimID = c.ID
			if err := s.repo.AddProcedure(txCtx, p); err != nil {
				return fmt.Errorf("adding procedure: %w", err)
			}
		}
		for _, d := range c.Diagnoses {
			d.ClaimID = c.ID
			if err := s.repo.AddDiagnosis(txCtx, d); err != nil {
				return fmt.Errorf("adding diagnosis: %w", err)
			}
		}
		return nil
	})
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Claim, error) {
	return s.repo.GetByID(ctx, id)
}

// GetFull loads a claim with its procedures and diagnoses attached.
func (s *Service) GetFull(ctx context.Context, id uuid.UUID) (*Claim, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Procedures, err = s.repo.GetProcedures(ctx, id); err != nil {
		return nil, fmt.Errorf("loading procedures: %w", err)
	}
	if c.Diagnoses, err = s.repo.GetDiagnoses(ctx, id); err != nil {
		return nil, fmt.Errorf("loading diagnoses: %w", err)
	}
	return c, nil
}

func (s *Service) Update(ctx context.Context, c *Claim) error {
	existing, err := s.repo.GetByID(ctx, c.ID)
	if err != nil {
		return err
	}
	if existing.Status != StatusDraft {
		return fmt.Errorf("only draft claims can be edited")
	}
	c.Status = existing.Status
	return s.repo.Update(ctx, c)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.Status != StatusDraft {
		return fmt.Errorf("only draft claims can be deleted")
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Claim, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*Claim, int, error) {
	if !validStatuses[status] {
		return nil, 0, fmt.Errorf("invalid claim status: %s", status)
	}
	return s.repo.ListByStatus(ctx, status, limit, offset)
}

// UpdateStatus moves a claim along its lifecycle and appends a history row.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, toStatus, changedBy string, note *string) error {
	if !validStatuses[toStatus] {
		return fmt.Errorf("invalid claim status: %s", toStatus)
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !CanTransition(existing.Status, toStatus) {
		return fmt.Errorf("cannot transition claim from %s to %s", existing.Status, toStatus)
	}
	from := existing.Status
	h := &StatusHistory{
		ClaimID:    id,
		FromStatus: &from,
		ToStatus:   toStatus,
		Note:       note,
	}
	if changedBy != "" {
		h.ChangedBy = &changedBy
	}
	return s.runTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.UpdateStatus(txCtx, id, toStatus); err != nil {
			return fmt.Errorf("updating status: %w", err)
		}
		if err := s.repo.AddStatusHistory(txCtx, h); err != nil {
			return fmt.Errorf("recording status history: %w", err)
		}
		return nil
	})
}

func (s *Service) AddProcedure(ctx context.Context, p *Procedure) error {
	if p.ClaimID == uuid.Nil {
		return fmt.Errorf("claim_id is required")
	}
	if p.CPTCode == "" {
		return fmt.Errorf("cpt_code is required")
	}
	if len(p.Modifiers) > 4 {
		return fmt.Errorf("at most 4 modifiers are allowed")
	}
	if p.Quantity <= 0 {
		p.Quantity = 1
	}
	return s.repo.AddProcedure(ctx, p)
}

func (s *Service) GetProcedures(ctx context.Context, claimID uuid.UUID) ([]*Procedure, error) {
	return s.repo.GetProcedures(ctx, claimID)
}

func (s *Service) AddDiagnosis(ctx context.Context, d *Diagnosis) error {
	if d.ClaimID == uuid.Nil {
		return fmt.Errorf("claim_id is required")
	}
	if d.ICD10Code == "" {
		return fmt.Errorf("icd10_code is required")
	}
	return s.repo.AddDiagnosis(ctx, d)
}

func (s *Service) GetDiagnoses(ctx context.Context, claimID uuid.UUID) ([]*Diagnosis, error) {
	return s.repo.GetDiagnoses(ctx, claimID)
}

func (s *Service) GetStatusHistory(ctx context.Context, claimID uuid.UUID) ([]*StatusHistory, error) {
	return s.repo.GetStatusHistory(ctx, claimID)
}
