package denial

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/MSA-Soft/billwise-ai-nexus-sub002/internal/domain/claims"
	"github.com/MSA-Soft/billwise-ai-nexus-sub002/internal/domain/payerrules"
	"github.com/MSA-Soft/billwise-ai-nexus-sub002/internal/domain/scrubbing"
	"github.com/MSA-Soft/billwise-ai-nexus-sub002/pkg/pagination"
)

// Estimate tiers, from the blended probability.
const (
	tierCritical = 75
	tierHigh     = 50
	tierMedium   = 25
)

// ClaimSource resolves claims when recording a denial.
type ClaimSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*claims.Claim, error)
}

// PayerSource reads payer approval history for the estimator.
type PayerSource interface {
	GetPayer(ctx context.Context, id uuid.UUID) (*payerrules.Payer, error)
}

type Service struct {
	repo   Repository
	claims ClaimSource
	payers PayerSource
}

func NewService(repo Repository, claims ClaimSource, payers PayerSource) *Service {
	return &Service{repo: repo, claims: claims, payers: payers}
}

// Record stores a denial for a claim. The claim must be in denied status.
func (s *Service) Record(ctx context.Context, rec *Record) (*Record, error) {
	if rec.ClaimID == uuid.Nil {
		return nil, fmt.Errorf("claim_id is required")
	}
	if rec.ReasonCode == "" {
		return nil, fmt.Errorf("reason_code is required")
	}
	if rec.AppealStatus == "" {
		rec.AppealStatus = AppealNone
	}
	if !IsValidAppealStatus(rec.AppealStatus) {
		return nil, fmt.Errorf("invalid appeal status: %s", rec.AppealStatus)
	}
	claim, err := s.claims.GetByID(ctx, rec.ClaimID)
	if err != nil {
		return nil, err
	}
	if claim.Status != claims.StatusDenied {
		return nil, fmt.Errorf("claim %s is %s, only denied claims can carry a denial record", claim.ID, claim.Status)
	}
	if rec.PayerID == nil {
		rec.PayerID = claim.PayerID
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateAppeal moves a denial's appeal to a new status.
func (s *Service) UpdateAppeal(ctx context.Context, id uuid.UUID, status string) (*Record, error) {
	if !IsValidAppealStatus(status) {
		return nil, fmt.Errorf("invalid appeal status: %s", status)
	}
	if err := s.repo.UpdateAppealStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByClaim(ctx context.Context, claimID uuid.UUID) ([]*Record, error) {
	return s.repo.ListByClaim(ctx, claimID)
}

func (s *Service) ListByPayer(ctx context.Context, payerID uuid.UUID, p pagination.Params) ([]*Record, int, error) {
	return s.repo.ListByPayer(ctx, payerID, p)
}

// Estimate forecasts denial probability for scrubbing findings, blended
// with the payer's historical approval rate when one is on file.
func (s *Service) Estimate(ctx context.Context, result *scrubbing.Result, payerID *uuid.UUID) Estimate {
	var payer *payerrules.Payer
	if s.payers != nil && payerID != nil {
		p, err := s.payers.GetPayer(ctx, *payerID)
		if err != nil {
			log.Warn().Err(err).Str("payer_id", payerID.String()).Msg("denial estimate: payer lookup failed, using scrub estimate only")
		} else {
			payer = p
		}
	}
	return EstimateFromScrub(result, payer)
}

// EstimateFromScrub blends the scrub-derived probability with payer
// approval history: 70% findings, 30% observed denial rate.
func EstimateFromScrub(result *scrubbing.Result, payer *payerrules.Payer) Estimate {
	p := float64(result.DenialProbability)
	if payer != nil && payer.ApprovalRate != nil {
		p = 0.7*p + 0.3*100*(1-*payer.ApprovalRate)
	}
	prob := int(math.Round(p))
	if prob < 0 {
		prob = 0
	}
	if prob > 100 {
		prob = 100
	}

	est := Estimate{Probability: prob}
	switch {
	case prob >= tierCritical:
		est.Tier = scrubbing.RiskCritical
	case prob >= tierHigh:
		est.Tier = scrubbing.RiskHigh
	case prob >= tierMedium:
		est.Tier = scrubbing.RiskMedium
	default:
		est.Tier = scrubbing.RiskLow
	}
	return est
}
