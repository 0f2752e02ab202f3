package submission

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"

	"github.com/MSA-Soft/billwise-ai-nexus-sub002/internal/domain/claims"
	"github.com/MSA-Soft/billwise-ai-nexus-sub002/internal/domain/scrubbing"
)

// maxClaimNumberAttempts bounds retries when a generated claim number
// collides with an existing one.
const maxClaimNumberAttempts = 5

// Validator runs the pre-submission checks. Satisfied by scrubbing.Scrubber.
type Validator interface {
	Scrub(ctx context.Context, claim *claims.Claim) *scrubbing.Result
	CheckTimelyFiling(ctx context.Context, serviceDate time.Time, payerID *uuid.UUID) *scrubbing.TimelyFiling
}

// TxRunner executes fn inside one database transaction.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// BlockedError carries every finding that prevented submission. Nothing is
// persisted when it is returned.
type BlockedError struct {
	Messages   []string
	Validation *scrubbing.Result
}

func (e *BlockedError) Error() string {
	return strings.Join(e.Messages, ", ")
}

// SubmitResult is the outcome of a successful submission.
type SubmitResult struct {
	Claim      *claims.Claim           `json:"claim"`
	Validation *scrubbing.Result       `json:"validation"`
	Filing     *scrubbing.TimelyFiling `json:"timely_filing,omitempty"`
}

// Service gates claim submission behind scrubbing and timely filing, then
// persists the status change atomically.
type Service struct {
	repo         claims.Repository
	scrubber     Validator
	runTx        TxRunner
	prefix       string
	scrubTimeout time.Duration
}

func NewService(repo claims.Repository, scrubber Validator, runTx TxRunner, claimNumberPrefix string, scrubTimeout time.Duration) *Service {
	return &Service{repo: repo, scrubber: scrubber, runTx: runTx, prefix: claimNumberPrefix, scrubTimeout: scrubTimeout}
}

// scrubContext bounds the validation pipeline so one slow lookup cannot
// stall a submission indefinitely.
func (s *Service) scrubContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.scrubTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.scrubTimeout)
}

// Submit validates a draft claim and, if nothing blocks it, assigns a claim
// number and moves it to submitted with a status-history entry in one
// transaction. A blocked claim leaves the store untouched and returns a
// BlockedError listing every blocking finding.
func (s *Service) Submit(ctx context.Context, claimID uuid.UUID, userID string) (*SubmitResult, error) {
	claim, err := s.loadFull(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim.Status != claims.StatusDraft {
		return nil, fmt.Errorf("claim %s is %s, only draft claims can be submitted", claim.ID, claim.Status)
	}

	scrubCtx, cancel := s.scrubContext(ctx)
	defer cancel()
	result := s.scrubber.Scrub(scrubCtx, claim)
	var filing *scrubbing.TimelyFiling
	if claim.ServiceStart != nil {
		filing = s.scrubber.CheckTimelyFiling(scrubCtx, *claim.ServiceStart, claim.PayerID)
	}

	var blocking []string
	for _, e := range result.Errors {
		if e.Severity == scrubbing.SeverityCritical {
			blocking = append(blocking, e.Message)
		}
	}
	if filing != nil && filing.PastDeadline {
		blocking = append(blocking, fmt.Sprintf("timely filing deadline passed on %s", filing.Deadline.Format("2006-01-02")))
	}
	if len(blocking) > 0 {
		return nil, &BlockedError{Messages: blocking, Validation: result}
	}

	if err := s.persistSubmission(ctx, claim, userID); err != nil {
		return nil, err
	}
	return &SubmitResult{Claim: claim, Validation: result, Filing: filing}, nil
}

// Scrub runs the validation pipeline without submitting.
func (s *Service) Scrub(ctx context.Context, claimID uuid.UUID) (*scrubbing.Result, error) {
	claim, err := s.loadFull(ctx, claimID)
	if err != nil {
		return nil, err
	}
	scrubCtx, cancel := s.scrubContext(ctx)
	defer cancel()
	return s.scrubber.Scrub(scrubCtx, claim), nil
}

// TimelyFiling reports the filing window for a claim's service date.
func (s *Service) TimelyFiling(ctx context.Context, claimID uuid.UUID) (*scrubbing.TimelyFiling, error) {
	claim, err := s.repo.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim.ServiceStart == nil {
		return nil, fmt.Errorf("claim %s has no service date", claim.ID)
	}
	return s.scrubber.CheckTimelyFiling(ctx, *claim.ServiceStart, claim.PayerID), nil
}

func (s *Service) loadFull(ctx context.Context, claimID uuid.UUID) (*claims.Claim, error) {
	claim, err := s.repo.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim.Procedures, err = s.repo.GetProcedures(ctx, claimID); err != nil {
		return nil, err
	}
	if claim.Diagnoses, err = s.repo.GetDiagnoses(ctx, claimID); err != nil {
		return nil, err
	}
	return claim, nil
}

func (s *Service) persistSubmission(ctx context.Context, claim *claims.Claim, userID string) error {
	from := claim.Status
	preAssigned := claim.ClaimNumber != nil && *claim.ClaimNumber != ""
	for attempt := 0; attempt < maxClaimNumberAttempts; attempt++ {
		if !preAssigned {
			number := s.generateClaimNumber(time.Now())
			claim.ClaimNumber = &number
		}
		claim.Status = claims.StatusSubmitted

		err := s.runTx(ctx, func(txCtx context.Context) error {
			if err := s.repo.Update(txCtx, claim); err != nil {
				return err
			}
			history := &claims.StatusHistory{
				ClaimID:    claim.ID,
				FromStatus: &from,
				ToStatus:   claims.StatusSubmitted,
			}
			if userID != "" {
				history.ChangedBy = &userID
			}
			return s.repo.AddStatusHistory(txCtx, history)
		})
		if err == nil {
			return nil
		}
		if isUniqueViolation(err) {
			claim.Status = from
			if preAssigned {
				return fmt.Errorf("claim number %s is already in use", *claim.ClaimNumber)
			}
			log.Warn().Str("claim_number", *claim.ClaimNumber).Msg("claim number collision, regenerating")
			continue
		}
		if !preAssigned {
			claim.ClaimNumber = nil
		}
		claim.Status = from
		return err
	}
	claim.ClaimNumber = nil
	claim.Status = from
	return fmt.Errorf("could not allocate a unique claim number after %d attempts", maxClaimNumberAttempts)
}

// generateClaimNumber returns PREFIX-YYYYMMDD-NNNN with a random suffix.
func (s *Service) generateClaimNumber(now time.Time) string {
	return fmt.Sprintf("%s-%s-%04d", s.prefix, now.Format("20060102"), rand.Intn(10000))
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
