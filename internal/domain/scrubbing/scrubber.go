package scrubbing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/MSA-Soft/billwise-ai-nexus-sub002/internal/domain/authorization"
	"github.com/MSA-Soft/billwise-ai-nexus-sub002/internal/domain/claims"
	"github.com/MSA-Soft/billwise-ai-nexus-sub002/internal/domain/eligibility"
	"github.com/MSA-Soft/billwise-ai-nexus-sub002/internal/domain/payerrules"
)

// moneyTolerance is the allowed rounding slack when reconciling totals.
const moneyTolerance = 0.01

// AuthorizationSource resolves authorization numbers during scrubbing.
type AuthorizationSource interface {
	GetByNumber(ctx context.Context, authorizationNumber string) (*authorization.Request, error)
}

// EligibilitySource resolves the latest eligibility verification for an
// insurance and service date.
type EligibilitySource interface {
	Latest(ctx context.Context, insuranceID uuid.UUID, serviceDate time.Time) (*eligibility.Verification, error)
}

// DuplicateSource finds competing claims for the same patient and date.
type DuplicateSource interface {
	FindOverlapping(ctx context.Context, patientID uuid.UUID, serviceDate time.Time, excludeID uuid.UUID) ([]*claims.Claim, error)
}

// PayerSource resolves payer configuration and evaluates payer rules.
type PayerSource interface {
	GetPayer(ctx context.Context, id uuid.UUID) (*payerrules.Payer, error)
	Evaluate(ctx context.Context, payerID uuid.UUID, vars payerrules.Vars) (*payerrules.Evaluation, error)
}

// Scrubber runs the pre-submission validation pipeline. A nil source
// disables the checks that depend on it; every lookup failure is logged
// and the check skipped so one dependency outage cannot block scrubbing.
type Scrubber struct {
	auths      AuthorizationSource
	elig       EligibilitySource
	duplicates DuplicateSource
	payers     PayerSource
}

func NewScrubber(auths AuthorizationSource, elig EligibilitySource, duplicates DuplicateSource, payers PayerSource) *Scrubber {
	return &Scrubber{auths: auths, elig: elig, duplicates: duplicates, payers: payers}
}

// collector accumulates findings from concurrently running check groups.
type collector struct {
	mu           sync.Mutex
	errors       []ValidationError
	warnings     []ValidationWarning
	suggestions  []string
	requirements []string
	duplicateOf  *string
}

func (c *collector) addError(e ValidationError) {
	c.mu.Lock()
	c.errors = append(c.errors, e)
	c.mu.Unlock()
}

func (c *collector) addWarning(w ValidationWarning) {
	c.mu.Lock()
	c.warnings = append(c.warnings, w)
	c.mu.Unlock()
}

func (c *collector) addSuggestions(items []string) {
	c.mu.Lock()
	c.suggestions = append(c.suggestions, items...)
	c.mu.Unlock()
}

func (c *collector) addRequirements(items []string) {
	c.mu.Lock()
	c.requirements = append(c.requirements, items...)
	c.mu.Unlock()
}

func (c *collector) setDuplicate(claimNumber string) {
	c.mu.Lock()
	if c.duplicateOf == nil {
		c.duplicateOf = &claimNumber
	}
	c.mu.Unlock()
}

// Scrub validates a claim and returns the full finding set with score,
// risk level, and denial probability. Procedures and diagnoses must be
// populated on the claim. Scrubbing performs no writes.
func (s *Scrubber) Scrub(ctx context.Context, claim *claims.Claim) *Result {
	col := &collector{}

	checks := []func(context.Context, *claims.Claim, *collector){
		s.checkRequiredFields,
		s.checkCodes,
		s.checkDates,
		s.checkFinancials,
		s.checkAuthorization,
		s.checkEligibility,
		s.checkDuplicates,
		s.checkPayerRules,
		s.checkCodeCompatibility,
		s.checkModifiers,
	}

	var wg sync.WaitGroup
	for _, check := range checks {
		wg.Add(1)
		go func(fn func(context.Context, *claims.Claim, *collector)) {
			defer wg.Done()
			fn(ctx, claim, col)
		}(check)
	}
	wg.Wait()

	result := &Result{
		Errors:       col.errors,
		Warnings:     col.warnings,
		Suggestions:  col.suggestions,
		Requirements: col.requirements,
		DuplicateOf:  col.duplicateOf,
	}
	result.finalize()
	return result
}

// -- Check group 1: required fields --

func (s *Scrubber) checkRequiredFields(_ context.Context, claim *claims.Claim, col *collector) {
	if claim.PatientID == uuid.Nil {
		col.addError(ValidationError{
			Field: "patient_id", Code: "REQ-001", Severity: SeverityCritical, Fixable: true,
			Message: "Patient is required; select the patient before submitting",
		})
	}
	if claim.RenderingProviderID == nil {
		col.addError(ValidationError{
			Field: "rendering_provider_id", Code: "REQ-002", Severity: SeverityCritical, Fixable: true,
			Message: "Rendering provider is required; assign the treating provider",
		})
	}
	if claim.ServiceStart == nil {
		col.addError(ValidationError{
			Field: "service_start", Code: "REQ-003", Severity: SeverityCritical, Fixable: true,
			Message: "Service date is required; enter the date of service",
		})
	}
	if claim.PrimaryInsuranceID == nil {
		col.addError(ValidationError{
			Field: "primary_insurance_id", Code: "REQ-004", Severity: SeverityCritical, Fixable: true,
			Message: "Primary insurance is required; attach the patient's primary coverage",
		})
	}
	if len(claim.Procedures) == 0 {
		col.addError(ValidationError{
			Field: "procedures", Code: "REQ-005", Severity: SeverityCritical, Fixable: true,
			Message: "At least one procedure is required; add the billed services",
		})
	}
	if len(claim.Diagnoses) == 0 {
		col.addError(ValidationError{
			Field: "diagnoses", Code: "REQ-006", Severity: SeverityCritical, Fixable: true,
			Message: "At least one diagnosis is required; add the supporting diagnosis",
		})
	} else {
		primaries := 0
		for _, d := range claim.Diagnoses {
			if d.IsPrimary {
				primaries++
			}
		}
		if primaries != 1 {
			col.addError(ValidationError{
				Field: "diagnoses", Code: "REQ-007", Severity: SeverityCritical, Fixable: true,
				Message: "Exactly one diagnosis must be marked primary",
			})
		}
	}
	if claim.PlaceOfService == nil || *claim.PlaceOfService == "" {
		col.addError(ValidationError{
			Field: "place_of_service", Code: "REQ-008", Severity: SeverityCritical, Fixable: true,
			Message: "Place of service is required; set the service location code",
		})
	}
}

// -- Check group 2: code validity --

func (s *Scrubber) checkCodes(_ context.Context, claim *claims.Claim, col *collector) {
	for i, p := range claim.Procedures {
		field := fmt.Sprintf("procedures[%d].cpt_code", i)
		if p.CPTCode == "" {
			col.addError(ValidationError{
				Field: field, Code: "CODE-001", Severity: SeverityCritical, Fixable: true,
				Message: "Procedure is missing its CPT code",
			})
			continue
		}
		check := ValidateCode(p.CPTCode, FamilyCPT)
		if !check.Valid {
			col.addError(ValidationError{
				Field: field, Code: "CODE-002", Severity: SeverityError, Fixable: true,
				Message: fmt.Sprintf("CPT code %q is malformed; expected exactly 5 digits", p.CPTCode),
			})
		}
	}
	for i, d := range claim.Diagnoses {
		field := fmt.Sprintf("diagnoses[%d].icd10_code", i)
		if d.ICD10Code == "" {
			col.addError(ValidationError{
				Field: field, Code: "CODE-003", Severity: SeverityCritical, Fixable: true,
				Message: "Diagnosis is missing its ICD-10 code",
			})
			continue
		}
		check := ValidateCode(d.ICD10Code, FamilyICD10)
		if !check.Valid {
			col.addError(ValidationError{
				Field: field, Code: "CODE-004", Severity: SeverityError, Fixable: true,
				Message: fmt.Sprintf("ICD-10 code %q is malformed", d.ICD10Code),
			})
			continue
		}
		for _, complaint := range check.Complaints {
			col.addWarning(ValidationWarning{
				Field: field, Code: "CODE-005", Impact: ImpactLow,
				Message:        fmt.Sprintf("ICD-10 code %q: %s", d.ICD10Code, complaint),
				Recommendation: "Verify the code against the current ICD-10 code set",
			})
		}
	}
}

// -- Check group 3: dates --

func (s *Scrubber) checkDates(_ context.Context, claim *claims.Claim, col *collector) {
	if claim.ServiceStart == nil {
		return
	}
	now := time.Now()
	start := *claim.ServiceStart

	if start.After(now) {
		col.addError(ValidationError{
			Field: "service_start", Code: "DATE-001", Severity: SeverityError, Fixable: true,
			Message: "Service date cannot be in the future",
		})
	}
	if start.Before(now.AddDate(-1, 0, 0)) {
		col.addWarning(ValidationWarning{
			Field: "service_start", Code: "DATE-002", Impact: ImpactHigh,
			Message:        "Service date is more than 1 year old",
			Recommendation: "Check the payer's timely filing limit before submitting",
		})
	}
	if claim.ServiceEnd != nil {
		end := *claim.ServiceEnd
		if end.Before(start) {
			col.addError(ValidationError{
				Field: "service_end", Code: "DATE-003", Severity: SeverityError, Fixable: true,
				Message: "Service end date is before the start date",
			})
		} else if end.Sub(start) > 365*24*time.Hour {
			col.addWarning(ValidationWarning{
				Field: "service_end", Code: "DATE-004", Impact: ImpactMedium,
				Message:        "Service date range exceeds 365 days",
				Recommendation: "Split long treatment periods into separate claims",
			})
		}
	}
}

// -- Check group 4: financials --

func (s *Scrubber) checkFinancials(_ context.Context, claim *claims.Claim, col *collector) {
	if claim.TotalCharges == nil || *claim.TotalCharges <= 0 {
		col.addError(ValidationError{
			Field: "total_charges", Code: "FIN-001", Severity: SeverityCritical, Fixable: true,
			Message: "Total charges must be present and greater than zero",
		})
	}
	if claim.PatientResponsibility != nil {
		pr := *claim.PatientResponsibility
		if pr < 0 || (claim.TotalCharges != nil && pr > *claim.TotalCharges) {
			col.addError(ValidationError{
				Field: "patient_responsibility", Code: "FIN-002", Severity: SeverityError, Fixable: true,
				Message: "Patient responsibility must be between zero and total charges",
			})
		}
	}
	if claim.TotalCharges != nil && len(claim.Procedures) > 0 {
		var sum float64
		complete := true
		for _, p := range claim.Procedures {
			if p.TotalPrice == nil {
				complete = false
				break
			}
			sum += *p.TotalPrice
		}
		if complete && math.Abs(sum-*claim.TotalCharges) > moneyTolerance {
			col.addWarning(ValidationWarning{
				Field: "total_charges", Code: "FIN-003", Impact: ImpactHigh,
				Message:        fmt.Sprintf("Procedure totals (%.2f) do not match total charges (%.2f)", sum, *claim.TotalCharges),
				Recommendation: "Recalculate total charges from the procedure lines",
			})
		}
	}
	for i, p := range claim.Procedures {
		if p.UnitPrice == nil || p.TotalPrice == nil {
			continue
		}
		expected := *p.UnitPrice * p.Quantity
		if math.Abs(expected-*p.TotalPrice) > moneyTolerance {
			col.addWarning(ValidationWarning{
				Field: fmt.Sprintf("procedures[%d].total_price", i), Code: "FIN-004", Impact: ImpactMedium,
				Message:        fmt.Sprintf("Line total %.2f does not equal quantity x unit price (%.2f)", *p.TotalPrice, expected),
				Recommendation: "Recalculate the line total",
			})
		}
	}
}

// -- Check group 5: authorization --

func (s *Scrubber) checkAuthorization(ctx context.Context, claim *claims.Claim, col *collector) {
	if s.auths == nil {
		return
	}

	authRequired := false
	if s.payers != nil && claim.PayerID != nil {
		payer, err := s.payers.GetPayer(ctx, *claim.PayerID)
		if err != nil {
			// An unreachable payer only costs the requires-auth lookup.
			// Any authorization number on the claim is still validated.
			if !errors.Is(err, payerrules.ErrNotFound) {
				log.Warn().Err(err).Str("payer_id", claim.PayerID.String()).Msg("authorization check: payer lookup failed")
			}
		} else {
			for _, p := range claim.Procedures {
				if payer.RequiresAuth(p.CPTCode) {
					authRequired = true
					break
				}
			}
		}
	}

	hasAuthNumber := claim.AuthorizationNumber != nil && *claim.AuthorizationNumber != ""

	if authRequired && !hasAuthNumber {
		col.addError(ValidationError{
			Field: "authorization_number", Code: "AUTH-001", Severity: SeverityError, Fixable: true,
			Message: "Prior authorization is required for one or more procedures",
		})
		return
	}
	if !hasAuthNumber {
		return
	}

	auth, err := s.auths.GetByNumber(ctx, *claim.AuthorizationNumber)
	if err != nil {
		if errors.Is(err, authorization.ErrNotFound) {
			col.addError(ValidationError{
				Field: "authorization_number", Code: "AUTH-002", Severity: SeverityError, Fixable: true,
				Message: fmt.Sprintf("Authorization %q was not found", *claim.AuthorizationNumber),
			})
			return
		}
		log.Warn().Err(err).Msg("authorization check: lookup failed, skipping")
		return
	}
	if auth.Expired(time.Now()) {
		col.addError(ValidationError{
			Field: "authorization_number", Code: "AUTH-003", Severity: SeverityError, Fixable: false,
			Message: fmt.Sprintf("Authorization %q has expired", auth.AuthorizationNumber),
		})
		return
	}
	if auth.Status != authorization.StatusApproved {
		col.addError(ValidationError{
			Field: "authorization_number", Code: "AUTH-004", Severity: SeverityError, Fixable: true,
			Message: fmt.Sprintf("Authorization %q is %s, not approved", auth.AuthorizationNumber, auth.Status),
		})
	}
}

// -- Check group 6: eligibility --

func (s *Scrubber) checkEligibility(ctx context.Context, claim *claims.Claim, col *collector) {
	if s.elig == nil || claim.PrimaryInsuranceID == nil || claim.ServiceStart == nil {
		return
	}
	v, err := s.elig.Latest(ctx, *claim.PrimaryInsuranceID, *claim.ServiceStart)
	if err != nil {
		if errors.Is(err, eligibility.ErrNotFound) {
			col.addWarning(ValidationWarning{
				Field: "primary_insurance_id", Code: "ELIG-001", Impact: ImpactHigh,
				Message:        "No eligibility verification on file for this insurance and service date",
				Recommendation: "Run an eligibility check before submitting",
			})
			return
		}
		log.Warn().Err(err).Msg("eligibility check: lookup failed, skipping")
		return
	}
	if v.Status == eligibility.StatusIneligible {
		col.addError(ValidationError{
			Field: "primary_insurance_id", Code: "ELIG-002", Severity: SeverityCritical, Fixable: false,
			Message: "Patient was verified ineligible for this insurance on the service date",
		})
	}
}

// -- Check group 7: duplicates --

func (s *Scrubber) checkDuplicates(ctx context.Context, claim *claims.Claim, col *collector) {
	if s.duplicates == nil || claim.PatientID == uuid.Nil || claim.ServiceStart == nil {
		return
	}
	matches, err := s.duplicates.FindOverlapping(ctx, claim.PatientID, *claim.ServiceStart, claim.ID)
	if err != nil {
		log.Warn().Err(err).Msg("duplicate check: lookup failed, skipping")
		return
	}
	if len(matches) == 0 {
		return
	}
	conflicting := matches[0].ID.String()
	if matches[0].ClaimNumber != nil {
		conflicting = *matches[0].ClaimNumber
	}
	col.setDuplicate(conflicting)
	col.addWarning(ValidationWarning{
		Field: "service_start", Code: "DUP-001", Impact: ImpactHigh,
		Message:        fmt.Sprintf("A claim for this patient and service date already exists: %s", conflicting),
		Recommendation: "Confirm this is not a duplicate before submitting",
	})
}

// -- Check group 8: payer rules --

func (s *Scrubber) checkPayerRules(ctx context.Context, claim *claims.Claim, col *collector) {
	if s.payers == nil || claim.PayerID == nil {
		return
	}
	eval, err := s.payers.Evaluate(ctx, *claim.PayerID, buildRuleVars(claim))
	if err != nil {
		log.Warn().Err(err).Str("payer_id", claim.PayerID.String()).Msg("payer rule check: evaluation failed, skipping")
		return
	}
	for _, msg := range eval.Errors {
		col.addError(ValidationError{
			Field: "payer_rules", Code: "PAYER-001", Severity: SeverityError, Fixable: true,
			Message: msg,
		})
	}
	for _, msg := range eval.Warnings {
		col.addWarning(ValidationWarning{
			Field: "payer_rules", Code: "PAYER-002", Impact: ImpactMedium,
			Message: msg,
		})
	}
	col.addRequirements(eval.Requirements)
	col.addSuggestions(eval.Suggestions)
}

// buildRuleVars projects a claim onto the variables the rule grammar knows.
func buildRuleVars(claim *claims.Claim) payerrules.Vars {
	vars := payerrules.Vars{}
	if claim.TotalCharges != nil {
		vars.ClaimAmount = *claim.TotalCharges
	}
	if claim.ServiceType != nil {
		vars.ServiceType = *claim.ServiceType
	}
	now := time.Now()
	if claim.PatientDOB != nil {
		vars.PatientAge = math.Floor(now.Sub(*claim.PatientDOB).Hours() / 24 / 365.25)
	}
	if claim.ServiceStart != nil {
		vars.ClaimAge = math.Floor(now.Sub(*claim.ServiceStart).Hours() / 24)
	}
	for _, p := range claim.Procedures {
		vars.ProcedureCodes = append(vars.ProcedureCodes, p.CPTCode)
	}
	for _, d := range claim.Diagnoses {
		vars.DiagnosisCodes = append(vars.DiagnosisCodes, d.ICD10Code)
	}
	return vars
}

// -- Check group 9: code compatibility --

func (s *Scrubber) checkCodeCompatibility(_ context.Context, claim *claims.Claim, col *collector) {
	for i, p := range claim.Procedures {
		if p.DiagnosisPointer == nil {
			col.addWarning(ValidationWarning{
				Field: fmt.Sprintf("procedures[%d].diagnosis_pointer", i), Code: "COMPAT-001", Impact: ImpactMedium,
				Message:        fmt.Sprintf("Procedure %s has no diagnosis pointer", p.CPTCode),
				Recommendation: "Link every procedure to a supporting diagnosis",
			})
		}
	}
}

// -- Check group 10: modifiers --

func (s *Scrubber) checkModifiers(_ context.Context, claim *claims.Claim, col *collector) {
	for i, p := range claim.Procedures {
		for _, m := range p.Modifiers {
			if !IsValidModifier(m) {
				col.addError(ValidationError{
					Field: fmt.Sprintf("procedures[%d].modifiers", i), Code: "MOD-001", Severity: SeverityError, Fixable: true,
					Message: fmt.Sprintf("Modifier %q is malformed; expected exactly 2 alphanumeric characters", m),
				})
			}
		}
	}
}
