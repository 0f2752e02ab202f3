package payerrules

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Evaluation collects the outcomes of rule evaluation against one claim.
type Evaluation struct {
	Errors       []string `json:"errors"`
	Warnings     []string `json:"warnings"`
	Requirements []string `json:"requirements"`
	Suggestions  []string `json:"suggestions"`
}

type Service struct {
	payers PayerRepository
	rules  RuleRepository
}

func NewService(payers PayerRepository, rules RuleRepository) *Service {
	return &Service{payers: payers, rules: rules}
}

// -- Payer --

func (s *Service) CreatePayer(ctx context.Context, p *Payer) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.PayerCode == "" {
		return fmt.Errorf("payer_code is required")
	}
	if p.TimelyFilingDays < 0 {
		return fmt.Errorf("timely_filing_days cannot be negative")
	}
	if p.TimelyFilingDays == 0 {
		p.TimelyFilingDays = DefaultTimelyFilingDays
	}
	if p.ApprovalRate != nil && (*p.ApprovalRate < 0 || *p.ApprovalRate > 1) {
		return fmt.Errorf("approval_rate must be between 0 and 1")
	}
	return s.payers.Create(ctx, p)
}

func (s *Service) GetPayer(ctx context.Context, id uuid.UUID) (*Payer, error) {
	return s.payers.GetByID(ctx, id)
}

func (s *Service) GetPayerByCode(ctx context.Context, code string) (*Payer, error) {
	return s.payers.GetByCode(ctx, code)
}

func (s *Service) UpdatePayer(ctx context.Context, p *Payer) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.TimelyFilingDays <= 0 {
		p.TimelyFilingDays = DefaultTimelyFilingDays
	}
	if p.ApprovalRate != nil && (*p.ApprovalRate < 0 || *p.ApprovalRate > 1) {
		return fmt.Errorf("approval_rate must be between 0 and 1")
	}
	return s.payers.Update(ctx, p)
}

func (s *Service) DeletePayer(ctx context.Context, id uuid.UUID) error {
	return s.payers.Delete(ctx, id)
}

func (s *Service) ListPayers(ctx context.Context, limit, offset int) ([]*Payer, int, error) {
	return s.payers.List(ctx, limit, offset)
}

// -- Rules --

func (s *Service) CreateRule(ctx context.Context, ru *Rule) error {
	if err := validateRule(ru); err != nil {
		return err
	}
	return s.rules.Create(ctx, ru)
}

func (s *Service) GetRule(ctx context.Context, id uuid.UUID) (*Rule, error) {
	return s.rules.GetByID(ctx, id)
}

func (s *Service) UpdateRule(ctx context.Context, ru *Rule) error {
	if err := validateRule(ru); err != nil {
		return err
	}
	ru.parsed = nil
	return s.rules.Update(ctx, ru)
}

func (s *Service) DeleteRule(ctx context.Context, id uuid.UUID) error {
	return s.rules.Delete(ctx, id)
}

func (s *Service) ListRulesByPayer(ctx context.Context, payerID uuid.UUID, limit, offset int) ([]*Rule, int, error) {
	return s.rules.ListByPayer(ctx, payerID, limit, offset)
}

func validateRule(ru *Rule) error {
	if ru.PayerID == uuid.Nil {
		return fmt.Errorf("payer_id is required")
	}
	if !validRuleTypes[ru.RuleType] {
		return fmt.Errorf("invalid rule_type: %s", ru.RuleType)
	}
	if !validActions[ru.Action] {
		return fmt.Errorf("invalid action: %s", ru.Action)
	}
	if ru.Message == "" {
		return fmt.Errorf("message is required")
	}
	if _, err := Parse(ru.Condition); err != nil {
		return fmt.Errorf("invalid condition: %w", err)
	}
	return nil
}

// Evaluate runs the payer's active rules against the given claim variables.
// Rules outside their effective window are skipped. A condition that fails
// to parse never fires; it is logged and skipped so one bad rule cannot
// block a whole payer's claims.
func (s *Service) Evaluate(ctx context.Context, payerID uuid.UUID, vars Vars) (*Evaluation, error) {
	rules, err := s.rules.ListActiveByPayer(ctx, payerID)
	if err != nil {
		return nil, fmt.Errorf("loading rules for payer %s: %w", payerID, err)
	}

	eval := &Evaluation{}
	now := time.Now()
	for _, ru := range rules {
		if !ru.InEffect(now) {
			continue
		}
		if ru.parsed == nil {
			expr, perr := Parse(ru.Condition)
			if perr != nil {
				log.Warn().
					Str("rule_id", ru.ID.String()).
					Str("condition", ru.Condition).
					Err(perr).
					Msg("skipping rule with unparseable condition")
				continue
			}
			ru.parsed = expr
		}
		if !ru.parsed.Eval(vars) {
			continue
		}
		switch ru.Action {
		case ActionDeny:
			eval.Errors = append(eval.Errors, ru.Message)
		case ActionWarn:
			eval.Warnings = append(eval.Warnings, ru.Message)
		case ActionRequire:
			eval.Requirements = append(eval.Requirements, ru.Message)
		case ActionAllow:
			eval.Suggestions = append(eval.Suggestions, ru.Message)
		}
	}
	return eval, nil
}
