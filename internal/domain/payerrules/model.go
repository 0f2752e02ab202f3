package payerrules

import (
	"time"

	"github.com/google/uuid"
)

// Rule types.
const (
	RuleTypeEligibility   = "eligibility"
	RuleTypeAuthorization = "authorization"
	RuleTypeBilling       = "billing"
	RuleTypeCoding        = "coding"
	RuleTypeTiming        = "timing"
)

// Rule actions.
const (
	ActionAllow   = "allow"
	ActionDeny    = "deny"
	ActionWarn    = "warn"
	ActionRequire = "require"
)

// DefaultTimelyFilingDays applies when a payer has no explicit limit.
const DefaultTimelyFilingDays = 365

// Payer maps to the payer table.
type Payer struct {
	ID               uuid.UUID `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	PayerCode        string    `db:"payer_code" json:"payer_code"`
	TimelyFilingDays int       `db:"timely_filing_days" json:"timely_filing_days"`
	ApprovalRate     *float64  `db:"approval_rate" json:"approval_rate,omitempty"`
	RequiresAuthCPTs []string  `db:"requires_auth_cpts" json:"requires_auth_cpts,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// RequiresAuth reports whether the payer demands prior authorization for
// the given CPT code.
func (p *Payer) RequiresAuth(cptCode string) bool {
	for _, c := range p.RequiresAuthCPTs {
		if c == cptCode {
			return true
		}
	}
	return false
}

// Rule maps to the payer_rule table. Condition holds the raw expression
// text; the parsed form is attached at load time and never persisted.
type Rule struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PayerID       uuid.UUID  `db:"payer_id" json:"payer_id"`
	RuleType      string     `db:"rule_type" json:"rule_type"`
	Condition     string     `db:"condition" json:"condition"`
	Action        string     `db:"action" json:"action"`
	Message       string     `db:"message" json:"message"`
	Priority      int        `db:"priority" json:"priority"`
	EffectiveFrom *time.Time `db:"effective_from" json:"effective_from,omitempty"`
	EffectiveTo   *time.Time `db:"effective_to" json:"effective_to,omitempty"`
	Active        bool       `db:"active" json:"active"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`

	parsed Expr
}

// InEffect reports whether the rule is active and inside its effective window.
func (r *Rule) InEffect(at time.Time) bool {
	if !r.Active {
		return false
	}
	if r.EffectiveFrom != nil && at.Before(*r.EffectiveFrom) {
		return false
	}
	if r.EffectiveTo != nil && at.After(*r.EffectiveTo) {
		return false
	}
	return true
}

var validRuleTypes = map[string]bool{
	RuleTypeEligibility: true, RuleTypeAuthorization: true,
	RuleTypeBilling: true, RuleTypeCoding: true, RuleTypeTiming: true,
}

var validActions = map[string]bool{
	ActionAllow: true, ActionDeny: true, ActionWarn: true, ActionRequire: true,
}
