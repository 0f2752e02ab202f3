package scrubbing

import "sort"

// Error severities.
const (
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Warning impact tiers.
const (
	ImpactLow    = "low"
	ImpactMedium = "medium"
	ImpactHigh   = "high"
)

// Risk levels.
const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

// ValidationError is a submission-relevant finding. Critical errors block
// submission; plain errors are scored but advisory.
type ValidationError struct {
	Field    string `json:"field"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Fixable  bool   `json:"fixable"`
}

// ValidationWarning is an advisory finding that never blocks submission.
type ValidationWarning struct {
	Field          string `json:"field"`
	Code           string `json:"code"`
	Message        string `json:"message"`
	Impact         string `json:"impact"`
	Recommendation string `json:"recommendation,omitempty"`
}

// Result is the outcome of one scrubbing pass. Transient, never persisted.
type Result struct {
	Errors            []ValidationError   `json:"errors"`
	Warnings          []ValidationWarning `json:"warnings"`
	Suggestions       []string            `json:"suggestions"`
	Requirements      []string            `json:"requirements"`
	Score             int                 `json:"score"`
	RiskLevel         string              `json:"risk_level"`
	DenialProbability int                 `json:"denial_probability"`
	DuplicateOf       *string             `json:"duplicate_of,omitempty"`
	CanSubmit         bool                `json:"can_submit"`
}

// finalize sorts the findings for deterministic output and derives the
// score, risk level, denial probability, and submit gate.
func (r *Result) finalize() {
	sort.Slice(r.Errors, func(i, j int) bool {
		if r.Errors[i].Code != r.Errors[j].Code {
			return r.Errors[i].Code < r.Errors[j].Code
		}
		if r.Errors[i].Field != r.Errors[j].Field {
			return r.Errors[i].Field < r.Errors[j].Field
		}
		return r.Errors[i].Message < r.Errors[j].Message
	})
	sort.Slice(r.Warnings, func(i, j int) bool {
		if r.Warnings[i].Code != r.Warnings[j].Code {
			return r.Warnings[i].Code < r.Warnings[j].Code
		}
		if r.Warnings[i].Field != r.Warnings[j].Field {
			return r.Warnings[i].Field < r.Warnings[j].Field
		}
		return r.Warnings[i].Message < r.Warnings[j].Message
	})
	sort.Strings(r.Suggestions)
	sort.Strings(r.Requirements)

	var criticals, errors, high, medium, low int
	for _, e := range r.Errors {
		if e.Severity == SeverityCritical {
			criticals++
		} else {
			errors++
		}
	}
	for _, w := range r.Warnings {
		switch w.Impact {
		case ImpactHigh:
			high++
		case ImpactMedium:
			medium++
		default:
			low++
		}
	}

	score := 100 - 20*criticals - 10*errors - 5*high - 3*medium - 1*low
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	r.Score = score

	duplicate := r.DuplicateOf != nil
	switch {
	case criticals > 0 || duplicate:
		r.RiskLevel = RiskCritical
	case errors > 0 || high >= 3:
		r.RiskLevel = RiskHigh
	case len(r.Warnings) > 0:
		r.RiskLevel = RiskMedium
	default:
		r.RiskLevel = RiskLow
	}

	probability := 5 + 15*criticals + 8*errors + 5*high + 3*medium
	if duplicate {
		probability += 20
	}
	if probability > 100 {
		probability = 100
	}
	r.DenialProbability = probability

	r.CanSubmit = criticals == 0
}
