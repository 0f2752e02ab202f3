package payerrules

import (
	"fmt"
	"strconv"
	"strings"
)

// Vars carries the claim attributes a rule condition can reference.
type Vars struct {
	PatientAge     float64
	ClaimAmount    float64
	ClaimAge       float64
	ServiceType    string
	ProcedureCodes []string
	DiagnosisCodes []string
}

// numericValue resolves a numeric variable by name.
func (v Vars) numericValue(name string) (float64, bool) {
	switch name {
	case "patientAge":
		return v.PatientAge, true
	case "claimAmount":
		return v.ClaimAmount, true
	case "claimAge":
		return v.ClaimAge, true
	}
	return 0, false
}

// stringValues resolves a string-valued variable by name. List variables
// return every element; scalar variables return a single-element slice.
func (v Vars) stringValues(name string) ([]string, bool) {
	switch name {
	case "serviceType":
		return []string{v.ServiceType}, true
	case "procedureCode":
		return v.ProcedureCodes, true
	case "diagnosisCode":
		return v.DiagnosisCodes, true
	}
	return nil, false
}

// Expr is a parsed rule condition. List variables match if any element
// satisfies the expression.
type Expr interface {
	Eval(vars Vars) bool
}

// Comparison is `variable op value`, e.g. `patientAge >= 65`.
type Comparison struct {
	Var   string
	Op    string
	Value string
}

func (c *Comparison) Eval(vars Vars) bool {
	if n, ok := vars.numericValue(c.Var); ok {
		target, err := strconv.ParseFloat(c.Value, 64)
		if err != nil {
			return false
		}
		switch c.Op {
		case ">=":
			return n >= target
		case "<=":
			return n <= target
		case ">":
			return n > target
		case "<":
			return n < target
		case "==":
			return n == target
		case "!=":
			return n != target
		}
		return false
	}

	values, ok := vars.stringValues(c.Var)
	if !ok {
		return false
	}
	for _, v := range values {
		switch c.Op {
		case "==":
			if v == c.Value {
				return true
			}
		case "!=":
			if v != c.Value {
				return true
			}
		}
	}
	return false
}

// Membership is `variable in [a, b, c]`.
type Membership struct {
	Var  string
	List []string
}

func (m *Membership) Eval(vars Vars) bool {
	values, ok := vars.stringValues(m.Var)
	if !ok {
		if n, numOK := vars.numericValue(m.Var); numOK {
			values = []string{strconv.FormatFloat(n, 'f', -1, 64)}
		} else {
			return false
		}
	}
	for _, v := range values {
		for _, item := range m.List {
			if v == item {
				return true
			}
		}
	}
	return false
}

var comparisonOps = []string{">=", "<=", "==", "!=", ">", "<"}

// Parse compiles a condition string into an Expr. Supported forms:
//
//	variable op value     op: >= <= > < == !=
//	variable in [a, b, c]
func Parse(condition string) (Expr, error) {
	s := strings.TrimSpace(condition)
	if s == "" {
		return nil, fmt.Errorf("empty condition")
	}

	if idx := strings.Index(s, " in "); idx > 0 {
		name := strings.TrimSpace(s[:idx])
		rest := strings.TrimSpace(s[idx+4:])
		if !strings.HasPrefix(rest, "[") || !strings.HasSuffix(rest, "]") {
			return nil, fmt.Errorf("membership list must be bracketed: %q", condition)
		}
		inner := strings.TrimSpace(rest[1 : len(rest)-1])
		if inner == "" {
			return nil, fmt.Errorf("membership list is empty: %q", condition)
		}
		var list []string
		for _, item := range strings.Split(inner, ",") {
			list = append(list, unquote(strings.TrimSpace(item)))
		}
		return &Membership{Var: name, List: list}, nil
	}

	for _, op := range comparisonOps {
		if idx := strings.Index(s, op); idx > 0 {
			name := strings.TrimSpace(s[:idx])
			value := unquote(strings.TrimSpace(s[idx+len(op):]))
			if name == "" || value == "" {
				return nil, fmt.Errorf("malformed comparison: %q", condition)
			}
			if strings.ContainsAny(name, " \t") {
				return nil, fmt.Errorf("malformed variable name: %q", condition)
			}
			return &Comparison{Var: name, Op: op, Value: value}, nil
		}
	}

	return nil, fmt.Errorf("unrecognized condition: %q", condition)
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
