package payerrules

import (
	"testing"
)

func TestParse_Comparison(t *testing.T) {
	expr, err := Parse("patientAge >= 65")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cmp, ok := expr.(*Comparison)
	if !ok {
		t.Fatalf("expected Comparison, got %T", expr)
	}
	if cmp.Var != "patientAge" || cmp.Op != ">=" || cmp.Value != "65" {
		t.Fatalf("unexpected parse: %+v", cmp)
	}
}

func TestParse_Membership(t *testing.T) {
	expr, err := Parse("procedureCode in [99213, 99214, 99215]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m, ok := expr.(*Membership)
	if !ok {
		t.Fatalf("expected Membership, got %T", expr)
	}
	if m.Var != "procedureCode" {
		t.Fatalf("unexpected var: %s", m.Var)
	}
	if len(m.List) != 3 || m.List[0] != "99213" || m.List[2] != "99215" {
		t.Fatalf("unexpected list: %v", m.List)
	}
}

func TestParse_QuotedValues(t *testing.T) {
	expr, err := Parse("serviceType == 'emergency'")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cmp := expr.(*Comparison)
	if cmp.Value != "emergency" {
		t.Fatalf("expected unquoted value, got %q", cmp.Value)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []string{
		"",
		"patientAge",
		"patientAge >",
		"in [a, b]",
		"procedureCode in ]a, b[",
		"procedureCode in []",
		"just some words",
	}
	for _, cond := range tests {
		if _, err := Parse(cond); err == nil {
			t.Errorf("expected parse error for %q", cond)
		}
	}
}

func TestComparison_Numeric(t *testing.T) {
	vars := Vars{PatientAge: 70, ClaimAmount: 1500, ClaimAge: 10}
	tests := []struct {
		cond string
		want bool
	}{
		{"patientAge >= 65", true},
		{"patientAge >= 70", true},
		{"patientAge > 70", false},
		{"patientAge < 65", false},
		{"patientAge <= 70", true},
		{"patientAge == 70", true},
		{"patientAge != 70", false},
		{"claimAmount > 1000", true},
		{"claimAmount <= 1000", false},
		{"claimAge < 30", true},
	}
	for _, tt := range tests {
		expr, err := Parse(tt.cond)
		if err != nil {
			t.Fatalf("parse %q: %v", tt.cond, err)
		}
		if got := expr.Eval(vars); got != tt.want {
			t.Errorf("%q = %v, want %v", tt.cond, got, tt.want)
		}
	}
}

func TestComparison_StringScalar(t *testing.T) {
	vars := Vars{ServiceType: "emergency"}

	expr, _ := Parse("serviceType == emergency")
	if !expr.Eval(vars) {
		t.Error("expected serviceType == emergency to match")
	}
	expr, _ = Parse("serviceType != routine")
	if !expr.Eval(vars) {
		t.Error("expected serviceType != routine to match")
	}
	expr, _ = Parse("serviceType == routine")
	if expr.Eval(vars) {
		t.Error("expected serviceType == routine not to match")
	}
}

func TestComparison_ListAnyMatch(t *testing.T) {
	vars := Vars{ProcedureCodes: []string{"99213", "36415"}}

	expr, _ := Parse("procedureCode == 36415")
	if !expr.Eval(vars) {
		t.Error("expected any-match on procedure codes")
	}
	expr, _ = Parse("procedureCode == 99999")
	if expr.Eval(vars) {
		t.Error("expected no match for absent code")
	}
}

func TestMembership_Eval(t *testing.T) {
	vars := Vars{DiagnosisCodes: []string{"E11.9", "I10"}}

	expr, _ := Parse("diagnosisCode in [I10, J45.20]")
	if !expr.Eval(vars) {
		t.Error("expected I10 membership to match")
	}
	expr, _ = Parse("diagnosisCode in [Z00.00]")
	if expr.Eval(vars) {
		t.Error("expected no membership match")
	}
}

func TestEval_UnknownVariable(t *testing.T) {
	expr, err := Parse("somethingElse > 5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expr.Eval(Vars{}) {
		t.Error("unknown variable should never fire")
	}
}

func TestComparison_NonNumericValueAgainstNumericVar(t *testing.T) {
	expr, err := Parse("patientAge >= abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expr.Eval(Vars{PatientAge: 50}) {
		t.Error("non-numeric target against numeric variable should never fire")
	}
}
