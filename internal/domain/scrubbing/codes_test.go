package scrubbing

import "testing"

func TestIsValidCPT(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"99213", true},
		{"00100", true},
		{"9921", false},
		{"992134", false},
		{"9921A", false},
		{"", false},
		{"99 13", false},
	}
	for _, tt := range tests {
		if got := IsValidCPT(tt.code); got != tt.want {
			t.Errorf("IsValidCPT(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestIsValidICD10(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"E11", true},
		{"E11.9", true},
		{"I10", true},
		{"J45.20", true},
		{"S72.001", true},
		{"A00.1234", false}, // 8 chars, over length limit
		{"E1", false},
		{"11.9", false},
		{"e11.9", false},
		{"E11.", false},
		{"E11.12345", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValidICD10(tt.code); got != tt.want {
			t.Errorf("IsValidICD10(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestValidateCode_ICD10DecimalWarning(t *testing.T) {
	check := ValidateCode("S72.001", FamilyICD10)
	if !check.Valid {
		t.Fatal("expected S72.001 to be valid")
	}
	if len(check.Complaints) != 1 {
		t.Fatalf("expected 1 complaint for >2 decimal digits, got %d", len(check.Complaints))
	}

	check = ValidateCode("E11.9", FamilyICD10)
	if !check.Valid || len(check.Complaints) != 0 {
		t.Fatalf("expected E11.9 clean, got %+v", check)
	}
}

func TestValidateCode_HCPCS(t *testing.T) {
	if !ValidateCode("J1100", FamilyHCPCS).Valid {
		t.Error("expected J1100 to be valid HCPCS")
	}
	if ValidateCode("1100J", FamilyHCPCS).Valid {
		t.Error("expected 1100J to be invalid HCPCS")
	}
}

func TestValidateCode_CDT(t *testing.T) {
	if !ValidateCode("D1110", FamilyCDT).Valid {
		t.Error("expected D1110 to be valid CDT")
	}
	if ValidateCode("E1110", FamilyCDT).Valid {
		t.Error("expected E1110 to be invalid CDT")
	}
}

func TestValidateCode_UnknownFamily(t *testing.T) {
	check := ValidateCode("12345", "NDC")
	if check.Valid {
		t.Error("expected unknown family to be invalid")
	}
	if len(check.Complaints) == 0 {
		t.Error("expected a complaint naming the unknown family")
	}
}

func TestIsValidModifier(t *testing.T) {
	tests := []struct {
		mod  string
		want bool
	}{
		{"25", true},
		{"LT", true},
		{"F1", true},
		{"2", false},
		{"255", false},
		{"L-", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValidModifier(tt.mod); got != tt.want {
			t.Errorf("IsValidModifier(%q) = %v, want %v", tt.mod, got, tt.want)
		}
	}
}
