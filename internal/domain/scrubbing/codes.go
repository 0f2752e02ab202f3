package scrubbing

import (
	"regexp"
	"strings"
)

// Code families.
const (
	FamilyCPT   = "CPT"
	FamilyICD10 = "ICD-10"
	FamilyHCPCS = "HCPCS"
	FamilyCDT   = "CDT"
)

var (
	cptPattern      = regexp.MustCompile(`^\d{5}$`)
	icd10Pattern    = regexp.MustCompile(`^[A-Z]\d{2,3}(\.\d{1,4})?$`)
	hcpcsPattern    = regexp.MustCompile(`^[A-Z]\d{4}$`)
	cdtPattern      = regexp.MustCompile(`^D\d{4}$`)
	modifierPattern = regexp.MustCompile(`^[A-Za-z0-9]{2}$`)
)

// CodeCheck is the outcome of a structural code validation. Complaints are
// non-fatal observations about an otherwise valid code.
type CodeCheck struct {
	Valid      bool
	Complaints []string
}

// ValidateCode checks a candidate code string against its family's
// structural rules. Pure function, no lookups.
func ValidateCode(code, family string) CodeCheck {
	switch family {
	case FamilyCPT:
		return CodeCheck{Valid: cptPattern.MatchString(code)}
	case FamilyICD10:
		return validateICD10(code)
	case FamilyHCPCS:
		return CodeCheck{Valid: hcpcsPattern.MatchString(code)}
	case FamilyCDT:
		return CodeCheck{Valid: cdtPattern.MatchString(code)}
	}
	return CodeCheck{Valid: false, Complaints: []string{"unknown code family: " + family}}
}

func validateICD10(code string) CodeCheck {
	if len(code) < 3 || len(code) > 7 || !icd10Pattern.MatchString(code) {
		return CodeCheck{Valid: false}
	}
	check := CodeCheck{Valid: true}
	if dot := strings.IndexByte(code, '.'); dot >= 0 && len(code)-dot-1 > 2 {
		check.Complaints = append(check.Complaints, "more than 2 digits after the decimal is unusual for a billable code")
	}
	return check
}

// IsValidCPT reports whether the code is exactly 5 digits.
func IsValidCPT(code string) bool {
	return cptPattern.MatchString(code)
}

// IsValidICD10 reports whether the code matches the ICD-10 structural shape.
func IsValidICD10(code string) bool {
	return validateICD10(code).Valid
}

// IsValidModifier reports whether a procedure modifier is exactly 2
// alphanumeric characters.
func IsValidModifier(modifier string) bool {
	return modifierPattern.MatchString(modifier)
}
