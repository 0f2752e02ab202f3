package claims

import (
	"time"

	"github.com/google/uuid"
)

// Claim statuses, in lifecycle order.
const (
	StatusDraft      = "draft"
	StatusSubmitted  = "submitted"
	StatusProcessing = "processing"
	StatusPaid       = "paid"
	StatusDenied     = "denied"
)

// statusTransitions defines which status changes are allowed.
var statusTransitions = map[string][]string{
	StatusDraft:      {StatusSubmitted},
	StatusSubmitted:  {StatusProcessing, StatusDenied},
	StatusProcessing: {StatusPaid, StatusDenied},
	StatusPaid:       {},
	StatusDenied:     {},
}

// CanTransition reports whether a claim may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Claim maps to the claim table.
type Claim struct {
	ID                    uuid.UUID  `db:"id" json:"id"`
	ClaimNumber           *string    `db:"claim_number" json:"claim_number,omitempty"`
	PatientID             uuid.UUID  `db:"patient_id" json:"patient_id"`
	PatientDOB            *time.Time `db:"patient_dob" json:"patient_dob,omitempty"`
	RenderingProviderID   *uuid.UUID `db:"rendering_provider_id" json:"rendering_provider_id,omitempty"`
	BillingProviderID     *uuid.UUID `db:"billing_provider_id" json:"billing_provider_id,omitempty"`
	FacilityID            *uuid.UUID `db:"facility_id" json:"facility_id,omitempty"`
	PrimaryInsuranceID    *uuid.UUID `db:"primary_insurance_id" json:"primary_insurance_id,omitempty"`
	SecondaryInsuranceID  *uuid.UUID `db:"secondary_insurance_id" json:"secondary_insurance_id,omitempty"`
	TertiaryInsuranceID   *uuid.UUID `db:"tertiary_insurance_id" json:"tertiary_insurance_id,omitempty"`
	PayerID               *uuid.UUID `db:"payer_id" json:"payer_id,omitempty"`
	ServiceStart          *time.Time `db:"service_start" json:"service_start,omitempty"`
	ServiceEnd            *time.Time `db:"service_end" json:"service_end,omitempty"`
	PlaceOfService        *string    `db:"place_of_service" json:"place_of_service,omitempty"`
	AuthorizationNumber   *string    `db:"authorization_number" json:"authorization_number,omitempty"`
	ServiceType           *string    `db:"service_type" json:"service_type,omitempty"`
	TotalCharges          *float64   `db:"total_charges" json:"total_charges,omitempty"`
	PatientResponsibility *float64   `db:"patient_responsibility" json:"patient_responsibility,omitempty"`
	InsuranceAmount       *float64   `db:"insurance_amount" json:"insurance_amount,omitempty"`
	Copay                 *float64   `db:"copay" json:"copay,omitempty"`
	Deductible            *float64   `db:"deductible" json:"deductible,omitempty"`
	Status                string     `db:"status" json:"status"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`

	// Loaded on demand, not scanned from the claim table.
	Procedures []*Procedure `db:"-" json:"procedures,omitempty"`
	Diagnoses  []*Diagnosis `db:"-" json:"diagnoses,omitempty"`
}

// Procedure maps to the claim_procedure table. One billed service line.
type Procedure struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	ClaimID          uuid.UUID  `db:"claim_id" json:"claim_id"`
	CPTCode          string     `db:"cpt_code" json:"cpt_code"`
	Description      *string    `db:"description" json:"description,omitempty"`
	Quantity         float64    `db:"quantity" json:"quantity"`
	UnitPrice        *float64   `db:"unit_price" json:"unit_price,omitempty"`
	TotalPrice       *float64   `db:"total_price" json:"total_price,omitempty"`
	Modifiers        []string   `db:"modifiers" json:"modifiers,omitempty"`
	DiagnosisPointer *int       `db:"diagnosis_pointer" json:"diagnosis_pointer,omitempty"`
	ServiceDate      *time.Time `db:"service_date" json:"service_date,omitempty"`
	PlaceOfService   *string    `db:"place_of_service" json:"place_of_service,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
}

// Diagnosis maps to the claim_diagnosis table.
type Diagnosis struct {
	ID          uuid.UUID `db:"id" json:"id"`
	ClaimID     uuid.UUID `db:"claim_id" json:"claim_id"`
	ICD10Code   string    `db:"icd10_code" json:"icd10_code"`
	Description *string   `db:"description" json:"description,omitempty"`
	IsPrimary   bool      `db:"is_primary" json:"is_primary"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// StatusHistory maps to the claim_status_history table. Append-only.
type StatusHistory struct {
	ID         uuid.UUID `db:"id" json:"id"`
	ClaimID    uuid.UUID `db:"claim_id" json:"claim_id"`
	FromStatus *string   `db:"from_status" json:"from_status,omitempty"`
	ToStatus   string    `db:"to_status" json:"to_status"`
	ChangedBy  *string   `db:"changed_by" json:"changed_by,omitempty"`
	Note       *string   `db:"note" json:"note,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
