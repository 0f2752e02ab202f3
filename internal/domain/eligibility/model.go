package eligibility

import (
	"time"

	"github.com/google/uuid"
)

// Verification statuses.
const (
	StatusEligible   = "eligible"
	StatusIneligible = "ineligible"
	StatusUnknown    = "unknown"
)

// Verification maps to the eligibility_verification table. One row per
// eligibility check against a patient's insurance for a service date.
type Verification struct {
	ID          uuid.UUID `db:"id" json:"id"`
	InsuranceID uuid.UUID `db:"insurance_id" json:"insurance_id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patient_id"`
	ServiceDate time.Time `db:"service_date" json:"service_date"`
	Status      string    `db:"status" json:"status"`
	Note        *string   `db:"note" json:"note,omitempty"`
	CheckedAt   time.Time `db:"checked_at" json:"checked_at"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

var validStatuses = map[string]bool{
	StatusEligible: true, StatusIneligible: true, StatusUnknown: true,
}
