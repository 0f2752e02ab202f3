package authorization

import (
	"time"

	"github.com/google/uuid"
)

// Authorization statuses.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusDenied   = "denied"
	StatusExpired  = "expired"
)

// Request maps to the prior_authorization table.
type Request struct {
	ID                  uuid.UUID  `db:"id" json:"id"`
	AuthorizationNumber string     `db:"authorization_number" json:"authorization_number"`
	PatientID           uuid.UUID  `db:"patient_id" json:"patient_id"`
	InsuranceID         *uuid.UUID `db:"insurance_id" json:"insurance_id,omitempty"`
	CPTCodes            []string   `db:"cpt_codes" json:"cpt_codes"`
	Status              string     `db:"status" json:"status"`
	ExpiresAt           *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// Expired reports whether the authorization is past its expiry date.
func (r *Request) Expired(at time.Time) bool {
	return r.ExpiresAt != nil && at.After(*r.ExpiresAt)
}

var validStatuses = map[string]bool{
	StatusPending: true, StatusApproved: true, StatusDenied: true, StatusExpired: true,
}
