package denial

import (
	"time"

	"github.com/google/uuid"
)

// Appeal statuses.
const (
	AppealNone      = "none"
	AppealDraft     = "draft"
	AppealSubmitted = "submitted"
	AppealWon       = "won"
	AppealLost      = "lost"
)

var validAppealStatuses = map[string]bool{
	AppealNone:      true,
	AppealDraft:     true,
	AppealSubmitted: true,
	AppealWon:       true,
	AppealLost:      true,
}

// IsValidAppealStatus reports whether s is a known appeal status.
func IsValidAppealStatus(s string) bool {
	return validAppealStatuses[s]
}

// Record is one payer denial of a claim.
type Record struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	ClaimID      uuid.UUID  `json:"claim_id" db:"claim_id"`
	PayerID      *uuid.UUID `json:"payer_id,omitempty" db:"payer_id"`
	ReasonCode   string     `json:"reason_code" db:"reason_code"`
	Reason       *string    `json:"reason,omitempty" db:"reason"`
	DeniedAt     time.Time  `json:"denied_at" db:"denied_at"`
	AppealStatus string     `json:"appeal_status" db:"appeal_status"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// Estimate is a denial-probability forecast for a claim before submission.
type Estimate struct {
	Probability int    `json:"probability"`
	Tier        string `json:"tier"`
}
