package scrubbing

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/MSA-Soft/billwise-ai-nexus-sub002/internal/domain/payerrules"
)

// Filing warning levels.
const (
	FilingNone     = "none"
	FilingWarning  = "warning"
	FilingCritical = "critical"
	FilingExpired  = "expired"
)

// TimelyFiling is the computed filing window for one claim. Recomputed on
// demand, never persisted.
type TimelyFiling struct {
	Deadline      time.Time `json:"deadline"`
	DaysRemaining int       `json:"days_remaining"`
	PastDeadline  bool      `json:"past_deadline"`
	WarningLevel  string    `json:"warning_level"`
}

// CheckTimelyFiling computes the filing deadline for a service date under
// the payer's allowed filing days. When the payer is unknown or the lookup
// fails, the 365-day default applies.
func (s *Scrubber) CheckTimelyFiling(ctx context.Context, serviceDate time.Time, payerID *uuid.UUID) *TimelyFiling {
	allowedDays := payerrules.DefaultTimelyFilingDays
	if s.payers != nil && payerID != nil {
		payer, err := s.payers.GetPayer(ctx, *payerID)
		if err != nil {
			log.Warn().Err(err).Str("payer_id", payerID.String()).Msg("timely filing: payer lookup failed, using default window")
		} else if payer.TimelyFilingDays > 0 {
			allowedDays = payer.TimelyFilingDays
		}
	}
	return computeFiling(serviceDate, allowedDays, time.Now())
}

func computeFiling(serviceDate time.Time, allowedDays int, now time.Time) *TimelyFiling {
	deadline := atMidnight(serviceDate).AddDate(0, 0, allowedDays)
	today := atMidnight(now)
	// Rounded so a DST shift between the two midnights cannot skew the count.
	daysRemaining := int(math.Round(deadline.Sub(today).Hours() / 24))

	tf := &TimelyFiling{
		Deadline:      deadline,
		DaysRemaining: daysRemaining,
		PastDeadline:  daysRemaining < 0,
	}
	switch {
	case daysRemaining < 0:
		tf.WarningLevel = FilingExpired
	case daysRemaining <= 7:
		tf.WarningLevel = FilingCritical
	case daysRemaining <= 30:
		tf.WarningLevel = FilingWarning
	default:
		tf.WarningLevel = FilingNone
	}
	return tf
}

func atMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
