// pkg/penalty/formula.go
// Tiered SLA penalty: one daily unit per full-or-partial day of downtime
// past the 24h grace period. Amounts are decimals, never binary floats.

package penalty

import "github.com/shopspring/decimal"

const (
	// GraceMinutes is the no-penalty threshold: outages shorter than a
	// full day cost nothing.
	GraceMinutes = 1440

	// DailyRate is the charge per started day of downtime beyond grace.
	DailyRate = 500
)

// Amount maps clipped offline minutes plus the waiver flag to money:
//   - nil minutes (device online all window) or waived -> 0.00
//   - minutes < 1440 -> 0.00
//   - otherwise ceil(minutes/1440) * 500.00
//
// A legacy per-hour variant (/60) existed in earlier revisions and is
// superseded by the per-day rule.
func Amount(offlineMinutes *int64, waived bool) decimal.Decimal {
	if offlineMinutes == nil || waived {
		return decimal.Zero.Round(2)
	}
	m := *offlineMinutes
	if m < GraceMinutes {
		return decimal.Zero.Round(2)
	}
	days := (m + GraceMinutes - 1) / GraceMinutes
	return decimal.NewFromInt(days * DailyRate).Round(2)
}
