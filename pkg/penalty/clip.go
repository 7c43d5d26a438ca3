// pkg/penalty/clip.go
// Window clipping: bound an open-ended offline interval by the reporting
// window end and the wall clock.

package penalty

import "time"

// EffectiveEnd picks the timestamp downtime is measured against:
//   - reconnected before the window closed  -> online time
//   - reconnected after the window closed   -> window end
//   - still offline, window not yet closed  -> now (provisional)
//   - still offline, window fully closed    -> window end
func EffectiveEnd(online *time.Time, windowEnd, now time.Time) time.Time {
	switch {
	case online != nil && !online.After(windowEnd):
		return *online
	case online != nil:
		return windowEnd
	case !now.After(windowEnd):
		return now
	default:
		return windowEnd
	}
}

// OfflineMinutes returns whole minutes between offline and effectiveEnd,
// clamped at zero so a clipped end before the offline time never yields a
// negative duration.
func OfflineMinutes(offline, effectiveEnd time.Time) int64 {
	if effectiveEnd.Before(offline) {
		return 0
	}
	return int64(effectiveEnd.Sub(offline) / time.Minute)
}
