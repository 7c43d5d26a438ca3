// internal/services/filters.go
// The filter surface the HTTP layer hands to every service call.

package services

import (
	"time"

	"sla-penalty/internal/cache"
)

// Filters carries validated request parameters. Handlers enforce the
// bounds (skip >= 0, limit in [1,1000]) before anything reaches here.
type Filters struct {
	ZoneIDs   []int64
	StreetIDs []int64
	UnitIDs   []int64
	DateFrom  *time.Time
	DateTo    *time.Time
	Skip      int
	Limit     int
}

func (f Filters) cacheFilter() cache.Filter {
	return cache.Filter{
		ZoneIDs:   f.ZoneIDs,
		StreetIDs: f.StreetIDs,
		UnitIDs:   f.UnitIDs,
	}
}

// Window resolves the reporting range:
//   - both dates absent: the previous calendar month
//   - date_to absent: up to now
//   - date_from absent: the 24h before date_to
func (f Filters) Window(now time.Time) (time.Time, time.Time) {
	if f.DateFrom == nil && f.DateTo == nil {
		m := cache.PreviousMonth(now)
		return m.Start(), m.End()
	}
	end := now
	if f.DateTo != nil {
		end = *f.DateTo
	}
	start := end.Add(-24 * time.Hour)
	if f.DateFrom != nil {
		start = *f.DateFrom
	}
	return start, end
}

// ReportMonth is the single month a report request addresses: the month
// containing the window start. Multi-month report windows are not
// supported; the dashboard aggregates across months instead.
func (f Filters) ReportMonth(now time.Time) cache.Month {
	start, _ := f.Window(now)
	return cache.MonthOf(start)
}
