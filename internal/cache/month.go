// internal/cache/month.go
// Calendar-month keys for the per-month cache artifacts.

package cache

import (
	"fmt"
	"time"
)

// Month identifies one reporting window [Start, End). All month math is
// done in UTC.
type Month struct {
	Year  int
	Month time.Month
}

func MonthOf(t time.Time) Month {
	t = t.UTC()
	return Month{Year: t.Year(), Month: t.Month()}
}

// PreviousMonth is the default reporting window when the caller supplies
// no date range: the full calendar month before "now".
func PreviousMonth(now time.Time) Month {
	return MonthOf(MonthOf(now).Start().AddDate(0, 0, -1))
}

func (m Month) Key() string {
	return fmt.Sprintf("%04d%02d", m.Year, int(m.Month))
}

func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End is exclusive: the first instant of the next month.
func (m Month) End() time.Time {
	return m.Start().AddDate(0, 1, 0)
}

func (m Month) Next() Month {
	return MonthOf(m.End())
}

// MonthsInRange lists every calendar month overlapped by [from, to].
// An inverted range yields nil.
func MonthsInRange(from, to time.Time) []Month {
	if to.Before(from) {
		return nil
	}
	var out []Month
	last := MonthOf(to)
	for m := MonthOf(from); ; m = m.Next() {
		out = append(out, m)
		if m == last {
			return out
		}
	}
}
