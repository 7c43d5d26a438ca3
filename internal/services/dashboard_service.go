// internal/services/dashboard_service.go
// Dashboard KPI aggregation: static master-data counts plus three
// dynamic metrics computed concurrently, each degrading on its own.

package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"

	"sla-penalty/internal/cache"
	mysqlrepo "sla-penalty/internal/repositories/mysql"
)

// KPIs is the unified dashboard response. A failed metric reports zero
// plus an entry in ErrorDetails instead of blanking the dashboard.
type KPIs struct {
	TotalZones   int64 `json:"total_zones"`
	TotalStreets int64 `json:"total_streets"`
	TotalUnits   int64 `json:"total_units"`

	TotalOpenIncidents   int64 `json:"total_open_incidents"`
	TotalClosedIncidents int64 `json:"total_closed_incidents"`

	TotalPenalty decimal.Decimal `json:"total_penalty"`

	ErrorDetails map[string]string `json:"error_details"`
}

type MasterCounter interface {
	CountZones(ctx context.Context) (int64, error)
	CountStreets(ctx context.Context) (int64, error)
	CountUnits(ctx context.Context) (int64, error)
}

type IncidentCounter interface {
	CountByStatus(ctx context.Context, f mysqlrepo.IncidentFilter, statusID int64) (int64, error)
}

type DashboardService struct {
	Master    MasterCounter
	Incidents IncidentCounter
	Store     *cache.Store
	Cache     *CacheService
	Clock     clockwork.Clock
	Log       *slog.Logger
}

// Dashboard computes every KPI for the filtered period. The three
// dynamic metrics fan out concurrently; none of them aborts the others,
// and each failure lands in ErrorDetails under its metric name.
func (s *DashboardService) Dashboard(ctx context.Context, f Filters) KPIs {
	k := KPIs{
		TotalPenalty: decimal.Zero,
		ErrorDetails: map[string]string{},
	}
	var mu sync.Mutex
	fail := func(key string, err error) {
		s.Log.Warn("kpi degraded", "kpi", key, "err", err)
		mu.Lock()
		k.ErrorDetails[key] = err.Error()
		mu.Unlock()
	}

	// static counts are unfiltered quick lookups
	if n, err := s.Master.CountZones(ctx); err != nil {
		fail("total_zones", err)
	} else {
		k.TotalZones = n
	}
	if n, err := s.Master.CountStreets(ctx); err != nil {
		fail("total_streets", err)
	} else {
		k.TotalStreets = n
	}
	if n, err := s.Master.CountUnits(ctx); err != nil {
		fail("total_units", err)
	} else {
		k.TotalUnits = n
	}

	incFilter := mysqlrepo.IncidentFilter{
		ZoneIDs:   f.ZoneIDs,
		StreetIDs: f.StreetIDs,
		UnitIDs:   f.UnitIDs,
		DateFrom:  f.DateFrom,
		DateTo:    f.DateTo,
	}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		n, err := s.Incidents.CountByStatus(ctx, incFilter, mysqlrepo.StatusOpen)
		if err != nil {
			fail("total_open_incidents", err)
			return
		}
		mu.Lock()
		k.TotalOpenIncidents = n
		mu.Unlock()
	}()

	go func() {
		defer wg.Done()
		n, err := s.Incidents.CountByStatus(ctx, incFilter, mysqlrepo.StatusClosed)
		if err != nil {
			fail("total_closed_incidents", err)
			return
		}
		mu.Lock()
		k.TotalClosedIncidents = n
		mu.Unlock()
	}()

	go func() {
		defer wg.Done()
		total, err := s.penaltySum(ctx, f)
		if err != nil {
			fail("total_penalty", err)
			return
		}
		mu.Lock()
		k.TotalPenalty = total
		mu.Unlock()
	}()

	wg.Wait()
	return k
}

// penaltySum totals cached penalties across every month artifact the
// filter window overlaps. A month whose rebuild fails but still has a
// prior artifact contributes its stale data; a month with neither fails
// the metric.
func (s *DashboardService) penaltySum(ctx context.Context, f Filters) (decimal.Decimal, error) {
	start, end := f.Window(s.Clock.Now())

	total := decimal.Zero
	for _, m := range monthsOfWindow(start, end) {
		if err := s.Cache.EnsureFresh(ctx, m); err != nil {
			if !s.Store.Exists(m) {
				return decimal.Zero, err
			}
			s.Log.Warn("penalty sum using stale cache", "month", m.Key(), "err", err)
		}
		d, err := s.Store.SumPenalty(ctx, m, f.cacheFilter())
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(d)
	}
	return total, nil
}

// monthsOfWindow treats end as exclusive: a window closing exactly on a
// month boundary does not drag in the next month.
func monthsOfWindow(start, end time.Time) []cache.Month {
	if !end.After(start) {
		return nil
	}
	return cache.MonthsInRange(start, end.Add(-time.Nanosecond))
}
