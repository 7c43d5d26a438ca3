// internal/services/dashboard_service_test.go

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	mysqlrepo "sla-penalty/internal/repositories/mysql"
	"sla-penalty/pkg/penalty"
)

type fakeMaster struct {
	zones, streets, units int64
	err                   error
}

func (f *fakeMaster) CountZones(ctx context.Context) (int64, error)   { return f.zones, f.err }
func (f *fakeMaster) CountStreets(ctx context.Context) (int64, error) { return f.streets, f.err }
func (f *fakeMaster) CountUnits(ctx context.Context) (int64, error)   { return f.units, f.err }

type fakeIncidentCounter struct {
	open, closed int64
	err          error
}

func (f *fakeIncidentCounter) CountByStatus(ctx context.Context, _ mysqlrepo.IncidentFilter, statusID int64) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	if statusID == mysqlrepo.StatusOpen {
		return f.open, nil
	}
	return f.closed, nil
}

func newDashboardService(t *testing.T, master *fakeMaster, counter *fakeIncidentCounter, devices *fakeDevices, events *fakeEvents) *DashboardService {
	t.Helper()
	cacheSvc := newCacheService(t, devices, events, &fakeIncidents{})
	return &DashboardService{
		Master:    master,
		Incidents: counter,
		Store:     cacheSvc.Store,
		Cache:     cacheSvc,
		// pertengahan Feb: default window = seluruh Januari
		Clock: clockwork.NewFakeClockAt(time.Date(2024, time.February, 15, 0, 0, 0, 0, time.UTC)),
		Log:   discardLogger(),
	}
}

func TestDashboardAllMetrics(t *testing.T) {
	devices := &fakeDevices{devices: []mysqlrepo.SLADevice{device(1, "Gate A")}}
	events := &fakeEvents{events: []penalty.Event{
		// offline Jan 1 - Jan 4: three grace periods
		{LogID: 1, DeviceID: 1, At: utc(1, 0, 0), Kind: penalty.EventDisconnect},
		{LogID: 2, DeviceID: 1, At: utc(4, 0, 0), Kind: penalty.EventConnect},
	}}
	svc := newDashboardService(t,
		&fakeMaster{zones: 5, streets: 12, units: 3},
		&fakeIncidentCounter{open: 4, closed: 9},
		devices, events)

	k := svc.Dashboard(context.Background(), Filters{})

	require.Empty(t, k.ErrorDetails)
	require.EqualValues(t, 5, k.TotalZones)
	require.EqualValues(t, 12, k.TotalStreets)
	require.EqualValues(t, 3, k.TotalUnits)
	require.EqualValues(t, 4, k.TotalOpenIncidents)
	require.EqualValues(t, 9, k.TotalClosedIncidents)
	require.True(t, k.TotalPenalty.Equal(decimal.RequireFromString("1500.00")),
		"got %s", k.TotalPenalty)
}

func TestDashboardPenaltyDegrades(t *testing.T) {
	devices := &fakeDevices{err: errors.New("db down")}
	svc := newDashboardService(t,
		&fakeMaster{zones: 5, streets: 12, units: 3},
		&fakeIncidentCounter{open: 4, closed: 9},
		devices, &fakeEvents{})

	k := svc.Dashboard(context.Background(), Filters{})

	// counts survive even though the penalty metric failed
	require.EqualValues(t, 5, k.TotalZones)
	require.EqualValues(t, 4, k.TotalOpenIncidents)
	require.EqualValues(t, 9, k.TotalClosedIncidents)
	require.True(t, k.TotalPenalty.IsZero())
	require.Contains(t, k.ErrorDetails, "total_penalty")
	require.Len(t, k.ErrorDetails, 1)
}

func TestDashboardCountsDegradeIndependently(t *testing.T) {
	devices := &fakeDevices{devices: []mysqlrepo.SLADevice{device(1, "Gate A")}}
	svc := newDashboardService(t,
		&fakeMaster{zones: 5, streets: 12, units: 3},
		&fakeIncidentCounter{err: errors.New("db down")},
		devices, &fakeEvents{})

	k := svc.Dashboard(context.Background(), Filters{})

	require.Contains(t, k.ErrorDetails, "total_open_incidents")
	require.Contains(t, k.ErrorDetails, "total_closed_incidents")
	require.NotContains(t, k.ErrorDetails, "total_penalty")
	require.EqualValues(t, 5, k.TotalZones)
	require.True(t, k.TotalPenalty.IsZero())
}
