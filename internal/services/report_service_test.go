// internal/services/report_service_test.go

package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"sla-penalty/internal/cache"
	mysqlrepo "sla-penalty/internal/repositories/mysql"
	"sla-penalty/pkg/penalty"
)

func newReportService(t *testing.T, storeClock clockwork.Clock, devices *fakeDevices, events *fakeEvents) *ReportService {
	t.Helper()
	store, err := cache.NewStore(t.TempDir(), 24*time.Hour, storeClock, discardLogger())
	require.NoError(t, err)

	cacheSvc := &CacheService{
		Store: store,
		Builder: &PenaltyTableBuilder{
			Devices:     devices,
			Events:      events,
			ContractTag: "PWD",
			Clock:       clockwork.NewFakeClockAt(utc(12, 0, 0)),
		},
		Incidents: &fakeIncidents{},
		Log:       discardLogger(),
	}
	return &ReportService{
		Store: store,
		Cache: cacheSvc,
		Clock: clockwork.NewFakeClockAt(time.Date(2024, time.February, 15, 0, 0, 0, 0, time.UTC)),
		Log:   discardLogger(),
	}
}

func TestReportReadThrough(t *testing.T) {
	devices := &fakeDevices{devices: []mysqlrepo.SLADevice{
		device(1, "Gate A"),
		device(2, "Gate B"),
	}}
	events := &fakeEvents{events: []penalty.Event{
		{LogID: 1, DeviceID: 1, At: utc(1, 0, 0), Kind: penalty.EventDisconnect},
		{LogID: 2, DeviceID: 1, At: utc(4, 0, 0), Kind: penalty.EventConnect},
	}}
	svc := newReportService(t, clockwork.NewFakeClockAt(time.Now()), devices, events)

	// no date filter: defaults to January, builds the artifact on demand
	page, err := svc.Report(context.Background(), Filters{Skip: 0, Limit: 500})
	require.NoError(t, err)
	require.EqualValues(t, 2, page.TotalRows)
	require.Len(t, page.Data, 2)
	require.Equal(t, "Gate A", page.Data[0].CameraName)
	require.Equal(t, "1500.00", page.Data[0].PenaltyAmount.StringFixed(2))
	require.Equal(t, "0.00", page.Data[1].PenaltyAmount.StringFixed(2))
}

func TestReportFailsWithoutArtifact(t *testing.T) {
	devices := &fakeDevices{err: errors.New("db down")}
	svc := newReportService(t, clockwork.NewFakeClockAt(time.Now()), devices, &fakeEvents{})

	_, err := svc.Report(context.Background(), Filters{Skip: 0, Limit: 500})
	require.Error(t, err)
	require.Contains(t, err.Error(), "202401")
}

func TestReportServesStaleOnRebuildFailure(t *testing.T) {
	storeClock := clockwork.NewFakeClockAt(time.Now())
	devices := &fakeDevices{devices: []mysqlrepo.SLADevice{device(1, "Gate A")}}
	svc := newReportService(t, storeClock, devices, &fakeEvents{})

	page, err := svc.Report(context.Background(), Filters{Skip: 0, Limit: 500})
	require.NoError(t, err)
	require.EqualValues(t, 1, page.TotalRows)

	// artifact ages past the threshold and the source goes away
	storeClock.Advance(25 * time.Hour)
	devices.err = errors.New("db down")

	page, err = svc.Report(context.Background(), Filters{Skip: 0, Limit: 500})
	require.NoError(t, err)
	require.EqualValues(t, 1, page.TotalRows)
	require.Equal(t, "Gate A", page.Data[0].CameraName)
}

func TestWriteCSV(t *testing.T) {
	devices := &fakeDevices{devices: []mysqlrepo.SLADevice{
		device(1, "Gate A"),
		device(2, "Gate B"),
	}}
	events := &fakeEvents{events: []penalty.Event{
		{LogID: 1, DeviceID: 1, At: utc(1, 0, 0), Kind: penalty.EventDisconnect},
		{LogID: 2, DeviceID: 1, At: utc(4, 0, 0), Kind: penalty.EventConnect},
	}}
	svc := newReportService(t, clockwork.NewFakeClockAt(time.Now()), devices, events)

	var buf bytes.Buffer
	require.NoError(t, svc.WriteCSV(context.Background(), Filters{}, &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3) // header + 2 rows

	require.Equal(t, "camera_name", records[0][4])
	require.Equal(t, "Gate A", records[1][4])
	require.Equal(t, "2024-01-01 00:00:00", records[1][13]) // offline_time
	require.Equal(t, "1500.00", records[1][17])             // penalty_amount
	require.Equal(t, "", records[2][13])                    // never offline
	require.Equal(t, "0.00", records[2][17])
}
