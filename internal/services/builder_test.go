// internal/services/builder_test.go

package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"sla-penalty/internal/cache"
	mysqlrepo "sla-penalty/internal/repositories/mysql"
	"sla-penalty/pkg/penalty"
)

/* ---------- shared fakes ---------- */

type fakeDevices struct {
	devices []mysqlrepo.SLADevice
	err     error
	calls   int32
}

func (f *fakeDevices) ListSLADevices(ctx context.Context, contractTag string) ([]mysqlrepo.SLADevice, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return f.devices, nil
}

type fakeEvents struct {
	events []penalty.Event
	err    error
}

func (f *fakeEvents) ListConnectivityEvents(ctx context.Context, start, end time.Time) ([]penalty.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

type fakeIncidents struct {
	occurred  map[int64]time.Time
	updateErr error
	updated   map[int64]int64
}

func (f *fakeIncidents) OccurredAt(ctx context.Context, logID int64) (time.Time, error) {
	at, ok := f.occurred[logID]
	if !ok {
		return time.Time{}, mysqlrepo.ErrIncidentNotFound
	}
	return at, nil
}

func (f *fakeIncidents) UpdateWaiverCategory(ctx context.Context, logID, subCategoryID int64) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.updated == nil {
		f.updated = map[int64]int64{}
	}
	f.updated[logID] = subCategoryID
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func device(id int64, name string) mysqlrepo.SLADevice {
	return mysqlrepo.SLADevice{
		CameraID:   id,
		CameraName: name,
		NVRID:      sql.NullInt64{Int64: 10, Valid: true},
		NVRAlias:   sql.NullString{String: "NVR-10", Valid: true},
		NVRIP:      sql.NullString{String: "10.0.0.10", Valid: true},
		ZoneID:     sql.NullInt64{Int64: 1, Valid: true},
		ZoneName:   sql.NullString{String: "North", Valid: true},
	}
}

func utc(day, hour, min int) time.Time {
	return time.Date(2024, time.January, day, hour, min, 0, 0, time.UTC)
}

/* ---------- tests ---------- */

func TestBuildMonth(t *testing.T) {
	jan := cache.Month{Year: 2024, Month: time.January}
	now := utc(12, 0, 0)
	waiverCat := int64(7)

	b := &PenaltyTableBuilder{
		Devices: &fakeDevices{devices: []mysqlrepo.SLADevice{
			device(1, "Gate A"),
			device(2, "Gate B"),
			device(3, "Lobby"),
			device(4, "Yard"),
		}},
		Events: &fakeEvents{events: []penalty.Event{
			{LogID: 101, DeviceID: 1, At: utc(10, 0, 0), Kind: penalty.EventDisconnect},
			{LogID: 102, DeviceID: 3, At: utc(5, 8, 0), Kind: penalty.EventDisconnect},
			{LogID: 103, DeviceID: 3, At: utc(5, 8, 30), Kind: penalty.EventConnect},
			{LogID: 104, DeviceID: 4, At: utc(2, 0, 0), Kind: penalty.EventDisconnect, SubCategoryID: &waiverCat},
		}},
		ContractTag: "PWD",
		Clock:       clockwork.NewFakeClockAt(now),
	}

	rows, err := b.BuildMonth(context.Background(), jan)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	// still offline: clipped at now, two full grace periods elapsed
	r1 := rows[0]
	require.NotNil(t, r1.OfflineMinutes)
	require.EqualValues(t, 2880, *r1.OfflineMinutes)
	require.Nil(t, r1.OnlineTime)
	require.NotNil(t, r1.EffectiveEnd)
	require.True(t, r1.EffectiveEnd.Equal(now))
	require.NotNil(t, r1.IncidentLogID)
	require.EqualValues(t, 101, *r1.IncidentLogID)
	require.True(t, r1.PenaltyAmount.Equal(decimal.RequireFromString("1000.00")))

	// no events at all: empty interval fields, zero penalty
	r2 := rows[1]
	require.Nil(t, r2.OfflineTime)
	require.Nil(t, r2.OfflineMinutes)
	require.True(t, r2.PenaltyAmount.IsZero())

	// short outage, back within grace
	r3 := rows[2]
	require.NotNil(t, r3.OfflineMinutes)
	require.EqualValues(t, 30, *r3.OfflineMinutes)
	require.NotNil(t, r3.OnlineTime)
	require.True(t, r3.PenaltyAmount.IsZero())

	// long outage but waived
	r4 := rows[3]
	require.NotNil(t, r4.OfflineMinutes)
	require.EqualValues(t, 14400, *r4.OfflineMinutes)
	require.NotNil(t, r4.WaiverCategoryID)
	require.EqualValues(t, waiverCat, *r4.WaiverCategoryID)
	require.True(t, r4.PenaltyAmount.IsZero())
}

func TestBuildMonthSourceErrorsAbort(t *testing.T) {
	jan := cache.Month{Year: 2024, Month: time.January}
	boom := errors.New("db down")

	b := &PenaltyTableBuilder{
		Devices: &fakeDevices{err: boom},
		Events:  &fakeEvents{},
		Clock:   clockwork.NewFakeClockAt(utc(12, 0, 0)),
	}
	_, err := b.BuildMonth(context.Background(), jan)
	require.ErrorIs(t, err, boom)

	b = &PenaltyTableBuilder{
		Devices: &fakeDevices{devices: []mysqlrepo.SLADevice{device(1, "Gate A")}},
		Events:  &fakeEvents{err: boom},
		Clock:   clockwork.NewFakeClockAt(utc(12, 0, 0)),
	}
	_, err = b.BuildMonth(context.Background(), jan)
	require.ErrorIs(t, err, boom)
}
