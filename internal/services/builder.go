// internal/services/builder.go
// Penalty table builder: join fleet + geography with the month's event
// stream and emit one cached row per in-contract device.

package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"sla-penalty/internal/cache"
	mysqlrepo "sla-penalty/internal/repositories/mysql"
	"sla-penalty/pkg/penalty"
)

type DeviceReader interface {
	ListSLADevices(ctx context.Context, contractTag string) ([]mysqlrepo.SLADevice, error)
}

type EventReader interface {
	ListConnectivityEvents(ctx context.Context, start, end time.Time) ([]penalty.Event, error)
}

type PenaltyTableBuilder struct {
	Devices     DeviceReader
	Events      EventReader
	ContractTag string
	Clock       clockwork.Clock
}

// BuildMonth produces the full penalty table for one reporting month.
// Any source read error aborts the whole build so the previous artifact
// stays authoritative.
func (b *PenaltyTableBuilder) BuildMonth(ctx context.Context, m cache.Month) ([]cache.PenaltyRow, error) {
	devices, err := b.Devices.ListSLADevices(ctx, b.ContractTag)
	if err != nil {
		return nil, fmt.Errorf("load sla devices: %w", err)
	}
	events, err := b.Events.ListConnectivityEvents(ctx, m.Start(), m.End())
	if err != nil {
		return nil, fmt.Errorf("load connectivity events: %w", err)
	}

	intervals := penalty.ResolveIntervals(events)
	now := b.Clock.Now().UTC()

	// repo returns devices ordered by camera id; the cached table keeps
	// that order stable for pagination
	rows := make([]cache.PenaltyRow, 0, len(devices))
	for _, d := range devices {
		row := cache.PenaltyRow{
			CameraID:     d.CameraID,
			CameraName:   d.CameraName,
			NVRID:        nvInt(d.NVRID),
			NVRAlias:     nvStr(d.NVRAlias),
			NVRIP:        nvStr(d.NVRIP),
			ZoneID:       nvInt(d.ZoneID),
			ZoneName:     nvStr(d.ZoneName),
			StreetID:     nvInt(d.StreetID),
			StreetName:   nvStr(d.StreetName),
			BuildingID:   nvInt(d.BuildingID),
			BuildingName: nvStr(d.BuildingName),
			UnitID:       nvInt(d.UnitID),
			UnitName:     nvStr(d.UnitName),
		}

		if iv, ok := intervals[d.CameraID]; ok {
			off := iv.Offline
			logID := iv.LogID
			eff := penalty.EffectiveEnd(iv.Online, m.End(), now)
			mins := penalty.OfflineMinutes(iv.Offline, eff)

			row.OfflineTime = &off
			row.OnlineTime = iv.Online
			row.EffectiveEnd = &eff
			row.OfflineMinutes = &mins
			row.IncidentLogID = &logID
			row.WaiverCategoryID = iv.SubCategoryID
			row.PenaltyAmount = penalty.Amount(&mins, iv.SubCategoryID != nil)
		} else {
			// fully online all month
			row.PenaltyAmount = penalty.Amount(nil, false)
		}

		rows = append(rows, row)
	}
	return rows, nil
}

func nvInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func nvStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
