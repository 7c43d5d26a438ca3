// internal/cache/row.go
// Row and filter shapes for the materialized penalty table.

package cache

import (
	"time"

	"github.com/shopspring/decimal"
)

// PenaltyRow is one device's SLA result for one reporting month, exactly
// as persisted in the month artifact. Geography and NVR fields are
// nullable: a device with no rollup still gets a row.
type PenaltyRow struct {
	NVRID        *int64  `json:"nvr_id"`
	NVRAlias     *string `json:"nvr_alias"`
	NVRIP        *string `json:"nvr_ip"`
	CameraID     int64   `json:"camera_id"`
	CameraName   string  `json:"camera_name"`
	ZoneID       *int64  `json:"zone_id"`
	ZoneName     *string `json:"zone_name"`
	StreetID     *int64  `json:"street_id"`
	StreetName   *string `json:"street_name"`
	BuildingID   *int64  `json:"building_id"`
	BuildingName *string `json:"building_name"`
	UnitID       *int64  `json:"unit_id"`
	UnitName     *string `json:"unit_name"`

	IncidentLogID    *int64 `json:"incident_log_id"`
	WaiverCategoryID *int64 `json:"waiver_category_id"`

	OfflineTime    *time.Time `json:"offline_time"`
	OnlineTime     *time.Time `json:"online_time"`
	EffectiveEnd   *time.Time `json:"effective_end"`
	OfflineMinutes *int64     `json:"offline_minutes"`

	PenaltyAmount decimal.Decimal `json:"penalty_amount"`
}

// Filter restricts artifact reads by geography membership. Empty slices
// mean no restriction on that dimension; populated ones combine as AND of
// IN (...) tests.
type Filter struct {
	ZoneIDs   []int64
	StreetIDs []int64
	UnitIDs   []int64
}
