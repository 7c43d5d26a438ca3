// internal/repositories/mysql/camera_repo.go
// Repo for the camera fleet and its geography rollup.

package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SLADevice is one camera joined to its (optional) NVR and its single
// geography pick. A camera can carry several rollup links in the source
// schema; the lowest link id wins so the output is deterministic.
type SLADevice struct {
	CameraID   int64
	CameraName string

	NVRID    sql.NullInt64
	NVRAlias sql.NullString
	NVRIP    sql.NullString

	ZoneID       sql.NullInt64
	ZoneName     sql.NullString
	StreetID     sql.NullInt64
	StreetName   sql.NullString
	BuildingID   sql.NullInt64
	BuildingName sql.NullString
	UnitID       sql.NullInt64
	UnitName     sql.NullString
}

type CameraRepo struct{ DB *sql.DB }

// Optional: pembungkus buat context timeout default repo
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// ListSLADevices returns every camera whose building carries the given
// alarm contract tag, ordered by camera id. Cameras with a contract link
// but no zone/street/unit rollup still come back, with NULL geography.
func (r *CameraRepo) ListSLADevices(ctx context.Context, contractTag string) ([]SLADevice, error) {
	ctx, cancel := withTimeout(ctx, 30*time.Second)
	defer cancel()

	const q = `
		SELECT cam.id, cam.name,
		       n.id, n.alias, n.ip_address,
		       g.zone_id, z.name,
		       g.street_id, s.name,
		       g.building_id, b.name,
		       g.unit_id, u.name
		FROM cameras cam
		LEFT JOIN nvr_channels nc
		       ON nc.camera_id = cam.id
		      AND nc.id = (SELECT MIN(nc2.id) FROM nvr_channels nc2 WHERE nc2.camera_id = cam.id)
		LEFT JOIN nvrs n ON n.id = nc.nvr_id
		LEFT JOIN geo_camera_links g
		       ON g.camera_id = cam.id
		      AND g.id = (SELECT MIN(g2.id) FROM geo_camera_links g2 WHERE g2.camera_id = cam.id)
		LEFT JOIN camera_zones z ON z.id = g.zone_id
		LEFT JOIN camera_streets s ON s.id = g.street_id
		LEFT JOIN buildings b    ON b.id = g.building_id
		LEFT JOIN camera_units u   ON u.id = g.unit_id
		WHERE b.alarm_contract_no = ?
		ORDER BY cam.id`

	rows, err := r.DB.QueryContext(ctx, q, contractTag)
	if err != nil {
		return nil, fmt.Errorf("query sla devices: %w", err)
	}
	defer rows.Close()

	out := make([]SLADevice, 0, 256)
	for rows.Next() {
		var d SLADevice
		err := rows.Scan(
			&d.CameraID, &d.CameraName,
			&d.NVRID, &d.NVRAlias, &d.NVRIP,
			&d.ZoneID, &d.ZoneName,
			&d.StreetID, &d.StreetName,
			&d.BuildingID, &d.BuildingName,
			&d.UnitID, &d.UnitName,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
