// internal/repositories/mysql/masterdata_repo.go
// Repo untuk master data: zones, streets, units (dropdowns + KPI counts).

package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Option is one id/name pair for the filter dropdowns.
type Option struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type MasterDataRepo struct{ DB *sql.DB }

func (r *MasterDataRepo) ListZones(ctx context.Context) ([]Option, error) {
	return r.list(ctx, "camera_zones")
}

func (r *MasterDataRepo) ListStreets(ctx context.Context) ([]Option, error) {
	return r.list(ctx, "camera_streets")
}

func (r *MasterDataRepo) ListUnits(ctx context.Context) ([]Option, error) {
	return r.list(ctx, "camera_units")
}

func (r *MasterDataRepo) CountZones(ctx context.Context) (int64, error) {
	return r.count(ctx, "camera_zones")
}

func (r *MasterDataRepo) CountStreets(ctx context.Context) (int64, error) {
	return r.count(ctx, "camera_streets")
}

func (r *MasterDataRepo) CountUnits(ctx context.Context) (int64, error) {
	return r.count(ctx, "camera_units")
}

// table names come from the fixed calls above, never from request input
func (r *MasterDataRepo) list(ctx context.Context, table string) ([]Option, error) {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.DB.QueryContext(ctx, `SELECT id, name FROM `+table+` ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	out := make([]Option, 0, 64)
	for rows.Next() {
		var o Option
		if err := rows.Scan(&o.ID, &o.Name); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *MasterDataRepo) count(ctx context.Context, table string) (int64, error) {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	var c int64
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&c); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return c, nil
}
