// internal/services/report_service.go
// Paginated detail report and CSV export, served from the month cache.

package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"sla-penalty/internal/cache"
)

// ReportPage is the paginated report response shape.
type ReportPage struct {
	TotalRows int64              `json:"total_rows"`
	Data      []cache.PenaltyRow `json:"data"`
}

type ReportService struct {
	Store *cache.Store
	Cache *CacheService
	Clock clockwork.Clock
	Log   *slog.Logger
}

// Report serves one page of the month's penalty table, rebuilding the
// artifact read-through when it is missing or stale. If the rebuild
// fails and no prior artifact exists the whole request fails: partial
// rows would be misleading for billing-adjacent figures. A stale-but-
// present artifact degrades to serving the old data with a warning.
func (s *ReportService) Report(ctx context.Context, f Filters) (*ReportPage, error) {
	m := f.ReportMonth(s.Clock.Now())

	if err := s.Cache.EnsureFresh(ctx, m); err != nil {
		if !s.Store.Exists(m) {
			return nil, fmt.Errorf("report cache unavailable for %s: %w", m.Key(), err)
		}
		s.Log.Warn("serving stale report cache", "month", m.Key(), "err", err)
	}

	rows, total, err := s.Store.Query(ctx, m, f.cacheFilter(), f.Skip, f.Limit)
	if err != nil {
		return nil, err
	}
	return &ReportPage{TotalRows: total, Data: rows}, nil
}

// csvFetchLimit bounds the export like the original download endpoint:
// high enough to cover the whole fleet, never unbounded.
const csvFetchLimit = 500000

// WriteCSV streams the full filtered result set (no pagination) as CSV.
func (s *ReportService) WriteCSV(ctx context.Context, f Filters, w io.Writer) error {
	f.Skip = 0
	f.Limit = csvFetchLimit
	page, err := s.Report(ctx, f)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := []string{
		"nvr_id", "nvr_alias", "nvr_ip",
		"camera_id", "camera_name",
		"zone_id", "zone_name", "street_id", "street_name",
		"building_id", "building_name", "unit_id", "unit_name",
		"offline_time", "online_time", "effective_end",
		"offline_minutes", "penalty_amount", "waiver_category_id",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range page.Data {
		rec := []string{
			csvInt(r.NVRID), csvStr(r.NVRAlias), csvStr(r.NVRIP),
			strconv.FormatInt(r.CameraID, 10), r.CameraName,
			csvInt(r.ZoneID), csvStr(r.ZoneName),
			csvInt(r.StreetID), csvStr(r.StreetName),
			csvInt(r.BuildingID), csvStr(r.BuildingName),
			csvInt(r.UnitID), csvStr(r.UnitName),
			csvTime(r.OfflineTime), csvTime(r.OnlineTime), csvTime(r.EffectiveEnd),
			csvInt(r.OfflineMinutes), r.PenaltyAmount.StringFixed(2),
			csvInt(r.WaiverCategoryID),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func csvStr(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func csvTime(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.UTC().Format("2006-01-02 15:04:05")
}
