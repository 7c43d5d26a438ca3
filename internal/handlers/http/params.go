// internal/handlers/http/params.go
// Query-param parsing shared by dashboard/report/export handlers. Filter
// validation happens here, before anything reaches the services.

package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"sla-penalty/internal/services"
)

func parseIDList(r *http.Request, key string) ([]int64, error) {
	vals := r.URL.Query()[key]
	if len(vals) == 0 {
		return nil, nil
	}
	out := make([]int64, 0, len(vals))
	for _, v := range vals {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q", key, v)
		}
		out = append(out, id)
	}
	return out, nil
}

func parseTimeParam(r *http.Request, key string) (*time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	// RFC3339 first, then plain date
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", v, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", key, v)
	}
	return &t, nil
}

func parseFilters(r *http.Request) (services.Filters, error) {
	var f services.Filters
	var err error

	if f.ZoneIDs, err = parseIDList(r, "zone_id"); err != nil {
		return f, err
	}
	if f.StreetIDs, err = parseIDList(r, "street_id"); err != nil {
		return f, err
	}
	if f.UnitIDs, err = parseIDList(r, "unit_id"); err != nil {
		return f, err
	}
	if f.DateFrom, err = parseTimeParam(r, "date_from"); err != nil {
		return f, err
	}
	if f.DateTo, err = parseTimeParam(r, "date_to"); err != nil {
		return f, err
	}
	return f, nil
}

// parsePage enforces skip >= 0 and limit in [1,1000] (default 500).
func parsePage(r *http.Request) (skip, limit int, err error) {
	skip, limit = 0, 500

	if v := r.URL.Query().Get("skip"); v != "" {
		skip, err = strconv.Atoi(v)
		if err != nil || skip < 0 {
			return 0, 0, fmt.Errorf("invalid skip %q", v)
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 || limit > 1000 {
			return 0, 0, fmt.Errorf("invalid limit %q (must be 1..1000)", v)
		}
	}
	return skip, limit, nil
}
