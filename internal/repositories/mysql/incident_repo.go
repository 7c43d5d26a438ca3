// internal/repositories/mysql/incident_repo.go
// Repo for the append-only incident log. Reads the connectivity event
// stream, counts incidents by status, and carries the one allowed
// mutation: tagging a row with a waiver sub-category.

package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"sla-penalty/pkg/penalty"
)

// Incident status codes in the source schema.
const (
	StatusOpen   int64 = 1
	StatusClosed int64 = 2
)

// ErrIncidentNotFound: the referenced log row does not exist.
var ErrIncidentNotFound = errors.New("incident log row not found")

// IncidentFilter mirrors the dashboard filter surface on the raw log.
// Empty id lists mean no restriction; dates are inclusive-from /
// inclusive-to, matching the original dashboard semantics.
type IncidentFilter struct {
	ZoneIDs   []int64
	StreetIDs []int64
	UnitIDs   []int64
	DateFrom  *time.Time
	DateTo    *time.Time
}

type IncidentRepo struct{ DB *sql.DB }

// ListConnectivityEvents returns the in-window disconnect/connect stream
// across all devices, ordered by timestamp then id so that identical
// timestamps resolve last-write-wins downstream. Only the two interpreted
// alarm patterns are fetched; other log rows are ignored.
func (r *IncidentRepo) ListConnectivityEvents(ctx context.Context, start, end time.Time) ([]penalty.Event, error) {
	ctx, cancel := withTimeout(ctx, 60*time.Second)
	defer cancel()

	const q = `
		SELECT id, source_device_id, occurred_at, alarm_message, sub_category_id
		FROM incident_logs
		WHERE occurred_at >= ? AND occurred_at < ?
		  AND (alarm_message LIKE '%Channel disconnect%'
		       OR alarm_message LIKE '%Channel connected%')
		ORDER BY occurred_at, id`

	rows, err := r.DB.QueryContext(ctx, q, start, end)
	if err != nil {
		return nil, fmt.Errorf("query connectivity events: %w", err)
	}
	defer rows.Close()

	out := make([]penalty.Event, 0, 1024)
	for rows.Next() {
		var (
			ev     penalty.Event
			msg    string
			subCat sql.NullInt64
		)
		if err := rows.Scan(&ev.LogID, &ev.DeviceID, &ev.At, &msg, &subCat); err != nil {
			return nil, err
		}
		if strings.Contains(msg, "Channel disconnect") {
			ev.Kind = penalty.EventDisconnect
		} else {
			ev.Kind = penalty.EventConnect
		}
		if subCat.Valid {
			v := subCat.Int64
			ev.SubCategoryID = &v
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// CountByStatus counts filtered incidents with the given status code.
func (r *IncidentRepo) CountByStatus(ctx context.Context, f IncidentFilter, statusID int64) (int64, error) {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()

	sb := strings.Builder{}
	sb.WriteString(`SELECT COUNT(*) FROM incident_logs WHERE status_id = ?`)
	args := []any{statusID}

	appendIn := func(col string, ids []int64) {
		if len(ids) == 0 {
			return
		}
		sb.WriteString(` AND ` + col + ` IN (` + placeholders(len(ids)) + `)`)
		for _, id := range ids {
			args = append(args, id)
		}
	}
	appendIn("zone_id", f.ZoneIDs)
	appendIn("street_id", f.StreetIDs)
	appendIn("unit_id", f.UnitIDs)

	if f.DateFrom != nil {
		sb.WriteString(` AND occurred_at >= ?`)
		args = append(args, *f.DateFrom)
	}
	if f.DateTo != nil {
		sb.WriteString(` AND occurred_at <= ?`)
		args = append(args, *f.DateTo)
	}

	var c int64
	if err := r.DB.QueryRowContext(ctx, sb.String(), args...).Scan(&c); err != nil {
		return 0, fmt.Errorf("count incidents status=%d: %w", statusID, err)
	}
	return c, nil
}

// OccurredAt fetches the timestamp of one log row, for deciding which
// month's cache a waiver invalidates.
func (r *IncidentRepo) OccurredAt(ctx context.Context, logID int64) (time.Time, error) {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	var at time.Time
	err := r.DB.QueryRowContext(ctx,
		`SELECT occurred_at FROM incident_logs WHERE id = ?`, logID,
	).Scan(&at)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrIncidentNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("load incident %d: %w", logID, err)
	}
	return at, nil
}

// UpdateWaiverCategory sets the waiver sub-category on one log row. The
// timestamp and alarm message stay untouched; the log remains
// append-only for everything else.
func (r *IncidentRepo) UpdateWaiverCategory(ctx context.Context, logID, subCategoryID int64) error {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.DB.ExecContext(ctx,
		`UPDATE incident_logs SET sub_category_id = ? WHERE id = ?`,
		subCategoryID, logID,
	)
	if err != nil {
		return fmt.Errorf("update waiver on incident %d: %w", logID, err)
	}
	return nil
}
