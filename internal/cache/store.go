// internal/cache/store.go
// File-per-month materialized penalty table on SQLite. One artifact per
// calendar month, replaced atomically on rebuild, never updated in place.

package cache

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

const tableName = "cached_report_data"

const schema = `
CREATE TABLE ` + tableName + ` (
	camera_id          INTEGER NOT NULL,
	camera_name        TEXT    NOT NULL,
	nvr_id             INTEGER,
	nvr_alias          TEXT,
	nvr_ip             TEXT,
	zone_id            INTEGER,
	zone_name          TEXT,
	street_id          INTEGER,
	street_name        TEXT,
	building_id        INTEGER,
	building_name      TEXT,
	unit_id            INTEGER,
	unit_name          TEXT,
	incident_log_id    INTEGER,
	waiver_category_id INTEGER,
	offline_time       TEXT,
	online_time        TEXT,
	effective_end      TEXT,
	offline_minutes    INTEGER,
	penalty_amount     TEXT NOT NULL
);
CREATE INDEX idx_cached_zone   ON ` + tableName + `(zone_id);
CREATE INDEX idx_cached_street ON ` + tableName + `(street_id);
CREATE INDEX idx_cached_unit   ON ` + tableName + `(unit_id);
CREATE INDEX idx_cached_camera ON ` + tableName + `(camera_id);
`

// timeFmt keeps artifact timestamps lexicographically sortable and easy
// to eyeball with the sqlite3 CLI.
const timeFmt = "2006-01-02 15:04:05"

// Store owns the cache directory. Writers serialize per month; readers of
// a month never run concurrently with its writer. Cross-month operations
// are fully independent.
type Store struct {
	dir   string
	stale time.Duration
	clock clockwork.Clock
	log   *slog.Logger

	mu     sync.Mutex
	months map[string]*sync.RWMutex
}

// NewStore validates the cache directory once, up front: it must exist,
// be a directory, and be writable.
func NewStore(dir string, stale time.Duration, clock clockwork.Clock, log *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache dir %s: %w", dir, err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("cache dir %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("cache dir %s: not a directory", dir)
	}
	probe := filepath.Join(dir, ".probe-"+uuid.New().String())
	if err := os.WriteFile(probe, nil, 0o644); err != nil {
		return nil, fmt.Errorf("cache dir %s not writable: %w", dir, err)
	}
	_ = os.Remove(probe)

	return &Store{
		dir:    dir,
		stale:  stale,
		clock:  clock,
		log:    log,
		months: make(map[string]*sync.RWMutex),
	}, nil
}

// Path returns the deterministic artifact location for a month.
func (s *Store) Path(m Month) string {
	return filepath.Join(s.dir, fmt.Sprintf("report_data_%s.db", m.Key()))
}

func (s *Store) monthLock(m Month) *sync.RWMutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.months[m.Key()]
	if !ok {
		l = &sync.RWMutex{}
		s.months[m.Key()] = l
	}
	return l
}

// Exists reports whether the artifact is present and actually contains
// the cached table. A zero-byte or half-created file does not count.
func (s *Store) Exists(m Month) bool {
	l := s.monthLock(m)
	l.RLock()
	defer l.RUnlock()
	return s.existsLocked(m)
}

func (s *Store) existsLocked(m Month) bool {
	path := s.Path(m)
	if _, err := os.Stat(path); err != nil {
		return false
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return false
	}
	defer db.Close()

	var name string
	err = db.QueryRow(
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, tableName,
	).Scan(&name)
	return err == nil
}

// IsStale reports whether the artifact is missing, unreadable, or older
// than the staleness threshold. Staleness is purely age-based; waivers
// force their own rebuild instead of invalidating here.
func (s *Store) IsStale(m Month) bool {
	l := s.monthLock(m)
	l.RLock()
	defer l.RUnlock()

	if !s.existsLocked(m) {
		return true
	}
	info, err := os.Stat(s.Path(m))
	if err != nil {
		return true
	}
	return s.clock.Now().Sub(info.ModTime()) > s.stale
}

// Rebuild materializes a month from scratch: run the supplied builder,
// write a fresh artifact next to the live one, then rename it into place.
// The prior artifact stays authoritative until the rename; a builder or
// write error leaves it untouched. Rebuilds of the same month serialize,
// different months proceed independently.
func (s *Store) Rebuild(ctx context.Context, m Month, build func(context.Context) ([]PenaltyRow, error)) error {
	l := s.monthLock(m)
	l.Lock()
	defer l.Unlock()

	rows, err := build(ctx)
	if err != nil {
		return fmt.Errorf("build penalty table %s: %w", m.Key(), err)
	}

	tmp := filepath.Join(s.dir, fmt.Sprintf(".report_data_%s.%s.tmp", m.Key(), uuid.New().String()))
	if err := s.writeArtifact(ctx, tmp, rows); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write cache artifact %s: %w", m.Key(), err)
	}
	if err := os.Rename(tmp, s.Path(m)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("activate cache artifact %s: %w", m.Key(), err)
	}

	s.log.Info("cache artifact rebuilt", "month", m.Key(), "rows", len(rows))
	return nil
}

func (s *Store) writeArtifact(ctx context.Context, path string, rows []PenaltyRow) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO `+tableName+` (
			camera_id, camera_name, nvr_id, nvr_alias, nvr_ip,
			zone_id, zone_name, street_id, street_name,
			building_id, building_name, unit_id, unit_name,
			incident_log_id, waiver_category_id,
			offline_time, online_time, effective_end,
			offline_minutes, penalty_amount
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		_, err := stmt.ExecContext(ctx,
			r.CameraID, r.CameraName, r.NVRID, r.NVRAlias, r.NVRIP,
			r.ZoneID, r.ZoneName, r.StreetID, r.StreetName,
			r.BuildingID, r.BuildingName, r.UnitID, r.UnitName,
			r.IncidentLogID, r.WaiverCategoryID,
			fmtTime(r.OfflineTime), fmtTime(r.OnlineTime), fmtTime(r.EffectiveEnd),
			r.OfflineMinutes, r.PenaltyAmount.StringFixed(2),
		)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Query returns one page of the month's rows plus the total count under
// the same filter. A missing artifact is an empty result, not an error:
// callers decide whether to rebuild first.
func (s *Store) Query(ctx context.Context, m Month, f Filter, skip, limit int) ([]PenaltyRow, int64, error) {
	l := s.monthLock(m)
	l.RLock()
	defer l.RUnlock()

	if !s.existsLocked(m) {
		return []PenaltyRow{}, 0, nil
	}

	db, err := sql.Open("sqlite3", "file:"+s.Path(m)+"?mode=ro")
	if err != nil {
		return nil, 0, fmt.Errorf("open cache artifact %s: %w", m.Key(), err)
	}
	defer db.Close()

	where, args := buildWhere(f)

	var total int64
	countQ := `SELECT COUNT(*) FROM ` + tableName + ` WHERE ` + where
	if err := db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count cache artifact %s: %w", m.Key(), err)
	}

	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = 500
	}

	q := `
		SELECT camera_id, camera_name, nvr_id, nvr_alias, nvr_ip,
		       zone_id, zone_name, street_id, street_name,
		       building_id, building_name, unit_id, unit_name,
		       incident_log_id, waiver_category_id,
		       offline_time, online_time, effective_end,
		       offline_minutes, penalty_amount
		FROM ` + tableName + `
		WHERE ` + where + `
		ORDER BY camera_id
		LIMIT ? OFFSET ?`
	pageArgs := append(append([]any{}, args...), limit, skip)

	rows, err := db.QueryContext(ctx, q, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("query cache artifact %s: %w", m.Key(), err)
	}
	defer rows.Close()

	out := make([]PenaltyRow, 0, limit)
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// SumPenalty totals penalty_amount over the filtered artifact. Amounts
// are summed as decimals, not floats; a missing artifact sums to 0.00.
func (s *Store) SumPenalty(ctx context.Context, m Month, f Filter) (decimal.Decimal, error) {
	l := s.monthLock(m)
	l.RLock()
	defer l.RUnlock()

	if !s.existsLocked(m) {
		return decimal.Zero, nil
	}

	db, err := sql.Open("sqlite3", "file:"+s.Path(m)+"?mode=ro")
	if err != nil {
		return decimal.Zero, fmt.Errorf("open cache artifact %s: %w", m.Key(), err)
	}
	defer db.Close()

	where, args := buildWhere(f)
	rows, err := db.QueryContext(ctx, `SELECT penalty_amount FROM `+tableName+` WHERE `+where, args...)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum cache artifact %s: %w", m.Key(), err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, err
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("bad penalty amount %q in %s: %w", raw, m.Key(), err)
		}
		total = total.Add(d)
	}
	return total, rows.Err()
}

// buildWhere compiles the membership filters into a parameterized WHERE
// body. Values always travel as bind args, never as interpolated text.
func buildWhere(f Filter) (string, []any) {
	clauses := []string{"1=1"}
	args := make([]any, 0, len(f.ZoneIDs)+len(f.StreetIDs)+len(f.UnitIDs))

	add := func(col string, ids []int64) {
		if len(ids) == 0 {
			return
		}
		clauses = append(clauses, col+` IN (`+placeholders(len(ids))+`)`)
		for _, id := range ids {
			args = append(args, id)
		}
	}
	add("zone_id", f.ZoneIDs)
	add("street_id", f.StreetIDs)
	add("unit_id", f.UnitIDs)

	return strings.Join(clauses, " AND "), args
}

// placeholders menghasilkan "?,?,..." sebanyak n.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

func scanRow(rows *sql.Rows) (PenaltyRow, error) {
	var (
		r                         PenaltyRow
		nvrID                     sql.NullInt64
		nvrAlias, nvrIP           sql.NullString
		zoneID, streetID          sql.NullInt64
		buildingID, unitID        sql.NullInt64
		zoneName, streetName      sql.NullString
		buildingName, unitName    sql.NullString
		logID, waiverID, offlineM sql.NullInt64
		offT, onT, effT           sql.NullString
		amount                    string
	)
	err := rows.Scan(
		&r.CameraID, &r.CameraName, &nvrID, &nvrAlias, &nvrIP,
		&zoneID, &zoneName, &streetID, &streetName,
		&buildingID, &buildingName, &unitID, &unitName,
		&logID, &waiverID,
		&offT, &onT, &effT,
		&offlineM, &amount,
	)
	if err != nil {
		return r, err
	}

	r.NVRID = nullInt(nvrID)
	r.NVRAlias = nullStr(nvrAlias)
	r.NVRIP = nullStr(nvrIP)
	r.ZoneID = nullInt(zoneID)
	r.ZoneName = nullStr(zoneName)
	r.StreetID = nullInt(streetID)
	r.StreetName = nullStr(streetName)
	r.BuildingID = nullInt(buildingID)
	r.BuildingName = nullStr(buildingName)
	r.UnitID = nullInt(unitID)
	r.UnitName = nullStr(unitName)
	r.IncidentLogID = nullInt(logID)
	r.WaiverCategoryID = nullInt(waiverID)
	r.OfflineMinutes = nullInt(offlineM)

	if r.OfflineTime, err = parseTime(offT); err != nil {
		return r, err
	}
	if r.OnlineTime, err = parseTime(onT); err != nil {
		return r, err
	}
	if r.EffectiveEnd, err = parseTime(effT); err != nil {
		return r, err
	}

	if r.PenaltyAmount, err = decimal.NewFromString(amount); err != nil {
		return r, fmt.Errorf("bad penalty amount %q: %w", amount, err)
	}
	return r, nil
}

func fmtTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeFmt)
}

func parseTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(timeFmt, v.String, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("bad cached timestamp %q: %w", v.String, err)
	}
	return &t, nil
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func nullStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
