// internal/services/cache_service.go
// Rebuild orchestration and the waiver workflow — the only write path
// into the otherwise read-only pipeline.

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"sla-penalty/internal/cache"
	mysqlrepo "sla-penalty/internal/repositories/mysql"
)

var (
	// ErrEventNotFound: waiver referenced a log row that does not exist.
	ErrEventNotFound = errors.New("incident log row not found")

	// ErrCacheRefreshFailed: the waiver reached the source log but the
	// month rebuild failed afterwards. The cache is now behind the
	// source of truth; operators must refresh manually.
	ErrCacheRefreshFailed = errors.New("waiver recorded but cache refresh failed")
)

type IncidentWriter interface {
	OccurredAt(ctx context.Context, logID int64) (time.Time, error)
	UpdateWaiverCategory(ctx context.Context, logID, subCategoryID int64) error
}

type CacheService struct {
	Store     *cache.Store
	Builder   *PenaltyTableBuilder
	Incidents IncidentWriter
	Log       *slog.Logger

	rebuilds singleflight.Group
}

// Rebuild forces a fresh artifact for the month, unconditionally.
func (c *CacheService) Rebuild(ctx context.Context, m cache.Month) error {
	return c.Store.Rebuild(ctx, m, func(ctx context.Context) ([]cache.PenaltyRow, error) {
		return c.Builder.BuildMonth(ctx, m)
	})
}

// EnsureFresh rebuilds the month when its artifact is missing or past
// the staleness threshold. Concurrent read-through callers of the same
// month share a single in-flight rebuild instead of queueing duplicates.
func (c *CacheService) EnsureFresh(ctx context.Context, m cache.Month) error {
	if c.Store.Exists(m) && !c.Store.IsStale(m) {
		return nil
	}
	_, err, _ := c.rebuilds.Do(m.Key(), func() (any, error) {
		// re-check: the artifact may have been rebuilt while we waited
		if c.Store.Exists(m) && !c.Store.IsStale(m) {
			return nil, nil
		}
		return nil, c.Rebuild(ctx, m)
	})
	return err
}

// WaivePenalty tags one incident-log row with a waiver sub-category and
// rebuilds the cache for the month the event falls into — that month
// only, never its neighbours. An update failure rejects the waiver with
// no rebuild; a rebuild failure after a successful update is the
// distinct ErrCacheRefreshFailed consistency condition.
func (c *CacheService) WaivePenalty(ctx context.Context, logID, subCategoryID int64) (cache.Month, error) {
	at, err := c.Incidents.OccurredAt(ctx, logID)
	if errors.Is(err, mysqlrepo.ErrIncidentNotFound) {
		return cache.Month{}, fmt.Errorf("%w: id %d", ErrEventNotFound, logID)
	}
	if err != nil {
		return cache.Month{}, err
	}
	m := cache.MonthOf(at)

	if err := c.Incidents.UpdateWaiverCategory(ctx, logID, subCategoryID); err != nil {
		return m, fmt.Errorf("waiver rejected: %w", err)
	}

	if err := c.Rebuild(ctx, m); err != nil {
		c.Log.Error("cache left stale after waiver", "incident_log_id", logID, "month", m.Key(), "err", err)
		return m, fmt.Errorf("%w (month %s): %v", ErrCacheRefreshFailed, m.Key(), err)
	}
	return m, nil
}
