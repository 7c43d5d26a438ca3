// internal/cache/store_test.go

package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jan = Month{Year: 2024, Month: time.January}

func newTestStore(t *testing.T, clock clockwork.Clock) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), 24*time.Hour, clock, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	require.NoError(t, err)
	return s
}

func sampleRows(n int) []PenaltyRow {
	rows := make([]PenaltyRow, 0, n)
	for i := 0; i < n; i++ {
		zone := int64(1 + i%3)
		off := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
		mins := int64(4320)
		rows = append(rows, PenaltyRow{
			CameraID:       int64(i + 1),
			CameraName:     fmt.Sprintf("CAM-%03d", i+1),
			ZoneID:         &zone,
			OfflineTime:    &off,
			OfflineMinutes: &mins,
			PenaltyAmount:  decimal.NewFromInt(1500),
		})
	}
	return rows
}

func staticBuilder(rows []PenaltyRow) func(context.Context) ([]PenaltyRow, error) {
	return func(context.Context) ([]PenaltyRow, error) { return rows, nil }
}

func TestQueryMissingMonthIsEmptyNotError(t *testing.T) {
	s := newTestStore(t, clockwork.NewFakeClock())

	rows, total, err := s.Query(context.Background(), jan, Filter{}, 0, 100)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Zero(t, total)
}

func TestRebuildThenQueryRoundTrip(t *testing.T) {
	s := newTestStore(t, clockwork.NewFakeClock())
	require.NoError(t, s.Rebuild(context.Background(), jan, staticBuilder(sampleRows(5))))

	rows, total, err := s.Query(context.Background(), jan, Filter{}, 0, 100)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, rows, 5)

	got := rows[0]
	assert.EqualValues(t, 1, got.CameraID)
	assert.Equal(t, "CAM-001", got.CameraName)
	require.NotNil(t, got.OfflineTime)
	assert.Equal(t, time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC), *got.OfflineTime)
	assert.Nil(t, got.OnlineTime)
	require.NotNil(t, got.OfflineMinutes)
	assert.EqualValues(t, 4320, *got.OfflineMinutes)
	assert.Equal(t, "1500.00", got.PenaltyAmount.StringFixed(2))
}

func TestRebuildIsIdempotent(t *testing.T) {
	s := newTestStore(t, clockwork.NewFakeClock())
	src := staticBuilder(sampleRows(7))

	require.NoError(t, s.Rebuild(context.Background(), jan, src))
	first, totalFirst, err := s.Query(context.Background(), jan, Filter{}, 0, 1000)
	require.NoError(t, err)

	require.NoError(t, s.Rebuild(context.Background(), jan, src))
	second, totalSecond, err := s.Query(context.Background(), jan, Filter{}, 0, 1000)
	require.NoError(t, err)

	assert.Equal(t, totalFirst, totalSecond)
	assert.Equal(t, first, second)
}

func TestRebuildFailureKeepsPriorArtifact(t *testing.T) {
	s := newTestStore(t, clockwork.NewFakeClock())
	require.NoError(t, s.Rebuild(context.Background(), jan, staticBuilder(sampleRows(3))))

	err := s.Rebuild(context.Background(), jan, func(context.Context) ([]PenaltyRow, error) {
		return nil, errors.New("source unavailable")
	})
	require.Error(t, err)

	rows, total, err := s.Query(context.Background(), jan, Filter{}, 0, 100)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, rows, 3)
}

func TestPaginationConsistency(t *testing.T) {
	s := newTestStore(t, clockwork.NewFakeClock())
	require.NoError(t, s.Rebuild(context.Background(), jan, staticBuilder(sampleRows(23))))

	full, total, err := s.Query(context.Background(), jan, Filter{}, 0, 1000)
	require.NoError(t, err)
	require.EqualValues(t, 23, total)

	const pageSize = 5
	var paged []PenaltyRow
	for skip := 0; skip < int(total); skip += pageSize {
		page, pageTotal, err := s.Query(context.Background(), jan, Filter{}, skip, pageSize)
		require.NoError(t, err)
		assert.EqualValues(t, total, pageTotal)
		paged = append(paged, page...)
	}
	assert.Equal(t, full, paged)
}

func TestQueryFilterMembership(t *testing.T) {
	s := newTestStore(t, clockwork.NewFakeClock())
	require.NoError(t, s.Rebuild(context.Background(), jan, staticBuilder(sampleRows(9))))

	// zones cycle 1,2,3 -> zone 2 matches cameras 2,5,8
	rows, total, err := s.Query(context.Background(), jan, Filter{ZoneIDs: []int64{2}}, 0, 100)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	for _, r := range rows {
		require.NotNil(t, r.ZoneID)
		assert.EqualValues(t, 2, *r.ZoneID)
	}

	_, total, err = s.Query(context.Background(), jan, Filter{ZoneIDs: []int64{2, 3}, UnitIDs: []int64{99}}, 0, 100)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestSumPenaltyDecimal(t *testing.T) {
	s := newTestStore(t, clockwork.NewFakeClock())
	require.NoError(t, s.Rebuild(context.Background(), jan, staticBuilder(sampleRows(4))))

	sum, err := s.SumPenalty(context.Background(), jan, Filter{})
	require.NoError(t, err)
	assert.Equal(t, "6000.00", sum.StringFixed(2))

	sum, err = s.SumPenalty(context.Background(), Month{Year: 2024, Month: time.February}, Filter{})
	require.NoError(t, err)
	assert.True(t, sum.IsZero())
}

func TestStalenessIsAgeBased(t *testing.T) {
	// artifact mtime is real wall time, so anchor the fake clock there
	clock := clockwork.NewFakeClockAt(time.Now())
	s := newTestStore(t, clock)

	assert.True(t, s.IsStale(jan), "missing artifact is stale")

	require.NoError(t, s.Rebuild(context.Background(), jan, staticBuilder(sampleRows(1))))
	assert.False(t, s.IsStale(jan))

	clock.Advance(25 * time.Hour)
	assert.True(t, s.IsStale(jan))
}

func TestExistsRequiresTable(t *testing.T) {
	s := newTestStore(t, clockwork.NewFakeClock())
	assert.False(t, s.Exists(jan))

	// an empty file at the artifact path is not a usable cache
	require.NoError(t, os.WriteFile(s.Path(jan), nil, 0o644))
	assert.False(t, s.Exists(jan))

	require.NoError(t, s.Rebuild(context.Background(), jan, staticBuilder(sampleRows(1))))
	assert.True(t, s.Exists(jan))
}

func TestMonthHelpers(t *testing.T) {
	m := MonthOf(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, "202403", m.Key())
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), m.Start())
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), m.End())

	prev := PreviousMonth(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "202312", prev.Key())

	span := MonthsInRange(
		time.Date(2023, 11, 20, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	)
	require.Len(t, span, 4)
	assert.Equal(t, "202311", span[0].Key())
	assert.Equal(t, "202402", span[3].Key())

	assert.Nil(t, MonthsInRange(
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	))
}
