package report_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/kasirhub/backend-pos/internal/report"
)

type stubQueries struct {
	dailyCalls int
	topCalls   int
}

func (s *stubQueries) DailySales(_ context.Context, day string) (report.DailySales, error) {
	s.dailyCalls++
	return report.DailySales{Day: day, Orders: 12, Revenue: 458000, Tax: 36640}, nil
}

func (s *stubQueries) TopItems(_ context.Context, _ string, _ int) ([]report.TopItem, error) {
	s.topCalls++
	return []report.TopItem{{ItemID: "nasi-goreng", Name: "Nasi Goreng", QtySold: 31, Revenue: 155000}}, nil
}

func newCachedService(t *testing.T) (*report.Service, *stubQueries) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	queries := &stubQueries{}
	return &report.Service{Q: queries, R: rdb, TTL: time.Minute}, queries
}

func TestDailyCached(t *testing.T) {
	svc, queries := newCachedService(t)

	first, err := svc.Daily(context.Background(), "2025-12-30")
	require.NoError(t, err)
	require.Equal(t, int64(12), first.Orders)

	second, err := svc.Daily(context.Background(), "2025-12-30")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, queries.dailyCalls)

	// a different day misses the cache
	_, err = svc.Daily(context.Background(), "2025-12-31")
	require.NoError(t, err)
	require.Equal(t, 2, queries.dailyCalls)
}

func TestDailyRejectsBadDay(t *testing.T) {
	svc, _ := newCachedService(t)
	_, err := svc.Daily(context.Background(), "30/12/2025")
	require.Error(t, err)
}

func TestDailyDefaultsToToday(t *testing.T) {
	svc, _ := newCachedService(t)
	svc.Now = func() time.Time { return time.Date(2025, 12, 30, 15, 0, 0, 0, time.UTC) }

	summary, err := svc.Daily(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, "2025-12-30", summary.Day)
}

func TestWarmDailyFillsBothCaches(t *testing.T) {
	svc, queries := newCachedService(t)

	require.NoError(t, svc.WarmDaily(context.Background(), "2025-12-30"))
	require.Equal(t, 1, queries.dailyCalls)
	require.Equal(t, 1, queries.topCalls)

	// subsequent reads are served from cache
	_, err := svc.Daily(context.Background(), "2025-12-30")
	require.NoError(t, err)
	_, err = svc.TopItems(context.Background(), "2025-12-30", 10)
	require.NoError(t, err)
	require.Equal(t, 1, queries.dailyCalls)
	require.Equal(t, 1, queries.topCalls)
}
