package analytics

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"dinerhub/internal/caching"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStatsRepo struct {
	calls      atomic.Int32
	since      atomic.Pointer[time.Time]
	revenueErr error
}

func (f *fakeStatsRepo) CountOrders(ctx context.Context, since *time.Time) (int64, error) {
	f.calls.Add(1)
	if since != nil {
		f.since.Store(since)
		return 4, nil
	}
	return 120, nil
}

func (f *fakeStatsRepo) CountOrdersByStatus(ctx context.Context, status string) (int64, error) {
	return 3, nil
}

func (f *fakeStatsRepo) Revenue(ctx context.Context) (decimal.Decimal, error) {
	if f.revenueErr != nil {
		return decimal.Zero, f.revenueErr
	}
	return decimal.RequireFromString("1234567.5"), nil
}

func (f *fakeStatsRepo) CountTables(ctx context.Context, status *string) (int64, error) {
	if status != nil {
		return 2, nil
	}
	return 10, nil
}

func (f *fakeStatsRepo) CountUsers(ctx context.Context) (int64, error) {
	return 57, nil
}

func newService(t *testing.T, repo *fakeStatsRepo) (*AnalyticsService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := caching.NewCacheServiceFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	svc := NewAnalyticsService(repo, cache, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC) }
	return svc, mr
}

func TestCalculate(t *testing.T) {
	repo := &fakeStatsRepo{}
	svc, _ := newService(t, repo)

	stats, err := svc.Calculate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(4), stats.OrdersToday)
	assert.Equal(t, int64(120), stats.TotalOrders)
	assert.Equal(t, int64(3), stats.PendingOrders)
	assert.Equal(t, "1234567.50", stats.Revenue)
	assert.Equal(t, int64(2), stats.OccupiedTables)
	assert.Equal(t, int64(10), stats.TotalTables)
	assert.Equal(t, int64(57), stats.TotalUsers)
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), *repo.since.Load())
}

func TestCalculate_PropagatesErrors(t *testing.T) {
	svc, _ := newService(t, &fakeStatsRepo{revenueErr: errors.New("db down")})

	_, err := svc.Calculate(context.Background())
	assert.ErrorContains(t, err, "db down")
}

func TestDashboardStats_ServedFromCache(t *testing.T) {
	repo := &fakeStatsRepo{}
	svc, mr := newService(t, repo)
	ctx := context.Background()

	first, err := svc.DashboardStats(ctx)
	require.NoError(t, err)
	second, err := svc.DashboardStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, first.TotalOrders, second.TotalOrders)
	assert.Equal(t, int32(2), repo.calls.Load(), "second read should not hit the repository")

	mr.FastForward(StatsTTL + time.Second)
	_, err = svc.DashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(4), repo.calls.Load())
}
