package analytics

import (
	"context"
	"log/slog"
	"time"

	"dinerhub/internal/caching"
	"dinerhub/internal/models"
	"dinerhub/internal/repositories"

	"golang.org/x/sync/errgroup"
)

// StatsTTL is how long a computed dashboard stays cached.
const StatsTTL = time.Minute

// AnalyticsService computes and caches the admin dashboard
type AnalyticsService struct {
	statsRepo    repositories.StatsRepository
	cacheService caching.CacheService
	logger       *slog.Logger
	now          func() time.Time
}

func NewAnalyticsService(statsRepo repositories.StatsRepository, cacheService caching.CacheService, logger *slog.Logger) *AnalyticsService {
	return &AnalyticsService{
		statsRepo:    statsRepo,
		cacheService: cacheService,
		logger:       logger,
		now:          time.Now,
	}
}

// DashboardStats serves the cached dashboard, computing it on a miss.
func (a *AnalyticsService) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	cached, err := a.cacheService.GetStats(ctx)
	if err != nil {
		a.logger.Warn("stats cache read failed", "error", err)
	}
	if cached != nil {
		return cached, nil
	}
	return a.Refresh(ctx)
}

// Refresh recomputes the dashboard and stores it in the cache.
func (a *AnalyticsService) Refresh(ctx context.Context) (*models.DashboardStats, error) {
	stats, err := a.Calculate(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.cacheService.SetStats(ctx, stats, StatsTTL); err != nil {
		a.logger.Warn("failed to cache stats", "error", err)
	}
	return stats, nil
}

// Calculate runs every aggregate concurrently.
func (a *AnalyticsService) Calculate(ctx context.Context) (*models.DashboardStats, error) {
	now := a.now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	occupied := string(models.TableStatusOccupied)
	stats := &models.DashboardStats{GeneratedAt: now}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.OrdersToday, err = a.statsRepo.CountOrders(gctx, &startOfDay)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalOrders, err = a.statsRepo.CountOrders(gctx, nil)
		return err
	})
	g.Go(func() (err error) {
		stats.PendingOrders, err = a.statsRepo.CountOrdersByStatus(gctx, string(models.OrderStatusPendingConfirmation))
		return err
	})
	g.Go(func() error {
		revenue, err := a.statsRepo.Revenue(gctx)
		if err != nil {
			return err
		}
		stats.Revenue = revenue.StringFixed(2)
		return nil
	})
	g.Go(func() (err error) {
		stats.OccupiedTables, err = a.statsRepo.CountTables(gctx, &occupied)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalTables, err = a.statsRepo.CountTables(gctx, nil)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalUsers, err = a.statsRepo.CountUsers(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}
