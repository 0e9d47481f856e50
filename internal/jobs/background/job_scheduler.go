package background

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"dinerhub/internal/config"
	"dinerhub/internal/logger"
	"dinerhub/internal/models"

	"github.com/go-co-op/gocron/v2"
)

// StatsRefresher recomputes the cached dashboard.
type StatsRefresher interface {
	Refresh(ctx context.Context) (*models.DashboardStats, error)
}

// NoShowMarker closes reservations whose guests never arrived.
type NoShowMarker interface {
	MarkNoShows(ctx context.Context, grace time.Duration) (int64, error)
}

// JobScheduler runs the periodic maintenance jobs
type JobScheduler struct {
	scheduler    gocron.Scheduler
	stats        StatsRefresher
	reservations NoShowMarker
	cfg          config.JobsConfig
	logger       *slog.Logger
	jobs      map[string]gocron.Job
	mu           sync.RWMutex
}

// NewJobScheduler creates a new job scheduler
func NewJobScheduler(stats StatsRefresher, reservations NoShowMarker, cfg config.JobsConfig, logger *slog.Logger) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	js := &JobScheduler{
		scheduler:    scheduler,
		stats:        stats,
		reservations: reservations,
		cfg:          cfg,
		logger:       logger,
		jobs:      make(map[string]gocron.Job),
	}
	if err := js.registerJobs(); err != nil {
		_ = scheduler.Shutdown()
		return nil, err
	}
	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	js.logger.Info("starting background job scheduler", "jobs", len(js.jobs))
	js.scheduler.Start()
}

// Stop waits for running jobs and stops the scheduler
func (js *JobScheduler) Stop() error {
	js.logger.Info("stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() error {
	if err := js.add("reservation-no-shows", js.cfg.NoShowInterval, js.markNoShows); err != nil {
		return err
	}
	return js.add("dashboard-stats-refresh", js.cfg.StatsInterval, js.refreshStats)
}

func (js *JobScheduler) add(name string, interval time.Duration, task func(context.Context) error) error {
	log := logger.Action(js.logger, name)
	job, err := js.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()
			start := time.Now()
			if err := task(ctx); err != nil {
				log.Error("background job failed", "error", err)
				return
			}
			log.Debug("background job finished", "took", time.Since(start))
		}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("create %s job: %w", name, err)
	}

	js.mu.Lock()
	js.jobs[name] = job
	js.mu.Unlock()
	return nil
}

func (js *JobScheduler) markNoShows(ctx context.Context) error {
	_, err := js.reservations.MarkNoShows(ctx, js.cfg.NoShowGrace)
	return err
}

func (js *JobScheduler) refreshStats(ctx context.Context) error {
	_, err := js.stats.Refresh(ctx)
	return err
}

// JobNames lists the registered jobs, sorted.
func (js *JobScheduler) JobNames() []string {
	js.mu.RLock()
	defer js.mu.RUnlock()

	names := make([]string, 0, len(js.jobs))
	for name := range js.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
