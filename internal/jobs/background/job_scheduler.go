package background

import (
	"context"
	"fmt"
	"sync"
	"time"

	"heartgram/pkg/logger"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// EventCompleter marks past events as completed
type EventCompleter interface {
	CompletePast(ctx context.Context, cutoff time.Time) (int64, error)
}

// StatsRefresher recomputes cached dashboard statistics
type StatsRefresher interface {
	RefreshPlatformStats(ctx context.Context) error
}

// Config controls the completion sweep
type Config struct {
	Interval time.Duration
	Grace    time.Duration
}

// JobScheduler runs housekeeping jobs. Request handling never depends on it.
type JobScheduler struct {
	scheduler gocron.Scheduler
	events    EventCompleter
	stats     StatsRefresher
	cfg       Config
	log       *logger.Logger
	now       func() time.Time
	jobs      map[string]gocron.Job
	mu        sync.RWMutex
}

// NewJobScheduler creates a scheduler with the completion sweep registered
func NewJobScheduler(events EventCompleter, stats StatsRefresher, cfg Config, log *logger.Logger) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	js := &JobScheduler{
		scheduler: scheduler,
		events:    events,
		stats:     stats,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
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
	js.log.Info("Starting background job scheduler", zap.Int("jobs", js.JobCount()))
	js.scheduler.Start()
}

// Stop stops the job scheduler and waits for running jobs
func (js *JobScheduler) Stop() error {
	js.log.Info("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

// JobCount reports the number of registered jobs
func (js *JobScheduler) JobCount() int {
	js.mu.RLock()
	defer js.mu.RUnlock()
	return len(js.jobs)
}

func (js *JobScheduler) registerJobs() error {
	sweepJob, err := js.scheduler.NewJob(
		gocron.DurationJob(js.cfg.Interval),
		gocron.NewTask(js.runSweep),
		gocron.WithName("event-completion-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create completion sweep job: %w", err)
	}

	js.mu.Lock()
	js.jobs["completion-sweep"] = sweepJob
	js.mu.Unlock()
	return nil
}

func (js *JobScheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := js.CompleteFinishedEvents(ctx); err != nil {
		js.log.Error("Event completion sweep failed", zap.Error(err))
	}
}

// CompleteFinishedEvents marks active events whose date plus the grace period
// has passed as completed, then refreshes dashboard statistics when anything changed.
func (js *JobScheduler) CompleteFinishedEvents(ctx context.Context) (int64, error) {
	cutoff := js.now().Add(-js.cfg.Grace)
	completed, err := js.events.CompletePast(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if completed > 0 {
		js.log.Info("Events marked completed", zap.Int64("count", completed), zap.Time("cutoff", cutoff))
		if js.stats != nil {
			if err := js.stats.RefreshPlatformStats(ctx); err != nil {
				js.log.Warn("Failed to refresh platform stats after sweep", zap.Error(err))
			}
		}
	}
	return completed, nil
}
