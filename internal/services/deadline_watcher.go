package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// WatcherConfig controls how often deadlines are scanned and how far ahead
// a deadline counts as approaching.
type WatcherConfig struct {
	Interval time.Duration
	Window   time.Duration
}

// ScanResult lists the open tasks found by one scan.
type ScanResult struct {
	Approaching []*domain.Task
	Overdue     []*domain.Task
}

// DeadlineWatcher periodically reports open tasks whose deadline is close or
// already passed.
type DeadlineWatcher struct {
	tasks   repository.TaskRepository
	monitor ConnectionHealth
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     WatcherConfig
	now     func() time.Time
}

func NewDeadlineWatcher(
	tasks repository.TaskRepository,
	monitor ConnectionHealth,
	logger *zap.Logger,
	cfg WatcherConfig,
) *DeadlineWatcher {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Minute
	}
	if cfg.Window <= 0 {
		cfg.Window = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &DeadlineWatcher{
		tasks:   tasks,
		monitor: monitor,
		logger:  logger.With(zap.String("component", "deadline_watcher")),
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
		now:     time.Now,
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = w.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if _, err := w.Scan(ctx); err != nil {
			w.logger.Error("deadline scan failed", zap.Error(err))
		}
	})

	return w
}

// Start launches the cron scheduler.
func (w *DeadlineWatcher) Start() {
	if w == nil || w.cron == nil {
		return
	}
	w.cron.Start()
	w.logger.Info("deadline watcher started",
		zap.Duration("interval", w.cfg.Interval),
		zap.Duration("window", w.cfg.Window))
}

// Stop waits for a running scan to finish or ctx to expire.
func (w *DeadlineWatcher) Stop(ctx context.Context) {
	if w == nil || w.cron == nil {
		return
	}
	stopCtx := w.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	w.logger.Info("deadline watcher stopped")
}

// Scan runs one pass synchronously. Completed tasks are never reported.
func (w *DeadlineWatcher) Scan(ctx context.Context) (ScanResult, error) {
	var result ScanResult
	if w == nil || w.tasks == nil {
		return result, nil
	}
	if w.monitor != nil && !w.monitor.IsOnline() {
		w.logger.Debug("skipping deadline scan (storage offline)")
		return result, nil
	}

	now := w.now()
	overdue, err := w.tasks.FindOverdue(ctx, now)
	if err != nil {
		return result, fmt.Errorf("find overdue tasks: %w", err)
	}
	result.Overdue = overdue

	all, err := w.tasks.FindAll(ctx)
	if err != nil {
		return result, fmt.Errorf("list tasks: %w", err)
	}
	for _, task := range all {
		if task.IsDeadlineApproaching(now, w.cfg.Window) {
			result.Approaching = append(result.Approaching, task)
		}
	}

	for _, task := range result.Overdue {
		w.logger.Warn("task overdue",
			zap.String("task_id", task.ID.String()),
			zap.String("title", task.Title),
			zap.Time("deadline", task.Deadline))
	}
	for _, task := range result.Approaching {
		w.logger.Warn("task deadline approaching",
			zap.String("task_id", task.ID.String()),
			zap.String("title", task.Title),
			zap.Duration("remaining", task.Deadline.Sub(now)))
	}
	if len(result.Overdue)+len(result.Approaching) > 0 {
		w.logger.Info("deadline scan finished",
			zap.Int("overdue", len(result.Overdue)),
			zap.Int("approaching", len(result.Approaching)))
	}
	return result, nil
}
