package jobs

import (
	"context"
	"fmt"
	"time"

	"vendor-service/internal/model"
	"vendor-service/internal/repository"
	"vendor-service/pkg/config"
	"vendor-service/pkg/logger"
	"vendor-service/prometheus"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Job run outcomes as recorded in metrics
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeDuplicate = "duplicate"
)

// Worker claims jobs from the queue and executes them with at-least-once
// delivery. A job's handler and its succeeded mark commit together, so a job
// that is delivered twice is applied once.
type Worker struct {
	db       *gorm.DB
	jobs     *repository.JobRunRepo
	registry *Registry
	notifier Notifier
	cfg      config.WorkerConfig
	log      *zap.Logger
}

// NewWorker creates a worker pool. notifier may be nil.
func NewWorker(db *gorm.DB, jobs *repository.JobRunRepo, registry *Registry, notifier Notifier, cfg config.WorkerConfig, log *zap.Logger) *Worker {
	return &Worker{
		db:       db,
		jobs:     jobs,
		registry: registry,
		notifier: notifier,
		cfg:      cfg,
		log:      log.With(zap.String("component", "job_worker")),
	}
}

// Run starts cfg.Concurrency polling loops and blocks until ctx is cancelled
func (w *Worker) Run(ctx context.Context) error {
	n := w.cfg.Concurrency
	if n < 1 {
		n = 1
	}
	w.log.Info("Starting job workers",
		zap.Int("concurrency", n),
		zap.Duration("poll_interval", w.cfg.PollInterval))

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		slot := i
		g.Go(func() error {
			w.loop(ctx, slot)
			return nil
		})
	}
	err := g.Wait()
	w.log.Info("Job workers stopped")
	return err
}

func (w *Worker) loop(ctx context.Context, slot int) {
	log := w.log.With(zap.Int("slot", slot))
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	var wake <-chan struct{}
	if w.notifier != nil {
		wake = w.notifier.Wakeups()
	}

	for {
		for ctx.Err() == nil {
			claimed, err := w.ProcessNext(ctx)
			if err != nil {
				log.Error("Failed to claim job", zap.Error(err))
				break
			}
			if !claimed {
				break
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-wake:
		}
	}
}

// ProcessNext claims one runnable job and executes it. It reports whether a
// job was claimed; handler failures are recorded on the job, not returned.
func (w *Worker) ProcessNext(ctx context.Context) (bool, error) {
	job, err := w.jobs.ClaimNextRunnable(ctx, w.cfg.MaxAttempts, w.cfg.RetryDelay, w.cfg.StaleAfter)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}

	log := w.log.With(
		zap.String("job_id", job.ID),
		zap.String("task", job.TaskName),
		zap.String("order_number", job.OrderNumber),
		zap.Int("attempt", job.Attempts))

	start := time.Now()
	applied, err := w.execute(logger.WithLogger(ctx, log), job)
	duration := time.Since(start)

	switch {
	case err != nil:
		if markErr := w.jobs.MarkFailed(ctx, nil, job.ID, err); markErr != nil {
			log.Error("Failed to record job failure", zap.Error(markErr))
		}
		log.Error("Job failed", zap.Error(err), zap.Duration("duration", duration))
		prometheus.RecordJobRun(job.TaskName, OutcomeFailed, duration)
	case !applied:
		log.Warn("Job already applied, skipping duplicate delivery")
		prometheus.RecordJobRun(job.TaskName, OutcomeDuplicate, duration)
	default:
		log.Info("Job succeeded", zap.Duration("duration", duration))
		prometheus.RecordJobRun(job.TaskName, OutcomeSucceeded, duration)
	}
	return true, nil
}

// Drain processes jobs until none is runnable and returns how many were claimed
func (w *Worker) Drain(ctx context.Context) (int, error) {
	n := 0
	for ctx.Err() == nil {
		claimed, err := w.ProcessNext(ctx)
		if err != nil {
			return n, err
		}
		if !claimed {
			break
		}
		n++
	}
	return n, ctx.Err()
}

// execute runs the handler and marks the job succeeded in one transaction. It
// reports false when another delivery of the same job already committed.
func (w *Worker) execute(ctx context.Context, job *model.JobRun) (applied bool, err error) {
	h, ok := w.registry.Get(job.TaskName)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrNoHandler, job.TaskName)
	}

	err = w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fresh, err := w.jobs.MarkSucceeded(ctx, tx, job.ID)
		if err != nil {
			return err
		}
		if !fresh {
			return nil
		}
		if err := runHandler(ctx, tx, h, job); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func runHandler(ctx context.Context, tx *gorm.DB, h Handler, job *model.JobRun) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler %s panicked: %v", h.Type(), r)
		}
	}()
	return h.Run(ctx, tx, job)
}
