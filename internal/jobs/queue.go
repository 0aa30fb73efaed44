package jobs

import (
	"context"

	"vendor-service/internal/model"
	"vendor-service/internal/repository"
	"vendor-service/prometheus"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Queue writes jobs for the worker pool
type Queue struct {
	jobs     *repository.JobRunRepo
	notifier Notifier
	log      *zap.Logger
}

// NewQueue creates a queue. notifier may be nil, in which case workers only poll.
func NewQueue(jobs *repository.JobRunRepo, notifier Notifier, log *zap.Logger) *Queue {
	return &Queue{jobs: jobs, notifier: notifier, log: log}
}

// Enqueue inserts a queued job for task and order number inside tx and
// returns its id. The job becomes visible to workers when tx commits.
func (q *Queue) Enqueue(ctx context.Context, tx *gorm.DB, task, orderNumber string) (string, error) {
	job := &model.JobRun{TaskName: task, OrderNumber: orderNumber}
	if err := q.jobs.Create(ctx, tx, job); err != nil {
		return "", err
	}
	prometheus.RecordJobEnqueued(task)
	return job.ID, nil
}

// Wake tells idle workers that a job was committed. Failures only cost the
// poll interval, so they are logged and dropped.
func (q *Queue) Wake(ctx context.Context, jobID string) {
	if q.notifier == nil {
		return
	}
	if err := q.notifier.Notify(ctx, jobID); err != nil {
		q.log.Warn("Failed to notify workers", zap.String("job_id", jobID), zap.Error(err))
	}
}
