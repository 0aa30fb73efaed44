package repository

import (
	"context"
	"errors"
	"time"

	"vendor-service/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JobRunRepo is the durable queue behind the background job runner
type JobRunRepo struct {
	db *gorm.DB
}

// NewJobRunRepo creates a job store on top of db
func NewJobRunRepo(db *gorm.DB) *JobRunRepo {
	return &JobRunRepo{db: db}
}

func (r *JobRunRepo) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx)
}

// Create inserts a queued job. Pass the caller's transaction to make the job
// visible only if that transaction commits.
func (r *JobRunRepo) Create(ctx context.Context, tx *gorm.DB, job *model.JobRun) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = model.JobStatusQueued
	}
	return r.conn(ctx, tx).Create(job).Error
}

// GetByID returns a job run
func (r *JobRunRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*model.JobRun, error) {
	var job model.JobRun
	if err := r.conn(ctx, tx).Where("id = ?", id).First(&job).Error; err != nil {
		return nil, translate(err)
	}
	return &job, nil
}

// ErrJobAbandoned is recorded on jobs whose stale lock was found after their
// last allowed attempt.
var ErrJobAbandoned = errors.New("job abandoned: lock went stale on final attempt")

// ClaimNextRunnable atomically picks the oldest runnable job and marks it running.
// Runnable means queued, or failed or stale-running with attempts left and, for
// failed jobs, past the retry delay. Stale-running jobs without attempts left
// are moved to failed. It returns nil when nothing is runnable.
func (r *JobRunRepo) ClaimNextRunnable(ctx context.Context, maxAttempts int, retryDelay, staleAfter time.Duration) (*model.JobRun, error) {
	now := time.Now()
	retryCutoff := now.Add(-retryDelay)
	staleCutoff := now.Add(-staleAfter)

	var claimed *model.JobRun
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.JobRun{}).
			Where("status = ? AND locked_at IS NOT NULL AND locked_at < ? AND attempts >= ?",
				model.JobStatusRunning, staleCutoff, maxAttempts).
			Updates(map[string]interface{}{
				"status":        model.JobStatusFailed,
				"last_error":    ErrJobAbandoned.Error(),
				"last_error_at": now,
				"updated_at":    now,
			}).Error
		if err != nil {
			return err
		}

		var job model.JobRun
		err = tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where(`
				status = ?
				OR (status = ? AND attempts < ? AND (last_error_at IS NULL OR last_error_at < ?))
				OR (status = ? AND attempts < ? AND locked_at IS NOT NULL AND locked_at < ?)
			`, model.JobStatusQueued,
				model.JobStatusFailed, maxAttempts, retryCutoff,
				model.JobStatusRunning, maxAttempts, staleCutoff).
			Order("created_at ASC").
			First(&job).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		err = tx.Model(&model.JobRun{}).
			Where("id = ?", job.ID).
			Updates(map[string]interface{}{
				"status":     model.JobStatusRunning,
				"attempts":   gorm.Expr("attempts + 1"),
				"locked_at":  now,
				"updated_at": now,
			}).Error
		if err != nil {
			return err
		}

		job.Status = model.JobStatusRunning
		job.Attempts++
		job.LockedAt = &now
		claimed = &job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// MarkSucceeded flips a job to succeeded inside tx. It reports false when the
// job had already succeeded, in which case the caller must not apply it again.
func (r *JobRunRepo) MarkSucceeded(ctx context.Context, tx *gorm.DB, id string) (bool, error) {
	now := time.Now()
	res := r.conn(ctx, tx).
		Model(&model.JobRun{}).
		Where("id = ? AND status <> ?", id, model.JobStatusSucceeded).
		Updates(map[string]interface{}{
			"status":      model.JobStatusSucceeded,
			"finished_at": now,
			"updated_at":  now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkFailed records a failed attempt so the job becomes eligible for retry
func (r *JobRunRepo) MarkFailed(ctx context.Context, tx *gorm.DB, id string, cause error) error {
	now := time.Now()
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return r.conn(ctx, tx).
		Model(&model.JobRun{}).
		Where("id = ? AND status <> ?", id, model.JobStatusSucceeded).
		Updates(map[string]interface{}{
			"status":        model.JobStatusFailed,
			"last_error":    msg,
			"last_error_at": now,
			"updated_at":    now,
		}).Error
}

// CountByStatus returns how many jobs are in the given status
func (r *JobRunRepo) CountByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.JobRun{}).Where("status = ?", status).Count(&n).Error
	return n, err
}
