package performance

import (
	"context"

	"vendor-service/internal/jobs"
	"vendor-service/internal/model"

	"gorm.io/gorm"
)

// Background task names
const (
	TaskAvgResponseTime    = "calculate_avg_response_time"
	TaskPerformanceMetrics = "calculate_performance_metrics"
)

// RegisterTasks binds both recomputation tasks to e
func RegisterTasks(reg *jobs.Registry, e *Engine) error {
	if err := reg.Register(jobs.NewHandler(TaskAvgResponseTime, func(ctx context.Context, tx *gorm.DB, job *model.JobRun) error {
		_, err := e.RecalculateResponseTime(ctx, tx, job.OrderNumber)
		return err
	})); err != nil {
		return err
	}
	return reg.Register(jobs.NewHandler(TaskPerformanceMetrics, func(ctx context.Context, tx *gorm.DB, job *model.JobRun) error {
		_, err := e.RecalculatePerformance(ctx, tx, job.OrderNumber)
		return err
	}))
}
