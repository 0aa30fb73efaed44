package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"vendor-service/internal/model"
	"vendor-service/internal/testutil"
)

func TestClaimNextRunnableLifecycle(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	repo := NewJobRunRepo(db)

	job := &model.JobRun{TaskName: "task", OrderNumber: "po-1"}
	if err := repo.Create(ctx, nil, job); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if job.ID == "" || job.Status != model.JobStatusQueued {
		t.Fatalf("job not queued: %+v", job)
	}

	claimed, err := repo.ClaimNextRunnable(ctx, 2, time.Hour, time.Hour)
	if err != nil || claimed == nil {
		t.Fatalf("first claim = %v, %v", claimed, err)
	}
	if claimed.Status != model.JobStatusRunning || claimed.Attempts != 1 {
		t.Errorf("claimed job %+v, want running with 1 attempt", claimed)
	}

	if again, err := repo.ClaimNextRunnable(ctx, 2, time.Hour, time.Hour); err != nil || again != nil {
		t.Fatalf("running job claimed twice: %v, %v", again, err)
	}

	if err := repo.MarkFailed(ctx, nil, job.ID, errors.New("boom")); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	if got, _ := repo.ClaimNextRunnable(ctx, 2, time.Hour, time.Hour); got != nil {
		t.Fatal("failed job retried before its retry delay")
	}

	retried, err := repo.ClaimNextRunnable(ctx, 2, 0, time.Hour)
	if err != nil || retried == nil {
		t.Fatalf("retry claim = %v, %v", retried, err)
	}
	if retried.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", retried.Attempts)
	}

	if err := repo.MarkFailed(ctx, nil, job.ID, errors.New("boom")); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	if got, _ := repo.ClaimNextRunnable(ctx, 2, 0, time.Hour); got != nil {
		t.Fatal("job claimed after exhausting its attempts")
	}

	stored, err := repo.GetByID(ctx, nil, job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.LastError != "boom" || stored.LastErrorAt == nil {
		t.Errorf("failure not recorded: %+v", stored)
	}
}

func TestClaimNextRunnableReclaimsStaleJobs(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	repo := NewJobRunRepo(db)

	job := &model.JobRun{TaskName: "task", OrderNumber: "po-1"}
	if err := repo.Create(ctx, nil, job); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.ClaimNextRunnable(ctx, 5, time.Hour, time.Hour); err != nil {
		t.Fatalf("claim: %v", err)
	}

	old := time.Now().Add(-2 * time.Hour)
	if err := db.Model(&model.JobRun{}).Where("id = ?", job.ID).Update("locked_at", old).Error; err != nil {
		t.Fatalf("age lock: %v", err)
	}

	reclaimed, err := repo.ClaimNextRunnable(ctx, 5, time.Hour, time.Hour)
	if err != nil || reclaimed == nil {
		t.Fatalf("stale job not reclaimed: %v, %v", reclaimed, err)
	}
	if reclaimed.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", reclaimed.Attempts)
	}
}

func TestClaimNextRunnableAbandonsExhaustedStaleJobs(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	repo := NewJobRunRepo(db)

	old := time.Now().Add(-time.Hour)
	job := &model.JobRun{TaskName: "task", OrderNumber: "po-1"}
	if err := repo.Create(ctx, nil, job); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := db.Model(&model.JobRun{}).Where("id = ?", job.ID).Updates(map[string]interface{}{
		"status":    model.JobStatusRunning,
		"attempts":  5,
		"locked_at": old,
	}).Error
	if err != nil {
		t.Fatalf("exhaust job: %v", err)
	}

	claimed, err := repo.ClaimNextRunnable(ctx, 5, time.Second, time.Minute)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed != nil {
		t.Fatalf("reclaimed job with attempts=%d despite maxAttempts=5", claimed.Attempts)
	}

	got, err := repo.GetByID(ctx, nil, job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != model.JobStatusFailed || got.Attempts != 5 {
		t.Errorf("job = status %q attempts %d, want failed with 5", got.Status, got.Attempts)
	}
	if got.LastError != ErrJobAbandoned.Error() || got.LastErrorAt == nil {
		t.Errorf("LastError = %q, LastErrorAt = %v", got.LastError, got.LastErrorAt)
	}

	again, err := repo.ClaimNextRunnable(ctx, 5, 0, time.Minute)
	if err != nil || again != nil {
		t.Errorf("abandoned job claimed again: %v, %v", again, err)
	}
}

func TestMarkSucceededOnce(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	repo := NewJobRunRepo(db)

	job := &model.JobRun{TaskName: "task", OrderNumber: "po-1"}
	if err := repo.Create(ctx, nil, job); err != nil {
		t.Fatalf("Create: %v", err)
	}

	first, err := repo.MarkSucceeded(ctx, nil, job.ID)
	if err != nil || !first {
		t.Fatalf("first MarkSucceeded = %v, %v", first, err)
	}
	second, err := repo.MarkSucceeded(ctx, nil, job.ID)
	if err != nil || second {
		t.Fatalf("second MarkSucceeded = %v, %v; want false", second, err)
	}

	n, err := repo.CountByStatus(ctx, model.JobStatusSucceeded)
	if err != nil || n != 1 {
		t.Errorf("CountByStatus = %d, %v", n, err)
	}
}
