package model

import "time"

// Job run statuses
const (
	JobStatusQueued    = "queued"
	JobStatusRunning   = "running"
	JobStatusSucceeded = "succeeded"
	JobStatusFailed    = "failed"
)

// JobRun is one queued background task execution
type JobRun struct {
	ID          string     `json:"id" gorm:"type:varchar(36);primaryKey"`
	TaskName    string     `json:"task_name" gorm:"type:varchar(64);not null;index"`
	OrderNumber string     `json:"order_number" gorm:"type:varchar(36);not null;index"`
	Status      string     `json:"status" gorm:"type:varchar(20);not null;index"`
	Attempts    int        `json:"attempts" gorm:"not null;default:0"`
	LastError   string     `json:"last_error,omitempty" gorm:"type:text"`
	LastErrorAt *time.Time `json:"last_error_at,omitempty"`
	LockedAt    *time.Time `json:"locked_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
